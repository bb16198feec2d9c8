package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ianstrang2/matchday-system/models"
)

var ErrAdminNotFound = errors.New("admin not found")

type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type postgresAdminRepository struct {
	db *sql.DB
}

func NewPostgresAdminRepository(db *sql.DB) AdminRepository {
	return &postgresAdminRepository{db: db}
}

func (r *postgresAdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `SELECT id, tenant_id, email, password_hash, created_at FROM admins WHERE email = $1`

	a := &models.Admin{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&a.ID, &a.TenantID, &a.Email, &a.PasswordHash, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to load admin by email: %w", err)
	}
	return a, nil
}
