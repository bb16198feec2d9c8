package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ianstrang2/matchday-system/models"
	"github.com/lib/pq"
)

var ErrPlayerNotFound = errors.New("player not found")

// PlayerRepository is the read-only ratings source consumed by the balancer.
// Rating maintenance happens in another system.
type PlayerRepository interface {
	GetByID(ctx context.Context, tenantID, playerID int) (*models.PlayerRatings, error)
	ListByIDs(ctx context.Context, tenantID int, playerIDs []int) ([]models.PlayerRatings, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `player_id, tenant_id, name, goalscoring, defending, stamina_pace, control, teamwork, resilience, form_goal_threat`

func (r *postgresPlayerRepository) GetByID(ctx context.Context, tenantID, playerID int) (*models.PlayerRatings, error) {
	query := `SELECT ` + playerColumns + ` FROM player_ratings WHERE tenant_id = $1 AND player_id = $2`

	p := &models.PlayerRatings{}
	err := r.db.QueryRowContext(ctx, query, tenantID, playerID).Scan(
		&p.PlayerID, &p.TenantID, &p.Name, &p.Goalscoring, &p.Defending,
		&p.StaminaPace, &p.Control, &p.Teamwork, &p.Resilience, &p.FormGoalThreat,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to load ratings for player %d: %w", playerID, err)
	}
	return p, nil
}

func (r *postgresPlayerRepository) ListByIDs(ctx context.Context, tenantID int, playerIDs []int) ([]models.PlayerRatings, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM player_ratings
		WHERE tenant_id = $1 AND player_id = ANY($2)
		ORDER BY player_id`

	rows, err := r.db.QueryContext(ctx, query, tenantID, pq.Array(playerIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list player ratings: %w", err)
	}
	defer rows.Close()

	players := make([]models.PlayerRatings, 0, len(playerIDs))
	for rows.Next() {
		var p models.PlayerRatings
		if err := rows.Scan(
			&p.PlayerID, &p.TenantID, &p.Name, &p.Goalscoring, &p.Defending,
			&p.StaminaPace, &p.Control, &p.Teamwork, &p.Resilience, &p.FormGoalThreat,
		); err != nil {
			return nil, fmt.Errorf("failed to scan player ratings: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
