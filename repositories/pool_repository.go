package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ianstrang2/matchday-system/models"
	"github.com/lib/pq"
)

var (
	ErrPoolEntryNotFound = errors.New("pool entry not found")
	ErrPoolEntryConflict = errors.New("player is already in the match pool")
)

type PoolRepository interface {
	Add(ctx context.Context, exec SQLExecutor, tenantID int, entry *models.PoolEntry) error
	Remove(ctx context.Context, exec SQLExecutor, tenantID, matchID, playerID int) error
	ListByMatch(ctx context.Context, exec SQLExecutor, tenantID, matchID int) ([]models.PoolEntry, error)
	// Replace deletes every pool entry for the match and inserts one fresh
	// unassigned entry per player id. Callers run it inside the tenant lock's
	// transaction so a failed insert leaves no partial pool.
	Replace(ctx context.Context, exec SQLExecutor, tenantID, matchID int, playerIDs []int) error
	// AssignTeams writes the balancer's placement (team + slot number) onto
	// the match's pool entries.
	AssignTeams(ctx context.Context, exec SQLExecutor, tenantID, matchID int, slots []models.SlotAssignment) error
}

type postgresPoolRepository struct {
	db *sql.DB
}

func NewPostgresPoolRepository(db *sql.DB) PoolRepository {
	return &postgresPoolRepository{db: db}
}

func (r *postgresPoolRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresPoolRepository) Add(ctx context.Context, exec SQLExecutor, tenantID int, entry *models.PoolEntry) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO pool_entries (tenant_id, match_id, player_id, team)
		VALUES ($1, $2, $3, $4)`

	_, err := executor.ExecContext(ctx, query, tenantID, entry.MatchID, entry.PlayerID, models.TeamUnassigned)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return ErrPoolEntryConflict
		}
		return fmt.Errorf("failed to add player %d to pool of match %d: %w", entry.PlayerID, entry.MatchID, err)
	}
	entry.Team = models.TeamUnassigned
	return nil
}

func (r *postgresPoolRepository) Remove(ctx context.Context, exec SQLExecutor, tenantID, matchID, playerID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM pool_entries WHERE tenant_id = $1 AND match_id = $2 AND player_id = $3`

	result, err := executor.ExecContext(ctx, query, tenantID, matchID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove player %d from pool of match %d: %w", playerID, matchID, err)
	}
	return checkAffectedRows(result, ErrPoolEntryNotFound)
}

func (r *postgresPoolRepository) ListByMatch(ctx context.Context, exec SQLExecutor, tenantID, matchID int) ([]models.PoolEntry, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT match_id, player_id, team, slot_number
		FROM pool_entries
		WHERE tenant_id = $1 AND match_id = $2
		ORDER BY player_id`

	rows, err := executor.QueryContext(ctx, query, tenantID, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pool for match %d: %w", matchID, err)
	}
	defer rows.Close()

	entries := make([]models.PoolEntry, 0)
	for rows.Next() {
		var entry models.PoolEntry
		if err := rows.Scan(&entry.MatchID, &entry.PlayerID, &entry.Team, &entry.SlotNumber); err != nil {
			return nil, fmt.Errorf("failed to scan pool entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *postgresPoolRepository) Replace(ctx context.Context, exec SQLExecutor, tenantID, matchID int, playerIDs []int) error {
	executor := r.getExecutor(exec)

	if _, err := executor.ExecContext(ctx,
		`DELETE FROM pool_entries WHERE tenant_id = $1 AND match_id = $2`, tenantID, matchID); err != nil {
		return fmt.Errorf("failed to clear pool for match %d: %w", matchID, err)
	}

	query := `INSERT INTO pool_entries (tenant_id, match_id, player_id, team) VALUES ($1, $2, $3, $4)`
	for _, playerID := range playerIDs {
		if _, err := executor.ExecContext(ctx, query, tenantID, matchID, playerID, models.TeamUnassigned); err != nil {
			return fmt.Errorf("failed to insert pool entry for player %d: %w", playerID, err)
		}
	}
	return nil
}

func (r *postgresPoolRepository) AssignTeams(ctx context.Context, exec SQLExecutor, tenantID, matchID int, slots []models.SlotAssignment) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE pool_entries SET team = $1, slot_number = $2
		WHERE tenant_id = $3 AND match_id = $4 AND player_id = $5`

	for _, slot := range slots {
		if slot.PlayerID == nil {
			continue
		}
		result, err := executor.ExecContext(ctx, query, slot.Team, slot.SlotNumber, tenantID, matchID, *slot.PlayerID)
		if err != nil {
			return fmt.Errorf("failed to assign player %d to slot %d: %w", *slot.PlayerID, slot.SlotNumber, err)
		}
		if err := checkAffectedRows(result, ErrPoolEntryNotFound); err != nil {
			return fmt.Errorf("slot %d references player %d outside the pool: %w", slot.SlotNumber, *slot.PlayerID, err)
		}
	}
	return nil
}
