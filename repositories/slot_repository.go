package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ianstrang2/matchday-system/models"
)

type SlotRepository interface {
	// SeedEmpty recreates the match's slot rows: slots 1..sizeA on team A and
	// sizeA+1..sizeA+sizeB on team B, all without a player.
	SeedEmpty(ctx context.Context, exec SQLExecutor, tenantID, matchID, sizeA, sizeB int) error
	// ReplaceAssignments overwrites every slot row with the balancer's result.
	ReplaceAssignments(ctx context.Context, exec SQLExecutor, tenantID, matchID int, slots []models.SlotAssignment) error
	ListByMatch(ctx context.Context, exec SQLExecutor, tenantID, matchID int) ([]models.SlotAssignment, error)
	DeleteByMatch(ctx context.Context, exec SQLExecutor, tenantID, matchID int) error
}

type postgresSlotRepository struct {
	db *sql.DB
}

func NewPostgresSlotRepository(db *sql.DB) SlotRepository {
	return &postgresSlotRepository{db: db}
}

func (r *postgresSlotRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSlotRepository) SeedEmpty(ctx context.Context, exec SQLExecutor, tenantID, matchID, sizeA, sizeB int) error {
	executor := r.getExecutor(exec)

	if err := r.DeleteByMatch(ctx, executor, tenantID, matchID); err != nil {
		return err
	}

	query := `INSERT INTO match_slots (tenant_id, match_id, slot_number, team) VALUES ($1, $2, $3, $4)`
	for slot := 1; slot <= sizeA+sizeB; slot++ {
		team := models.TeamA
		if slot > sizeA {
			team = models.TeamB
		}
		if _, err := executor.ExecContext(ctx, query, tenantID, matchID, slot, team); err != nil {
			return fmt.Errorf("failed to seed slot %d for match %d: %w", slot, matchID, err)
		}
	}
	return nil
}

func (r *postgresSlotRepository) ReplaceAssignments(ctx context.Context, exec SQLExecutor, tenantID, matchID int, slots []models.SlotAssignment) error {
	executor := r.getExecutor(exec)

	if err := r.DeleteByMatch(ctx, executor, tenantID, matchID); err != nil {
		return err
	}

	query := `INSERT INTO match_slots (tenant_id, match_id, slot_number, team, player_id) VALUES ($1, $2, $3, $4, $5)`
	for _, slot := range slots {
		if _, err := executor.ExecContext(ctx, query, tenantID, matchID, slot.SlotNumber, slot.Team, slot.PlayerID); err != nil {
			return fmt.Errorf("failed to write slot %d for match %d: %w", slot.SlotNumber, matchID, err)
		}
	}
	return nil
}

func (r *postgresSlotRepository) ListByMatch(ctx context.Context, exec SQLExecutor, tenantID, matchID int) ([]models.SlotAssignment, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT match_id, slot_number, team, player_id
		FROM match_slots
		WHERE tenant_id = $1 AND match_id = $2
		ORDER BY slot_number`

	rows, err := executor.QueryContext(ctx, query, tenantID, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for match %d: %w", matchID, err)
	}
	defer rows.Close()

	slots := make([]models.SlotAssignment, 0)
	for rows.Next() {
		var slot models.SlotAssignment
		if err := rows.Scan(&slot.MatchID, &slot.SlotNumber, &slot.Team, &slot.PlayerID); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (r *postgresSlotRepository) DeleteByMatch(ctx context.Context, exec SQLExecutor, tenantID, matchID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`DELETE FROM match_slots WHERE tenant_id = $1 AND match_id = $2`, tenantID, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete slots for match %d: %w", matchID, err)
	}
	return nil
}
