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
	ErrCompletedMatchNotFound = errors.New("completed match not found")
	ErrCompletedMatchConflict = errors.New("match already has a historical record")
)

type ResultRepository interface {
	// CreateWithPlayers inserts the historical header and all per-player rows.
	// Callers run it inside the tenant lock's transaction so a failed row
	// insert leaves nothing behind.
	CreateWithPlayers(ctx context.Context, exec SQLExecutor, header *models.CompletedMatch, players []models.CompletedMatchPlayer) error
	GetByMatchID(ctx context.Context, exec SQLExecutor, tenantID, matchID int) (*models.CompletedMatch, []models.CompletedMatchPlayer, error)
	DeleteByMatchID(ctx context.Context, exec SQLExecutor, tenantID, matchID int) error
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresResultRepository) CreateWithPlayers(ctx context.Context, exec SQLExecutor, header *models.CompletedMatch, players []models.CompletedMatchPlayer) error {
	executor := r.getExecutor(exec)

	query := `
		INSERT INTO completed_matches (tenant_id, match_id, score_a, score_b, own_goals_a, own_goals_b)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		header.TenantID, header.MatchID, header.ScoreA, header.ScoreB, header.OwnGoalsA, header.OwnGoalsB,
	).Scan(&header.ID, &header.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation on match_id
			return ErrCompletedMatchConflict
		}
		return fmt.Errorf("failed to create historical record for match %d: %w", header.MatchID, err)
	}

	playerQuery := `
		INSERT INTO completed_match_players
			(completed_match_id, player_id, team, actual_team, goals, result, clean_sheet, heavy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i := range players {
		players[i].CompletedMatchID = header.ID
		p := players[i]
		if _, err := executor.ExecContext(ctx, playerQuery,
			p.CompletedMatchID, p.PlayerID, p.Team, p.ActualTeam, p.Goals, p.Result, p.CleanSheet, p.Heavy,
		); err != nil {
			return fmt.Errorf("failed to write result row for player %d: %w", p.PlayerID, err)
		}
	}
	return nil
}

func (r *postgresResultRepository) GetByMatchID(ctx context.Context, exec SQLExecutor, tenantID, matchID int) (*models.CompletedMatch, []models.CompletedMatchPlayer, error) {
	executor := r.getExecutor(exec)

	header := &models.CompletedMatch{}
	err := executor.QueryRowContext(ctx, `
		SELECT id, match_id, tenant_id, score_a, score_b, own_goals_a, own_goals_b, created_at
		FROM completed_matches
		WHERE tenant_id = $1 AND match_id = $2`, tenantID, matchID,
	).Scan(&header.ID, &header.MatchID, &header.TenantID,
		&header.ScoreA, &header.ScoreB, &header.OwnGoalsA, &header.OwnGoalsB, &header.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrCompletedMatchNotFound
		}
		return nil, nil, fmt.Errorf("failed to load historical record for match %d: %w", matchID, err)
	}

	rows, err := executor.QueryContext(ctx, `
		SELECT completed_match_id, player_id, team, actual_team, goals, result, clean_sheet, heavy
		FROM completed_match_players
		WHERE completed_match_id = $1
		ORDER BY player_id`, header.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list result rows for match %d: %w", matchID, err)
	}
	defer rows.Close()

	players := make([]models.CompletedMatchPlayer, 0)
	for rows.Next() {
		var p models.CompletedMatchPlayer
		if err := rows.Scan(&p.CompletedMatchID, &p.PlayerID, &p.Team, &p.ActualTeam,
			&p.Goals, &p.Result, &p.CleanSheet, &p.Heavy); err != nil {
			return nil, nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		players = append(players, p)
	}
	return header, players, rows.Err()
}

func (r *postgresResultRepository) DeleteByMatchID(ctx context.Context, exec SQLExecutor, tenantID, matchID int) error {
	executor := r.getExecutor(exec)

	// Player rows cascade from the header via the FK.
	result, err := executor.ExecContext(ctx,
		`DELETE FROM completed_matches WHERE tenant_id = $1 AND match_id = $2`, tenantID, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete historical record for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrCompletedMatchNotFound)
}
