package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ianstrang2/matchday-system/models"
	"github.com/lib/pq"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchInvalidTransition = errors.New("match is not in the required state for this transition")
	ErrMatchVersionConflict   = errors.New("match state version conflict")
)

// StateTransition describes one version-checked transition of the match row.
// Optional fields are applied together with the state change; nil leaves the
// column untouched. TeamsSavedAt is only written when SetTeamsSavedAt is true,
// which also allows clearing the column back to NULL.
type StateTransition struct {
	TenantID        int
	MatchID         int
	From            []models.MatchState
	ExpectedVersion int
	To              models.MatchState

	ActualSizeA     *int
	ActualSizeB     *int
	IsBalanced      *bool
	SetTeamsSavedAt bool
	TeamsSavedAt    *time.Time
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, tenantID, matchID int) (*models.Match, error)
	// Transition applies one compare-and-swap on the match row: the write
	// succeeds only if the row is in one of the source states with the
	// expected version, and bumps state_version by exactly 1. On guard
	// failure it reports ErrMatchInvalidTransition (wrong source state) or
	// ErrMatchVersionConflict (stale version) and writes nothing.
	Transition(ctx context.Context, exec SQLExecutor, t StateTransition) (*models.Match, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tenant_id, date, team_size, actual_size_a, actual_size_b, state, state_version, is_balanced, teams_saved_at, created_at`

func scanMatch(row *sql.Row) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID, &m.TenantID, &m.Date, &m.TeamSize, &m.ActualSizeA, &m.ActualSizeB,
		&m.State, &m.StateVersion, &m.IsBalanced, &m.TeamsSavedAt, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, match *models.Match) error {
	executor := r.getExecutor(nil)
	query := `
		INSERT INTO matches (tenant_id, date, team_size, state, state_version)
		VALUES ($1, $2, $3, $4, 1)
		RETURNING id, state_version, created_at`

	err := executor.QueryRowContext(ctx, query,
		match.TenantID, match.Date, match.TeamSize, models.MatchStateDraft,
	).Scan(&match.ID, &match.StateVersion, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	match.State = models.MatchStateDraft
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, tenantID, matchID int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tenant_id = $1 AND id = $2`

	m, err := scanMatch(executor.QueryRowContext(ctx, query, tenantID, matchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) Transition(ctx context.Context, exec SQLExecutor, t StateTransition) (*models.Match, error) {
	executor := r.getExecutor(exec)

	fromStates := make([]string, len(t.From))
	for i, s := range t.From {
		fromStates[i] = string(s)
	}

	query := `
		UPDATE matches SET
			state = $1,
			state_version = state_version + 1,
			actual_size_a = COALESCE($2, actual_size_a),
			actual_size_b = COALESCE($3, actual_size_b),
			is_balanced = COALESCE($4, is_balanced),
			teams_saved_at = CASE WHEN $5 THEN $6 ELSE teams_saved_at END
		WHERE tenant_id = $7 AND id = $8 AND state = ANY($9) AND state_version = $10
		RETURNING ` + matchColumns

	m, err := scanMatch(executor.QueryRowContext(ctx, query,
		t.To, t.ActualSizeA, t.ActualSizeB, t.IsBalanced, t.SetTeamsSavedAt, t.TeamsSavedAt,
		t.TenantID, t.MatchID, pq.Array(fromStates), t.ExpectedVersion,
	))
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to transition match %d to %s: %w", t.MatchID, t.To, err)
	}

	// The guarded update matched nothing. Re-read to tell the caller why.
	current, getErr := r.GetByID(ctx, executor, t.TenantID, t.MatchID)
	if getErr != nil {
		return nil, getErr
	}
	for _, from := range t.From {
		if current.State == from {
			return nil, fmt.Errorf("%w: expected version %d, found %d",
				ErrMatchVersionConflict, t.ExpectedVersion, current.StateVersion)
		}
	}
	return nil, fmt.Errorf("%w: match %d is %s", ErrMatchInvalidTransition, t.MatchID, current.State)
}
