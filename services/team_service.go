package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ianstrang2/matchday-system/models"
	"github.com/ianstrang2/matchday-system/repositories"
	"github.com/ianstrang2/matchday-system/teams"
	"golang.org/x/sync/errgroup"
)

// Notifier is the downstream boundary for lifecycle events (dashboards,
// stat recomputation). Implemented by the websocket hub.
type Notifier interface {
	Publish(tenantID int, eventType string, payload interface{})
}

const (
	EventTeamsPublished = "TEAMS_PUBLISHED"
	EventMatchCompleted = "MATCH_COMPLETED"
	EventMatchUndone    = "MATCH_UNDONE"
)

// TeamService runs the balancing search over a locked pool and publishes the
// confirmed team sheet.
type TeamService struct {
	locks      LockManager
	matchRepo  repositories.MatchRepository
	poolRepo   repositories.PoolRepository
	slotRepo   repositories.SlotRepository
	playerRepo repositories.PlayerRepository
	notifier   Notifier
	logger     *slog.Logger

	// rnd makes the search reproducible in tests; nil means time-seeded.
	rnd *rand.Rand
}

func NewTeamService(
	locks LockManager,
	matchRepo repositories.MatchRepository,
	poolRepo repositories.PoolRepository,
	slotRepo repositories.SlotRepository,
	playerRepo repositories.PlayerRepository,
	notifier Notifier,
	logger *slog.Logger,
) *TeamService {
	return &TeamService{
		locks:      locks,
		matchRepo:  matchRepo,
		poolRepo:   poolRepo,
		slotRepo:   slotRepo,
		playerRepo: playerRepo,
		notifier:   notifier,
		logger:     logger,
	}
}

// BalanceResult is the winning assignment as persisted.
type BalanceResult struct {
	Slots        []models.SlotAssignment `json:"slots"`
	BalanceScore float64                 `json:"balance_score"`
	State        models.MatchState       `json:"state"`
	StateVersion int                     `json:"state_version"`
}

// Balance searches for the best team split of the locked pool and persists
// it. The CPU-bound search runs over an immutable snapshot outside any lock;
// only persisting the winner re-enters the tenant lock, where the version
// check rejects the write if the match moved while we were searching.
func (s *TeamService) Balance(ctx context.Context, tenantID, matchID int, method models.BalanceMethod, expectedVersion int) (*BalanceResult, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBalanceMethod, method)
	}

	// Snapshot: match row and pool entries load concurrently, then ratings.
	var (
		match *models.Match
		pool  []models.PoolEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.matchRepo.GetByID(gctx, nil, tenantID, matchID)
		if err != nil {
			return translateMatchError(err)
		}
		match = m
		return nil
	})
	g.Go(func() error {
		entries, err := s.poolRepo.ListByMatch(gctx, nil, tenantID, matchID)
		if err != nil {
			return err
		}
		pool = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if match.State != models.MatchStatePoolLocked && match.State != models.MatchStateTeamsBalanced {
		return nil, fmt.Errorf("%w: cannot balance a %s match", ErrInvalidTransition, match.State)
	}
	if match.ActualSizeA == nil || match.ActualSizeB == nil {
		return nil, fmt.Errorf("%w: match %d has no recorded split", ErrInvalidTransition, matchID)
	}

	playerIDs := make([]int, len(pool))
	for i, entry := range pool {
		playerIDs[i] = entry.PlayerID
	}
	players, err := s.playerRepo.ListByIDs(ctx, tenantID, playerIDs)
	if err != nil {
		return nil, err
	}
	if len(players) != len(pool) {
		return nil, fmt.Errorf("%w: pool references players without ratings", ErrValidationFailed)
	}

	balanced, err := teams.Balance(teams.Params{
		Players: players,
		SizeA:   *match.ActualSizeA,
		SizeB:   *match.ActualSizeB,
		Method:  method,
		Rand:    s.rnd,
	})
	if err != nil {
		return nil, translateBalanceError(err)
	}

	var updated *models.Match
	err = s.locks.WithLock(ctx, tenantID, matchID, func(tx *sql.Tx) error {
		m, err := persistWinningAssignment(ctx, tx, s.matchRepo, s.slotRepo, s.poolRepo,
			tenantID, matchID, expectedVersion, balanced.Slots)
		if err != nil {
			return err
		}
		updated = m
		return nil
	})
	if err != nil {
		return nil, translateMatchError(err)
	}

	s.logger.Info("teams balanced",
		slog.Int("tenant_id", tenantID),
		slog.Int("match_id", matchID),
		slog.String("method", string(method)),
		slog.Float64("balance_score", balanced.Score))

	return &BalanceResult{
		Slots:        balanced.Slots,
		BalanceScore: balanced.Score,
		State:        updated.State,
		StateVersion: updated.StateVersion,
	}, nil
}

// ConfirmTeams stamps teams_saved_at, making the sheet visible to non-admin
// consumers. A single version-checked write; no tenant lock required.
func (s *TeamService) ConfirmTeams(ctx context.Context, tenantID, matchID, expectedVersion int) (*models.Match, error) {
	now := time.Now().UTC()
	match, err := s.matchRepo.Transition(ctx, nil, repositories.StateTransition{
		TenantID:        tenantID,
		MatchID:         matchID,
		From:            []models.MatchState{models.MatchStateTeamsBalanced},
		ExpectedVersion: expectedVersion,
		To:              models.MatchStateTeamsBalanced,
		SetTeamsSavedAt: true,
		TeamsSavedAt:    &now,
	})
	if err != nil {
		return nil, translateMatchError(err)
	}

	s.notifier.Publish(tenantID, EventTeamsPublished, map[string]interface{}{
		"match_id":       matchID,
		"teams_saved_at": match.TeamsSavedAt,
	})
	return match, nil
}
