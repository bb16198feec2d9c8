package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/ianstrang2/matchday-system/models"
	"github.com/ianstrang2/matchday-system/repositories"
	"github.com/ianstrang2/matchday-system/teams"
)

const (
	MinTeamSizeForMatch = teams.MinTeamSize
	MaxTeamSizeForMatch = 11
)

// PoolService manages a match's candidate pool before team formation.
type PoolService struct {
	locks      LockManager
	matchRepo  repositories.MatchRepository
	poolRepo   repositories.PoolRepository
	slotRepo   repositories.SlotRepository
	playerRepo repositories.PlayerRepository
	logger     *slog.Logger

	// rnd seeds the inline balance during LockPool; nil means time-seeded.
	rnd *rand.Rand
}

func NewPoolService(
	locks LockManager,
	matchRepo repositories.MatchRepository,
	poolRepo repositories.PoolRepository,
	slotRepo repositories.SlotRepository,
	playerRepo repositories.PlayerRepository,
	logger *slog.Logger,
) *PoolService {
	return &PoolService{
		locks:      locks,
		matchRepo:  matchRepo,
		poolRepo:   poolRepo,
		slotRepo:   slotRepo,
		playerRepo: playerRepo,
		logger:     logger,
	}
}

// AddPlayer puts a player into the candidate pool. Only valid while Draft.
func (s *PoolService) AddPlayer(ctx context.Context, tenantID, matchID, playerID int) (*models.PoolEntry, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, tenantID, matchID)
	if err != nil {
		return nil, translateMatchError(err)
	}
	if match.State != models.MatchStateDraft {
		return nil, fmt.Errorf("%w: pool membership is frozen once the match is %s", ErrInvalidTransition, match.State)
	}

	if _, err := s.playerRepo.GetByID(ctx, tenantID, playerID); err != nil {
		if err == repositories.ErrPlayerNotFound {
			return nil, fmt.Errorf("%w: player %d", ErrPlayerNotFound, playerID)
		}
		return nil, err
	}

	entry := &models.PoolEntry{MatchID: matchID, PlayerID: playerID}
	if err := s.poolRepo.Add(ctx, nil, tenantID, entry); err != nil {
		if err == repositories.ErrPoolEntryConflict {
			return nil, fmt.Errorf("%w: player %d is already pooled", ErrValidationFailed, playerID)
		}
		return nil, err
	}
	return entry, nil
}

// RemovePlayer drops a player from the candidate pool. Only valid while Draft.
func (s *PoolService) RemovePlayer(ctx context.Context, tenantID, matchID, playerID int) error {
	match, err := s.matchRepo.GetByID(ctx, nil, tenantID, matchID)
	if err != nil {
		return translateMatchError(err)
	}
	if match.State != models.MatchStateDraft {
		return fmt.Errorf("%w: pool membership is frozen once the match is %s", ErrInvalidTransition, match.State)
	}

	if err := s.poolRepo.Remove(ctx, nil, tenantID, matchID, playerID); err != nil {
		if err == repositories.ErrPoolEntryNotFound {
			return fmt.Errorf("%w: player %d is not pooled", ErrNotFound, playerID)
		}
		return err
	}
	return nil
}

// LockPoolResult reports the state the pool lock left the match in.
type LockPoolResult struct {
	State        models.MatchState `json:"state"`
	StateVersion int               `json:"state_version"`
	ActualSizeA  int               `json:"actual_size_a"`
	ActualSizeB  int               `json:"actual_size_b"`
	BalanceScore *float64          `json:"balance_score,omitempty"`
}

// LockPool validates the final player list, replaces the pool with it, seeds
// empty slots, and transitions Draft to PoolLocked — one atomic unit under
// the tenant lock. When balanceMethod is given the balancer runs and its
// winning assignment is persisted before returning, leaving TeamsBalanced.
func (s *PoolService) LockPool(ctx context.Context, tenantID, matchID int, playerIDs []int, expectedVersion int, balanceMethod *models.BalanceMethod) (*LockPoolResult, error) {
	// All validation happens before any write.
	if containsDuplicates(playerIDs) {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, ErrDuplicatePlayers)
	}
	if len(playerIDs) < teams.MinPlayers || len(playerIDs) > teams.MaxPlayers {
		return nil, fmt.Errorf("%w: %d players outside [%d, %d]",
			ErrPoolSizeOutOfRange, len(playerIDs), teams.MinPlayers, teams.MaxPlayers)
	}
	sizeA, sizeB := splitSizes(len(playerIDs))
	if sizeB < teams.MinTeamSize {
		return nil, fmt.Errorf("%w: split %d+%d needs at least %d a side",
			ErrTeamTooSmall, sizeA, sizeB, teams.MinTeamSize)
	}
	if balanceMethod != nil && !balanceMethod.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBalanceMethod, *balanceMethod)
	}

	// Existence check up front, so a bad match id fails before any rows are
	// written under the lock.
	if _, err := s.matchRepo.GetByID(ctx, nil, tenantID, matchID); err != nil {
		return nil, translateMatchError(err)
	}

	players, err := s.playerRepo.ListByIDs(ctx, tenantID, playerIDs)
	if err != nil {
		return nil, err
	}
	if len(players) != len(playerIDs) {
		return nil, fmt.Errorf("%w: %d of %d players have no ratings row",
			ErrValidationFailed, len(playerIDs)-len(players), len(playerIDs))
	}

	result := &LockPoolResult{ActualSizeA: sizeA, ActualSizeB: sizeB}
	err = s.locks.WithLock(ctx, tenantID, matchID, func(tx *sql.Tx) error {
		if err := s.poolRepo.Replace(ctx, tx, tenantID, matchID, playerIDs); err != nil {
			return err
		}
		if err := s.slotRepo.SeedEmpty(ctx, tx, tenantID, matchID, sizeA, sizeB); err != nil {
			return err
		}

		match, err := s.matchRepo.Transition(ctx, tx, repositories.StateTransition{
			TenantID:        tenantID,
			MatchID:         matchID,
			From:            []models.MatchState{models.MatchStateDraft},
			ExpectedVersion: expectedVersion,
			To:              models.MatchStatePoolLocked,
			ActualSizeA:     &sizeA,
			ActualSizeB:     &sizeB,
		})
		if err != nil {
			return err
		}
		result.State = match.State
		result.StateVersion = match.StateVersion

		if balanceMethod == nil {
			return nil
		}

		balanced, err := teams.Balance(teams.Params{
			Players: players,
			SizeA:   sizeA,
			SizeB:   sizeB,
			Method:  *balanceMethod,
			Rand:    s.rnd,
		})
		if err != nil {
			return translateBalanceError(err)
		}

		match, err = persistWinningAssignment(ctx, tx, s.matchRepo, s.slotRepo, s.poolRepo,
			tenantID, matchID, match.StateVersion, balanced.Slots)
		if err != nil {
			return err
		}
		result.State = match.State
		result.StateVersion = match.StateVersion
		result.BalanceScore = &balanced.Score
		return nil
	})
	if err != nil {
		return nil, translateMatchError(err)
	}

	s.logger.Info("pool locked",
		slog.Int("tenant_id", tenantID),
		slog.Int("match_id", matchID),
		slog.Int("size_a", sizeA),
		slog.Int("size_b", sizeB),
		slog.Bool("balanced", balanceMethod != nil))
	return result, nil
}
