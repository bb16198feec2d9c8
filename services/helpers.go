package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ianstrang2/matchday-system/db"
	"github.com/ianstrang2/matchday-system/models"
	"github.com/ianstrang2/matchday-system/repositories"
	"github.com/ianstrang2/matchday-system/teams"
)

// LockManager is the per-(tenant, match) mutual-exclusion scope every
// multi-statement mutation runs in. Satisfied by db.TenantLockManager.
type LockManager interface {
	WithLock(ctx context.Context, tenantID, matchID int, fn func(tx *sql.Tx) error) error
}

// persistWinningAssignment writes a balancer result (slot rows plus the
// team/slot placement on the pool entries) and moves the match to
// TeamsBalanced with is_balanced set. Must run inside the tenant lock so a
// failure leaves neither stale slots nor a lying is_balanced flag.
func persistWinningAssignment(
	ctx context.Context,
	tx *sql.Tx,
	matchRepo repositories.MatchRepository,
	slotRepo repositories.SlotRepository,
	poolRepo repositories.PoolRepository,
	tenantID, matchID, expectedVersion int,
	slots []models.SlotAssignment,
) (*models.Match, error) {
	if err := slotRepo.ReplaceAssignments(ctx, tx, tenantID, matchID, slots); err != nil {
		return nil, err
	}
	if err := poolRepo.AssignTeams(ctx, tx, tenantID, matchID, slots); err != nil {
		return nil, err
	}

	balanced := true
	return matchRepo.Transition(ctx, tx, repositories.StateTransition{
		TenantID:        tenantID,
		MatchID:         matchID,
		From:            []models.MatchState{models.MatchStatePoolLocked, models.MatchStateTeamsBalanced},
		ExpectedVersion: expectedVersion,
		To:              models.MatchStateTeamsBalanced,
		IsBalanced:      &balanced,
	})
}

// translateBalanceError folds the balancer package's sentinels into the
// shared service taxonomy.
func translateBalanceError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, teams.ErrUnsupportedSplit):
		return fmt.Errorf("%w: %v", ErrUnsupportedForSplit, err)
	case errors.Is(err, teams.ErrBadPool):
		return fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	return err
}

// translateMatchError folds repository and lock errors into the shared
// service taxonomy so handlers map on one set of sentinels.
func translateMatchError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrMatchNotFound):
		return fmt.Errorf("%w: %v", ErrMatchNotFound, err)
	case errors.Is(err, repositories.ErrMatchVersionConflict):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, repositories.ErrMatchInvalidTransition):
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	case errors.Is(err, db.ErrLockTimeout):
		return fmt.Errorf("%w: %v", ErrLockTimeout, err)
	}
	return err
}

func containsDuplicates(ids []int) bool {
	seen := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}

// splitSizes divides a pool as evenly as possible; team A takes the extra
// player when the pool is odd.
func splitSizes(poolSize int) (sizeA, sizeB int) {
	sizeA = (poolSize + 1) / 2
	sizeB = poolSize - sizeA
	return sizeA, sizeB
}
