package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ianstrang2/matchday-system/models"
	"github.com/ianstrang2/matchday-system/repositories"
)

// MatchService covers the plain lifecycle surface around a match row:
// creation (the external scheduler's entry point), reads, and cancellation.
type MatchService struct {
	matchRepo repositories.MatchRepository
	poolRepo  repositories.PoolRepository
	slotRepo  repositories.SlotRepository
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	poolRepo repositories.PoolRepository,
	slotRepo repositories.SlotRepository,
) *MatchService {
	return &MatchService{
		matchRepo: matchRepo,
		poolRepo:  poolRepo,
		slotRepo:  slotRepo,
	}
}

func (s *MatchService) CreateMatch(ctx context.Context, tenantID int, date time.Time, teamSize int) (*models.Match, error) {
	if teamSize < MinTeamSizeForMatch || teamSize > MaxTeamSizeForMatch {
		return nil, fmt.Errorf("%w: team size %d outside [%d, %d]",
			ErrValidationFailed, teamSize, MinTeamSizeForMatch, MaxTeamSizeForMatch)
	}

	match := &models.Match{TenantID: tenantID, Date: date, TeamSize: teamSize}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// MatchDetail bundles the match row with its pool and slot children for the
// read surface.
type MatchDetail struct {
	Match *models.Match           `json:"match"`
	Pool  []models.PoolEntry      `json:"pool"`
	Slots []models.SlotAssignment `json:"slots"`
}

func (s *MatchService) GetMatch(ctx context.Context, tenantID, matchID int) (*MatchDetail, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, tenantID, matchID)
	if err != nil {
		return nil, translateMatchError(err)
	}

	pool, err := s.poolRepo.ListByMatch(ctx, nil, tenantID, matchID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slotRepo.ListByMatch(ctx, nil, tenantID, matchID)
	if err != nil {
		return nil, err
	}
	return &MatchDetail{Match: match, Pool: pool, Slots: slots}, nil
}

// Cancel moves any pre-Completed match to Cancelled. A single version-checked
// write, so no tenant lock is needed.
func (s *MatchService) Cancel(ctx context.Context, tenantID, matchID, expectedVersion int) (*models.Match, error) {
	match, err := s.matchRepo.Transition(ctx, nil, repositories.StateTransition{
		TenantID:        tenantID,
		MatchID:         matchID,
		From:            []models.MatchState{models.MatchStateDraft, models.MatchStatePoolLocked, models.MatchStateTeamsBalanced},
		ExpectedVersion: expectedVersion,
		To:              models.MatchStateCancelled,
	})
	if err != nil {
		return nil, translateMatchError(err)
	}
	return match, nil
}
