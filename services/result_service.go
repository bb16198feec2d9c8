package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ianstrang2/matchday-system/models"
	"github.com/ianstrang2/matchday-system/repositories"
	"github.com/ianstrang2/matchday-system/storage"
)

// PlayerStatInput is one participant's reported line. ActualTeam is only set
// when the player swapped sides on the day.
type PlayerStatInput struct {
	PlayerID   int              `json:"player_id"`
	Goals      int              `json:"goals"`
	ActualTeam *models.TeamSide `json:"actual_team,omitempty"`
}

type CompletionInput struct {
	ScoreA      int               `json:"score_a"`
	ScoreB      int               `json:"score_b"`
	OwnGoalsA   int               `json:"own_goals_a"`
	OwnGoalsB   int               `json:"own_goals_b"`
	PlayerStats []PlayerStatInput `json:"player_stats"`
}

// ResultService finalizes a match into its immutable historical record and
// reverses that on an explicit admin undo.
type ResultService struct {
	locks      LockManager
	matchRepo  repositories.MatchRepository
	poolRepo   repositories.PoolRepository
	resultRepo repositories.ResultRepository
	notifier   Notifier
	archiver   storage.FileUploader // optional match-report archive
	logger     *slog.Logger

	// heavyThreshold is the goal difference at which a result counts as a
	// heavy win/loss.
	heavyThreshold int
}

func NewResultService(
	locks LockManager,
	matchRepo repositories.MatchRepository,
	poolRepo repositories.PoolRepository,
	resultRepo repositories.ResultRepository,
	notifier Notifier,
	archiver storage.FileUploader,
	logger *slog.Logger,
	heavyThreshold int,
) *ResultService {
	return &ResultService{
		locks:          locks,
		matchRepo:      matchRepo,
		poolRepo:       poolRepo,
		resultRepo:     resultRepo,
		notifier:       notifier,
		archiver:       archiver,
		logger:         logger,
		heavyThreshold: heavyThreshold,
	}
}

// Complete validates the reported result against the team sheet and writes
// the historical record, transitioning TeamsBalanced to Completed. All
// validation happens before any write; the writes are one atomic unit under
// the tenant lock, so a failure partway leaves nothing behind.
func (s *ResultService) Complete(ctx context.Context, tenantID, matchID, expectedVersion int, input CompletionInput) (*models.CompletedMatch, error) {
	if input.OwnGoalsA < 0 || input.OwnGoalsB < 0 {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, ErrNegativeOwnGoals)
	}

	match, err := s.matchRepo.GetByID(ctx, nil, tenantID, matchID)
	if err != nil {
		return nil, translateMatchError(err)
	}
	if match.State != models.MatchStateTeamsBalanced {
		return nil, fmt.Errorf("%w: cannot complete a %s match", ErrInvalidTransition, match.State)
	}
	if match.StateVersion != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, found %d", ErrConflict, expectedVersion, match.StateVersion)
	}

	pool, err := s.poolRepo.ListByMatch(ctx, nil, tenantID, matchID)
	if err != nil {
		return nil, err
	}

	rows, err := s.buildPlayerRows(pool, input)
	if err != nil {
		return nil, err
	}

	header := &models.CompletedMatch{
		MatchID:   matchID,
		TenantID:  tenantID,
		ScoreA:    input.ScoreA,
		ScoreB:    input.ScoreB,
		OwnGoalsA: input.OwnGoalsA,
		OwnGoalsB: input.OwnGoalsB,
	}

	err = s.locks.WithLock(ctx, tenantID, matchID, func(tx *sql.Tx) error {
		if err := s.resultRepo.CreateWithPlayers(ctx, tx, header, rows); err != nil {
			return err
		}
		_, err := s.matchRepo.Transition(ctx, tx, repositories.StateTransition{
			TenantID:        tenantID,
			MatchID:         matchID,
			From:            []models.MatchState{models.MatchStateTeamsBalanced},
			ExpectedVersion: expectedVersion,
			To:              models.MatchStateCompleted,
		})
		return err
	})
	if err != nil {
		// A rival completion can land between our pre-lock validation and the
		// lock: its record then trips the unique constraint before our version
		// check runs. That is a conflict, not a persistence failure.
		if errors.Is(err, repositories.ErrCompletedMatchConflict) {
			return nil, fmt.Errorf("%w: match %d already has a historical record", ErrConflict, matchID)
		}
		if translated := translateMatchError(err); translated != err {
			return nil, translated
		}
		s.logger.Error("match completion failed",
			slog.String("operation", "complete"),
			slog.Int("tenant_id", tenantID),
			slog.Int("match_id", matchID),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: completing match %d", ErrPersistenceFailed, matchID)
	}

	s.notifier.Publish(tenantID, EventMatchCompleted, map[string]interface{}{
		"match_id":           matchID,
		"completed_match_id": header.ID,
		"score":              map[string]int{"a": header.ScoreA, "b": header.ScoreB},
	})
	s.archiveReport(ctx, tenantID, header, rows)

	s.logger.Info("match completed",
		slog.Int("tenant_id", tenantID),
		slog.Int("match_id", matchID),
		slog.Int("completed_match_id", header.ID))
	return header, nil
}

// buildPlayerRows checks the score arithmetic and derives each participant's
// result row. A single row that cannot be derived aborts the whole
// completion before anything is written.
func (s *ResultService) buildPlayerRows(pool []models.PoolEntry, input CompletionInput) ([]models.CompletedMatchPlayer, error) {
	plannedTeams := make(map[int]models.TeamSide, len(pool))
	for _, entry := range pool {
		plannedTeams[entry.PlayerID] = entry.Team
	}

	seen := make(map[int]struct{}, len(input.PlayerStats))
	goals := map[models.TeamSide]int{models.TeamA: 0, models.TeamB: 0}
	rows := make([]models.CompletedMatchPlayer, 0, len(input.PlayerStats))

	for _, stat := range input.PlayerStats {
		if _, dup := seen[stat.PlayerID]; dup {
			return nil, fmt.Errorf("%w: player %d reported twice", ErrValidationFailed, stat.PlayerID)
		}
		seen[stat.PlayerID] = struct{}{}

		if stat.Goals < 0 {
			return nil, fmt.Errorf("%w: player %d has negative goals", ErrValidationFailed, stat.PlayerID)
		}
		planned, ok := plannedTeams[stat.PlayerID]
		if !ok {
			return nil, fmt.Errorf("%w: player %d is not in the match pool", ErrValidationFailed, stat.PlayerID)
		}

		row := models.CompletedMatchPlayer{
			PlayerID:   stat.PlayerID,
			Team:       planned,
			ActualTeam: stat.ActualTeam,
			Goals:      stat.Goals,
		}
		effective := row.EffectiveTeam()
		if effective != models.TeamA && effective != models.TeamB {
			return nil, fmt.Errorf("%w: player %d has no effective team", ErrValidationFailed, stat.PlayerID)
		}
		goals[effective] += stat.Goals
		rows = append(rows, row)
	}

	// Own goals are recorded under the team whose score they added to.
	if goals[models.TeamA]+input.OwnGoalsA != input.ScoreA {
		return nil, fmt.Errorf("%w: team A scored %d but player goals plus own goals give %d",
			ErrScoreMismatch, input.ScoreA, goals[models.TeamA]+input.OwnGoalsA)
	}
	if goals[models.TeamB]+input.OwnGoalsB != input.ScoreB {
		return nil, fmt.Errorf("%w: team B scored %d but player goals plus own goals give %d",
			ErrScoreMismatch, input.ScoreB, goals[models.TeamB]+input.OwnGoalsB)
	}

	for i := range rows {
		own, opp := input.ScoreA, input.ScoreB
		if rows[i].EffectiveTeam() == models.TeamB {
			own, opp = opp, own
		}
		switch {
		case own > opp:
			rows[i].Result = models.ResultWin
		case own < opp:
			rows[i].Result = models.ResultLoss
		default:
			rows[i].Result = models.ResultDraw
		}
		rows[i].CleanSheet = opp == 0
		diff := own - opp
		if diff < 0 {
			diff = -diff
		}
		rows[i].Heavy = rows[i].Result != models.ResultDraw && diff >= s.heavyThreshold
	}
	return rows, nil
}

// Undo deletes the historical rows and moves the match back to
// TeamsBalanced, under the same lock and version discipline as Complete.
func (s *ResultService) Undo(ctx context.Context, tenantID, matchID, expectedVersion int) (*models.Match, error) {
	var match *models.Match
	err := s.locks.WithLock(ctx, tenantID, matchID, func(tx *sql.Tx) error {
		if err := s.resultRepo.DeleteByMatchID(ctx, tx, tenantID, matchID); err != nil {
			return err
		}
		m, err := s.matchRepo.Transition(ctx, tx, repositories.StateTransition{
			TenantID:        tenantID,
			MatchID:         matchID,
			From:            []models.MatchState{models.MatchStateCompleted},
			ExpectedVersion: expectedVersion,
			To:              models.MatchStateTeamsBalanced,
		})
		if err != nil {
			return err
		}
		match = m
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrCompletedMatchNotFound) {
			return nil, fmt.Errorf("%w: match %d", ErrResultNotFound, matchID)
		}
		return nil, translateMatchError(err)
	}

	s.notifier.Publish(tenantID, EventMatchUndone, map[string]interface{}{"match_id": matchID})
	s.logger.Info("match completion undone",
		slog.Int("tenant_id", tenantID),
		slog.Int("match_id", matchID))
	return match, nil
}

// archiveReport uploads the JSON match report when an archive is configured.
// Archive failures are logged and never unwind the committed completion.
func (s *ResultService) archiveReport(ctx context.Context, tenantID int, header *models.CompletedMatch, rows []models.CompletedMatchPlayer) {
	if s.archiver == nil {
		return
	}

	report := map[string]interface{}{
		"match":   header,
		"players": rows,
	}
	body, err := json.Marshal(report)
	if err != nil {
		s.logger.Error("failed to encode match report", slog.Int("match_id", header.MatchID), slog.Any("error", err))
		return
	}

	key := fmt.Sprintf("reports/%d/match-%d.json", tenantID, header.MatchID)
	if _, err := s.archiver.Upload(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		s.logger.Error("failed to archive match report",
			slog.Int("tenant_id", tenantID),
			slog.Int("match_id", header.MatchID),
			slog.Any("error", err))
	}
}
