package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ianstrang2/matchday-system/db"
	"github.com/ianstrang2/matchday-system/models"
	"github.com/ianstrang2/matchday-system/repositories"
	"github.com/ianstrang2/matchday-system/teams"
)

func TestSplitSizes(t *testing.T) {
	for poolSize := teams.MinPlayers; poolSize <= teams.MaxPlayers; poolSize++ {
		sizeA, sizeB := splitSizes(poolSize)
		if sizeA+sizeB != poolSize {
			t.Errorf("splitSizes(%d) = %d+%d, does not cover the pool", poolSize, sizeA, sizeB)
		}
		if diff := sizeA - sizeB; diff != 0 && diff != 1 {
			t.Errorf("splitSizes(%d) = %d/%d, sides differ by %d", poolSize, sizeA, sizeB, diff)
		}
	}

	// The odd player goes to team A.
	if a, b := splitSizes(9); a != 5 || b != 4 {
		t.Errorf("splitSizes(9) = %d/%d, want 5/4", a, b)
	}
}

func TestContainsDuplicates(t *testing.T) {
	if containsDuplicates([]int{1, 2, 3}) {
		t.Error("distinct ids reported as duplicated")
	}
	if !containsDuplicates([]int{1, 2, 1}) {
		t.Error("duplicate ids not detected")
	}
	if containsDuplicates(nil) {
		t.Error("empty list reported as duplicated")
	}
}

func TestTranslateMatchError(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{repositories.ErrMatchNotFound, ErrMatchNotFound},
		{repositories.ErrMatchVersionConflict, ErrConflict},
		{repositories.ErrMatchInvalidTransition, ErrInvalidTransition},
		{db.ErrLockTimeout, ErrLockTimeout},
	}
	for _, tc := range cases {
		if got := translateMatchError(tc.in); !errors.Is(got, tc.want) {
			t.Errorf("translateMatchError(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}

	if got := translateMatchError(nil); got != nil {
		t.Errorf("translateMatchError(nil) = %v", got)
	}
	opaque := errors.New("disk on fire")
	if got := translateMatchError(opaque); got != opaque {
		t.Errorf("unexpected translation of opaque error: %v", got)
	}
}

func TestTranslateBalanceError(t *testing.T) {
	if got := translateBalanceError(teams.ErrUnsupportedSplit); !errors.Is(got, ErrUnsupportedForSplit) {
		t.Errorf("got %v, want ErrUnsupportedForSplit", got)
	}
	if got := translateBalanceError(teams.ErrBadPool); !errors.Is(got, ErrValidationFailed) {
		t.Errorf("got %v, want ErrValidationFailed", got)
	}
}

// Two writers race the same version: the compare-and-swap must admit exactly
// one of them per version, whatever order they land in.
func TestTransitionAdmitsOneWriterPerVersion(t *testing.T) {
	store := newFakeStore()
	store.addMatch(models.Match{ID: 1, TenantID: 1, State: models.MatchStateDraft, StateVersion: 1, TeamSize: 5})
	repo := &fakeMatchRepo{store: store}
	ctx := context.Background()

	attempt := func(expected int) error {
		_, err := repo.Transition(ctx, nil, repositories.StateTransition{
			TenantID:        1,
			MatchID:         1,
			From:            []models.MatchState{models.MatchStateDraft, models.MatchStatePoolLocked},
			ExpectedVersion: expected,
			To:              models.MatchStatePoolLocked,
		})
		return err
	}

	for version := 1; version <= 5; version++ {
		// Reset to a state both writers may leave from.
		store.matches[1].State = models.MatchStateDraft

		first, second := attempt(version), attempt(version)
		if first != nil {
			t.Fatalf("version %d: first writer rejected: %v", version, first)
		}
		if !errors.Is(second, repositories.ErrMatchVersionConflict) {
			t.Fatalf("version %d: second writer got %v, want version conflict", version, second)
		}
		if got := store.matches[1].StateVersion; got != version+1 {
			t.Fatalf("version %d: row at version %d after the race, want %d", version, got, version+1)
		}
	}
}
