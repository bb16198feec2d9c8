package models

import "time"

type MatchState string

const (
	MatchStateDraft         MatchState = "draft"
	MatchStatePoolLocked    MatchState = "pool_locked"
	MatchStateTeamsBalanced MatchState = "teams_balanced"
	MatchStateCompleted     MatchState = "completed"
	MatchStateCancelled     MatchState = "cancelled"
)

// CanCancel reports whether the state may still transition to Cancelled.
func (s MatchState) CanCancel() bool {
	switch s {
	case MatchStateDraft, MatchStatePoolLocked, MatchStateTeamsBalanced:
		return true
	}
	return false
}

type BalanceMethod string

const (
	BalanceMethodAbility     BalanceMethod = "ability"
	BalanceMethodPerformance BalanceMethod = "performance"
	BalanceMethodRandom      BalanceMethod = "random"
)

func (m BalanceMethod) Valid() bool {
	switch m {
	case BalanceMethodAbility, BalanceMethodPerformance, BalanceMethodRandom:
		return true
	}
	return false
}

type Match struct {
	ID           int        `json:"id" db:"id"`
	TenantID     int        `json:"tenant_id" db:"tenant_id"`
	Date         time.Time  `json:"date" db:"date"`
	TeamSize     int        `json:"team_size" db:"team_size"`
	ActualSizeA  *int       `json:"actual_size_a,omitempty" db:"actual_size_a"`
	ActualSizeB  *int       `json:"actual_size_b,omitempty" db:"actual_size_b"`
	State        MatchState `json:"state" db:"state"`
	StateVersion int        `json:"state_version" db:"state_version"`
	IsBalanced   bool       `json:"is_balanced" db:"is_balanced"`
	TeamsSavedAt *time.Time `json:"teams_saved_at,omitempty" db:"teams_saved_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}
