package models

// PlayerRatings is the read-only skill input for team balancing. The six
// static ratings are maintained elsewhere and live in the range [1, 10].
// FormGoalThreat is a recent-form sample used by the performance balance
// method; nil when the player has no recent appearances.
type PlayerRatings struct {
	PlayerID       int      `json:"player_id" db:"player_id"`
	TenantID       int      `json:"tenant_id" db:"tenant_id"`
	Name           string   `json:"name" db:"name"`
	Goalscoring    float64  `json:"goalscoring" db:"goalscoring"`
	Defending      float64  `json:"defending" db:"defending"`
	StaminaPace    float64  `json:"stamina_pace" db:"stamina_pace"`
	Control        float64  `json:"control" db:"control"`
	Teamwork       float64  `json:"teamwork" db:"teamwork"`
	Resilience     float64  `json:"resilience" db:"resilience"`
	FormGoalThreat *float64 `json:"form_goal_threat,omitempty" db:"form_goal_threat"`
}

// GoalThreat returns the goal-threat input for the given balance method:
// the static goalscoring rating for ability, the recent-form sample for
// performance (falling back to the static rating when none exists).
func (p PlayerRatings) GoalThreat(method BalanceMethod) float64 {
	if method == BalanceMethodPerformance && p.FormGoalThreat != nil {
		return *p.FormGoalThreat
	}
	return p.Goalscoring
}
