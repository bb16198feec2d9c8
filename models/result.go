package models

import "time"

type MatchResult string

const (
	ResultWin  MatchResult = "win"
	ResultLoss MatchResult = "loss"
	ResultDraw MatchResult = "draw"
)

// CompletedMatch is the immutable historical header written when a match is
// finalized. It is only removed by an explicit admin undo.
type CompletedMatch struct {
	ID        int       `json:"id" db:"id"`
	MatchID   int       `json:"match_id" db:"match_id"`
	TenantID  int       `json:"tenant_id" db:"tenant_id"`
	ScoreA    int       `json:"score_a" db:"score_a"`
	ScoreB    int       `json:"score_b" db:"score_b"`
	OwnGoalsA int       `json:"own_goals_a" db:"own_goals_a"`
	OwnGoalsB int       `json:"own_goals_b" db:"own_goals_b"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CompletedMatchPlayer is one participant's line in the historical record.
// ActualTeam is set when the player ended up on a different side than the
// one the balancer planned; Heavy marks a result whose goal difference met
// the configured heavy-win threshold.
type CompletedMatchPlayer struct {
	CompletedMatchID int         `json:"completed_match_id" db:"completed_match_id"`
	PlayerID         int         `json:"player_id" db:"player_id"`
	Team             TeamSide    `json:"team" db:"team"`
	ActualTeam       *TeamSide   `json:"actual_team,omitempty" db:"actual_team"`
	Goals            int         `json:"goals" db:"goals"`
	Result           MatchResult `json:"result" db:"result"`
	CleanSheet       bool        `json:"clean_sheet" db:"clean_sheet"`
	Heavy            bool        `json:"heavy" db:"heavy"`
}

// EffectiveTeam is the side the player actually played on.
func (p CompletedMatchPlayer) EffectiveTeam() TeamSide {
	if p.ActualTeam != nil {
		return *p.ActualTeam
	}
	return p.Team
}
