package models

type TeamSide string

const (
	TeamUnassigned TeamSide = "unassigned"
	TeamA          TeamSide = "a"
	TeamB          TeamSide = "b"
)

// Opponent returns the other side. Unassigned has no opponent and maps to itself.
func (t TeamSide) Opponent() TeamSide {
	switch t {
	case TeamA:
		return TeamB
	case TeamB:
		return TeamA
	}
	return t
}

// PoolEntry is one candidate player in a match's pool. Team and SlotNumber
// stay unassigned/nil until the balancer places the player.
type PoolEntry struct {
	MatchID    int      `json:"match_id" db:"match_id"`
	PlayerID   int      `json:"player_id" db:"player_id"`
	Team       TeamSide `json:"team" db:"team"`
	SlotNumber *int     `json:"slot_number,omitempty" db:"slot_number"`
}

// SlotAssignment is one position on the match's team sheet. Slots 1..2N are
// created empty when the pool is locked and overwritten by the balancer;
// PlayerID is nil for an empty slot.
type SlotAssignment struct {
	MatchID    int      `json:"match_id" db:"match_id"`
	SlotNumber int      `json:"slot_number" db:"slot_number"`
	Team       TeamSide `json:"team" db:"team"`
	PlayerID   *int     `json:"player_id,omitempty" db:"player_id"`
}
