package teams

import "fmt"

// Formation is the per-team slot template for one team size: slot numbers
// within a team partition contiguously into a defense band, a midfield band
// and an attack band of these widths.
type Formation struct {
	Defenders   int
	Midfielders int
	Attackers   int
}

func (f Formation) Total() int {
	return f.Defenders + f.Midfielders + f.Attackers
}

var formations = map[int]Formation{
	4:  {Defenders: 1, Midfielders: 2, Attackers: 1},
	5:  {Defenders: 2, Midfielders: 2, Attackers: 1},
	6:  {Defenders: 2, Midfielders: 3, Attackers: 1},
	7:  {Defenders: 2, Midfielders: 3, Attackers: 2},
	8:  {Defenders: 3, Midfielders: 3, Attackers: 2},
	9:  {Defenders: 3, Midfielders: 4, Attackers: 2},
	10: {Defenders: 4, Midfielders: 4, Attackers: 2},
	11: {Defenders: 4, Midfielders: 4, Attackers: 3},
}

// TemplateFor returns the formation template for one team of the given size.
func TemplateFor(teamSize int) (Formation, error) {
	f, ok := formations[teamSize]
	if !ok {
		return Formation{}, fmt.Errorf("no formation template for team size %d", teamSize)
	}
	return f, nil
}
