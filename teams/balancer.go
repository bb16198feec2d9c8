package teams

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/ianstrang2/matchday-system/models"
)

const (
	// Pool bounds and the smallest playable side.
	MinPlayers  = 8
	MaxPlayers  = 22
	MinTeamSize = 4

	// Skill-based balancing needs enough players per band to have anything
	// to trade between the sides; below this the caller must use random.
	SkillBalanceFloor = 5

	// Fixed candidate budget instead of a wall clock, so the worst case is
	// deterministic and reproducible under a seeded source.
	attemptBudget = 8400

	// A candidate scoring below this is considered balanced enough to stop
	// the search early.
	excellentThreshold = 0.3
)

var (
	ErrUnsupportedSplit = errors.New("skill balancing is not supported for this split")
	ErrBadPool          = errors.New("pool does not match the requested split")
)

// Params is the immutable snapshot the balancer searches over. Rand may be
// seeded by tests; when nil the search uses a time-seeded source.
type Params struct {
	Players []models.PlayerRatings
	SizeA   int
	SizeB   int
	Method  models.BalanceMethod
	Rand    *rand.Rand
}

// Result is the winning slot assignment. Slots 1..SizeA belong to team A and
// SizeA+1..SizeA+SizeB to team B, each side's band order defense, midfield,
// attack. Score is the weighted cross-team difference of the winner; lower
// is better, and the random method reports 0 since it never scores.
type Result struct {
	Slots []models.SlotAssignment
	Score float64
}

// Balance is a pure function from a player snapshot and a target split to a
// slot assignment. It touches no shared state; persisting the result is the
// caller's concern.
func Balance(p Params) (*Result, error) {
	if !p.Method.Valid() {
		return nil, fmt.Errorf("unknown balance method %q", p.Method)
	}
	if len(p.Players) != p.SizeA+p.SizeB {
		return nil, fmt.Errorf("%w: %d players for a %d+%d split", ErrBadPool, len(p.Players), p.SizeA, p.SizeB)
	}

	rnd := p.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	if p.Method == models.BalanceMethodRandom {
		return randomAssignment(p, rnd), nil
	}

	if p.SizeA != p.SizeB {
		return nil, fmt.Errorf("%w: sizes %d and %d differ", ErrUnsupportedSplit, p.SizeA, p.SizeB)
	}
	if p.SizeA < SkillBalanceFloor {
		return nil, fmt.Errorf("%w: team size %d is below the skill floor %d", ErrUnsupportedSplit, p.SizeA, SkillBalanceFloor)
	}

	formation, err := TemplateFor(p.SizeA)
	if err != nil {
		return nil, err
	}

	defenders, midfielders, attackers := bucketPlayers(p.Players, formation, p.Method)
	return searchAssignment(formation, defenders, midfielders, attackers, p.Method, rnd, attemptBudget), nil
}

// defenderScore ranks players for the back line: the plain average of
// stamina/pace, control and resilience.
func defenderScore(p models.PlayerRatings) float64 {
	return (p.StaminaPace + p.Control + p.Resilience) / 3
}

// attackerScore ranks the remaining players for the forward line, weighted
// towards goal threat.
func attackerScore(p models.PlayerRatings, method models.BalanceMethod) float64 {
	return 0.5*p.GoalThreat(method) + 0.25*p.StaminaPace + 0.25*p.Control
}

// bucketPlayers splits the pool into the combined defender, midfielder and
// attacker groups. Sorting is stable over an id-ordered copy, so equal
// scores break ties by ascending player id and bucketing is deterministic.
func bucketPlayers(players []models.PlayerRatings, f Formation, method models.BalanceMethod) (defenders, midfielders, attackers []models.PlayerRatings) {
	pool := make([]models.PlayerRatings, len(players))
	copy(pool, players)
	sort.Slice(pool, func(i, j int) bool { return pool[i].PlayerID < pool[j].PlayerID })

	sort.SliceStable(pool, func(i, j int) bool { return defenderScore(pool[i]) > defenderScore(pool[j]) })
	numDefenders := 2 * f.Defenders
	defenders = append(defenders, pool[:numDefenders]...)

	rest := make([]models.PlayerRatings, len(pool)-numDefenders)
	copy(rest, pool[numDefenders:])
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].PlayerID < rest[j].PlayerID })
	sort.SliceStable(rest, func(i, j int) bool {
		return attackerScore(rest[i], method) > attackerScore(rest[j], method)
	})
	numAttackers := 2 * f.Attackers
	attackers = append(attackers, rest[:numAttackers]...)
	midfielders = append(midfielders, rest[numAttackers:]...)
	return defenders, midfielders, attackers
}

// searchAssignment shuffles each bucket independently, deals the halves to
// the two sides and keeps the lowest-scoring candidate seen. The first
// candidate is always retained, so even a pool the search cannot improve on
// yields a complete assignment.
func searchAssignment(f Formation, defenders, midfielders, attackers []models.PlayerRatings, method models.BalanceMethod, rnd *rand.Rand, budget int) *Result {
	var best *Result

	for attempt := 0; attempt < budget; attempt++ {
		shuffle(defenders, rnd)
		shuffle(midfielders, rnd)
		shuffle(attackers, rnd)

		candidate := dealCandidate(f, defenders, midfielders, attackers)
		score := scoreCandidate(candidate, method)

		if best == nil || score < best.Score {
			best = &Result{Slots: buildSlots(f, candidate), Score: score}
		}
		if best.Score < excellentThreshold {
			break
		}
	}
	return best
}

func shuffle(players []models.PlayerRatings, rnd *rand.Rand) {
	rnd.Shuffle(len(players), func(i, j int) {
		players[i], players[j] = players[j], players[i]
	})
}

// candidate holds one attempt's per-side bands.
type candidate struct {
	defA, midA, attA []models.PlayerRatings
	defB, midB, attB []models.PlayerRatings
}

func (c candidate) sideA() []models.PlayerRatings {
	return concat(c.defA, c.midA, c.attA)
}

func (c candidate) sideB() []models.PlayerRatings {
	return concat(c.defB, c.midB, c.attB)
}

func concat(groups ...[]models.PlayerRatings) []models.PlayerRatings {
	var all []models.PlayerRatings
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// dealCandidate distributes each shuffled bucket across the two sides'
// reserved bands: the first half of a bucket fills team A's band, the second
// half team B's.
func dealCandidate(f Formation, defenders, midfielders, attackers []models.PlayerRatings) candidate {
	return candidate{
		defA: defenders[:f.Defenders],
		defB: defenders[f.Defenders:],
		midA: midfielders[:f.Midfielders],
		midB: midfielders[f.Midfielders:],
		attA: attackers[:f.Attackers],
		attB: attackers[f.Attackers:],
	}
}

func mean(players []models.PlayerRatings, attr func(models.PlayerRatings) float64) float64 {
	if len(players) == 0 {
		return 0
	}
	var sum float64
	for _, p := range players {
		sum += attr(p)
	}
	return sum / float64(len(players))
}

func absDiff(a, b []models.PlayerRatings, attr func(models.PlayerRatings) float64) float64 {
	d := mean(a, attr) - mean(b, attr)
	if d < 0 {
		return -d
	}
	return d
}

// scoreCandidate is the weighted sum of absolute cross-team differences:
// each positional group compares the attributes that matter for it, and two
// team-wide terms keep resilience and teamwork from pooling on one side.
func scoreCandidate(c candidate, method models.BalanceMethod) float64 {
	staminaPace := func(p models.PlayerRatings) float64 { return p.StaminaPace }
	control := func(p models.PlayerRatings) float64 { return p.Control }
	goalThreat := func(p models.PlayerRatings) float64 { return p.GoalThreat(method) }
	resilience := func(p models.PlayerRatings) float64 { return p.Resilience }
	teamwork := func(p models.PlayerRatings) float64 { return p.Teamwork }

	defense := 0.5*absDiff(c.defA, c.defB, staminaPace) + 0.5*absDiff(c.defA, c.defB, control)
	midfield := (absDiff(c.midA, c.midB, control) + absDiff(c.midA, c.midB, staminaPace) + absDiff(c.midA, c.midB, goalThreat)) / 3
	attack := 0.5*absDiff(c.attA, c.attB, goalThreat) +
		0.25*absDiff(c.attA, c.attB, staminaPace) +
		0.25*absDiff(c.attA, c.attB, control)

	sideA, sideB := c.sideA(), c.sideB()
	return defense + midfield + attack +
		0.2*absDiff(sideA, sideB, resilience) +
		0.2*absDiff(sideA, sideB, teamwork)
}

// buildSlots numbers the candidate onto the team sheet: team A takes slots
// 1..N and team B N+1..2N, each side in band order.
func buildSlots(f Formation, c candidate) []models.SlotAssignment {
	size := f.Total()
	slots := make([]models.SlotAssignment, 0, 2*size)

	appendSide := func(team models.TeamSide, offset int, players []models.PlayerRatings) {
		for i := range players {
			id := players[i].PlayerID
			slots = append(slots, models.SlotAssignment{
				SlotNumber: offset + i + 1,
				Team:       team,
				PlayerID:   &id,
			})
		}
	}
	appendSide(models.TeamA, 0, c.sideA())
	appendSide(models.TeamB, size, c.sideB())
	return slots
}

// randomAssignment shuffles the whole pool once and slices it: the first
// SizeA players become team A in shuffle order, the rest team B. No skill
// weighting and no search.
func randomAssignment(p Params, rnd *rand.Rand) *Result {
	pool := make([]models.PlayerRatings, len(p.Players))
	copy(pool, p.Players)
	sort.Slice(pool, func(i, j int) bool { return pool[i].PlayerID < pool[j].PlayerID })
	shuffle(pool, rnd)

	slots := make([]models.SlotAssignment, 0, len(pool))
	for i := range pool {
		team := models.TeamA
		if i >= p.SizeA {
			team = models.TeamB
		}
		id := pool[i].PlayerID
		slots = append(slots, models.SlotAssignment{SlotNumber: i + 1, Team: team, PlayerID: &id})
	}
	return &Result{Slots: slots, Score: 0}
}
