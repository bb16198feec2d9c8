package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/ianstrang2/matchday-system/models"
	"github.com/ianstrang2/matchday-system/repositories"
	"github.com/ianstrang2/matchday-system/storage"
)

// fakeStore is an in-memory stand-in for the database, shared by the fake
// repositories so a test can inspect everything a service wrote.
type fakeStore struct {
	mu sync.Mutex

	matches       map[int]*models.Match
	pools         map[int][]models.PoolEntry
	slots         map[int][]models.SlotAssignment
	players       map[int]models.PlayerRatings
	results       map[int]*models.CompletedMatch
	resultPlayers map[int][]models.CompletedMatchPlayer
	nextResultID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		matches:       make(map[int]*models.Match),
		pools:         make(map[int][]models.PoolEntry),
		slots:         make(map[int][]models.SlotAssignment),
		players:       make(map[int]models.PlayerRatings),
		results:       make(map[int]*models.CompletedMatch),
		resultPlayers: make(map[int][]models.CompletedMatchPlayer),
		nextResultID:  1,
	}
}

func (s *fakeStore) addMatch(m models.Match) {
	s.matches[m.ID] = &m
}

func (s *fakeStore) addPlayers(ratings ...models.PlayerRatings) {
	for _, r := range ratings {
		s.players[r.PlayerID] = r
	}
}

// snapshot deep-copies the mutable state so the fake lock manager can roll a
// failed unit back the way a real transaction would.
func (s *fakeStore) snapshot() *fakeStore {
	c := newFakeStore()
	c.nextResultID = s.nextResultID
	for id, m := range s.matches {
		cp := *m
		c.matches[id] = &cp
	}
	for id, entries := range s.pools {
		c.pools[id] = append([]models.PoolEntry(nil), entries...)
	}
	for id, slots := range s.slots {
		c.slots[id] = append([]models.SlotAssignment(nil), slots...)
	}
	for id, p := range s.players {
		c.players[id] = p
	}
	for id, r := range s.results {
		cp := *r
		c.results[id] = &cp
	}
	for id, rows := range s.resultPlayers {
		c.resultPlayers[id] = append([]models.CompletedMatchPlayer(nil), rows...)
	}
	return c
}

func (s *fakeStore) restore(snap *fakeStore) {
	s.matches = snap.matches
	s.pools = snap.pools
	s.slots = snap.slots
	s.players = snap.players
	s.results = snap.results
	s.resultPlayers = snap.resultPlayers
	s.nextResultID = snap.nextResultID
}

// fakeLockManager serializes units of work the way the advisory-lock manager
// does and restores the store when the unit fails, standing in for the
// transaction rollback.
type fakeLockManager struct {
	store *fakeStore
	calls int
	err   error // returned instead of running fn when set
}

func (l *fakeLockManager) WithLock(ctx context.Context, tenantID, matchID int, fn func(tx *sql.Tx) error) error {
	l.calls++
	if l.err != nil {
		return l.err
	}
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	snap := l.store.snapshot()
	if err := fn(nil); err != nil {
		l.store.restore(snap)
		return err
	}
	return nil
}

type fakeMatchRepo struct {
	store *fakeStore
}

func (r *fakeMatchRepo) Create(ctx context.Context, match *models.Match) error {
	match.ID = len(r.store.matches) + 1
	match.StateVersion = 1
	match.State = models.MatchStateDraft
	r.store.addMatch(*match)
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID int) (*models.Match, error) {
	m, ok := r.store.matches[matchID]
	if !ok || m.TenantID != tenantID {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMatchRepo) Transition(ctx context.Context, exec repositories.SQLExecutor, t repositories.StateTransition) (*models.Match, error) {
	m, ok := r.store.matches[t.MatchID]
	if !ok || m.TenantID != t.TenantID {
		return nil, repositories.ErrMatchNotFound
	}
	inFrom := false
	for _, from := range t.From {
		if m.State == from {
			inFrom = true
		}
	}
	if !inFrom {
		return nil, fmt.Errorf("%w: state %s", repositories.ErrMatchInvalidTransition, m.State)
	}
	if m.StateVersion != t.ExpectedVersion {
		return nil, fmt.Errorf("%w: expected %d, have %d", repositories.ErrMatchVersionConflict, t.ExpectedVersion, m.StateVersion)
	}

	m.State = t.To
	m.StateVersion++
	if t.ActualSizeA != nil {
		v := *t.ActualSizeA
		m.ActualSizeA = &v
	}
	if t.ActualSizeB != nil {
		v := *t.ActualSizeB
		m.ActualSizeB = &v
	}
	if t.IsBalanced != nil {
		m.IsBalanced = *t.IsBalanced
	}
	if t.SetTeamsSavedAt {
		m.TeamsSavedAt = t.TeamsSavedAt
	}
	cp := *m
	return &cp, nil
}

type fakePoolRepo struct {
	store *fakeStore
}

func (r *fakePoolRepo) Add(ctx context.Context, exec repositories.SQLExecutor, tenantID int, entry *models.PoolEntry) error {
	for _, e := range r.store.pools[entry.MatchID] {
		if e.PlayerID == entry.PlayerID {
			return repositories.ErrPoolEntryConflict
		}
	}
	entry.Team = models.TeamUnassigned
	r.store.pools[entry.MatchID] = append(r.store.pools[entry.MatchID], *entry)
	return nil
}

func (r *fakePoolRepo) Remove(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID, playerID int) error {
	entries := r.store.pools[matchID]
	for i, e := range entries {
		if e.PlayerID == playerID {
			r.store.pools[matchID] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return repositories.ErrPoolEntryNotFound
}

func (r *fakePoolRepo) ListByMatch(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID int) ([]models.PoolEntry, error) {
	return append([]models.PoolEntry(nil), r.store.pools[matchID]...), nil
}

func (r *fakePoolRepo) Replace(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID int, playerIDs []int) error {
	entries := make([]models.PoolEntry, 0, len(playerIDs))
	for _, id := range playerIDs {
		entries = append(entries, models.PoolEntry{MatchID: matchID, PlayerID: id, Team: models.TeamUnassigned})
	}
	r.store.pools[matchID] = entries
	return nil
}

func (r *fakePoolRepo) AssignTeams(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID int, slots []models.SlotAssignment) error {
	byPlayer := make(map[int]models.SlotAssignment, len(slots))
	for _, s := range slots {
		if s.PlayerID != nil {
			byPlayer[*s.PlayerID] = s
		}
	}
	entries := r.store.pools[matchID]
	for i := range entries {
		s, ok := byPlayer[entries[i].PlayerID]
		if !ok {
			return fmt.Errorf("player %d has no slot", entries[i].PlayerID)
		}
		num := s.SlotNumber
		entries[i].Team = s.Team
		entries[i].SlotNumber = &num
	}
	return nil
}

type fakeSlotRepo struct {
	store *fakeStore
}

func (r *fakeSlotRepo) SeedEmpty(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID, sizeA, sizeB int) error {
	slots := make([]models.SlotAssignment, 0, sizeA+sizeB)
	for i := 1; i <= sizeA+sizeB; i++ {
		team := models.TeamA
		if i > sizeA {
			team = models.TeamB
		}
		slots = append(slots, models.SlotAssignment{MatchID: matchID, SlotNumber: i, Team: team})
	}
	r.store.slots[matchID] = slots
	return nil
}

func (r *fakeSlotRepo) ReplaceAssignments(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID int, slots []models.SlotAssignment) error {
	stored := make([]models.SlotAssignment, 0, len(slots))
	for _, s := range slots {
		s.MatchID = matchID
		stored = append(stored, s)
	}
	r.store.slots[matchID] = stored
	return nil
}

func (r *fakeSlotRepo) ListByMatch(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID int) ([]models.SlotAssignment, error) {
	return append([]models.SlotAssignment(nil), r.store.slots[matchID]...), nil
}

func (r *fakeSlotRepo) DeleteByMatch(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID int) error {
	delete(r.store.slots, matchID)
	return nil
}

type fakePlayerRepo struct {
	store *fakeStore
}

func (r *fakePlayerRepo) GetByID(ctx context.Context, tenantID, playerID int) (*models.PlayerRatings, error) {
	p, ok := r.store.players[playerID]
	if !ok || p.TenantID != tenantID {
		return nil, repositories.ErrPlayerNotFound
	}
	return &p, nil
}

func (r *fakePlayerRepo) ListByIDs(ctx context.Context, tenantID int, playerIDs []int) ([]models.PlayerRatings, error) {
	var out []models.PlayerRatings
	for _, id := range playerIDs {
		if p, ok := r.store.players[id]; ok && p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeResultRepo struct {
	store *fakeStore
}

func (r *fakeResultRepo) CreateWithPlayers(ctx context.Context, exec repositories.SQLExecutor, header *models.CompletedMatch, players []models.CompletedMatchPlayer) error {
	if _, exists := r.store.results[header.MatchID]; exists {
		return repositories.ErrCompletedMatchConflict
	}
	header.ID = r.store.nextResultID
	r.store.nextResultID++
	cp := *header
	r.store.results[header.MatchID] = &cp
	rows := make([]models.CompletedMatchPlayer, 0, len(players))
	for _, p := range players {
		p.CompletedMatchID = header.ID
		rows = append(rows, p)
	}
	r.store.resultPlayers[header.MatchID] = rows
	return nil
}

func (r *fakeResultRepo) GetByMatchID(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID int) (*models.CompletedMatch, []models.CompletedMatchPlayer, error) {
	header, ok := r.store.results[matchID]
	if !ok || header.TenantID != tenantID {
		return nil, nil, repositories.ErrCompletedMatchNotFound
	}
	cp := *header
	return &cp, append([]models.CompletedMatchPlayer(nil), r.store.resultPlayers[matchID]...), nil
}

func (r *fakeResultRepo) DeleteByMatchID(ctx context.Context, exec repositories.SQLExecutor, tenantID, matchID int) error {
	delete(r.store.results, matchID)
	delete(r.store.resultPlayers, matchID)
	return nil
}

// fakeNotifier records published events in order.
type fakeNotifier struct {
	events []publishedEvent
}

type publishedEvent struct {
	TenantID int
	Type     string
	Payload  interface{}
}

func (n *fakeNotifier) Publish(tenantID int, eventType string, payload interface{}) {
	n.events = append(n.events, publishedEvent{TenantID: tenantID, Type: eventType, Payload: payload})
}

// fakeUploader records archive uploads; err makes every upload fail.
type fakeUploader struct {
	keys []string
	err  error
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.keys = append(u.keys, key)
	return &storage.UploadResult{Key: key}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error { return nil }

func (u *fakeUploader) GetPublicURL(key string) string { return "https://archive.test/" + key }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testPlayers builds n rated players for the tenant with ids 1..n.
func testPlayers(tenantID, n int) []models.PlayerRatings {
	players := make([]models.PlayerRatings, 0, n)
	for i := 1; i <= n; i++ {
		players = append(players, models.PlayerRatings{
			PlayerID:    i,
			TenantID:    tenantID,
			Name:        fmt.Sprintf("player-%d", i),
			Goalscoring: float64(1 + (i*3)%10),
			Defending:   float64(1 + (i*5)%10),
			StaminaPace: float64(1 + (i*7)%10),
			Control:     float64(1 + (i*2)%10),
			Teamwork:    float64(1 + (i*4)%10),
			Resilience:  float64(1 + (i*6)%10),
		})
	}
	return players
}
