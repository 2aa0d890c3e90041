package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/PranavAsoori/gymgame/internal/models"
)

var (
	_ UserStore = (*MemoryUserStore)(nil)
	_ GameStore = (*MemoryGameStore)(nil)
)

// MemoryUserStore is an in-memory UserStore. Documents keep insertion order,
// which is the order FindByName and List observe.
type MemoryUserStore struct {
	mu    sync.Mutex
	users []*models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{}
}

func (s *MemoryUserStore) lookup(id int64) *models.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *MemoryUserStore) Get(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.lookup(id); u != nil {
		c := *u
		return &c, nil
	}
	return nil, models.ErrUserNotFound
}

func (s *MemoryUserStore) FindByName(_ context.Context, displayName string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.DisplayName == displayName {
			c := *u
			return &c, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *MemoryUserStore) Insert(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookup(u.ID) != nil {
		return models.ErrDuplicateKey
	}
	c := *u
	s.users = append(s.users, &c)
	return nil
}

func (s *MemoryUserStore) SetDisplayName(_ context.Context, id int64, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.lookup(id); u != nil {
		u.DisplayName = displayName
	}
	return nil
}

func (s *MemoryUserStore) UpdateClaim(_ context.Context, id int64, points, streak int, today, expectLast string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.lookup(id)
	if u == nil || u.LastClaim != expectLast {
		return models.ErrClaimConflict
	}
	u.Points = points
	u.Streak = streak
	u.LastClaim = today
	return nil
}

func (s *MemoryUserStore) AdjustPoints(_ context.Context, id int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.lookup(id); u != nil {
		u.Points += delta
	}
	return nil
}

func (s *MemoryUserStore) SetPoints(_ context.Context, id int64, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.lookup(id); u != nil {
		u.Points = value
	}
	return nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *MemoryUserStore) ListByPoints(ctx context.Context) ([]models.User, error) {
	out, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	// Stable keeps insertion order between equal scores.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	return out, nil
}

func (s *MemoryUserStore) ResetAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		u.Points = 0
		u.Streak = 0
		u.LastClaim = ""
	}
	return nil
}

func (s *MemoryUserStore) ResetDaily(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		u.Streak = 0
		u.LastClaim = ""
	}
	return nil
}

func (s *MemoryUserStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = nil
	return nil
}

// MemoryGameStore is an in-memory GameStore.
type MemoryGameStore struct {
	mu    sync.Mutex
	games []*models.Game
}

func NewMemoryGameStore() *MemoryGameStore {
	return &MemoryGameStore{}
}

func (s *MemoryGameStore) lookup(id string) *models.Game {
	for _, g := range s.games {
		if g.ID == id {
			return g
		}
	}
	return nil
}

func copyGame(g *models.Game) *models.Game {
	c := *g
	c.TeamA = append([]string(nil), g.TeamA...)
	c.TeamB = append([]string(nil), g.TeamB...)
	return &c
}

func (s *MemoryGameStore) Active(_ context.Context) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.Active {
			return copyGame(g), nil
		}
	}
	return nil, models.ErrNoActiveGame
}

func (s *MemoryGameStore) MostRecent(_ context.Context) (*models.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.Game
	for _, g := range s.games {
		if latest == nil || g.StartDate.After(latest.StartDate) {
			latest = g
		}
	}
	if latest == nil {
		return nil, models.ErrNoGame
	}
	return copyGame(latest), nil
}

func (s *MemoryGameStore) Insert(_ context.Context, g *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, copyGame(g))
	return nil
}

func (s *MemoryGameStore) SetTeams(_ context.Context, id string, teamA, teamB []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.lookup(id); g != nil {
		g.TeamA = append([]string(nil), teamA...)
		g.TeamB = append([]string(nil), teamB...)
	}
	return nil
}

func (s *MemoryGameStore) SetDay(_ context.Context, id string, day int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.lookup(id); g != nil {
		g.Day = day
	}
	return nil
}

func (s *MemoryGameStore) Deactivate(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.lookup(id); g != nil {
		g.Active = false
	}
	return nil
}

func (s *MemoryGameStore) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = nil
	return nil
}
