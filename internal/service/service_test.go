package service

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PranavAsoori/gymgame/internal/models"
	"github.com/PranavAsoori/gymgame/internal/repository"
)

func newTestService() (*Service, *repository.MemoryUserStore, *repository.MemoryGameStore) {
	users := repository.NewMemoryUserStore()
	games := repository.NewMemoryGameStore()
	svc := NewService(users, games, rand.New(rand.NewSource(1)))
	return svc, users, games
}

func testGame(mode models.Mode, duration models.Duration) *models.Game {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return &models.Game{
		ID:        models.NewGameID(now),
		Mode:      mode,
		Duration:  duration,
		Day:       1,
		Active:    true,
		StartDate: now,
	}
}

func TestClaimStreakAndBonusSequence(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	wantPoints := []int{1, 2, 3, 4, 5, 6, 10}
	for i := 0; i < 7; i++ {
		u, err := svc.Claim(ctx, 1, "alice", day.AddDate(0, 0, i))
		require.NoError(t, err)
		assert.Equal(t, i+1, u.Streak)
		assert.Equal(t, wantPoints[i], u.Points, "day %d", i+1)
	}
}

func TestClaimGapResetsStreak(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	u, err := svc.Claim(ctx, 1, "alice", day)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Streak)

	u, err = svc.Claim(ctx, 1, "alice", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, u.Streak)

	// Two-day gap: streak restarts, points keep accruing.
	u, err = svc.Claim(ctx, 1, "alice", day.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, 1, u.Streak)
	assert.Equal(t, 3, u.Points)
}

func TestClaimTwiceSameDay(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	_, err := svc.Claim(ctx, 1, "alice", now)
	require.NoError(t, err)

	_, err = svc.Claim(ctx, 1, "alice", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, models.ErrAlreadyClaimedToday)

	u, err := users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Points)
	assert.Equal(t, 1, u.Streak)
}

func TestConcurrentClaimsSingleIncrement(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	require.NoError(t, users.Insert(ctx, &models.User{ID: 1, DisplayName: "alice"}))

	const claims = 16
	var wg sync.WaitGroup
	results := make(chan error, claims)
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Claim(ctx, 1, "alice", now)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, rejected int
	for err := range results {
		if err == nil {
			ok++
		} else if assert.ErrorIs(t, err, models.ErrAlreadyClaimedToday) {
			rejected++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, claims-1, rejected)

	u, err := users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Points)
}

// staleGetStore misses the first lookup, as when a concurrent insert for the
// same user lands between a caller's read and its write.
type staleGetStore struct {
	repository.UserStore
	mu     sync.Mutex
	missed bool
}

func (s *staleGetStore) Get(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	first := !s.missed
	s.missed = true
	s.mu.Unlock()
	if first {
		return nil, models.ErrUserNotFound
	}
	return s.UserStore.Get(ctx, id)
}

func TestClaimLosesInsertRaceToSameDayClaim(t *testing.T) {
	users := repository.NewMemoryUserStore()
	games := repository.NewMemoryGameStore()
	svc := NewService(&staleGetStore{UserStore: users}, games, rand.New(rand.NewSource(1)))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	// The other claimant already created the document and claimed today.
	require.NoError(t, users.Insert(ctx, &models.User{
		ID: 1, DisplayName: "alice", Points: 1, Streak: 1, LastClaim: models.DateKey(now),
	}))

	_, err := svc.Claim(ctx, 1, "alice", now)
	assert.ErrorIs(t, err, models.ErrAlreadyClaimedToday)

	all, err := users.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].Points)
}

func TestClaimLosesInsertRaceToJoin(t *testing.T) {
	users := repository.NewMemoryUserStore()
	games := repository.NewMemoryGameStore()
	svc := NewService(&staleGetStore{UserStore: users}, games, rand.New(rand.NewSource(1)))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	// The winner only created the document; no claim yet today.
	require.NoError(t, users.Insert(ctx, &models.User{ID: 1, DisplayName: "alice"}))

	u, err := svc.Claim(ctx, 1, "alice", now)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Points)
	assert.Equal(t, 1, u.Streak)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestJoinLosesInsertRace(t *testing.T) {
	users := repository.NewMemoryUserStore()
	games := repository.NewMemoryGameStore()
	svc := NewService(&staleGetStore{UserStore: users}, games, rand.New(rand.NewSource(1)))
	ctx := context.Background()
	require.NoError(t, svc.CreateGame(ctx, testGame(models.ModeTeam, models.DurationOneWeek)))
	require.NoError(t, users.Insert(ctx, &models.User{ID: 1, DisplayName: "alice"}))

	_, err := svc.Join(ctx, 1, "alice")
	assert.ErrorIs(t, err, models.ErrAlreadyJoined)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// The lost race left the rosters alone.
	g, err := games.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, g.TeamA)
	assert.Empty(t, g.TeamB)
}

func TestClaimRefreshesDisplayName(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()
	day := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	_, err := svc.Claim(ctx, 1, "alice", day)
	require.NoError(t, err)

	u, err := svc.Claim(ctx, 1, "alice_renamed", day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "alice_renamed", u.DisplayName)

	stored, err := users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alice_renamed", stored.DisplayName)
}

func TestCreateGameEnforcesSingleActiveGame(t *testing.T) {
	svc, _, games := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.CreateGame(ctx, testGame(models.ModeIndividual, models.DurationOneWeek)))

	err := svc.CreateGame(ctx, testGame(models.ModeIndividual, models.DurationOneWeek))
	assert.ErrorIs(t, err, models.ErrGameAlreadyActive)

	g, err := games.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Day)
}

func TestCreateGameResetsEveryUser(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	// A leftover user who will not play the new game is reset too.
	require.NoError(t, users.Insert(ctx, &models.User{
		ID: 9, DisplayName: "ghost", Points: 12, Streak: 3, LastClaim: "2026-02-28",
	}))

	require.NoError(t, svc.CreateGame(ctx, testGame(models.ModeIndividual, models.DurationOneWeek)))

	u, err := users.Get(ctx, 9)
	require.NoError(t, err)
	assert.Zero(t, u.Points)
	assert.Zero(t, u.Streak)
	assert.Empty(t, u.LastClaim)
}

func TestJoinRequiresActiveGame(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Join(context.Background(), 1, "alice")
	assert.ErrorIs(t, err, models.ErrNoActiveGame)
}

func TestJoinRejectsExistingUser(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.CreateGame(ctx, testGame(models.ModeIndividual, models.DurationOneWeek)))
	require.NoError(t, users.Insert(ctx, &models.User{ID: 1, DisplayName: "alice"}))

	_, err := svc.Join(ctx, 1, "alice")
	assert.ErrorIs(t, err, models.ErrAlreadyJoined)
}

func TestJoinIndividualMode(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.CreateGame(ctx, testGame(models.ModeIndividual, models.DurationOneWeek)))

	team, err := svc.Join(ctx, 1, "alice")
	require.NoError(t, err)
	assert.Empty(t, team)

	u, err := users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, u.Points)
	assert.Zero(t, u.Streak)
	assert.Empty(t, u.LastClaim)
}

func TestJoinTeamModeBalancesRosters(t *testing.T) {
	svc, _, games := newTestService()
	ctx := context.Background()

	g := testGame(models.ModeTeam, models.DurationOneWeek)
	g.TeamA = []string{"alice"}
	require.NoError(t, svc.CreateGame(ctx, g))

	// Team B is smaller, so the next join must land there.
	team, err := svc.Join(ctx, 2, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.TeamB, team)

	got, err := games.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got.TeamA)
	assert.Equal(t, []string{"bob"}, got.TeamB)

	// Rosters even again: placement is a coin flip, roster still persisted.
	team, err = svc.Join(ctx, 3, "carol")
	require.NoError(t, err)
	got, err = games.Active(ctx)
	require.NoError(t, err)
	assert.Contains(t, got.Roster(team), "carol")
	assert.Equal(t, 3, len(got.TeamA)+len(got.TeamB))
}

func TestEndDayAdvancesAndResetsDailyState(t *testing.T) {
	svc, users, games := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.CreateGame(ctx, testGame(models.ModeIndividual, models.DurationOneWeek)))
	require.NoError(t, users.Insert(ctx, &models.User{
		ID: 1, DisplayName: "alice", Points: 5, Streak: 4, LastClaim: "2026-03-01",
	}))

	res, err := svc.EndDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.PrevDay)
	assert.Equal(t, 2, res.Day)
	assert.False(t, res.Ended)

	g, err := games.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Day)

	u, err := users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, u.Points, "points survive the day rollover")
	assert.Zero(t, u.Streak)
	assert.Empty(t, u.LastClaim)
}

func TestEndDayPastThresholdEndsGame(t *testing.T) {
	svc, users, games := newTestService()
	ctx := context.Background()

	g := testGame(models.ModeIndividual, models.DurationOneWeek)
	g.Day = 7
	require.NoError(t, svc.CreateGame(ctx, g))
	require.NoError(t, users.Insert(ctx, &models.User{ID: 1, DisplayName: "alice", Points: 9}))

	res, err := svc.EndDay(ctx)
	require.NoError(t, err)
	assert.True(t, res.Ended)
	require.NotNil(t, res.Final)
	require.Len(t, res.Final.Entries, 1)
	assert.Equal(t, 9, res.Final.Entries[0].Points)

	// Nothing survives the wipe.
	_, err = games.MostRecent(ctx)
	assert.ErrorIs(t, err, models.ErrNoGame)
	left, err := users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestEndGameWipesEverything(t *testing.T) {
	svc, users, games := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.CreateGame(ctx, testGame(models.ModeIndividual, models.DurationOneWeek)))
	require.NoError(t, users.Insert(ctx, &models.User{ID: 1, DisplayName: "alice", Points: 3}))
	require.NoError(t, users.Insert(ctx, &models.User{ID: 2, DisplayName: "bob", Points: 7}))

	final, err := svc.EndGame(ctx)
	require.NoError(t, err)
	require.Len(t, final.Entries, 2)
	assert.Equal(t, "bob", final.Entries[0].DisplayName)

	_, err = games.Active(ctx)
	assert.ErrorIs(t, err, models.ErrNoActiveGame)
	_, err = games.MostRecent(ctx)
	assert.ErrorIs(t, err, models.ErrNoGame)
	left, err := users.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, left)

	_, err = svc.EndGame(ctx)
	assert.ErrorIs(t, err, models.ErrNoActiveGame)
}

func TestAdminPointOverrides(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, users.Insert(ctx, &models.User{ID: 1, DisplayName: "alice", Points: 5}))

	u, err := svc.AdjustPoints(ctx, "alice", 3)
	require.NoError(t, err)
	assert.Equal(t, 8, u.Points)

	u, err = svc.AdjustPoints(ctx, "alice", -2)
	require.NoError(t, err)
	assert.Equal(t, 6, u.Points)

	u, err = svc.SetPoints(ctx, "alice", 20)
	require.NoError(t, err)
	assert.Equal(t, 20, u.Points)

	stored, err := users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, stored.Points)
}

func TestAdminOverridesUnknownName(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, users.Insert(ctx, &models.User{ID: 1, DisplayName: "alice", Points: 5}))

	_, err := svc.AdjustPoints(ctx, "Alice", 3)
	assert.ErrorIs(t, err, models.ErrUserNotFound, "lookup is case-sensitive")

	_, err = svc.SetPoints(ctx, "nobody", 20)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	stored, err := users.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Points, "failed override leaves storage unchanged")
}

func TestResetIsIdempotent(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, users.Insert(ctx, &models.User{
		ID: 1, DisplayName: "alice", Points: 5, Streak: 2, LastClaim: "2026-03-01",
	}))

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Reset(ctx))
		u, err := users.Get(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, u.Points)
		assert.Zero(t, u.Streak)
		assert.Empty(t, u.LastClaim)
	}
}
