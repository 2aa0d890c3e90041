package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/PranavAsoori/gymgame/internal/models"
	"github.com/PranavAsoori/gymgame/internal/repository"
	"github.com/PranavAsoori/gymgame/internal/teams"
)

// Service owns the game lifecycle and the scoring rules. It is the only
// mutator of the single-active-game state.
type Service struct {
	users repository.UserStore
	games repository.GameStore
	rng   *rand.Rand

	// mu serializes transitions against the active game: game creation,
	// roster appends, end-day and end-game.
	mu sync.Mutex
}

func NewService(users repository.UserStore, games repository.GameStore, rng *rand.Rand) *Service {
	return &Service{users: users, games: games, rng: rng}
}

// ActiveGame returns the game currently accepting claims and joins.
func (s *Service) ActiveGame(ctx context.Context) (*models.Game, error) {
	return s.games.Active(ctx)
}

// CreateGame commits a completed setup: the new game becomes the active one
// and every user record in storage is reset to zero state, participants or
// not. Fails with ErrGameAlreadyActive when a game is already running.
func (s *Service) CreateGame(ctx context.Context, g *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.games.Active(ctx)
	if err == nil {
		return models.ErrGameAlreadyActive
	}
	if !errors.Is(err, models.ErrNoActiveGame) {
		return err
	}

	if err := s.games.Insert(ctx, g); err != nil {
		return err
	}
	return s.users.ResetAll(ctx)
}

// Join adds a new participant to the active game. In Team mode the returned
// team is where the balancer placed them; in Individual mode it is empty.
func (s *Service) Join(ctx context.Context, id int64, displayName string) (models.Team, error) {
	if _, err := s.users.Get(ctx, id); err == nil {
		return "", models.ErrAlreadyJoined
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.games.Active(ctx)
	if err != nil {
		return "", err
	}

	// Insert first: a lost creation race must not touch the rosters.
	u := &models.User{ID: id, DisplayName: displayName}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			return "", models.ErrAlreadyJoined
		}
		return "", err
	}

	var team models.Team
	if game.Mode == models.ModeTeam {
		team = teams.Pick(len(game.TeamA), len(game.TeamB), s.rng)
		if team == models.TeamA {
			game.TeamA = append(game.TeamA, displayName)
		} else {
			game.TeamB = append(game.TeamB, displayName)
		}
		if err := s.games.SetTeams(ctx, game.ID, game.TeamA, game.TeamB); err != nil {
			return "", err
		}
	}
	return team, nil
}

// Claim registers today's workout for the user and returns the post-claim
// record. The commit is conditional on the stored claim date, so two
// concurrent claims on the same day yield exactly one increment.
func (s *Service) Claim(ctx context.Context, id int64, displayName string, now time.Time) (*models.User, error) {
	today := models.DateKey(now)
	yesterday := models.DateKey(now.AddDate(0, 0, -1))

	u, err := s.users.Get(ctx, id)
	switch {
	case errors.Is(err, models.ErrUserNotFound):
		u = &models.User{ID: id, DisplayName: displayName}
		insErr := s.users.Insert(ctx, u)
		if errors.Is(insErr, models.ErrDuplicateKey) {
			// Lost the creation race; reload the winner's record and fall
			// through to the same-day and commit checks below.
			u, err = s.users.Get(ctx, id)
			if err != nil {
				return nil, err
			}
		} else if insErr != nil {
			return nil, insErr
		}
	case err != nil:
		return nil, err
	default:
		if displayName != "" && u.DisplayName != displayName {
			if err := s.users.SetDisplayName(ctx, id, displayName); err != nil {
				return nil, err
			}
			u.DisplayName = displayName
		}
	}

	if u.LastClaim == today {
		return nil, models.ErrAlreadyClaimedToday
	}

	streak := 1
	if u.LastClaim == yesterday {
		streak = u.Streak + 1
	}
	points := u.Points + 1
	if streak%7 == 0 {
		points += 3 // every 7th consecutive claim
	}

	if err := s.users.UpdateClaim(ctx, id, points, streak, today, u.LastClaim); err != nil {
		if errors.Is(err, models.ErrClaimConflict) {
			return nil, models.ErrAlreadyClaimedToday
		}
		return nil, err
	}

	u.Points, u.Streak, u.LastClaim = points, streak, today
	return u, nil
}

// EndDayResult describes what an end-day transition did.
type EndDayResult struct {
	PrevDay int
	Day     int
	Ended   bool
	Final   *LeaderboardResult // set when the transition ended the game
}

// EndDay closes the current day: the day counter advances and every user's
// streak and claim date reset, points untouched. When the new day exceeds
// the duration threshold the game ends instead.
func (s *Service) EndDay(ctx context.Context) (*EndDayResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.games.Active(ctx)
	if err != nil {
		return nil, err
	}

	next := game.Day + 1
	if err := s.games.SetDay(ctx, game.ID, next); err != nil {
		return nil, err
	}
	if err := s.users.ResetDaily(ctx); err != nil {
		return nil, err
	}

	res := &EndDayResult{PrevDay: game.Day, Day: next}
	if next > game.Duration.Days() {
		final, err := s.endGameLocked(ctx, game)
		if err != nil {
			return nil, err
		}
		res.Ended = true
		res.Final = final
	}
	return res, nil
}

// EndGame ends the active game immediately.
func (s *Service) EndGame(ctx context.Context) (*LeaderboardResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.games.Active(ctx)
	if err != nil {
		return nil, err
	}
	return s.endGameLocked(ctx, game)
}

// endGameLocked computes the final leaderboard, deactivates the game and
// wipes every user and game record. Nothing about the game remains
// observable afterwards. Caller holds s.mu.
func (s *Service) endGameLocked(ctx context.Context, game *models.Game) (*LeaderboardResult, error) {
	final, err := s.leaderboardFor(ctx, game)
	if err != nil {
		return nil, err
	}
	if err := s.games.Deactivate(ctx, game.ID); err != nil {
		return nil, err
	}
	if err := s.users.DeleteAll(ctx); err != nil {
		return nil, err
	}
	if err := s.games.DeleteAll(ctx); err != nil {
		return nil, err
	}
	return final, nil
}

// AdjustPoints adds delta to the points of the first user matching the
// display name. Lookup is exact and case-sensitive.
func (s *Service) AdjustPoints(ctx context.Context, displayName string, delta int) (*models.User, error) {
	u, err := s.users.FindByName(ctx, displayName)
	if err != nil {
		return nil, err
	}
	if err := s.users.AdjustPoints(ctx, u.ID, delta); err != nil {
		return nil, err
	}
	u.Points += delta
	return u, nil
}

// SetPoints overwrites the points of the first user matching the display name.
func (s *Service) SetPoints(ctx context.Context, displayName string, value int) (*models.User, error) {
	u, err := s.users.FindByName(ctx, displayName)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetPoints(ctx, u.ID, value); err != nil {
		return nil, err
	}
	u.Points = value
	return u, nil
}

// Reset zeroes every user's points, streak and claim date without deleting
// any records. Safe to call with no active game, idempotent.
func (s *Service) Reset(ctx context.Context) error {
	return s.users.ResetAll(ctx)
}

// ListUsers returns all user records in storage order.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// TopUsers returns all user records ordered by points descending,
// independent of game mode. Used for the daily summary broadcast.
func (s *Service) TopUsers(ctx context.Context) ([]models.User, error) {
	return s.users.ListByPoints(ctx)
}
