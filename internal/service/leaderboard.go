package service

import (
	"context"
	"errors"

	"github.com/PranavAsoori/gymgame/internal/models"
)

// Entry is one leaderboard row.
type Entry struct {
	DisplayName string
	Points      int
}

// TeamStanding is one team's side of a Team-mode leaderboard.
type TeamStanding struct {
	Members []Entry
	Total   int
}

// LeaderboardResult is a read-only snapshot of the current standings.
type LeaderboardResult struct {
	Mode    models.Mode
	Entries []Entry // Individual mode: all users, points descending

	TeamA  TeamStanding
	TeamB  TeamStanding
	Leader models.Team // Team mode: team with the higher sum, "" on tie
	Tie    bool
}

// Leaderboard reports standings for the active game, falling back to the
// most recently started game when none is active. Returns ErrNoGame when no
// game record exists at all.
func (s *Service) Leaderboard(ctx context.Context) (*LeaderboardResult, error) {
	game, err := s.games.Active(ctx)
	if errors.Is(err, models.ErrNoActiveGame) {
		game, err = s.games.MostRecent(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.leaderboardFor(ctx, game)
}

func (s *Service) leaderboardFor(ctx context.Context, game *models.Game) (*LeaderboardResult, error) {
	if game.Mode == models.ModeTeam {
		return s.teamStandings(ctx, game)
	}

	users, err := s.users.ListByPoints(ctx)
	if err != nil {
		return nil, err
	}
	res := &LeaderboardResult{Mode: game.Mode}
	for _, u := range users {
		res.Entries = append(res.Entries, Entry{DisplayName: u.DisplayName, Points: u.Points})
	}
	return res, nil
}

func (s *Service) teamStandings(ctx context.Context, game *models.Game) (*LeaderboardResult, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}

	inA := rosterSet(game.TeamA)
	inB := rosterSet(game.TeamB)

	res := &LeaderboardResult{Mode: models.ModeTeam}
	for _, u := range users {
		e := Entry{DisplayName: u.DisplayName, Points: u.Points}
		switch {
		case inA[u.DisplayName]:
			res.TeamA.Members = append(res.TeamA.Members, e)
			res.TeamA.Total += u.Points
		case inB[u.DisplayName]:
			res.TeamB.Members = append(res.TeamB.Members, e)
			res.TeamB.Total += u.Points
		}
	}

	switch {
	case res.TeamA.Total > res.TeamB.Total:
		res.Leader = models.TeamA
	case res.TeamB.Total > res.TeamA.Total:
		res.Leader = models.TeamB
	default:
		res.Tie = true
	}
	return res, nil
}

func rosterSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
