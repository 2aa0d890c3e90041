package handlers

import (
	"fmt"
	"strings"

	"github.com/PranavAsoori/gymgame/internal/models"
	"github.com/PranavAsoori/gymgame/internal/service"
)

func rosterText(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}

// FormatLeaderboard renders a leaderboard snapshot as plain reply text.
func FormatLeaderboard(res *service.LeaderboardResult) string {
	var b strings.Builder
	b.WriteString("🏆 Leaderboard 🏆\n\n")

	if res.Mode != models.ModeTeam {
		for i, e := range res.Entries {
			fmt.Fprintf(&b, "%d. %s - %d points\n", i+1, e.DisplayName, e.Points)
		}
		return b.String()
	}

	b.WriteString("Team A\n")
	for _, e := range res.TeamA.Members {
		fmt.Fprintf(&b, "- %s - %d points\n", e.DisplayName, e.Points)
	}
	b.WriteString("\nTeam B\n")
	for _, e := range res.TeamB.Members {
		fmt.Fprintf(&b, "- %s - %d points\n", e.DisplayName, e.Points)
	}
	b.WriteString("\n")

	switch {
	case res.Tie:
		b.WriteString("Both teams are tied.")
	case res.Leader == models.TeamA:
		fmt.Fprintf(&b, "Team A is in the lead with %d points.", res.TeamA.Total)
	default:
		fmt.Fprintf(&b, "Team B is in the lead with %d points.", res.TeamB.Total)
	}
	return b.String()
}

// FormatDailySummary renders the scheduled daily standings broadcast.
func FormatDailySummary(users []models.User) string {
	var b strings.Builder
	b.WriteString("📊 Daily Gym Game Summary 📊\n\n")
	for i, u := range users {
		fmt.Fprintf(&b, "%d. %s - %d points\n", i+1, u.DisplayName, u.Points)
	}
	return b.String()
}

// FormatUserList renders the admin /listusers output.
func FormatUserList(users []models.User) string {
	var b strings.Builder
	b.WriteString("Users in the database:\n")
	for _, u := range users {
		fmt.Fprintf(&b, "- %s (ID: %d) - Points: %d, Streak: %d\n", u.DisplayName, u.ID, u.Points, u.Streak)
	}
	return b.String()
}
