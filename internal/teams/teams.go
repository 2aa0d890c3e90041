// Package teams implements the team placement policy.
package teams

import (
	"math/rand"

	"github.com/PranavAsoori/gymgame/internal/models"
)

// Pick chooses the team for a new member: the smaller roster wins, equal
// rosters are decided by a coin flip. rng is not synchronized; every caller
// must own its instance.
func Pick(sizeA, sizeB int, rng *rand.Rand) models.Team {
	switch {
	case sizeA < sizeB:
		return models.TeamA
	case sizeB < sizeA:
		return models.TeamB
	}
	if rng.Intn(2) == 0 {
		return models.TeamA
	}
	return models.TeamB
}
