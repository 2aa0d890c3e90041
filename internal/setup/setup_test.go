package setup

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PranavAsoori/gymgame/internal/models"
)

const (
	chatID      = int64(-100)
	initiatorID = int64(7)
	otherID     = int64(8)
)

func newManager() *Manager {
	return NewManager(rand.New(rand.NewSource(1)))
}

func TestFullIndividualFlow(t *testing.T) {
	m := newManager()
	require.NoError(t, m.Begin(chatID, initiatorID, "alice"))
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	step, err := m.Advance(chatID, initiatorID, "Individual", now)
	require.NoError(t, err)
	assert.Equal(t, SetDuration, step.Next)
	assert.Empty(t, step.AssignedTeam)

	step, err = m.Advance(chatID, initiatorID, "2 weeks", now)
	require.NoError(t, err)
	assert.Equal(t, ConfirmPenalties, step.Next)

	step, err = m.Advance(chatID, initiatorID, "No", now)
	require.NoError(t, err)
	require.NotNil(t, step.Game)

	g := step.Game
	assert.Equal(t, models.ModeIndividual, g.Mode)
	assert.Equal(t, models.DurationTwoWeeks, g.Duration)
	assert.False(t, g.Penalties)
	assert.Equal(t, 1, g.Day)
	assert.True(t, g.Active)
	assert.Equal(t, now, g.StartDate)
	assert.Empty(t, g.TeamA)
	assert.Empty(t, g.TeamB)

	// Session is consumed on completion.
	assert.False(t, m.Active(chatID))
}

func TestTeamModePlacesInitiator(t *testing.T) {
	m := newManager()
	require.NoError(t, m.Begin(chatID, initiatorID, "alice"))

	step, err := m.Advance(chatID, initiatorID, "Team", time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, step.AssignedTeam)

	step, err = m.Advance(chatID, initiatorID, "1 week", time.Now())
	require.NoError(t, err)
	step, err = m.Advance(chatID, initiatorID, "Yes", time.Now())
	require.NoError(t, err)
	require.NotNil(t, step.Game)

	assert.True(t, step.Game.Penalties)
	total := len(step.Game.TeamA) + len(step.Game.TeamB)
	assert.Equal(t, 1, total)
	all := append(append([]string{}, step.Game.TeamA...), step.Game.TeamB...)
	assert.Equal(t, []string{"alice"}, all)
}

func TestNonInitiatorRejected(t *testing.T) {
	m := newManager()
	require.NoError(t, m.Begin(chatID, initiatorID, "alice"))

	_, err := m.Advance(chatID, otherID, "Team", time.Now())
	assert.ErrorIs(t, err, models.ErrNotInitiator)

	// State unchanged: the initiator can still answer the first question.
	step, err := m.Advance(chatID, initiatorID, "Individual", time.Now())
	require.NoError(t, err)
	assert.Equal(t, SetDuration, step.Next)
}

func TestInvalidChoiceReprompts(t *testing.T) {
	m := newManager()
	require.NoError(t, m.Begin(chatID, initiatorID, "alice"))

	for _, text := range []string{"individual", "Both", ""} {
		_, err := m.Advance(chatID, initiatorID, text, time.Now())
		assert.ErrorIs(t, err, ErrInvalidChoice)
	}

	step, err := m.Advance(chatID, initiatorID, "Individual", time.Now())
	require.NoError(t, err)
	require.Equal(t, SetDuration, step.Next)

	_, err = m.Advance(chatID, initiatorID, "3 weeks", time.Now())
	assert.ErrorIs(t, err, ErrInvalidChoice)

	step, err = m.Advance(chatID, initiatorID, "1 month", time.Now())
	require.NoError(t, err)
	require.Equal(t, ConfirmPenalties, step.Next)

	_, err = m.Advance(chatID, initiatorID, "maybe", time.Now())
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestAdvanceWithoutSession(t *testing.T) {
	m := newManager()
	_, err := m.Advance(chatID, initiatorID, "Individual", time.Now())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestBeginRefusesTakeover(t *testing.T) {
	m := newManager()
	require.NoError(t, m.Begin(chatID, initiatorID, "alice"))

	step, err := m.Advance(chatID, initiatorID, "Individual", time.Now())
	require.NoError(t, err)
	require.Equal(t, SetDuration, step.Next)

	err = m.Begin(chatID, otherID, "bob")
	assert.ErrorIs(t, err, models.ErrNotInitiator)

	// The running session is untouched: still alice's, still on duration.
	id, ok := m.Initiator(chatID)
	require.True(t, ok)
	assert.Equal(t, initiatorID, id)
	step, err = m.Advance(chatID, initiatorID, "1 week", time.Now())
	require.NoError(t, err)
	assert.Equal(t, ConfirmPenalties, step.Next)
}

func TestBeginRestartsOwnSession(t *testing.T) {
	m := newManager()
	require.NoError(t, m.Begin(chatID, initiatorID, "alice"))
	_, err := m.Advance(chatID, initiatorID, "Individual", time.Now())
	require.NoError(t, err)

	// The initiator may start over from the mode question.
	require.NoError(t, m.Begin(chatID, initiatorID, "alice"))
	step, err := m.Advance(chatID, initiatorID, "Team", time.Now())
	require.NoError(t, err)
	assert.Equal(t, SetDuration, step.Next)
	assert.NotEmpty(t, step.AssignedTeam)
}

func TestInitiatorLookup(t *testing.T) {
	m := newManager()
	_, ok := m.Initiator(chatID)
	assert.False(t, ok)

	require.NoError(t, m.Begin(chatID, initiatorID, "alice"))
	id, ok := m.Initiator(chatID)
	require.True(t, ok)
	assert.Equal(t, initiatorID, id)

	m.Abandon(chatID)
	_, ok = m.Initiator(chatID)
	assert.False(t, ok)
}

func TestAbandonDropsSession(t *testing.T) {
	m := newManager()
	require.NoError(t, m.Begin(chatID, initiatorID, "alice"))
	require.True(t, m.Active(chatID))

	m.Abandon(chatID)
	assert.False(t, m.Active(chatID))
	_, err := m.Advance(chatID, initiatorID, "Individual", time.Now())
	assert.ErrorIs(t, err, ErrNoSession)
}
