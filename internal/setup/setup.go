// Package setup drives the game-configuration conversation.
package setup

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/PranavAsoori/gymgame/internal/models"
	"github.com/PranavAsoori/gymgame/internal/teams"
)

// State is the current question of the setup conversation.
type State int

const (
	SelectMode State = iota
	SetDuration
	ConfirmPenalties
)

// ErrInvalidChoice means the reply matched none of the offered options.
// The session stays in the same state; the caller should re-prompt.
var ErrInvalidChoice = errors.New("unrecognized choice")

// ErrNoSession means no setup conversation is running in this chat.
var ErrNoSession = errors.New("no setup session")

// Session is one in-flight setup conversation. Only the initiator's replies
// advance it.
type Session struct {
	InitiatorID   int64
	InitiatorName string
	State         State

	mode     models.Mode
	duration models.Duration
	teamA    []string
	teamB    []string
}

// Step is the outcome of feeding one reply into a session.
type Step struct {
	Next         State        // state after the reply
	AssignedTeam models.Team  // initiator placement, set when Team mode was chosen
	Game         *models.Game // non-nil once setup completed
}

// Manager holds setup sessions keyed by chat, one at a time per chat.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	rng      *rand.Rand
}

func NewManager(rng *rand.Rand) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		rng:      rng,
	}
}

// Begin opens a session bound to the initiator. The initiator may restart
// their own in-flight session from the top; anyone else is rejected with
// ErrNotInitiator while one is running. Nothing is persisted until the
// final confirmation.
func (m *Manager) Begin(chatID, initiatorID int64, initiatorName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[chatID]; ok && s.InitiatorID != initiatorID {
		return models.ErrNotInitiator
	}
	m.sessions[chatID] = &Session{
		InitiatorID:   initiatorID,
		InitiatorName: initiatorName,
		State:         SelectMode,
	}
	return nil
}

// Initiator returns who started the chat's session, if one is running.
func (m *Manager) Initiator(chatID int64) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return 0, false
	}
	return s.InitiatorID, true
}

// Active reports whether a setup conversation is running in the chat.
func (m *Manager) Active(chatID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[chatID]
	return ok
}

// Abandon drops the chat's session, if any, with no persisted side effect.
func (m *Manager) Abandon(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}

// Advance feeds one reply into the chat's session.
//
// Returns ErrNoSession when no setup is running, ErrNotInitiator when the
// reply came from someone else, and ErrInvalidChoice when the reply matches
// no offered option. In every error case session state is unchanged.
func (m *Manager) Advance(chatID, userID int64, text string, now time.Time) (*Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return nil, ErrNoSession
	}
	if userID != s.InitiatorID {
		return nil, models.ErrNotInitiator
	}

	switch s.State {
	case SelectMode:
		mode, ok := models.ParseMode(text)
		if !ok {
			return nil, ErrInvalidChoice
		}
		s.mode = mode
		s.State = SetDuration
		step := &Step{Next: SetDuration}
		if mode == models.ModeTeam {
			// Both rosters are empty, so this is a pure coin flip.
			team := teams.Pick(0, 0, m.rng)
			if team == models.TeamA {
				s.teamA = append(s.teamA, s.InitiatorName)
			} else {
				s.teamB = append(s.teamB, s.InitiatorName)
			}
			step.AssignedTeam = team
		}
		return step, nil

	case SetDuration:
		duration, ok := models.ParseDuration(text)
		if !ok {
			return nil, ErrInvalidChoice
		}
		s.duration = duration
		s.State = ConfirmPenalties
		return &Step{Next: ConfirmPenalties}, nil

	default: // ConfirmPenalties
		var penalties bool
		switch text {
		case "Yes":
			penalties = true
		case "No":
			penalties = false
		default:
			return nil, ErrInvalidChoice
		}

		now = now.UTC()
		game := &models.Game{
			ID:        models.NewGameID(now),
			Mode:      s.mode,
			Duration:  s.duration,
			Penalties: penalties,
			TeamA:     s.teamA,
			TeamB:     s.teamB,
			Day:       1,
			Active:    true,
			StartDate: now,
		}
		delete(m.sessions, chatID)
		return &Step{Game: game}, nil
	}
}
