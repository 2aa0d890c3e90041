package models

import "errors"

// Domain errors surfaced to users as reply text at the command boundary.
var (
	ErrGameAlreadyActive   = errors.New("a game is already active")
	ErrNoActiveGame        = errors.New("no active game")
	ErrNotInitiator        = errors.New("only the setup initiator can proceed")
	ErrAlreadyClaimedToday = errors.New("already claimed today")
	ErrAlreadyJoined       = errors.New("already joined the game")
	ErrUserNotFound        = errors.New("user not found")
	ErrNoGame              = errors.New("no game found")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInvalidArguments    = errors.New("invalid command arguments")
)

// ErrClaimConflict is returned by the store when a claim commit loses the
// race against a concurrent claim for the same user and day.
var ErrClaimConflict = errors.New("claim state changed concurrently")

// ErrDuplicateKey is returned by the store when an insert collides with an
// existing document under the same primary key.
var ErrDuplicateKey = errors.New("duplicate key")
