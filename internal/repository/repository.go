package repository

import (
	"context"

	"github.com/PranavAsoori/gymgame/internal/models"
)

// UserStore is the per-user document store.
//
// Display names are not unique; FindByName returns whichever matching
// document the store yields first.
type UserStore interface {
	Get(ctx context.Context, id int64) (*models.User, error)
	FindByName(ctx context.Context, displayName string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) error
	SetDisplayName(ctx context.Context, id int64, displayName string) error

	// UpdateClaim commits a claim only if the stored last_claim still equals
	// expectLast. Returns models.ErrClaimConflict otherwise.
	UpdateClaim(ctx context.Context, id int64, points, streak int, today, expectLast string) error

	AdjustPoints(ctx context.Context, id int64, delta int) error
	SetPoints(ctx context.Context, id int64, value int) error

	List(ctx context.Context) ([]models.User, error)
	ListByPoints(ctx context.Context) ([]models.User, error)

	ResetAll(ctx context.Context) error
	ResetDaily(ctx context.Context) error
	DeleteAll(ctx context.Context) error
}

// GameStore is the game document store.
type GameStore interface {
	Active(ctx context.Context) (*models.Game, error)
	MostRecent(ctx context.Context) (*models.Game, error)
	Insert(ctx context.Context, g *models.Game) error
	SetTeams(ctx context.Context, id string, teamA, teamB []string) error
	SetDay(ctx context.Context, id string, day int) error
	Deactivate(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}
