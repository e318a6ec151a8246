package store

import (
	"context"
	"errors"

	"github.com/Herorishi1234/chess-game/internal/domain"
)

var (
	ErrDuplicateName   = errors.New("display name already taken")
	ErrAccountNotFound = errors.New("account not found")
	ErrGameNotFound    = errors.New("game not found")
)

// Repository is the narrow interface the session engine uses to read and
// write durable state. Each game write fully replaces the record.
type Repository interface {
	SaveGame(ctx context.Context, g *domain.Session) error
	GetGame(ctx context.Context, id string) (*domain.Session, error)
	ListOpenGames(ctx context.Context, limit int) ([]*domain.Session, error)
	ListGamesByAccount(ctx context.Context, accountID string, limit int) ([]*domain.Session, error)

	CreateAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	GetAccountByName(ctx context.Context, displayName string) (*domain.Account, error)
	// ApplyResult increments games-played (and games-won when won) and sets
	// the new rating. Called exactly once per finished game per account.
	ApplyResult(ctx context.Context, accountID string, won bool, rating int) error
	Leaderboard(ctx context.Context, limit int) ([]*domain.Account, error)
}
