// Package api exposes the game over HTTP: player lifecycle, area travel,
// encounters, catching, and turn-based battles.
package api

import (
	"context"

	"github.com/roguemon/server/internal/storage/postgres"
)

// PlayerStore is the subset of player persistence the API needs.
type PlayerStore interface {
	Create(ctx context.Context, username string, startAreaID int64, inventory map[string]int) (*postgres.Player, error)
	GetByID(ctx context.Context, id int64) (*postgres.Player, error)
	MoveToArea(ctx context.Context, playerID, areaID int64) error
	AdjustItem(ctx context.Context, playerID int64, item string, delta int) (int, error)
	AddExperience(ctx context.Context, playerID int64, xp int) (int, error)
}

// AreaStore is the subset of area persistence the API needs.
type AreaStore interface {
	List(ctx context.Context) ([]*postgres.Area, error)
	GetByID(ctx context.Context, id int64) (*postgres.Area, error)
	ListTrainers(ctx context.Context, areaID int64) ([]*postgres.Trainer, error)
}

// PokemonStore is the subset of owned-pokemon persistence the API needs.
type PokemonStore interface {
	Create(ctx context.Context, p *postgres.OwnedPokemon) (*postgres.OwnedPokemon, error)
	GetByID(ctx context.Context, id int64) (*postgres.OwnedPokemon, error)
	ListByPlayer(ctx context.Context, playerID int64) ([]*postgres.OwnedPokemon, error)
	UpdateHP(ctx context.Context, id int64, currentHP int) error
}
