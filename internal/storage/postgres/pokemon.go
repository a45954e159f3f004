package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPokemonNotFound is returned when an owned pokemon lookup yields no results.
var ErrPokemonNotFound = errors.New("pokemon not found")

// OwnedPokemon represents a pokemon caught by a player. Moves holds the
// known move IDs as a JSONB array; species data lives in the dex, not here.
type OwnedPokemon struct {
	ID        int64
	PlayerID  int64
	SpeciesID int
	Nickname  string
	Level     int
	CurrentHP int
	MaxHP     int
	Moves     []string
	CaughtAt  time.Time
}

// PokemonRepository provides owned-pokemon persistence operations.
type PokemonRepository struct {
	db *pgxpool.Pool
}

// NewPokemonRepository creates a PokemonRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPokemonRepository(db *pgxpool.Pool) *PokemonRepository {
	return &PokemonRepository{db: db}
}

const pokemonColumns = `id, player_id, species_id, nickname, level, current_hp, max_hp, moves, caught_at`

func scanPokemon(row pgx.Row) (*OwnedPokemon, error) {
	var p OwnedPokemon
	err := row.Scan(
		&p.ID, &p.PlayerID, &p.SpeciesID, &p.Nickname, &p.Level,
		&p.CurrentHP, &p.MaxHP, &p.Moves, &p.CaughtAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a newly caught pokemon and returns it with ID set.
//
// Precondition: p.PlayerID must reference an existing player; p.Level >= 1.
func (r *PokemonRepository) Create(ctx context.Context, p *OwnedPokemon) (*OwnedPokemon, error) {
	out, err := scanPokemon(r.db.QueryRow(ctx, `
		INSERT INTO pokemon (player_id, species_id, nickname, level, current_hp, max_hp, moves)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+pokemonColumns,
		p.PlayerID, p.SpeciesID, p.Nickname, p.Level, p.CurrentHP, p.MaxHP, p.Moves,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting pokemon: %w", err)
	}
	return out, nil
}

// GetByID retrieves an owned pokemon by its primary key.
//
// Postcondition: Returns the OwnedPokemon or ErrPokemonNotFound.
func (r *PokemonRepository) GetByID(ctx context.Context, id int64) (*OwnedPokemon, error) {
	p, err := scanPokemon(r.db.QueryRow(ctx,
		`SELECT `+pokemonColumns+` FROM pokemon WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPokemonNotFound
		}
		return nil, fmt.Errorf("querying pokemon: %w", err)
	}
	return p, nil
}

// ListByPlayer returns all pokemon owned by the given player, oldest first.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *PokemonRepository) ListByPlayer(ctx context.Context, playerID int64) ([]*OwnedPokemon, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+pokemonColumns+` FROM pokemon WHERE player_id = $1 ORDER BY caught_at ASC, id ASC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pokemon: %w", err)
	}
	defer rows.Close()

	mons := make([]*OwnedPokemon, 0)
	for rows.Next() {
		p, err := scanPokemon(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning pokemon row: %w", err)
		}
		mons = append(mons, p)
	}
	return mons, rows.Err()
}

// UpdateHP sets the current HP of an owned pokemon.
//
// Precondition: currentHP must be within [0, max_hp].
// Postcondition: The HP is updated, or ErrPokemonNotFound.
func (r *PokemonRepository) UpdateHP(ctx context.Context, id int64, currentHP int) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE pokemon SET current_hp = $1 WHERE id = $2`,
		currentHP, id,
	)
	if err != nil {
		return fmt.Errorf("updating pokemon hp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPokemonNotFound
	}
	return nil
}

// SetNickname renames an owned pokemon.
//
// Postcondition: The nickname is updated, or ErrPokemonNotFound.
func (r *PokemonRepository) SetNickname(ctx context.Context, id int64, nickname string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE pokemon SET nickname = $1 WHERE id = $2`,
		nickname, id,
	)
	if err != nil {
		return fmt.Errorf("updating pokemon nickname: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPokemonNotFound
	}
	return nil
}
