package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPlayerNotFound is returned when a player lookup yields no results.
var ErrPlayerNotFound = errors.New("player not found")

// ErrPlayerExists is returned when attempting to create a duplicate username.
var ErrPlayerExists = errors.New("player already exists")

// ErrInsufficientItems is returned when removing more of an item than the
// player holds.
var ErrInsufficientItems = errors.New("insufficient items")

// Player represents a player row. Inventory is stored as a JSONB map of
// item name to count.
type Player struct {
	ID            int64
	Username      string
	CurrentAreaID int64
	Level         int
	Experience    int
	Money         int
	Inventory     map[string]int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PlayerRepository provides player persistence operations.
type PlayerRepository struct {
	db *pgxpool.Pool
}

// NewPlayerRepository creates a PlayerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, username, current_area_id, level, experience, money, inventory, created_at, updated_at`

func scanPlayer(row pgx.Row) (*Player, error) {
	var p Player
	err := row.Scan(
		&p.ID, &p.Username, &p.CurrentAreaID, &p.Level, &p.Experience,
		&p.Money, &p.Inventory, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new player starting in the given area with the given
// starting inventory.
//
// Precondition: username must be non-empty; startAreaID must reference an
// existing area.
// Postcondition: Returns the created Player with ID and timestamps set,
// or ErrPlayerExists if the username is taken.
func (r *PlayerRepository) Create(ctx context.Context, username string, startAreaID int64, inventory map[string]int) (*Player, error) {
	if inventory == nil {
		inventory = map[string]int{}
	}
	p, err := scanPlayer(r.db.QueryRow(ctx, `
		INSERT INTO players (username, current_area_id, inventory)
		VALUES ($1, $2, $3)
		RETURNING `+playerColumns,
		username, startAreaID, inventory,
	))
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrPlayerExists
		}
		return nil, fmt.Errorf("inserting player: %w", err)
	}
	return p, nil
}

// GetByID retrieves a player by its primary key.
//
// Precondition: id must be > 0.
// Postcondition: Returns the Player or ErrPlayerNotFound.
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*Player, error) {
	p, err := scanPlayer(r.db.QueryRow(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return p, nil
}

// MoveToArea updates the player's current area.
//
// Precondition: areaID must reference an existing area. Adjacency checks
// are the caller's responsibility.
// Postcondition: The player's location is updated, or ErrPlayerNotFound.
func (r *PlayerRepository) MoveToArea(ctx context.Context, playerID, areaID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE players SET current_area_id = $1, updated_at = now() WHERE id = $2`,
		areaID, playerID,
	)
	if err != nil {
		return fmt.Errorf("updating player area: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// AdjustItem changes the held count of an item by delta, which may be
// negative. The row is locked for the duration of the adjustment so
// concurrent consumers cannot double-spend.
//
// Precondition: item must be non-empty.
// Postcondition: Returns the new count, ErrInsufficientItems if the count
// would go negative, or ErrPlayerNotFound.
func (r *PlayerRepository) AdjustItem(ctx context.Context, playerID int64, item string, delta int) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var inventory map[string]int
	err = tx.QueryRow(ctx,
		`SELECT inventory FROM players WHERE id = $1 FOR UPDATE`, playerID,
	).Scan(&inventory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, fmt.Errorf("querying inventory: %w", err)
	}
	if inventory == nil {
		inventory = map[string]int{}
	}

	count := inventory[item] + delta
	if count < 0 {
		return 0, ErrInsufficientItems
	}
	if count == 0 {
		delete(inventory, item)
	} else {
		inventory[item] = count
	}

	if _, err := tx.Exec(ctx,
		`UPDATE players SET inventory = $1, updated_at = now() WHERE id = $2`,
		inventory, playerID,
	); err != nil {
		return 0, fmt.Errorf("updating inventory: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing inventory update: %w", err)
	}
	return count, nil
}

// AddExperience grants experience points to the player.
//
// Precondition: xp must be >= 0.
// Postcondition: Returns the new total, or ErrPlayerNotFound.
func (r *PlayerRepository) AddExperience(ctx context.Context, playerID int64, xp int) (int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`UPDATE players SET experience = experience + $1, updated_at = now()
		 WHERE id = $2 RETURNING experience`,
		xp, playerID,
	).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPlayerNotFound
		}
		return 0, fmt.Errorf("updating experience: %w", err)
	}
	return total, nil
}

// AdjustMoney changes the player's money by delta, which may be negative.
//
// Postcondition: Returns the new balance, ErrInsufficientItems if the
// balance would go negative, or ErrPlayerNotFound.
func (r *PlayerRepository) AdjustMoney(ctx context.Context, playerID int64, delta int) (int, error) {
	var balance int
	err := r.db.QueryRow(ctx,
		`UPDATE players SET money = money + $1, updated_at = now()
		 WHERE id = $2 AND money + $1 >= 0 RETURNING money`,
		delta, playerID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing player from an overdraw.
			if _, lookupErr := r.GetByID(ctx, playerID); lookupErr != nil {
				return 0, lookupErr
			}
			return 0, ErrInsufficientItems
		}
		return 0, fmt.Errorf("updating money: %w", err)
	}
	return balance, nil
}
