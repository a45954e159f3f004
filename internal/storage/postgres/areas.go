package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roguemon/server/internal/game/dex"
)

// ErrAreaNotFound is returned when an area lookup yields no results.
var ErrAreaNotFound = errors.New("area not found")

// Area represents an explorable map area. Connections lists the IDs of
// directly reachable areas; Encounters is the wild encounter table used
// when a player searches the area.
type Area struct {
	ID          int64
	Name        string
	Description string
	Connections []int64
	Encounters  []dex.EncounterEntry
}

// ConnectsTo reports whether the given area is directly reachable.
func (a *Area) ConnectsTo(areaID int64) bool {
	return slices.Contains(a.Connections, areaID)
}

// TrainerPokemon is a single member of a trainer's party.
type TrainerPokemon struct {
	SpeciesID int `json:"species_id"`
	Level     int `json:"level"`
}

// Trainer represents an NPC trainer stationed in an area.
type Trainer struct {
	ID     int64
	AreaID int64
	Name   string
	Party  []TrainerPokemon
}

// AreaRepository provides area and trainer persistence operations.
type AreaRepository struct {
	db *pgxpool.Pool
}

// NewAreaRepository creates an AreaRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewAreaRepository(db *pgxpool.Pool) *AreaRepository {
	return &AreaRepository{db: db}
}

const areaColumns = `id, name, description, connections, encounters`

func scanArea(row pgx.Row) (*Area, error) {
	var a Area
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Connections, &a.Encounters)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new area and returns it with its ID set.
//
// Precondition: a.Name must be non-empty.
func (r *AreaRepository) Create(ctx context.Context, a *Area) (*Area, error) {
	out, err := scanArea(r.db.QueryRow(ctx, `
		INSERT INTO areas (name, description, connections, encounters)
		VALUES ($1, $2, $3, $4)
		RETURNING `+areaColumns,
		a.Name, a.Description, a.Connections, a.Encounters,
	))
	if err != nil {
		return nil, fmt.Errorf("inserting area: %w", err)
	}
	return out, nil
}

// List returns all areas ordered by ID.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *AreaRepository) List(ctx context.Context) ([]*Area, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+areaColumns+` FROM areas ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing areas: %w", err)
	}
	defer rows.Close()

	areas := make([]*Area, 0)
	for rows.Next() {
		a, err := scanArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning area row: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// GetByID retrieves an area by its primary key.
//
// Precondition: id must be > 0.
// Postcondition: Returns the Area or ErrAreaNotFound.
func (r *AreaRepository) GetByID(ctx context.Context, id int64) (*Area, error) {
	a, err := scanArea(r.db.QueryRow(ctx,
		`SELECT `+areaColumns+` FROM areas WHERE id = $1`, id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAreaNotFound
		}
		return nil, fmt.Errorf("querying area: %w", err)
	}
	return a, nil
}

// UpdateConnections replaces an area's connection list. The world importer
// uses this to link areas after all of them have been assigned IDs.
//
// Precondition: id must be > 0.
// Postcondition: Returns nil, or ErrAreaNotFound when id does not exist.
func (r *AreaRepository) UpdateConnections(ctx context.Context, id int64, connections []int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE areas SET connections = $2 WHERE id = $1`,
		id, connections,
	)
	if err != nil {
		return fmt.Errorf("updating area connections: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAreaNotFound
	}
	return nil
}

// CreateTrainer inserts a new trainer into the given area.
//
// Precondition: t.AreaID must reference an existing area; t.Name must be
// non-empty.
func (r *AreaRepository) CreateTrainer(ctx context.Context, t *Trainer) (*Trainer, error) {
	var out Trainer
	err := r.db.QueryRow(ctx, `
		INSERT INTO trainers (area_id, name, party)
		VALUES ($1, $2, $3)
		RETURNING id, area_id, name, party`,
		t.AreaID, t.Name, t.Party,
	).Scan(&out.ID, &out.AreaID, &out.Name, &out.Party)
	if err != nil {
		return nil, fmt.Errorf("inserting trainer: %w", err)
	}
	return &out, nil
}

// ListTrainers returns all trainers stationed in the given area.
//
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *AreaRepository) ListTrainers(ctx context.Context, areaID int64) ([]*Trainer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, area_id, name, party FROM trainers WHERE area_id = $1 ORDER BY id ASC`,
		areaID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing trainers: %w", err)
	}
	defer rows.Close()

	trainers := make([]*Trainer, 0)
	for rows.Next() {
		var t Trainer
		if err := rows.Scan(&t.ID, &t.AreaID, &t.Name, &t.Party); err != nil {
			return nil, fmt.Errorf("scanning trainer row: %w", err)
		}
		trainers = append(trainers, &t)
	}
	return trainers, rows.Err()
}
