package api_test

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/roguemon/server/internal/storage/postgres"
)

// fakePlayerStore is an in-memory PlayerStore for handler tests.
type fakePlayerStore struct {
	mu      sync.Mutex
	nextID  int64
	players map[int64]*postgres.Player
}

func newFakePlayerStore() *fakePlayerStore {
	return &fakePlayerStore{players: make(map[int64]*postgres.Player)}
}

func (f *fakePlayerStore) Create(_ context.Context, username string, startAreaID int64, inventory map[string]int) (*postgres.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Username == username {
			return nil, postgres.ErrPlayerExists
		}
	}
	f.nextID++
	p := &postgres.Player{
		ID:            f.nextID,
		Username:      username,
		CurrentAreaID: startAreaID,
		Level:         1,
		Inventory:     maps.Clone(inventory),
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	if p.Inventory == nil {
		p.Inventory = map[string]int{}
	}
	f.players[p.ID] = p
	return clonePlayer(p), nil
}

func clonePlayer(p *postgres.Player) *postgres.Player {
	cp := *p
	cp.Inventory = maps.Clone(p.Inventory)
	return &cp
}

func (f *fakePlayerStore) GetByID(_ context.Context, id int64) (*postgres.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[id]
	if !ok {
		return nil, postgres.ErrPlayerNotFound
	}
	return clonePlayer(p), nil
}

func (f *fakePlayerStore) MoveToArea(_ context.Context, playerID, areaID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[playerID]
	if !ok {
		return postgres.ErrPlayerNotFound
	}
	p.CurrentAreaID = areaID
	return nil
}

func (f *fakePlayerStore) AdjustItem(_ context.Context, playerID int64, item string, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[playerID]
	if !ok {
		return 0, postgres.ErrPlayerNotFound
	}
	count := p.Inventory[item] + delta
	if count < 0 {
		return 0, postgres.ErrInsufficientItems
	}
	if count == 0 {
		delete(p.Inventory, item)
	} else {
		p.Inventory[item] = count
	}
	return count, nil
}

func (f *fakePlayerStore) AddExperience(_ context.Context, playerID int64, xp int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.players[playerID]
	if !ok {
		return 0, postgres.ErrPlayerNotFound
	}
	p.Experience += xp
	return p.Experience, nil
}

// fakeAreaStore is an in-memory AreaStore for handler tests.
type fakeAreaStore struct {
	areas    []*postgres.Area
	trainers map[int64][]*postgres.Trainer
}

func (f *fakeAreaStore) List(context.Context) ([]*postgres.Area, error) {
	return f.areas, nil
}

func (f *fakeAreaStore) GetByID(_ context.Context, id int64) (*postgres.Area, error) {
	for _, a := range f.areas {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, postgres.ErrAreaNotFound
}

func (f *fakeAreaStore) ListTrainers(_ context.Context, areaID int64) ([]*postgres.Trainer, error) {
	return f.trainers[areaID], nil
}

// fakePokemonStore is an in-memory PokemonStore for handler tests.
type fakePokemonStore struct {
	mu     sync.Mutex
	nextID int64
	mons   []*postgres.OwnedPokemon
}

func (f *fakePokemonStore) Create(_ context.Context, p *postgres.OwnedPokemon) (*postgres.OwnedPokemon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *p
	cp.ID = f.nextID
	cp.CaughtAt = time.Now()
	f.mons = append(f.mons, &cp)
	out := cp
	return &out, nil
}

func (f *fakePokemonStore) GetByID(_ context.Context, id int64) (*postgres.OwnedPokemon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mons {
		if m.ID == id {
			out := *m
			return &out, nil
		}
	}
	return nil, postgres.ErrPokemonNotFound
}

func (f *fakePokemonStore) ListByPlayer(_ context.Context, playerID int64) ([]*postgres.OwnedPokemon, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*postgres.OwnedPokemon
	for _, m := range f.mons {
		if m.PlayerID == playerID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePokemonStore) UpdateHP(_ context.Context, id int64, currentHP int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.mons {
		if m.ID == id {
			m.CurrentHP = currentHP
			return nil
		}
	}
	return postgres.ErrPokemonNotFound
}

// fixedSource returns the same float on every draw and zero for Intn,
// making battle resolution deterministic in tests.
type fixedSource struct {
	f float64
}

func (s fixedSource) Intn(int) int     { return 0 }
func (s fixedSource) Float64() float64 { return s.f }
