package api

import (
	"errors"
	"sync"

	"github.com/roguemon/server/internal/game/battle"
	"github.com/roguemon/server/internal/game/dex"
)

// ErrNoActiveBattle is returned when a battle action arrives for a player
// with no battle in progress.
var ErrNoActiveBattle = errors.New("no active battle")

// ErrBattleInProgress is returned when starting a battle while one is active.
var ErrBattleInProgress = errors.New("battle already in progress")

// ErrNoPendingEncounter is returned when starting a battle without first
// rolling an encounter.
var ErrNoPendingEncounter = errors.New("no pending encounter")

// ActiveBattle tracks one player's battle: the session, the wild opponent,
// and the owned pokemon fighting on the player's side so its HP can be
// persisted after each turn.
type ActiveBattle struct {
	Session   *battle.Session
	Wild      *dex.WildPokemon
	PokemonID int64
}

// BattleManager holds per-player battle state in memory. Encounters are
// rolled first and consumed when a battle starts.
type BattleManager struct {
	mu         sync.Mutex
	encounters map[int64]*dex.WildPokemon
	battles    map[int64]*ActiveBattle
}

// NewBattleManager creates an empty BattleManager.
func NewBattleManager() *BattleManager {
	return &BattleManager{
		encounters: make(map[int64]*dex.WildPokemon),
		battles:    make(map[int64]*ActiveBattle),
	}
}

// SetEncounter records the pending wild encounter for a player, replacing
// any previous one.
func (m *BattleManager) SetEncounter(playerID int64, wild *dex.WildPokemon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.encounters[playerID] = wild
}

// Encounter returns the player's pending encounter, if any.
func (m *BattleManager) Encounter(playerID int64) (*dex.WildPokemon, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.encounters[playerID]
	return w, ok
}

// StartBattle consumes the player's pending encounter and opens a battle
// with the given session.
//
// Precondition: the session must already be started.
// Postcondition: Returns the ActiveBattle, ErrBattleInProgress, or
// ErrNoPendingEncounter.
func (m *BattleManager) StartBattle(playerID int64, pokemonID int64, session *battle.Session) (*ActiveBattle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, fighting := m.battles[playerID]; fighting {
		return nil, ErrBattleInProgress
	}
	wild, ok := m.encounters[playerID]
	if !ok {
		return nil, ErrNoPendingEncounter
	}
	delete(m.encounters, playerID)

	b := &ActiveBattle{Session: session, Wild: wild, PokemonID: pokemonID}
	m.battles[playerID] = b
	return b, nil
}

// Battle returns the player's active battle, if any.
func (m *BattleManager) Battle(playerID int64) (*ActiveBattle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.battles[playerID]
	return b, ok
}

// EndBattle removes the player's active battle.
func (m *BattleManager) EndBattle(playerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.battles, playerID)
}
