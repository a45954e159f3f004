package api

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/roguemon/server/internal/game/battle"
	"github.com/roguemon/server/internal/game/dex"
	"github.com/roguemon/server/internal/storage/postgres"
)

// Items every new player starts with.
func startingInventory() map[string]int {
	return map[string]int{"pokeball": 5, "potion": 3, "antidote": 2}
}

const itemPokeball = "pokeball"

// experiencePerLevel is the XP awarded per level of a defeated wild pokemon.
const experiencePerLevel = 10

type playerResponse struct {
	ID            int64          `json:"id"`
	Username      string         `json:"username"`
	CurrentAreaID int64          `json:"current_area_id"`
	Level         int            `json:"level"`
	Experience    int            `json:"experience"`
	Money         int            `json:"money"`
	Inventory     map[string]int `json:"inventory"`
}

func toPlayerResponse(p *postgres.Player) playerResponse {
	return playerResponse{
		ID:            p.ID,
		Username:      p.Username,
		CurrentAreaID: p.CurrentAreaID,
		Level:         p.Level,
		Experience:    p.Experience,
		Money:         p.Money,
		Inventory:     p.Inventory,
	}
}

type pokemonResponse struct {
	ID        int64    `json:"id"`
	SpeciesID int      `json:"species_id"`
	Species   string   `json:"species"`
	Nickname  string   `json:"nickname,omitempty"`
	Level     int      `json:"level"`
	CurrentHP int      `json:"current_hp"`
	MaxHP     int      `json:"max_hp"`
	Moves     []string `json:"moves"`
}

func (s *Server) toPokemonResponse(p *postgres.OwnedPokemon) pokemonResponse {
	resp := pokemonResponse{
		ID:        p.ID,
		SpeciesID: p.SpeciesID,
		Nickname:  p.Nickname,
		Level:     p.Level,
		CurrentHP: p.CurrentHP,
		MaxHP:     p.MaxHP,
		Moves:     p.Moves,
	}
	if species, err := s.dex.Species(p.SpeciesID); err == nil {
		resp.Species = species.Name
	}
	return resp
}

type areaResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Connections []int64 `json:"connections"`
}

func toAreaResponse(a *postgres.Area) areaResponse {
	return areaResponse{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Connections: a.Connections,
	}
}

type trainerResponse struct {
	ID    int64                     `json:"id"`
	Name  string                    `json:"name"`
	Party []postgres.TrainerPokemon `json:"party"`
}

type encounterResponse struct {
	SpeciesID int    `json:"species_id"`
	Species   string `json:"species"`
	Type      string `json:"type"`
	Level     int    `json:"level"`
	MaxHP     int    `json:"max_hp"`
}

func toEncounterResponse(w *dex.WildPokemon) encounterResponse {
	return encounterResponse{
		SpeciesID: w.Species.ID,
		Species:   w.Species.Name,
		Type:      w.Species.Type,
		Level:     w.Level,
		MaxHP:     w.Combatant.MaxHP,
	}
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createPlayerRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req createPlayerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" {
		s.writeError(w, http.StatusBadRequest, "username must not be empty")
		return
	}

	ctx := r.Context()
	areas, err := s.areas.List(ctx)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "listing areas")
		return
	}
	if len(areas) == 0 {
		s.writeError(w, http.StatusInternalServerError, "no areas defined")
		return
	}

	player, err := s.players.Create(ctx, req.Username, areas[0].ID, startingInventory())
	if err != nil {
		if errors.Is(err, postgres.ErrPlayerExists) {
			s.writeError(w, http.StatusConflict, "username already taken")
			return
		}
		s.logger.Error("creating player", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "creating player")
		return
	}

	// Every new player receives the starter species.
	if _, err := s.grantPokemon(r, player.ID, s.starterSpeciesID, s.starterLevel); err != nil {
		s.logger.Error("granting starter", zap.Int64("player", player.ID), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "granting starter pokemon")
		return
	}

	s.writeJSON(w, http.StatusCreated, toPlayerResponse(player))
}

// grantPokemon spawns a species at the given level and persists it for the
// player at full health.
func (s *Server) grantPokemon(r *http.Request, playerID int64, speciesID, level int) (*postgres.OwnedPokemon, error) {
	combatant, err := s.dex.Spawn(speciesID, level)
	if err != nil {
		return nil, err
	}
	moves, err := s.dex.KnownMoves(speciesID)
	if err != nil {
		return nil, err
	}
	return s.pokemon.Create(r.Context(), &postgres.OwnedPokemon{
		PlayerID:  playerID,
		SpeciesID: speciesID,
		Level:     level,
		CurrentHP: combatant.MaxHP,
		MaxHP:     combatant.MaxHP,
		Moves:     moves,
	})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	player, err := s.players.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, postgres.ErrPlayerNotFound) {
			s.writeError(w, http.StatusNotFound, "player not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "querying player")
		return
	}
	s.writeJSON(w, http.StatusOK, toPlayerResponse(player))
}

func (s *Server) handleListPokemon(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	if _, err := s.players.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, postgres.ErrPlayerNotFound) {
			s.writeError(w, http.StatusNotFound, "player not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "querying player")
		return
	}

	mons, err := s.pokemon.ListByPlayer(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "listing pokemon")
		return
	}
	out := make([]pokemonResponse, 0, len(mons))
	for _, p := range mons {
		out = append(out, s.toPokemonResponse(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMovePlayer(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	areaID, err := pathID(r, "areaID")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid area id")
		return
	}

	ctx := r.Context()
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, postgres.ErrPlayerNotFound) {
			s.writeError(w, http.StatusNotFound, "player not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "querying player")
		return
	}
	if _, fighting := s.battles.Battle(playerID); fighting {
		s.writeError(w, http.StatusConflict, "cannot travel during a battle")
		return
	}

	current, err := s.areas.GetByID(ctx, player.CurrentAreaID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "querying current area")
		return
	}
	if _, err := s.areas.GetByID(ctx, areaID); err != nil {
		if errors.Is(err, postgres.ErrAreaNotFound) {
			s.writeError(w, http.StatusNotFound, "area not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "querying area")
		return
	}
	if !current.ConnectsTo(areaID) {
		s.writeError(w, http.StatusBadRequest, "area is not connected to the player's location")
		return
	}

	if err := s.players.MoveToArea(ctx, playerID, areaID); err != nil {
		s.writeError(w, http.StatusInternalServerError, "moving player")
		return
	}
	player.CurrentAreaID = areaID
	s.writeJSON(w, http.StatusOK, toPlayerResponse(player))
}

func (s *Server) handleEncounter(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}

	ctx := r.Context()
	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, postgres.ErrPlayerNotFound) {
			s.writeError(w, http.StatusNotFound, "player not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "querying player")
		return
	}
	if _, fighting := s.battles.Battle(playerID); fighting {
		s.writeError(w, http.StatusConflict, "battle already in progress")
		return
	}

	area, err := s.areas.GetByID(ctx, player.CurrentAreaID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "querying current area")
		return
	}

	wild, err := s.dex.GenerateWild(area.Encounters, s.rand)
	if err != nil {
		if errors.Is(err, dex.ErrEmptyEncounterTable) {
			s.writeError(w, http.StatusNotFound, "no wild pokemon in this area")
			return
		}
		s.logger.Error("generating encounter", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "generating encounter")
		return
	}

	s.battles.SetEncounter(playerID, wild)
	s.writeJSON(w, http.StatusOK, toEncounterResponse(wild))
}

func (s *Server) handleCatch(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	speciesID, err := pathID(r, "speciesID")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid species id")
		return
	}

	level := s.starterLevel
	if raw := r.URL.Query().Get("level"); raw != "" {
		level, err = strconv.Atoi(raw)
		if err != nil || level < 1 {
			s.writeError(w, http.StatusBadRequest, "invalid level")
			return
		}
	}

	ctx := r.Context()
	if _, err := s.players.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, postgres.ErrPlayerNotFound) {
			s.writeError(w, http.StatusNotFound, "player not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "querying player")
		return
	}
	if _, err := s.dex.Species(int(speciesID)); err != nil {
		s.writeError(w, http.StatusNotFound, "species not found")
		return
	}

	if _, err := s.players.AdjustItem(ctx, playerID, itemPokeball, -1); err != nil {
		if errors.Is(err, postgres.ErrInsufficientItems) {
			s.writeError(w, http.StatusBadRequest, "no pokeballs left")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "consuming pokeball")
		return
	}

	caught, err := s.grantPokemon(r, playerID, int(speciesID), level)
	if err != nil {
		s.logger.Error("catching pokemon", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "catching pokemon")
		return
	}
	s.writeJSON(w, http.StatusCreated, s.toPokemonResponse(caught))
}

func (s *Server) handleListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.areas.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "listing areas")
		return
	}
	out := make([]areaResponse, 0, len(areas))
	for _, a := range areas {
		out = append(out, toAreaResponse(a))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetArea(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid area id")
		return
	}
	area, err := s.areas.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, postgres.ErrAreaNotFound) {
			s.writeError(w, http.StatusNotFound, "area not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "querying area")
		return
	}
	s.writeJSON(w, http.StatusOK, toAreaResponse(area))
}

func (s *Server) handleListTrainers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid area id")
		return
	}
	if _, err := s.areas.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, postgres.ErrAreaNotFound) {
			s.writeError(w, http.StatusNotFound, "area not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "querying area")
		return
	}
	trainers, err := s.areas.ListTrainers(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "listing trainers")
		return
	}
	out := make([]trainerResponse, 0, len(trainers))
	for _, t := range trainers {
		out = append(out, trainerResponse{ID: t.ID, Name: t.Name, Party: t.Party})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type combatantSnapshot struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	CurrentHP int    `json:"current_hp"`
	MaxHP     int    `json:"max_hp"`
}

func toSnapshot(c *battle.Combatant) combatantSnapshot {
	return combatantSnapshot{
		Name:      c.Name,
		Type:      string(c.Type),
		CurrentHP: c.CurrentHP,
		MaxHP:     c.MaxHP,
	}
}

type battleResponse struct {
	State  string            `json:"state"`
	Turn   string            `json:"turn,omitempty"`
	Player combatantSnapshot `json:"player"`
	Enemy  combatantSnapshot `json:"enemy"`
	Winner string            `json:"winner,omitempty"`
	Events []turnEvent       `json:"events,omitempty"`
	Caught bool              `json:"caught,omitempty"`
	Fled   bool              `json:"fled,omitempty"`
}

type turnEvent struct {
	Attacker      string  `json:"attacker"`
	Move          string  `json:"move"`
	Hit           bool    `json:"hit"`
	Damage        int     `json:"damage"`
	Effectiveness float64 `json:"effectiveness"`
	STAB          bool    `json:"stab"`
	Fainted       bool    `json:"fainted"`
}

func toTurnEvent(res battle.TurnResult) turnEvent {
	return turnEvent{
		Attacker:      res.Attacker.Name,
		Move:          res.Move.Name,
		Hit:           res.Outcome.Hit,
		Damage:        res.Outcome.Damage,
		Effectiveness: res.Outcome.Effectiveness,
		STAB:          res.Outcome.STAB,
		Fainted:       res.Defender.IsFainted(),
	}
}

func (s *Server) toBattleResponse(b *ActiveBattle, events []turnEvent) battleResponse {
	resp := battleResponse{
		State:  b.Session.State().String(),
		Player: toSnapshot(b.Session.Combatant(battle.SidePlayer)),
		Enemy:  toSnapshot(b.Session.Combatant(battle.SideEnemy)),
		Events: events,
	}
	if b.Session.State() == battle.StateInProgress {
		resp.Turn = b.Session.TurnOwner().String()
	}
	if winner, ok := b.Session.Winner(); ok {
		resp.Winner = winner.String()
	}
	return resp
}

func (s *Server) handleStartBattle(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}

	ctx := r.Context()
	if _, err := s.players.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, postgres.ErrPlayerNotFound) {
			s.writeError(w, http.StatusNotFound, "player not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "querying player")
		return
	}

	wild, ok := s.battles.Encounter(playerID)
	if !ok {
		s.writeError(w, http.StatusConflict, "no pending encounter")
		return
	}

	mons, err := s.pokemon.ListByPlayer(ctx, playerID)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "listing pokemon")
		return
	}
	fighter, combatant, err := s.firstAblePokemon(mons)
	if err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}

	session, err := battle.NewSession(s.dex.Chart(), combatant, wild.Combatant)
	if err != nil {
		s.logger.Error("creating battle session", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "creating battle")
		return
	}
	if err := session.Start(); err != nil {
		s.writeError(w, http.StatusInternalServerError, "starting battle")
		return
	}

	active, err := s.battles.StartBattle(playerID, fighter.ID, session)
	if err != nil {
		switch {
		case errors.Is(err, ErrBattleInProgress):
			s.writeError(w, http.StatusConflict, "battle already in progress")
		case errors.Is(err, ErrNoPendingEncounter):
			s.writeError(w, http.StatusConflict, "no pending encounter")
		default:
			s.writeError(w, http.StatusInternalServerError, "starting battle")
		}
		return
	}

	s.writeJSON(w, http.StatusCreated, s.toBattleResponse(active, nil))
}

// firstAblePokemon picks the first pokemon with HP remaining and builds its
// battle combatant from species data at the owned level and stored HP.
func (s *Server) firstAblePokemon(mons []*postgres.OwnedPokemon) (*postgres.OwnedPokemon, *battle.Combatant, error) {
	for _, p := range mons {
		if p.CurrentHP <= 0 {
			continue
		}
		c, err := s.dex.Spawn(p.SpeciesID, p.Level)
		if err != nil {
			return nil, nil, err
		}
		c.CurrentHP = p.CurrentHP
		if p.Nickname != "" {
			c.Name = p.Nickname
		}
		return p, c, nil
	}
	return nil, nil, errors.New("no pokemon able to battle")
}

func (s *Server) handleGetBattle(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	active, ok := s.battles.Battle(playerID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no active battle")
		return
	}
	s.writeJSON(w, http.StatusOK, s.toBattleResponse(active, nil))
}

type battleActionRequest struct {
	Action string `json:"action"`
	Move   string `json:"move,omitempty"`
}

func (s *Server) handleBattleAction(w http.ResponseWriter, r *http.Request) {
	playerID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid player id")
		return
	}
	var req battleActionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	active, ok := s.battles.Battle(playerID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no active battle")
		return
	}

	switch req.Action {
	case "attack":
		s.battleAttack(w, r, playerID, active, req.Move)
	case "catch":
		s.battleCatch(w, r, playerID, active)
	case "run":
		s.battleRun(w, r, playerID, active)
	default:
		s.writeError(w, http.StatusBadRequest, "action must be one of attack, catch, run")
	}
}

// enemyTurns resolves enemy turns while the enemy owns the turn and the
// battle is in progress. The enemy asks the scripted policy first, when one
// is installed, and falls back to the built-in selector.
func (s *Server) enemyTurns(active *ActiveBattle, events []turnEvent) ([]turnEvent, error) {
	session := active.Session
	for session.State() == battle.StateInProgress && session.TurnOwner() == battle.SideEnemy {
		enemy := session.Combatant(battle.SideEnemy)
		player := session.Combatant(battle.SidePlayer)

		name, ok := "", false
		if s.policy != nil {
			name, ok = s.policy.Choose(enemy, player, session.Chart(), s.rand)
		}
		if !ok {
			move, err := battle.ChooseMove(enemy, player.Type, session.Chart(), s.rand)
			if err != nil {
				return events, err
			}
			name = move.Name
		}

		res, err := session.PlayTurn(battle.SideEnemy, name, s.rand)
		if err != nil {
			return events, err
		}
		events = append(events, toTurnEvent(res))
	}
	return events, nil
}

// finishBattle persists the player pokemon's HP and, when the battle ended,
// awards experience for a win and clears the battle.
func (s *Server) finishBattle(r *http.Request, playerID int64, active *ActiveBattle) {
	ctx := r.Context()
	playerMon := active.Session.Combatant(battle.SidePlayer)
	if err := s.pokemon.UpdateHP(ctx, active.PokemonID, playerMon.CurrentHP); err != nil {
		s.logger.Error("persisting pokemon hp",
			zap.Int64("pokemon", active.PokemonID),
			zap.Error(err),
		)
	}

	if active.Session.State() != battle.StateEnded {
		return
	}
	if winner, ok := active.Session.Winner(); ok && winner == battle.SidePlayer {
		xp := active.Wild.Level * experiencePerLevel
		if _, err := s.players.AddExperience(ctx, playerID, xp); err != nil {
			s.logger.Error("awarding experience", zap.Int64("player", playerID), zap.Error(err))
		}
	}
	s.battles.EndBattle(playerID)
}

func (s *Server) battleAttack(w http.ResponseWriter, r *http.Request, playerID int64, active *ActiveBattle, moveName string) {
	if moveName == "" {
		s.writeError(w, http.StatusBadRequest, "attack requires a move")
		return
	}
	session := active.Session

	var events []turnEvent
	var err error

	// A faster enemy owns the opening turn.
	if events, err = s.enemyTurns(active, events); err != nil {
		s.logger.Error("resolving enemy turn", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "resolving enemy turn")
		return
	}

	if session.State() == battle.StateInProgress {
		res, err := session.PlayTurn(battle.SidePlayer, moveName, s.rand)
		if err != nil {
			switch {
			case errors.Is(err, battle.ErrUnknownMove):
				s.writeError(w, http.StatusBadRequest, "unknown move")
			case errors.Is(err, battle.ErrBattleEnded):
				s.writeError(w, http.StatusConflict, "battle has ended")
			default:
				s.writeError(w, http.StatusInternalServerError, "resolving turn")
			}
			return
		}
		events = append(events, toTurnEvent(res))

		if events, err = s.enemyTurns(active, events); err != nil {
			s.logger.Error("resolving enemy turn", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "resolving enemy turn")
			return
		}
	}

	resp := s.toBattleResponse(active, events)
	s.finishBattle(r, playerID, active)
	s.writeJSON(w, http.StatusOK, resp)
}

// battleCatch spends a pokeball on a catch attempt. The catch chance shrinks
// with the wild pokemon's remaining health: full health is hardest.
func (s *Server) battleCatch(w http.ResponseWriter, r *http.Request, playerID int64, active *ActiveBattle) {
	session := active.Session

	var events []turnEvent
	var err error
	if events, err = s.enemyTurns(active, events); err != nil {
		s.logger.Error("resolving enemy turn", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "resolving enemy turn")
		return
	}
	if session.State() != battle.StateInProgress {
		resp := s.toBattleResponse(active, events)
		s.finishBattle(r, playerID, active)
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	if _, err := s.players.AdjustItem(r.Context(), playerID, itemPokeball, -1); err != nil {
		if errors.Is(err, postgres.ErrInsufficientItems) {
			s.writeError(w, http.StatusBadRequest, "no pokeballs left")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "consuming pokeball")
		return
	}

	enemy := session.Combatant(battle.SideEnemy)
	chance := 1.0 - 0.7*enemy.HPFraction()
	if s.rand.Float64() < chance {
		moves, err := s.dex.KnownMoves(active.Wild.Species.ID)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "catching pokemon")
			return
		}
		if _, err := s.pokemon.Create(r.Context(), &postgres.OwnedPokemon{
			PlayerID:  playerID,
			SpeciesID: active.Wild.Species.ID,
			Level:     active.Wild.Level,
			CurrentHP: max(enemy.CurrentHP, 1),
			MaxHP:     enemy.MaxHP,
			Moves:     moves,
		}); err != nil {
			s.logger.Error("persisting caught pokemon", zap.Error(err))
			s.writeError(w, http.StatusInternalServerError, "catching pokemon")
			return
		}

		_ = session.Abort()
		resp := s.toBattleResponse(active, events)
		resp.Caught = true
		s.finishBattle(r, playerID, active)
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	// Failed attempt spends the turn; the wild pokemon strikes back.
	if err := session.Pass(battle.SidePlayer); err != nil {
		s.writeError(w, http.StatusInternalServerError, "resolving turn")
		return
	}
	if events, err = s.enemyTurns(active, events); err != nil {
		s.logger.Error("resolving enemy turn", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "resolving enemy turn")
		return
	}

	resp := s.toBattleResponse(active, events)
	s.finishBattle(r, playerID, active)
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) battleRun(w http.ResponseWriter, r *http.Request, playerID int64, active *ActiveBattle) {
	_ = active.Session.Abort()
	resp := s.toBattleResponse(active, nil)
	resp.Fled = true
	s.finishBattle(r, playerID, active)
	s.writeJSON(w, http.StatusOK, resp)
}
