package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/roguemon/server/internal/config"
	"github.com/roguemon/server/internal/game/battle"
	"github.com/roguemon/server/internal/game/dex"
	"github.com/roguemon/server/internal/game/rng"
)

// MovePolicy selects a wild pokemon's move each enemy turn. The boolean
// reports whether a move was chosen; on false the server falls back to the
// built-in selector.
type MovePolicy interface {
	Choose(attacker, defender *battle.Combatant, chart *battle.Chart, src rng.Source) (string, bool)
}

// Server is the HTTP front end. It satisfies the lifecycle Service interface:
// Start blocks until Stop is called or the listener fails.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	corsOrigin string

	players PlayerStore
	areas   AreaStore
	pokemon PokemonStore
	dex     *dex.Registry
	rand    rng.Source
	battles *BattleManager
	policy  MovePolicy

	starterSpeciesID int
	starterLevel     int
	shutdownTimeout  time.Duration
}

// Stores bundles the persistence dependencies of the server.
type Stores struct {
	Players PlayerStore
	Areas   AreaStore
	Pokemon PokemonStore
}

// NewServer wires the HTTP API.
//
// Precondition: all Stores fields, registry, src, and logger must be non-nil.
// Postcondition: Returns a Server ready for Start.
func NewServer(cfg config.HTTPConfig, game config.GameConfig, stores Stores, registry *dex.Registry, src rng.Source, logger *zap.Logger) *Server {
	s := &Server{
		logger:           logger,
		corsOrigin:       cfg.CORSOrigin,
		players:          stores.Players,
		areas:            stores.Areas,
		pokemon:          stores.Pokemon,
		dex:              registry,
		rand:             src,
		battles:          NewBattleManager(),
		starterSpeciesID: game.StarterSpeciesID,
		starterLevel:     game.StarterLevel,
		shutdownTimeout:  cfg.ShutdownTimeout,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.withLogging(s.withCORS(s.routes())),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// UseMovePolicy installs a scripted move policy for wild pokemon. Call
// before Start; the server does not guard concurrent replacement.
func (s *Server) UseMovePolicy(p MovePolicy) { s.policy = p }

// Handler returns the fully wrapped HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// routes builds the router. Path parameters use the Go 1.22 ServeMux syntax.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHealth)

	mux.HandleFunc("POST /players/", s.handleCreatePlayer)
	mux.HandleFunc("GET /players/{id}", s.handleGetPlayer)
	mux.HandleFunc("GET /players/{id}/pokemon", s.handleListPokemon)
	mux.HandleFunc("POST /players/{id}/move/{areaID}", s.handleMovePlayer)
	mux.HandleFunc("POST /players/{id}/encounter", s.handleEncounter)
	mux.HandleFunc("POST /players/{id}/catch/{speciesID}", s.handleCatch)

	mux.HandleFunc("GET /areas/", s.handleListAreas)
	mux.HandleFunc("GET /areas/{id}", s.handleGetArea)
	mux.HandleFunc("GET /areas/{id}/trainers", s.handleListTrainers)

	mux.HandleFunc("POST /players/{id}/battle", s.handleStartBattle)
	mux.HandleFunc("GET /players/{id}/battle", s.handleGetBattle)
	mux.HandleFunc("POST /players/{id}/battle/action", s.handleBattleAction)

	return mux
}

// Start begins serving. It blocks until Stop is called.
//
// Postcondition: Returns nil after a graceful Stop, or the listener error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully within the configured timeout.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", zap.Error(err))
	}
}
