package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/roguemon/server/internal/game/battle"
	"github.com/roguemon/server/internal/game/rng"
)

// chooseMoveHook is the Lua global a script must define to drive move
// selection. It receives (attacker, defender, moves) tables and returns the
// name of the move to use.
const chooseMoveHook = "choose_move"

// MovePolicy owns a sandboxed Lua VM whose choose_move hook overrides the
// built-in move selection. All calls into the VM are serialized; the VM is
// single-threaded.
type MovePolicy struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel func()
	logger *zap.Logger

	// Set per Choose call so engine.* helpers can reach them.
	chart *battle.Chart
	src   rng.Source
}

// NewMovePolicy creates an empty MovePolicy. Choose reports no selection
// until LoadDir succeeds.
//
// Precondition: logger must be non-nil.
func NewMovePolicy(logger *zap.Logger) *MovePolicy {
	return &MovePolicy{logger: logger}
}

// LoadDir creates a sandboxed VM, registers the engine.* helpers, then
// executes every *.lua file in scriptDir in lexicographic order. A previous
// VM, if any, is replaced.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: The VM is registered, or an error is returned on Lua load
// failure and any previous VM is kept.
func (p *MovePolicy) LoadDir(scriptDir string, instLimit int) error {
	L, cancel := NewSandboxedState(instLimit)
	p.registerEngine(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	p.mu.Lock()
	if p.state != nil {
		p.cancel()
		p.state.Close()
	}
	p.state = L
	p.cancel = cancel
	p.mu.Unlock()
	return nil
}

// Close releases the VM. The policy reports no selection afterwards.
func (p *MovePolicy) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != nil {
		p.cancel()
		p.state.Close()
		p.state = nil
		p.cancel = nil
	}
}

// Choose invokes the script's choose_move hook and returns the selected move
// name. The boolean reports whether the script produced a usable selection;
// on false the caller should fall back to the built-in policy. Lua runtime
// errors and invalid selections are logged at Warn level, never propagated.
//
// Precondition: attacker must have at least one move; chart and src must be
// non-nil.
func (p *MovePolicy) Choose(attacker, defender *battle.Combatant, chart *battle.Chart, src rng.Source) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == nil {
		return "", false
	}
	L := p.state

	fn := L.GetGlobal(chooseMoveHook)
	if fn == lua.LNil {
		return "", false
	}

	p.chart = chart
	p.src = src
	defer func() {
		p.chart = nil
		p.src = nil
	}()

	err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, combatantTable(L, attacker), combatantTable(L, defender), movesTable(L, attacker.Moves))
	if err != nil {
		p.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", chooseMoveHook),
			zap.Error(err),
		)
		return "", false
	}

	ret := L.Get(-1)
	L.Pop(1)

	name, ok := ret.(lua.LString)
	if !ok {
		p.logger.Warn("scripting: choose_move returned non-string",
			zap.String("returned", ret.Type().String()),
		)
		return "", false
	}
	if _, known := attacker.MoveNamed(string(name)); !known {
		p.logger.Warn("scripting: choose_move selected unknown move",
			zap.String("move", string(name)),
			zap.String("attacker", attacker.Name),
		)
		return "", false
	}
	return string(name), true
}

// registerEngine installs the engine.* helper table:
//
//	engine.effectiveness(attack_type, defender_type) -> number
//	engine.random(n) -> integer in [0, n)
//
// Both helpers are only usable during a Choose call; outside one they raise
// a Lua error.
func (p *MovePolicy) registerEngine(L *lua.LState) {
	engine := L.NewTable()

	L.SetField(engine, "effectiveness", L.NewFunction(func(L *lua.LState) int {
		if p.chart == nil {
			L.RaiseError("engine.effectiveness called outside choose_move")
			return 0
		}
		att, err := battle.ParseElementType(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.effectiveness: %s", err)
			return 0
		}
		def, err := battle.ParseElementType(L.CheckString(2))
		if err != nil {
			L.RaiseError("engine.effectiveness: %s", err)
			return 0
		}
		L.Push(lua.LNumber(p.chart.Multiplier(att, def)))
		return 1
	}))

	L.SetField(engine, "random", L.NewFunction(func(L *lua.LState) int {
		if p.src == nil {
			L.RaiseError("engine.random called outside choose_move")
			return 0
		}
		n := L.CheckInt(1)
		if n <= 0 {
			L.RaiseError("engine.random: n must be > 0")
			return 0
		}
		L.Push(lua.LNumber(p.src.Intn(n)))
		return 1
	}))

	L.SetGlobal("engine", engine)
}

func combatantTable(L *lua.LState, c *battle.Combatant) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "name", lua.LString(c.Name))
	L.SetField(t, "type", lua.LString(string(c.Type)))
	L.SetField(t, "hp", lua.LNumber(c.CurrentHP))
	L.SetField(t, "max_hp", lua.LNumber(c.MaxHP))
	L.SetField(t, "attack", lua.LNumber(c.Attack))
	L.SetField(t, "defense", lua.LNumber(c.Defense))
	L.SetField(t, "speed", lua.LNumber(c.Speed))
	return t
}

func movesTable(L *lua.LState, moves []battle.Move) *lua.LTable {
	t := L.NewTable()
	for _, m := range moves {
		mt := L.NewTable()
		L.SetField(mt, "name", lua.LString(m.Name))
		L.SetField(mt, "power", lua.LNumber(m.Power))
		L.SetField(mt, "type", lua.LString(string(m.Type)))
		L.SetField(mt, "accuracy", lua.LNumber(m.Accuracy))
		t.Append(mt)
	}
	return t
}
