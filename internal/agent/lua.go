package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/tatianab/deduction-bench/internal/models"
)

// CodeScriptError marks a Lua policy that failed or returned garbage.
const CodeScriptError = "script_error"

// Lua runs a policy script that defines a global act(obs) function. obs is
// the observation as a table (the JSON field names), and act returns a table
// with action_type, and optionally target and data.
//
//	function act(obs)
//	  return { action_type = obs.legal[1].type }
//	end
//
// Scripts may call beliefs(player) for the agent's current beliefs about a
// player, a list of { predicate, confidence } tables.
type Lua struct {
	Base
	source string
	state  *lua.LState

	reloadErrors int
	lastReload   error
}

func NewLua(base Base, source string) (*Lua, error) {
	l := &Lua{Base: base, source: source}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadLua reads the script at path.
func LoadLua(base Base, path string) (*Lua, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lua policy: %w", err)
	}
	return NewLua(base, string(src))
}

func (l *Lua) load() error {
	L := lua.NewState()
	if err := L.DoString(l.source); err != nil {
		L.Close()
		return fmt.Errorf("load lua policy: %w", err)
	}
	if L.GetGlobal("act").Type() != lua.LTFunction {
		L.Close()
		return fmt.Errorf("lua policy does not define act(obs)")
	}
	L.SetGlobal("beliefs", L.NewFunction(l.beliefsAbout))
	if l.state != nil {
		l.state.Close()
	}
	l.state = L
	return nil
}

// Reset reloads the script so globals from the last game are gone.
func (l *Lua) Reset() {
	l.Base.Reset()
	// On failure the old state is kept and the error shows in Stats.
	if err := l.load(); err != nil {
		l.reloadErrors++
		l.lastReload = err
	}
}

func (l *Lua) Stats() map[string]any {
	s := l.Base.Stats()
	s["reload_errors"] = l.reloadErrors
	if l.lastReload != nil {
		s["last_reload_error"] = l.lastReload.Error()
	}
	return s
}

func (l *Lua) beliefsAbout(L *lua.LState) int {
	p := models.PlayerID(L.CheckInt(1))
	out := L.NewTable()
	for _, b := range l.Beliefs.About(p) {
		t := L.NewTable()
		t.RawSetString("predicate", lua.LString(b.Predicate))
		t.RawSetString("confidence", lua.LNumber(b.Confidence))
		out.Append(t)
	}
	L.Push(out)
	return 1
}

func (l *Lua) Close() {
	if l.state != nil {
		l.state.Close()
		l.state = nil
	}
}

func (l *Lua) Act(ctx context.Context, obs models.Observation) (models.Action, error) {
	if len(obs.Legal) == 0 {
		return models.Action{}, errNoOptions(obs)
	}
	a, err := l.call(ctx, obs)
	if err != nil {
		if ctx.Err() != nil {
			return models.Action{}, ctx.Err()
		}
		if a, err = fallback(obs, CodeScriptError, err); err != nil {
			return models.Action{}, err
		}
	}
	return l.track(a), nil
}

func (l *Lua) call(ctx context.Context, obs models.Observation) (models.Action, error) {
	L := l.state
	L.SetContext(ctx)
	defer L.RemoveContext()

	arg, err := observationTable(L, obs)
	if err != nil {
		return models.Action{}, err
	}
	if err := L.CallByParam(lua.P{Fn: L.GetGlobal("act"), NRet: 1, Protect: true}, arg); err != nil {
		return models.Action{}, err
	}
	ret := L.Get(-1)
	L.Pop(1)

	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return models.Action{}, fmt.Errorf("act returned %s, want a table", ret.Type())
	}
	typ, ok := tbl.RawGetString("action_type").(lua.LString)
	if !ok {
		return models.Action{}, fmt.Errorf("act result has no action_type")
	}
	a := models.Action{Player: obs.Player, Type: models.ActionType(typ), Data: map[string]any{}}
	if n, ok := tbl.RawGetString("target").(lua.LNumber); ok {
		a.Target = models.Target(models.PlayerID(int(n)))
	}
	if data, ok := tbl.RawGetString("data").(*lua.LTable); ok {
		data.ForEach(func(k, v lua.LValue) {
			a.Data[k.String()] = fromLua(v)
		})
	}
	return a, nil
}

// observationTable converts obs through its JSON form so the script sees the
// same field names as the record.
func observationTable(L *lua.LState, obs models.Observation) (lua.LValue, error) {
	raw, err := json.Marshal(obs)
	if err != nil {
		return lua.LNil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return lua.LNil, err
	}
	return toLua(L, v), nil
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case []any:
		t := L.NewTable()
		for i, e := range x {
			t.RawSetInt(i+1, toLua(L, e))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, e := range x {
			t.RawSetString(k, toLua(L, e))
		}
		return t
	}
	return lua.LString(fmt.Sprint(v))
}

func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		if f := float64(x); f == float64(int(f)) {
			return int(f)
		}
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		if x.Len() > 0 {
			out := make([]any, 0, x.Len())
			for i := 1; i <= x.Len(); i++ {
				out = append(out, fromLua(x.RawGetInt(i)))
			}
			return out
		}
		out := map[string]any{}
		x.ForEach(func(k, e lua.LValue) { out[k.String()] = fromLua(e) })
		return out
	}
	return nil
}
