package ownership

import (
	"github.com/vivscript/vivc/internal/lexer"
	"github.com/vivscript/vivc/internal/types"
)

type stateKind int

const (
	live stateKind = iota
	moved
	// maybeMoved holds when some path reaching this point moved the value.
	maybeMoved
)

// state is the ownership tag of one tracked variable. at is the span of the
// move responsible for moved and maybeMoved.
type state struct {
	kind stateKind
	at   lexer.Span
}

func joinState(a, b state) state {
	switch {
	case a.kind == b.kind:
		return a
	case a.kind == live:
		return state{kind: maybeMoved, at: b.at}
	default:
		return state{kind: maybeMoved, at: a.at}
	}
}

// flow is the ownership state along one control-flow path.
type flow struct {
	vars map[types.SymbolID]state
	// dead marks a path that already returned; joins ignore it.
	dead bool
}

func newFlow() *flow {
	return &flow{vars: make(map[types.SymbolID]state)}
}

func (f *flow) clone() *flow {
	vars := make(map[types.SymbolID]state, len(f.vars))
	for id, st := range f.vars {
		vars[id] = st
	}
	return &flow{vars: vars, dead: f.dead}
}

// join merges two paths meeting at the same program point.
func join(a, b *flow) *flow {
	if a.dead {
		return b.clone()
	}
	if b.dead {
		return a.clone()
	}

	out := a.clone()
	for id, sb := range b.vars {
		sa, ok := out.vars[id]
		if !ok {
			out.vars[id] = sb
			continue
		}
		out.vars[id] = joinState(sa, sb)
	}
	return out
}

// sameKinds reports whether f and g agree on every tag. Loop analysis stops
// once the loop head no longer changes.
func (f *flow) sameKinds(g *flow) bool {
	if f.dead != g.dead || len(f.vars) != len(g.vars) {
		return false
	}
	for id, sf := range f.vars {
		sg, ok := g.vars[id]
		if !ok || sf.kind != sg.kind {
			return false
		}
	}
	return true
}
