package object

import (
	"log/slog"
	"sync/atomic"
)

var nextID atomic.Uint64

func nextEnvID() uint64 {
	return nextID.Add(1)
}

// Environment is one mutable layer of bindings. Lookups that miss fall
// through to Base, and past the outermost layer to the root Resolver.
type Environment struct {
	ID       uint64
	Bindings map[Key]Value
	Base     Env

	order    []Key
	resolver Resolver
}

// Env is a view onto an Environment. The plain view reads and writes the
// frame; a protected view drops writes; a shadowed view reports the hidden
// keys as absent. Views are small values, wrapping one allocates nothing but
// the hidden-key cell.
//
// The zero Env has no frame: every lookup misses and every write is dropped.
type Env struct {
	frame   *Environment
	protect bool
	hidden  *hiddenKeys
}

type hiddenKeys struct {
	keys []Key
	next *hiddenKeys
}

func (h *hiddenKeys) contains(k Key) bool {
	for ; h != nil; h = h.next {
		for _, hk := range h.keys {
			if hk == k {
				return true
			}
		}
	}
	return false
}

// NewRootEnvironment creates the outermost frame of a session.
func NewRootEnvironment(resolver Resolver) Env {
	slog.Debug("------ new root env ------")
	return Env{frame: &Environment{
		ID:       nextEnvID(),
		Bindings: map[Key]Value{},
		resolver: resolver,
	}}
}

// NewEnclosedEnvironment layers a fresh, empty frame over base.
func NewEnclosedEnvironment(base Env) Env {
	env := &Environment{
		ID:       nextEnvID(),
		Bindings: map[Key]Value{},
		Base:     base,
	}
	slog.Debug("new env", slog.Uint64("id", env.ID))
	return Env{frame: env}
}

func (e Env) Get(k Key) (Value, bool) {
	if e.hidden.contains(k) {
		return nil, false
	}
	f := e.frame
	if f == nil {
		return nil, false
	}
	if v, ok := f.Bindings[k]; ok {
		return v, true
	}
	if f.Base.frame != nil || f.Base.hidden != nil {
		return f.Base.Get(k)
	}
	if f.resolver != nil {
		return f.resolver.Resolve(k)
	}
	return nil, false
}

// Lookup is Get with absence reported as NONE.
func (e Env) Lookup(k Key) Value {
	if v, ok := e.Get(k); ok && v != nil {
		return v
	}
	return NONE
}

// Set binds k in the local frame. It reports false when the view discards
// writes.
func (e Env) Set(k Key, v Value) bool {
	if e.frame == nil || e.protect || e.hidden != nil {
		return false
	}
	if _, ok := e.frame.Bindings[k]; !ok {
		e.frame.order = append(e.frame.order, k)
	}
	e.frame.Bindings[k] = v
	return true
}

// Protect returns a view that reads through to e and silently drops writes.
func (e Env) Protect() Env {
	e.protect = true
	return e
}

// Shadow returns a read-only view of e in which keys are absent.
func (e Env) Shadow(keys []Key) Env {
	if len(keys) == 0 {
		return e
	}
	e.hidden = &hiddenKeys{keys: keys, next: e.hidden}
	return e
}

func (e Env) IsProtected() bool { return e.protect }
func (e Env) IsZero() bool      { return e.frame == nil && e.hidden == nil }

// Frame returns the environment a view reads from, nil for the zero view.
func (e Env) Frame() *Environment { return e.frame }

// Locals lists the keys bound in the view's own frame in binding order.
func (e Env) Locals() []Key {
	if e.frame == nil {
		return nil
	}
	return append([]Key(nil), e.frame.order...)
}

// Depth counts the frames between the view and the root resolver.
func (e Env) Depth() int {
	n := 0
	for f := e.frame; f != nil; f = f.Base.frame {
		n++
	}
	return n
}
