package object

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

var nextAtom atomic.Uint64

// NewSymbol creates a symbol that is not interned anywhere; it is only ever
// equal to itself and to values adjoined from it.
func NewSymbol(name string, adj Adjuncts) *Symbol {
	return &Symbol{atom: &atom{name: name, id: nextAtom.Add(1)}, adj: merge(nil, adj)}
}

// Resolver answers lookups that fall through every frame of an environment.
type Resolver interface {
	Resolve(k Key) (Value, bool)
}

// FixedCatalog resolves only the keys it was built with; anything else is absent.
type FixedCatalog map[Key]Value

func (c FixedCatalog) Resolve(k Key) (Value, bool) {
	v, ok := c[k]
	return v, ok
}

// SymbolPool resolves catalog keys first and otherwise mints a symbol for the
// key, caching it so the same identifier always yields the same atom.
type SymbolPool struct {
	catalog FixedCatalog

	mu      sync.Mutex
	symbols map[Key]*Symbol
}

func NewSymbolPool(catalog FixedCatalog) *SymbolPool {
	return &SymbolPool{
		catalog: catalog,
		symbols: map[Key]*Symbol{},
	}
}

func (p *SymbolPool) Resolve(k Key) (Value, bool) {
	if v, ok := p.catalog[k]; ok {
		return v, true
	}
	return p.Intern(k), true
}

func (p *SymbolPool) Intern(k Key) *Symbol {
	p.mu.Lock()
	defer p.mu.Unlock()

	if sym, ok := p.symbols[k]; ok {
		return sym
	}
	sym := NewSymbol(k.String(), nil)
	p.symbols[k] = sym
	slog.Debug("minted symbol", slog.String("name", k.String()))
	return sym
}

// Len reports how many symbols have been minted so far.
func (p *SymbolPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.symbols)
}
