package types

import (
	"iter"
	"sort"

	"github.com/vivscript/vivc/internal/lexer"
)

// SymbolID indexes a Symbol in its SymbolTable. The zero value means unresolved.
type SymbolID int

const NoSymbol SymbolID = 0

// Ownership says whether a binding owns its storage or only borrows it.
type Ownership int

const (
	Owned Ownership = iota
	Borrowed
)

func (o Ownership) String() string {
	if o == Borrowed {
		return "borrowed"
	}
	return "owned"
}

// Symbol represents a named entity in the source code.
type Symbol struct {
	ID       SymbolID
	Name     string
	Type     Type
	Scope    *Scope
	Kind     Ownership
	Span     lexer.Span // declaring identifier
	Function bool       // declared by fn
}

// SymbolTable is the arena holding every symbol of one compilation unit.
type SymbolTable struct {
	symbols []*Symbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{}
}

// Add stores sym and returns its new id.
func (t *SymbolTable) Add(sym Symbol) SymbolID {
	sym.ID = SymbolID(len(t.symbols) + 1)
	t.symbols = append(t.symbols, &sym)
	return sym.ID
}

// Get returns the symbol for id, or nil for NoSymbol and unknown ids.
func (t *SymbolTable) Get(id SymbolID) *Symbol {
	if id <= 0 || int(id) > len(t.symbols) {
		return nil
	}
	return t.symbols[id-1]
}

func (t *SymbolTable) Len() int {
	return len(t.symbols)
}

// All yields symbols in declaration order.
func (t *SymbolTable) All() iter.Seq[*Symbol] {
	return func(yield func(*Symbol) bool) {
		for _, sym := range t.symbols {
			if !yield(sym) {
				return
			}
		}
	}
}

// ScopeKind distinguishes the levels of the scope chain.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota
	ScopeFunction
	ScopeBlock
)

// Scope represents a lexical scope containing symbols.
type Scope struct {
	Parent  *Scope
	Kind    ScopeKind
	Symbols map[string]SymbolID
}

// NewScope creates a new scope with an optional parent.
func NewScope(parent *Scope, kind ScopeKind) *Scope {
	return &Scope{
		Parent:  parent,
		Kind:    kind,
		Symbols: make(map[string]SymbolID),
	}
}

// Insert adds a symbol to the current scope, shadowing outer bindings.
func (s *Scope) Insert(name string, id SymbolID) {
	s.Symbols[name] = id
}

// LookupLocal finds a symbol declared directly in s.
func (s *Scope) LookupLocal(name string) (SymbolID, bool) {
	id, ok := s.Symbols[name]
	return id, ok
}

// Lookup finds a symbol in the current scope or any parent scope.
func (s *Scope) Lookup(name string) (SymbolID, bool) {
	for scope := s; scope != nil; scope = scope.Parent {
		if id, ok := scope.Symbols[name]; ok {
			return id, true
		}
	}
	return NoSymbol, false
}

// VisibleNames lists every name reachable from s, sorted.
func (s *Scope) VisibleNames() []string {
	seen := make(map[string]bool)
	var names []string
	for scope := s; scope != nil; scope = scope.Parent {
		for name := range scope.Symbols {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
