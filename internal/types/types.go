package types

import (
	"fmt"
	"strings"
)

// Type represents a type in the Viv type system.
type Type interface {
	String() string
	// IsType is a marker method to ensure type safety.
	IsType()
}

// PrimitiveKind represents the kind of a primitive type.
type PrimitiveKind string

const (
	Num  PrimitiveKind = "Num"
	Str  PrimitiveKind = "Str"
	Bool PrimitiveKind = "Bool"
	Unit PrimitiveKind = "Unit"
)

// Primitive represents a primitive type.
type Primitive struct {
	Kind PrimitiveKind
}

func (p *Primitive) String() string { return string(p.Kind) }
func (p *Primitive) IsType()        {}

// Common primitive instances. Primitives are compared by identity.
var (
	TypeNum  = &Primitive{Kind: Num}
	TypeStr  = &Primitive{Kind: Str}
	TypeBool = &Primitive{Kind: Bool}
	TypeUnit = &Primitive{Kind: Unit}
)

var primitivesByName = map[string]*Primitive{
	string(Num):  TypeNum,
	string(Str):  TypeStr,
	string(Bool): TypeBool,
	string(Unit): TypeUnit,
}

// PrimitiveNamed returns the builtin type spelled name.
func PrimitiveNamed(name string) (Type, bool) {
	p, ok := primitivesByName[name]
	if !ok {
		return nil, false
	}
	return p, true
}

// PrimitiveNames lists the spellings of every builtin type.
func PrimitiveNames() []string {
	return []string{string(Num), string(Str), string(Bool), string(Unit)}
}

// Function represents a function type.
type Function struct {
	Params []Type
	Return Type
}

func (f *Function) String() string {
	var params []string
	for _, p := range f.Params {
		params = append(params, p.String())
	}
	ret := string(Unit)
	if f.Return != nil {
		ret = f.Return.String()
	}
	return "fn(" + strings.Join(params, ", ") + ") -> " + ret
}
func (f *Function) IsType() {}

// Var is an unresolved type variable.
type Var struct {
	ID int
}

func (v *Var) String() string { return fmt.Sprintf("?%d", v.ID) }
func (v *Var) IsType()        {}

// IsCopyable reports whether values of t are duplicated instead of moved.
// Only Str owns storage.
func IsCopyable(t Type) bool {
	switch t := t.(type) {
	case *Primitive:
		return t.Kind != Str
	case *Function:
		return true
	default:
		return false
	}
}

// IsPrintable reports whether print accepts a value of t.
func IsPrintable(t Type) bool {
	p, ok := t.(*Primitive)
	return ok && p.Kind != Unit
}

// Equal reports structural equality of two fully or partially resolved types.
func Equal(a, b Type) bool {
	if a == b {
		return true
	}
	switch a := a.(type) {
	case *Primitive:
		b, ok := b.(*Primitive)
		return ok && a.Kind == b.Kind
	case *Var:
		b, ok := b.(*Var)
		return ok && a.ID == b.ID
	case *Function:
		b, ok := b.(*Function)
		if !ok || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return Equal(a.Return, b.Return)
	}
	return false
}
