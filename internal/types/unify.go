package types

import "fmt"

// UnifyErrorKind classifies a unification failure.
type UnifyErrorKind int

const (
	ErrMismatch UnifyErrorKind = iota
	ErrArity
	ErrInfinite
)

// UnifyError describes the innermost pair of types that could not be made equal.
type UnifyError struct {
	Kind  UnifyErrorKind
	Left  Type
	Right Type
}

func (e *UnifyError) Error() string {
	switch e.Kind {
	case ErrArity:
		return fmt.Sprintf("arity mismatch: %s vs %s", e.Left, e.Right)
	case ErrInfinite:
		return fmt.Sprintf("infinite type: %s occurs in %s", e.Left, e.Right)
	default:
		return fmt.Sprintf("cannot unify %s with %s", e.Left, e.Right)
	}
}

// Unifier owns the type variables of one compilation unit and the
// substitution that solves them.
type Unifier struct {
	subst map[int]Type
	next  int
}

// NewUnifier creates an empty substitution.
func NewUnifier() *Unifier {
	return &Unifier{
		subst: make(map[int]Type),
	}
}

// Fresh allocates a new unbound type variable.
func (u *Unifier) Fresh() *Var {
	u.next++
	return &Var{ID: u.next}
}

// Vars returns the number of variables allocated so far.
func (u *Unifier) Vars() int {
	return u.next
}

// shallow follows variable bindings until t is a constructor or an unbound variable.
func (u *Unifier) shallow(t Type) Type {
	for {
		v, ok := t.(*Var)
		if !ok {
			return t
		}
		bound, ok := u.subst[v.ID]
		if !ok {
			return v
		}
		t = bound
	}
}

// Apply substitutes every bound variable in t, recursively.
func (u *Unifier) Apply(t Type) Type {
	if t == nil {
		return nil
	}
	t = u.shallow(t)
	fn, ok := t.(*Function)
	if !ok {
		return t
	}
	params := make([]Type, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = u.Apply(p)
	}
	return &Function{Params: params, Return: u.Apply(fn.Return)}
}

// IsResolved reports whether t contains no unbound variables.
func (u *Unifier) IsResolved(t Type) bool {
	switch t := u.shallow(t).(type) {
	case *Var:
		return false
	case *Function:
		for _, p := range t.Params {
			if !u.IsResolved(p) {
				return false
			}
		}
		return u.IsResolved(t.Return)
	case nil:
		return false
	default:
		return true
	}
}

// Unify makes a and b equal by extending the substitution.
// On failure the substitution keeps any bindings made before the conflict.
func (u *Unifier) Unify(a, b Type) error {
	a = u.shallow(a)
	b = u.shallow(b)

	if a == b {
		return nil
	}

	if v, ok := a.(*Var); ok {
		return u.bind(v, b)
	}
	if v, ok := b.(*Var); ok {
		return u.bind(v, a)
	}

	switch a := a.(type) {
	case *Primitive:
		if b, ok := b.(*Primitive); ok && a.Kind == b.Kind {
			return nil
		}
	case *Function:
		if b, ok := b.(*Function); ok {
			if len(a.Params) != len(b.Params) {
				return &UnifyError{Kind: ErrArity, Left: u.Apply(a), Right: u.Apply(b)}
			}
			for i := range a.Params {
				if err := u.Unify(a.Params[i], b.Params[i]); err != nil {
					return err
				}
			}
			return u.Unify(a.Return, b.Return)
		}
	}
	return &UnifyError{Kind: ErrMismatch, Left: u.Apply(a), Right: u.Apply(b)}
}

func (u *Unifier) bind(v *Var, t Type) error {
	if u.occurs(v, t) {
		return &UnifyError{Kind: ErrInfinite, Left: v, Right: u.Apply(t)}
	}
	u.subst[v.ID] = t
	return nil
}

func (u *Unifier) occurs(v *Var, t Type) bool {
	switch t := u.shallow(t).(type) {
	case *Var:
		return t.ID == v.ID
	case *Function:
		for _, p := range t.Params {
			if u.occurs(v, p) {
				return true
			}
		}
		return u.occurs(v, t.Return)
	default:
		return false
	}
}
