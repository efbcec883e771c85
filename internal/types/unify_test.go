package types

import (
	"errors"
	"testing"
)

func TestUnifyPrimitives(t *testing.T) {
	u := NewUnifier()
	if err := u.Unify(TypeNum, TypeNum); err != nil {
		t.Fatalf("Num ~ Num: unexpected error %v", err)
	}

	err := u.Unify(TypeNum, TypeStr)
	var uerr *UnifyError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *UnifyError, got %v", err)
	}
	if uerr.Kind != ErrMismatch || uerr.Left != TypeNum || uerr.Right != TypeStr {
		t.Fatalf("unexpected error %+v", uerr)
	}
}

func TestUnifyBindsVariables(t *testing.T) {
	u := NewUnifier()
	a, b := u.Fresh(), u.Fresh()

	if err := u.Unify(a, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := u.Unify(b, TypeBool); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := u.Apply(a); got != TypeBool {
		t.Fatalf("expected a = Bool, got %s", got)
	}
	if !u.IsResolved(a) {
		t.Fatalf("expected a to be resolved")
	}
	if err := u.Unify(a, TypeNum); err == nil {
		t.Fatalf("expected Bool ~ Num to fail through the variable chain")
	}
}

func TestUnifyFunctions(t *testing.T) {
	u := NewUnifier()
	ret := u.Fresh()
	arg := u.Fresh()

	decl := &Function{Params: []Type{TypeNum, TypeStr}, Return: TypeBool}
	call := &Function{Params: []Type{arg, TypeStr}, Return: ret}

	if err := u.Unify(decl, call); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Apply(ret) != TypeBool || u.Apply(arg) != TypeNum {
		t.Fatalf("expected ret=Bool arg=Num, got ret=%s arg=%s", u.Apply(ret), u.Apply(arg))
	}
	if got := u.Apply(call).String(); got != "fn(Num, Str) -> Bool" {
		t.Fatalf("unexpected applied type %q", got)
	}
}

func TestUnifyArity(t *testing.T) {
	u := NewUnifier()
	err := u.Unify(
		&Function{Params: []Type{TypeNum}, Return: TypeUnit},
		&Function{Params: []Type{TypeNum, TypeNum}, Return: TypeUnit},
	)
	var uerr *UnifyError
	if !errors.As(err, &uerr) || uerr.Kind != ErrArity {
		t.Fatalf("expected arity error, got %v", err)
	}
}

func TestUnifyOccursCheck(t *testing.T) {
	u := NewUnifier()
	v := u.Fresh()
	err := u.Unify(v, &Function{Params: []Type{v}, Return: TypeNum})
	var uerr *UnifyError
	if !errors.As(err, &uerr) || uerr.Kind != ErrInfinite {
		t.Fatalf("expected infinite type error, got %v", err)
	}
	if u.IsResolved(v) {
		t.Fatalf("v must stay unbound after a failed occurs check")
	}
}

func TestTypePredicates(t *testing.T) {
	tests := []struct {
		typ       Type
		copyable  bool
		printable bool
	}{
		{TypeNum, true, true},
		{TypeBool, true, true},
		{TypeStr, false, true},
		{TypeUnit, true, false},
		{&Function{Return: TypeUnit}, true, false},
		{&Var{ID: 1}, false, false},
	}
	for _, tt := range tests {
		if got := IsCopyable(tt.typ); got != tt.copyable {
			t.Fatalf("IsCopyable(%s) = %v, want %v", tt.typ, got, tt.copyable)
		}
		if got := IsPrintable(tt.typ); got != tt.printable {
			t.Fatalf("IsPrintable(%s) = %v, want %v", tt.typ, got, tt.printable)
		}
	}
}
