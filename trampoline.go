package trampoline

import (
	"errors"
	"fmt"
	"reflect"
	"sync/atomic"
)

// State of a trampoline slot.
type State int32

const (
	// Unbound is the state before any resolution pass saw the trampoline.
	Unbound State = iota
	// Resolved means the slot holds a callable binding.
	Resolved
	// Unresolvable means the last pass could not bind the symbol; the slot is empty.
	Unresolvable
)

func (s State) String() string {
	switch s {
	case Unbound:
		return "unbound"
	case Resolved:
		return "resolved"
	case Unresolvable:
		return "unresolvable"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

var errEmptyName = errors.New("empty symbol name")

type (
	// Trampoline is the late bound call target of one declared symbol.
	//
	// The slot is written only by resolution passes of its Table and read by every call.
	// A nil slot is the unresolved sentinel: calls through it fail with ErrUnresolvedCall.
	Trampoline[F any] struct {
		name  string
		table *Table
		state atomic.Int32
		slot  atomic.Pointer[binding[F]]
	}
	binding[F any] struct {
		sym Symbol
		fn  F
	}
	// entry is the untyped view a Table keeps of its trampolines.
	entry interface {
		Name() string
		State() State
		patch(sym Symbol) error
		clear()
	}
)

// Declare a trampoline of function type F under name in table t.
//
// Names are unique per table. When t is already bound to a library the new trampoline is resolved at once.
func Declare[F any](t *Table, name string) (*Trampoline[F], error) {
	if !isFunc[F]() {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotFunc, name, reflect.TypeFor[F]())
	}
	if name == "" {
		return nil, errEmptyName
	}
	tr := &Trampoline[F]{name: name, table: t}
	t.gate.Lock()
	defer t.gate.Unlock()
	if _, ok := t.entries[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSymbol, name)
	}
	t.entries[name] = tr
	if t.lib != nil {
		t.resolveOne(t.lib, tr, nil)
		t.metrics.observe(t.entries)
	}
	return tr, nil
}

// MustDeclare is Declare that panics on error, for package level declarations.
func MustDeclare[F any](t *Table, name string) *Trampoline[F] {
	tr, err := Declare[F](t, name)
	if err != nil {
		panic(err)
	}
	return tr
}

// Name of the symbol behind this trampoline.
func (t *Trampoline[F]) Name() string { return t.name }

// State of the slot.
func (t *Trampoline[F]) State() State { return State(t.state.Load()) }

// Symbol currently bound, ok is false while the slot is empty.
func (t *Trampoline[F]) Symbol() (sym Symbol, ok bool) {
	if b := t.slot.Load(); b != nil {
		return b.sym, true
	}
	return
}

// Func loads the current call target without taking the reload gate.
//
// Only use it when no Reload can run concurrently, otherwise use Invoke.
func (t *Trampoline[F]) Func() (f F, err error) {
	b := t.slot.Load()
	if b == nil {
		err = &UnresolvedCallError{Name: t.name, State: t.State()}
		return
	}
	return b.fn, nil
}

// MustFunc is Func that panics with an *UnresolvedCallError.
func (t *Trampoline[F]) MustFunc() F {
	f, err := t.Func()
	if err != nil {
		panic(err)
	}
	return f
}

// Invoke passes the current call target to call, holding the reload gate of the table until call returns.
//
// Arguments and results travel inside call untouched. If the slot is empty call is not run
// and an *UnresolvedCallError is returned; nothing in the table changes.
func (t *Trampoline[F]) Invoke(call func(f F)) error {
	if err := t.table.ensure(); err != nil {
		t.table.metrics.unresolvedCall(t.name)
		return &UnresolvedCallError{Name: t.name, State: t.State(), Cause: err}
	}
	t.table.gate.RLock()
	defer t.table.gate.RUnlock()
	f, err := t.Func()
	if err != nil {
		t.table.metrics.unresolvedCall(t.name)
		return err
	}
	call(f)
	return nil
}

func (t *Trampoline[F]) patch(sym Symbol) error {
	f, err := bind[F](sym)
	if err != nil {
		return err
	}
	t.slot.Store(&binding[F]{sym: sym, fn: f})
	t.state.Store(int32(Resolved))
	return nil
}

func (t *Trampoline[F]) clear() {
	t.slot.Store(nil)
	t.state.Store(int32(Unresolvable))
}
