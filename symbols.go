package trampoline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ZenLiuCN/fn"
)

var (
	// ErrSymbolNotFound occurs when a library has no counterpart for a declared name.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrUnresolvedCall occurs when a trampoline is invoked while its slot holds no binding.
	ErrUnresolvedCall = errors.New("call through unresolved trampoline")
	// ErrLibraryUnavailable occurs when no library handle could be produced.
	ErrLibraryUnavailable = errors.New("library unavailable")
	// ErrDuplicateSymbol occurs when two trampolines are declared under one name.
	ErrDuplicateSymbol = errors.New("symbol already declared")
	// ErrNotFunc occurs when a trampoline is declared over a non function type.
	ErrNotFunc = errors.New("trampoline type is not a function")
	// ErrSignatureMismatch occurs when a Go symbol does not have the declared function type.
	ErrSignatureMismatch = errors.New("symbol signature mismatch")
	// ErrUnsupportedABI occurs when a symbol can not be bound to the declared function type.
	ErrUnsupportedABI = errors.New("unsupported symbol abi")
)

// SymbolNotFoundError records a name the library could not resolve.
type SymbolNotFoundError struct {
	Name  string
	Cause error
}

func (e *SymbolNotFoundError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("symbol %q not found: %v", e.Name, e.Cause)
	}
	return fmt.Sprintf("symbol %q not found", e.Name)
}

func (e *SymbolNotFoundError) Is(target error) bool { return target == ErrSymbolNotFound }

func (e *SymbolNotFoundError) Unwrap() error { return e.Cause }

// UnresolvedCallError is returned by a call through a trampoline with an empty slot.
type UnresolvedCallError struct {
	Name  string
	State State
	Cause error // why the table has no library, if known
}

func (e *UnresolvedCallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("call %s: trampoline is %s: %v", e.Name, e.State, e.Cause)
	}
	return fmt.Sprintf("call %s: trampoline is %s", e.Name, e.State)
}

func (e *UnresolvedCallError) Is(target error) bool { return target == ErrUnresolvedCall }

func (e *UnresolvedCallError) Unwrap() error { return e.Cause }

// Symbols is a Library over a map of Go symbol names to code addresses.
//
// The addresses must be entry points of Go functions compiled for the running process.
type Symbols map[string]uintptr

// Lookup the code address of a fully qualified Go symbol, names without a package are looked up in main.
func (s Symbols) Lookup(name string) (Symbol, error) {
	name = checkPackage(name)
	p, ok := s[name]
	if !ok || p == 0 {
		return Symbol{}, ErrSymbolNotFound
	}
	return Symbol{Name: name, Addr: p, ABI: ABIGo}, nil
}

// Names dump symbol names inside Symbols
func (s Symbols) Names() []string {
	v := fn.MapKeys(s)
	slices.Sort(v)
	return v
}
