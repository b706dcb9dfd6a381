package trampoline

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/ZenLiuCN/fn"
)

// ABI tells how the address of a Symbol must be called.
type ABI uint8

const (
	// ABINative is a function following the platform C calling convention.
	ABINative ABI = iota
	// ABIGo is the entry point of a Go function loaded into the process.
	ABIGo
	// ABIValue is a Go func value carried by Symbol.Value.
	ABIValue
)

func (a ABI) String() string {
	switch a {
	case ABINative:
		return "native"
	case ABIGo:
		return "go"
	case ABIValue:
		return "value"
	default:
		return fmt.Sprintf("abi(%d)", uint8(a))
	}
}

// Symbol is what a Library answers for a name.
type Symbol struct {
	Name  string
	Addr  uintptr
	ABI   ABI
	Value any // set only for ABIValue
}

// Library resolves symbol names. Acquiring a Library (opening files, searching paths) is done by its constructor.
type Library interface {
	Lookup(name string) (Symbol, error)
}

// Funcs is an in-process Library of Go func values keyed by symbol name.
type Funcs map[string]any

// Lookup the func value registered under name.
func (f Funcs) Lookup(name string) (Symbol, error) {
	v, ok := f[name]
	if !ok || v == nil {
		return Symbol{}, ErrSymbolNotFound
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return Symbol{}, fmt.Errorf("%w: %s is %T", ErrNotFunc, name, v)
	}
	if rv.IsNil() {
		return Symbol{}, ErrSymbolNotFound
	}
	return Symbol{Name: name, Addr: rv.Pointer(), ABI: ABIValue, Value: v}, nil
}

// Names of the registered functions, sorted.
func (f Funcs) Names() []string {
	v := fn.MapKeys(f)
	slices.Sort(v)
	return v
}

func checkPackage(sym string) string {
	if strings.IndexByte(sym, '.') < 0 {
		return "main." + sym
	}
	return sym
}
