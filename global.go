package trampoline

import (
	"errors"
	"sync"

	"github.com/go-kit/log"
)

// The global table is the process wide binding point for packages declaring trampolines at init.
//
// Lifecycle: package level Declare calls register the trampolines during init, then exactly one of
// UseGlobalLibrary or UseGlobalSo binds them, normally from main before any call.
// Later rebinding goes through ReloadGlobal only.
var (
	global      = NewTable()
	globalMu    sync.Mutex
	globalBound bool
)

var (
	// ErrGlobalBound occurs when the global table is bound a second time without ReloadGlobal.
	ErrGlobalBound = errors.New("global table already bound")
)

// Global returns the process wide Table.
func Global() *Table {
	return global
}

// DeclareGlobal declare a trampoline in the global table, panics on a duplicate name.
func DeclareGlobal[F any](name string) *Trampoline[F] {
	return MustDeclare[F](global, name)
}

// UseGlobalLogger sets the logger of the global table, call it before binding.
func UseGlobalLogger(logger log.Logger) {
	global.gate.Lock()
	defer global.gate.Unlock()
	global.logger = logger
}

// UseGlobalLibrary binds the global table to lib. Only the first successful call binds; later calls return ErrGlobalBound.
func UseGlobalLibrary(lib Library) (r *Report, err error) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalBound {
		return nil, ErrGlobalBound
	}
	if r, err = global.ResolveAll(lib); err != nil {
		return
	}
	globalBound = true
	return
}

// UseGlobalSo opens the shared library at path and binds the global table to it.
func UseGlobalSo(path string) (*Report, error) {
	so, err := OpenShared(path)
	if err != nil {
		return nil, err
	}
	r, err := UseGlobalLibrary(so)
	if err != nil {
		_ = so.Close()
	}
	return r, err
}

// ReloadGlobal rebinds the global table to lib, returning the library it replaces.
func ReloadGlobal(lib Library) (*Report, Library, error) {
	return global.Reload(lib)
}
