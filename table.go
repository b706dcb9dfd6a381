package trampoline

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ZenLiuCN/fn"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
)

type (
	// Table is the resolution table: every declared trampoline keyed by its symbol name.
	//
	// Lifecycle:
	//
	//	1. Declare trampolines, usually as package level variables.
	//	2. ResolveAll against an opened Library, or register an opener with Lazy.
	//	3. Call through the trampolines.
	//	4. Optionally Reload against another Library, then close the previous one.
	//
	// Resolution passes hold the reload gate exclusively, calls made by Trampoline.Invoke hold it shared,
	// so a pass never overwrites a slot under an in-flight call.
	Table struct {
		gate    sync.RWMutex // guards entries, lib and every slot write
		entries map[string]entry
		lib     Library
		lazy    *lazy
		logger  log.Logger
		metrics *metrics
	}
	// Option configures a Table.
	Option func(t *Table)
	lazy   struct {
		once sync.Once
		open func() (Library, error)
		err  error
	}
)

// WithLogger sets the logger used by resolution passes.
func WithLogger(logger log.Logger) Option {
	return func(t *Table) {
		t.logger = logger
	}
}

// WithRegisterer registers the table metrics to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(t *Table) {
		t.metrics = newMetrics(reg)
	}
}

// NewTable create an empty Table.
func NewTable(opts ...Option) *Table {
	t := &Table{
		entries: make(map[string]entry),
		logger:  log.NewNopLogger(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// ResolveAll binds every declared trampoline against lib.
//
// Missing symbols are not fatal: they are listed in the Report and their slots stay empty.
// A nil lib is ErrLibraryUnavailable.
func (t *Table) ResolveAll(lib Library) (*Report, error) {
	if lib == nil {
		return nil, ErrLibraryUnavailable
	}
	t.gate.Lock()
	defer t.gate.Unlock()
	return t.resolve(lib), nil
}

// Reload rebinds every declared trampoline against lib and returns the library it replaces.
//
// Reload waits for in-flight Invoke calls of this table. The previous library may be closed once Reload returns.
func (t *Table) Reload(lib Library) (r *Report, prev Library, err error) {
	if lib == nil {
		return nil, nil, ErrLibraryUnavailable
	}
	t.gate.Lock()
	defer t.gate.Unlock()
	prev = t.lib
	level.Debug(t.logger).Log("msg", "reloading trampolines", "symbols", len(t.entries))
	r = t.resolve(lib)
	return
}

// Lazy registers an opener run once by the first Invoke on a table not yet bound to a library.
//
// An opener failure is kept and reported by every later Invoke as the cause of an ErrUnresolvedCall.
func (t *Table) Lazy(open func() (Library, error)) {
	t.gate.Lock()
	defer t.gate.Unlock()
	t.lazy = &lazy{open: open}
}

// Library the table is currently bound to, nil before the first pass.
func (t *Table) Library() Library {
	t.gate.RLock()
	defer t.gate.RUnlock()
	return t.lib
}

// Names of all declared symbols, sorted.
func (t *Table) Names() []string {
	t.gate.RLock()
	defer t.gate.RUnlock()
	v := fn.MapKeys(t.entries)
	slices.Sort(v)
	return v
}

// State of the named symbol, ok is false if it was never declared.
func (t *Table) State(name string) (s State, ok bool) {
	t.gate.RLock()
	defer t.gate.RUnlock()
	e, ok := t.entries[name]
	if !ok {
		return
	}
	return e.State(), true
}

// Report describes the current state of every slot, unbound symbols count as unresolved.
func (t *Table) Report() *Report {
	t.gate.RLock()
	defer t.gate.RUnlock()
	r := newReport()
	for name, e := range t.entries {
		if e.State() == Resolved {
			r.Resolved = append(r.Resolved, name)
		} else {
			r.Unresolved = append(r.Unresolved, name)
		}
	}
	r.sort()
	return r
}

func (t *Table) ensure() error {
	t.gate.RLock()
	z, bound := t.lazy, t.lib != nil
	t.gate.RUnlock()
	if z == nil || bound {
		return nil
	}
	z.once.Do(func() {
		lib, err := z.open()
		switch {
		case err != nil && errors.Is(err, ErrLibraryUnavailable):
			z.err = err
		case err != nil:
			z.err = fmt.Errorf("%w: %v", ErrLibraryUnavailable, err)
		default:
			_, z.err = t.ResolveAll(lib)
		}
		if z.err != nil {
			level.Error(t.logger).Log("msg", "lazy library open failed", "err", z.err)
		}
	})
	return z.err
}

// resolve runs one pass, the caller holds the gate exclusively.
func (t *Table) resolve(lib Library) *Report {
	r := newReport()
	for _, e := range t.entries {
		t.resolveOne(lib, e, r)
	}
	t.lib = lib
	r.sort()
	t.metrics.resolved(t.entries)
	level.Info(t.logger).Log("msg", "resolved trampolines", "resolved", len(r.Resolved), "unresolved", len(r.Unresolved))
	return r
}

func (t *Table) resolveOne(lib Library, e entry, r *Report) {
	name := e.Name()
	sym, err := lookup(lib, name)
	if err == nil {
		if err = e.patch(sym); err != nil {
			err = fmt.Errorf("bind %s: %w", name, err)
		}
	}
	if err != nil {
		e.clear()
		level.Warn(t.logger).Log("msg", "symbol unresolved", "symbol", name, "err", err)
		r.fail(name, err)
		return
	}
	level.Debug(t.logger).Log("msg", "symbol resolved", "symbol", name, "abi", sym.ABI, "addr", fmt.Sprintf("%#x", sym.Addr))
	r.ok(name)
}

// lookup queries lib for name and normalizes failures to *SymbolNotFoundError.
func lookup(lib Library, name string) (sym Symbol, err error) {
	sym, err = lib.Lookup(name)
	switch {
	case err != nil:
		if errors.Is(err, ErrSymbolNotFound) {
			err = &SymbolNotFoundError{Name: name}
		} else {
			err = &SymbolNotFoundError{Name: name, Cause: err}
		}
	case sym.Addr == 0 && sym.Value == nil:
		err = &SymbolNotFoundError{Name: name}
	case sym.Name == "":
		sym.Name = name
	}
	return
}

// Probe reports which names lib can resolve, without binding anything. With a nil lib every name is unresolved.
func Probe(lib Library, names ...string) *Report {
	r := newReport()
	for _, name := range names {
		if lib == nil {
			r.fail(name, ErrLibraryUnavailable)
		} else if _, err := lookup(lib, name); err != nil {
			r.fail(name, err)
		} else {
			r.ok(name)
		}
	}
	r.sort()
	return r
}
