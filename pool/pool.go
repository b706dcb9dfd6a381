// Package pool keeps an ordered set of named libraries that tables resolve against as one.
//
// Loading, unloading or replacing a member rebinds every attached table, which is how a backing
// library is hot swapped while trampolines stay in place. Members are released on removal: Close
// for an io.Closer, Free for a linked Go object.
package pool

import (
	"errors"
	"io"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ZenLiuCN/fn"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"

	. "github.com/ZenLiuCN/trampoline"
)

var (
	ErrAlreadyLoad = errors.New("library already loaded")
	ErrNotLoad     = errors.New("library not loaded")
	ErrAttached    = errors.New("table already attached")
)

// Pool is a Library over its members: a symbol is taken from the first loaded member that has it.
type Pool struct {
	mu      sync.Mutex // serializes changes
	current atomic.Pointer[snapshot]
	tables  []*Table
	logger  log.Logger
}

// snapshot is an immutable view of the members, tables are bound to snapshots.
type snapshot struct {
	order   []string
	modules map[string]Library
}

func (s *snapshot) Lookup(name string) (Symbol, error) {
	var err *multierror.Error
	for _, m := range s.order {
		sym, e := s.modules[m].Lookup(name)
		if e == nil && (sym.Addr != 0 || sym.Value != nil) {
			return sym, nil
		}
		if e != nil && !errors.Is(e, ErrSymbolNotFound) {
			err = multierror.Append(err, e)
		}
	}
	if err != nil {
		return Symbol{}, err.ErrorOrNil()
	}
	return Symbol{}, ErrSymbolNotFound
}

func (s *snapshot) with(name string, lib Library) *snapshot {
	n := &snapshot{order: slices.Clone(s.order), modules: make(map[string]Library, len(s.modules)+1)}
	for k, v := range s.modules {
		n.modules[k] = v
	}
	if _, ok := n.modules[name]; !ok {
		n.order = append(n.order, name)
	}
	n.modules[name] = lib
	return n
}

func (s *snapshot) without(name string) *snapshot {
	n := &snapshot{modules: make(map[string]Library, len(s.modules))}
	for _, k := range s.order {
		if k != name {
			n.order = append(n.order, k)
			n.modules[k] = s.modules[k]
		}
	}
	return n
}

// NewPool create an empty pool, logger may be nil.
func NewPool(logger log.Logger) *Pool {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	p := &Pool{logger: logger}
	p.current.Store(&snapshot{modules: map[string]Library{}})
	return p
}

// Logger of the pool.
func (p *Pool) Logger() log.Logger {
	return p.logger
}

// Lookup a symbol in the members, in load order.
func (p *Pool) Lookup(name string) (Symbol, error) {
	return p.current.Load().Lookup(name)
}

// Require fetch symbol from one member.
func (p *Pool) Require(module, name string) (Symbol, error) {
	lib, ok := p.current.Load().modules[module]
	if !ok {
		return Symbol{}, ErrNotLoad
	}
	return lib.Lookup(name)
}

// Modules names in load order.
func (p *Pool) Modules() []string {
	return slices.Clone(p.current.Load().order)
}

// Attach binds t to the pool, later changes of the pool rebind t.
func (p *Pool) Attach(t *Table) (*Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if slices.Contains(p.tables, t) {
		return nil, ErrAttached
	}
	r, _, err := t.Reload(p.current.Load())
	if err != nil {
		return nil, err
	}
	p.tables = append(p.tables, t)
	return r, nil
}

// Load appends lib under name, returning one report per attached table.
func (p *Pool) Load(name string, lib Library) (reports []*Report, err error) {
	if lib == nil {
		return nil, ErrLibraryUnavailable
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.current.Load()
	if _, ok := cur.modules[name]; ok {
		return nil, ErrAlreadyLoad
	}
	level.Info(p.logger).Log("msg", "load library", "module", name)
	return p.swap(cur.with(name, lib))
}

// LoadSo opens a shared library and loads it under name.
func (p *Pool) LoadSo(name, path string) (reports []*Report, err error) {
	so, err := OpenShared(path)
	if err != nil {
		return
	}
	if reports, err = p.Load(name, so); err != nil {
		_ = so.Close()
	}
	return
}

// Replace swaps the member under name for lib keeping its position, then releases the previous member.
func (p *Pool) Replace(name string, lib Library) (reports []*Report, err error) {
	if lib == nil {
		return nil, ErrLibraryUnavailable
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.current.Load()
	prev, ok := cur.modules[name]
	if !ok {
		return nil, ErrNotLoad
	}
	level.Info(p.logger).Log("msg", "replace library", "module", name)
	if reports, err = p.swap(cur.with(name, lib)); err != nil {
		return
	}
	if !same(prev, lib) {
		p.release(name, prev)
	}
	return
}

// Unload removes the member under name, rebinds the attached tables and releases it.
func (p *Pool) Unload(name string) (reports []*Report, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.current.Load()
	prev, ok := cur.modules[name]
	if !ok {
		return nil, ErrNotLoad
	}
	level.Info(p.logger).Log("msg", "unload library", "module", name)
	if reports, err = p.swap(cur.without(name)); err != nil {
		return
	}
	p.release(name, prev)
	return
}

// Close unloads every member, attached tables end up unresolved.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.current.Load()
	if _, err := p.swap(&snapshot{modules: map[string]Library{}}); err != nil {
		return err
	}
	for _, name := range cur.order {
		p.release(name, cur.modules[name])
	}
	return nil
}

// swap rebinds the attached tables to next, the caller holds mu.
func (p *Pool) swap(next *snapshot) (reports []*Report, err error) {
	for _, t := range p.tables {
		var r *Report
		if r, _, err = t.Reload(next); err != nil {
			return
		}
		reports = append(reports, r)
	}
	p.current.Store(next)
	return
}

func (p *Pool) release(name string, lib Library) {
	switch x := lib.(type) {
	case interface{ Free() }:
		x.Free()
	case io.Closer:
		fn.IgnoreClose(x)()
	default:
		return
	}
	level.Debug(p.logger).Log("msg", "released library", "module", name)
}

// same reports whether a and b are one library, map backed libraries compare by identity.
func same(a, b Library) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Func, reflect.Slice:
		return va.Pointer() == vb.Pointer()
	}
	return va.Comparable() && va.Equal(vb)
}
