package trampoline

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Report is the outcome of a resolution pass.
//
// Both name lists are sorted, so passes over the same library produce equal reports.
type Report struct {
	Resolved   []string
	Unresolved []string
	Errors     map[string]error // why each unresolved name failed
}

func newReport() *Report {
	return &Report{Errors: make(map[string]error)}
}

func (r *Report) ok(name string) {
	if r != nil {
		r.Resolved = append(r.Resolved, name)
	}
}

func (r *Report) fail(name string, err error) {
	if r != nil {
		r.Unresolved = append(r.Unresolved, name)
		r.Errors[name] = err
	}
}

func (r *Report) sort() {
	slices.Sort(r.Resolved)
	slices.Sort(r.Unresolved)
}

// Ok reports whether every symbol resolved.
func (r *Report) Ok() bool { return len(r.Unresolved) == 0 }

// IsResolved reports whether name is in the resolved set.
func (r *Report) IsResolved(name string) bool {
	_, found := slices.BinarySearch(r.Resolved, name)
	return found
}

// Err aggregates the per symbol errors, nil when every symbol resolved.
func (r *Report) Err() error {
	var err *multierror.Error
	for _, name := range r.Unresolved {
		e := r.Errors[name]
		if e == nil {
			e = &SymbolNotFoundError{Name: name}
		}
		err = multierror.Append(err, e)
	}
	return err.ErrorOrNil()
}

// Require fails when any of names is not resolved. The caller decides which entry points are mandatory.
func (r *Report) Require(names ...string) error {
	var err *multierror.Error
	for _, name := range names {
		if r.IsResolved(name) {
			continue
		}
		e := r.Errors[name]
		if e == nil {
			e = &SymbolNotFoundError{Name: name}
		}
		err = multierror.Append(err, e)
	}
	return err.ErrorOrNil()
}

func (r *Report) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("resolved %d, unresolved %d\n", len(r.Resolved), len(r.Unresolved)))
	for _, name := range r.Resolved {
		s.WriteString(fmt.Sprintf("\t+ %s\n", name))
	}
	for _, name := range r.Unresolved {
		s.WriteString(fmt.Sprintf("\t- %s: %v\n", name, r.Errors[name]))
	}
	return s.String()
}
