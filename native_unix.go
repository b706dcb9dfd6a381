//go:build darwin || freebsd || linux

package trampoline

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// SharedLibrary is a native shared object opened in this process.
type SharedLibrary struct {
	path   string
	handle uintptr
}

// OpenShared opens the shared object at path, a bare file name is searched by the system loader.
func OpenShared(path string) (*SharedLibrary, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLibraryUnavailable, path, err)
	}
	return &SharedLibrary{path: path, handle: h}, nil
}

// Lookup the address of a C symbol.
func (so *SharedLibrary) Lookup(name string) (Symbol, error) {
	if so == nil || so.handle == 0 {
		return Symbol{}, ErrLibraryUnavailable
	}
	p, err := purego.Dlsym(so.handle, name)
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: %v", ErrSymbolNotFound, err)
	}
	if p == 0 {
		return Symbol{}, ErrSymbolNotFound
	}
	return Symbol{Name: name, Addr: p, ABI: ABINative}, nil
}

// Path the library was opened from.
func (so *SharedLibrary) Path() string { return so.path }

// Close releases the library. Trampolines bound to it must be reloaded first.
func (so *SharedLibrary) Close() error {
	if so.handle == 0 {
		return nil
	}
	err := purego.Dlclose(so.handle)
	so.handle = 0
	return err
}

func bindNative[F any](sym Symbol) (f F, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrUnsupportedABI, sym.Name, r)
		}
	}()
	purego.RegisterFunc(&f, sym.Addr)
	return
}
