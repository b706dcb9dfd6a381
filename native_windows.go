//go:build windows

package trampoline

import (
	"fmt"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

// SharedLibrary is a native DLL loaded in this process.
type SharedLibrary struct {
	path   string
	handle windows.Handle
}

// OpenShared loads the DLL at path, a bare file name is searched by the system loader.
func OpenShared(path string) (*SharedLibrary, error) {
	h, err := windows.LoadLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLibraryUnavailable, path, err)
	}
	return &SharedLibrary{path: path, handle: h}, nil
}

// Lookup the address of an exported procedure.
func (so *SharedLibrary) Lookup(name string) (Symbol, error) {
	if so == nil || so.handle == 0 {
		return Symbol{}, ErrLibraryUnavailable
	}
	p, err := windows.GetProcAddress(so.handle, name)
	if err != nil {
		return Symbol{}, fmt.Errorf("%w: %v", ErrSymbolNotFound, err)
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
	err := windows.FreeLibrary(so.handle)
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
