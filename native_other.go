//go:build !(darwin || freebsd || linux || windows)

package trampoline

// SharedLibrary is unavailable on this platform.
type SharedLibrary struct {
	path string
}

// OpenShared always fails on this platform.
func OpenShared(path string) (*SharedLibrary, error) {
	return nil, ErrLibraryUnavailable
}

func (so *SharedLibrary) Lookup(name string) (Symbol, error) {
	return Symbol{}, ErrLibraryUnavailable
}

func (so *SharedLibrary) Path() string { return so.path }

func (so *SharedLibrary) Close() error { return nil }

func bindNative[F any](sym Symbol) (f F, err error) {
	err = ErrUnsupportedABI
	return
}
