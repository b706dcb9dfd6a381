// Package object links relocatable Go object files into the running process and serves their
// functions as a trampoline.Library.
//
// goloader reads the internals of the Go toolchain from $GOROOT/src/cmd/objfile, run
// `trampgen prepare` once before building anything importing this package. The trampoline
// package itself and its other subpackages build on a stock toolchain.
package object

import (
	"errors"
	"io"
	"maps"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkujhd/goloader"

	"github.com/ZenLiuCN/trampoline"
)

var (
	// ErrAlreadyInitialized occurs when an Object reinitializing.
	ErrAlreadyInitialized = errors.New("already initialized object")
	// ErrLinked occurs when an Object relinking.
	ErrLinked = errors.New("already linked")
	// ErrUninitialized occurs use or link an Object before initialized.
	ErrUninitialized = errors.New("object not initialized")
)

// Object is a Library made of relocatable Go object files or archives linked into the process by [goloader].
//
// Use Steps:
//
//  1. InitializeMany, Initialize or InitializeSerialized to read the objects.
//  2. [Object.Link] to link the code against the host symbols.
//  3. Resolve a Table against the Object.
//  4. Reload the Table to another library, then [Object.Free].
//
// Symbols are Go functions, the trampolines declared for them must use the exact Go signature.
//
// [goloader]: https://github.com/pkujhd/goloader
type Object struct {
	files   []string
	pkg     []string
	symbols trampoline.Symbols
	linker  *goloader.Linker
	module  *goloader.CodeModule
	logger  log.Logger
}

// HostSymbols collects the symbol table of the running executable.
func HostSymbols() (trampoline.Symbols, error) {
	s := make(map[string]uintptr)
	if err := goloader.RegSymbol(s); err != nil {
		return nil, err
	}
	return s, nil
}

// UseGlobalHost binds the global table to the symbols of the running executable.
func UseGlobalHost() (*trampoline.Report, error) {
	s, err := HostSymbols()
	if err != nil {
		return nil, err
	}
	return trampoline.UseGlobalLibrary(s)
}

// New create an Object linking against a copy of host, logger may be nil.
func New(host trampoline.Symbols, logger log.Logger) *Object {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	symbols := maps.Clone(host)
	if symbols == nil {
		symbols = make(trampoline.Symbols)
	}
	return &Object{symbols: symbols, logger: logger}
}

// regTypes makes types available to interface conversions inside the objects.
func (s *Object) regTypes(types []any) {
	if len(types) > 0 {
		level.Debug(s.logger).Log("msg", "register types", "types", len(types))
		goloader.RegTypes(s.symbols, types...)
	}
}

// InitializeMany reads many object files, pkg holds the package path of each file.
func (s *Object) InitializeMany(file, pkg []string, types ...any) (err error) {
	if s.linker != nil {
		return ErrAlreadyInitialized
	}
	s.regTypes(types)
	if s.linker, err = goloader.ReadObjs(file, pkg); err != nil {
		return
	}
	s.files = append(s.files, file...)
	s.pkg = append(s.pkg, pkg...)
	level.Debug(s.logger).Log("msg", "read objects", "files", len(file))
	return
}

// Initialize reads one object file or archive of package pkg.
func (s *Object) Initialize(file, pkg string, types ...any) (err error) {
	return s.InitializeMany([]string{file}, []string{pkg}, types...)
}

// InitializeSerialized reads a linker written by [Object.Serialize].
func (s *Object) InitializeSerialized(in io.Reader, types ...any) (err error) {
	if s.linker != nil {
		return ErrAlreadyInitialized
	}
	s.regTypes(types)
	if s.linker, err = goloader.UnSerialize(in); err != nil {
		return
	}
	level.Debug(s.logger).Log("msg", "read serialized linker", "packages", len(s.linker.Packages))
	return
}

// Link the objects into an executable code module.
func (s *Object) Link() (err error) {
	if s.linker == nil {
		return ErrUninitialized
	}
	if s.module != nil {
		return ErrLinked
	}
	if s.module, err = goloader.Load(s.linker, s.symbols); err != nil {
		return
	}
	level.Debug(s.logger).Log("msg", "linked module", "symbols", len(s.module.Syms))
	return
}

// Lookup a fully qualified Go symbol of the linked module, names without a package are looked up in main.
func (s *Object) Lookup(name string) (trampoline.Symbol, error) {
	if s.module == nil {
		return trampoline.Symbol{}, ErrUninitialized
	}
	return trampoline.Symbols(s.module.Syms).Lookup(name)
}

// Exports of the linked module.
func (s *Object) Exports() trampoline.Symbols {
	if s.module == nil {
		return nil
	}
	return maps.Clone(trampoline.Symbols(s.module.Syms))
}

// MissingSymbols the objects need but the host does not provide.
func (s *Object) MissingSymbols() ([]string, error) {
	if s.linker == nil {
		return nil, ErrUninitialized
	}
	return goloader.UnresolvedSymbols(s.linker, s.symbols), nil
}

// Serialize the linker so InitializeSerialized can skip reading objects.
func (s *Object) Serialize(out io.Writer) error {
	if s.linker == nil {
		return ErrUninitialized
	}
	return goloader.Serialize(s.linker, out)
}

// Free the code module. Every table resolved against this Object must be reloaded first.
func (s *Object) Free() {
	if s.linker == nil {
		return
	}
	level.Debug(s.logger).Log("msg", "free object", "files", len(s.files))
	if s.module != nil {
		_ = os.Stdout.Sync()
		s.module.Unload()
		s.module = nil
	}
	s.linker = nil
	s.files = s.files[:0]
	s.pkg = s.pkg[:0]
}
