package arith

import (
	"github.com/go-kit/log"

	"github.com/ZenLiuCN/trampoline"
	"github.com/ZenLiuCN/trampoline/loader"
)

// DefaultConfig looks for libarith in $LIBARITH_PATH, then on the system search path.
var DefaultConfig = loader.Config{
	Env:    []string{"LIBARITH_PATH"},
	System: []string{"libarith.so"},
}

// Fallback is the pure Go libarith.
var Fallback = trampoline.Funcs{
	"add": func(a, b int32) int32 { return a + b },
	"mul": func(a, b int32) int32 { return a * b },
	"div": func(a, b int32) int32 { return a / b },
}

// Open loads libarith and binds the trampolines to it, missing entry points are listed in the report.
func Open(logger log.Logger, cfg loader.Config) (*trampoline.Report, error) {
	so, err := loader.Open(logger, cfg.Sources()...)
	if err != nil {
		return nil, err
	}
	r, prev, err := Table.Reload(so)
	if err != nil {
		return nil, err
	}
	release(prev)
	return r, nil
}

// UseFallback binds the trampolines to Fallback.
func UseFallback() *trampoline.Report {
	r, prev, _ := Table.Reload(Fallback)
	release(prev)
	return r
}

func release(lib trampoline.Library) {
	if so, ok := lib.(*trampoline.SharedLibrary); ok {
		_ = so.Close()
	}
}
