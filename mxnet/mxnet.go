// Package mxnet binds the MXNet runtime library without linking against it.
//
// Call Init (or Bind with an already opened library) before anything else. When libmxnet cannot be found
// the process keeps running and every call fails with trampoline.ErrUnresolvedCall.
package mxnet

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/ZenLiuCN/trampoline"
	"github.com/ZenLiuCN/trampoline/loader"
)

const (
	VersionMajor = 1
	VersionMinor = 5
	VersionPatch = 0
)

// Version of the MXNet API this package is written against.
const Version = VersionMajor*10000 + VersionMinor*100 + VersionPatch

// Required entry points, Bind fails without them.
var Required = []string{"MXGetVersion", "MXGetLastError", "MXGetGPUCount"}

// ErrTooOld occurs when the bound library is older than Version.
var ErrTooOld = errors.New("mxnet library too old")

var (
	libVersion atomic.Int32
	gpuCount   atomic.Int32
)

// Error is a failed MXNet call.
type Error struct {
	Op   string
	Code int32
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failed with %d: %s", e.Op, e.Code, e.Msg)
}

// DefaultConfig lists where the library is looked for on this platform.
func DefaultConfig() loader.Config {
	if runtime.GOOS == "windows" {
		return loader.Config{
			Env:    []string{"MXNET_LIBRARY_PATH"},
			Cached: []string{"dl/go-model/mxnet15.dll"},
			System: []string{"mxnet15.dll"},
		}
	}
	return loader.Config{
		Env:    []string{"MXNET_LIBRARY_PATH"},
		Paths:  []string{"/opt/mxnet/lib/libmxnet.so"},
		Cached: []string{"dl/go-model/libmxnet.so"},
		System: []string{"libmxnet.so"},
	}
}

// Init opens the library from cfg and binds to it.
func Init(logger log.Logger, cfg loader.Config) (*trampoline.Report, error) {
	so, err := loader.Open(logger, cfg.Sources()...)
	if err != nil {
		return nil, err
	}
	r, err := Bind(logger, so)
	if err != nil {
		_, _, _ = Table.Reload(trampoline.Funcs{})
		_ = so.Close()
	}
	return r, err
}

// Bind the trampolines to lib, then read the library version and GPU count.
//
// Bind does not close the library it replaces.
func Bind(logger log.Logger, lib trampoline.Library) (r *trampoline.Report, err error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if r, _, err = Table.Reload(lib); err != nil {
		return
	}
	if err = r.Require(Required...); err != nil {
		return
	}
	var v, c int32
	if err = check("MXGetVersion")(MXGetVersion(&v)); err != nil {
		return
	}
	if v < Version {
		err = fmt.Errorf("%w: %d < %d", ErrTooOld, v, Version)
		return
	}
	if err = check("MXGetGPUCount")(MXGetGPUCount(&c)); err != nil {
		return
	}
	libVersion.Store(v)
	gpuCount.Store(c)
	level.Info(logger).Log("msg", "mxnet bound", "version", v, "gpus", c, "unresolved", len(r.Unresolved))
	return
}

// LibVersion of the bound library, 0 before Bind.
func LibVersion() int { return int(libVersion.Load()) }

// GpuCount reported by the bound library.
func GpuCount() int { return int(gpuCount.Load()) }

// LastError message of the library.
func LastError() string {
	s, err := MXGetLastError()
	if err != nil {
		return err.Error()
	}
	return s
}

func check(op string) func(code int32, err error) error {
	return func(code int32, err error) error {
		if err != nil {
			return err
		}
		if code != 0 {
			return &Error{Op: op, Code: code, Msg: LastError()}
		}
		return nil
	}
}

// RandomSeed seeds every device.
func RandomSeed(seed int) error {
	return check("MXRandomSeed")(MXRandomSeed(int32(seed)))
}

// ContextRandomSeed seeds one device.
func ContextRandomSeed(seed, devType, devNo int) error {
	return check("MXRandomSeedContext")(MXRandomSeedContext(int32(seed), int32(devType), int32(devNo)))
}

// ReleaseNDArray frees an array handle, a zero handle is ignored.
func ReleaseNDArray(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return check("MXNDArrayFree")(MXNDArrayFree(handle))
}

// ReleaseSymbol frees a symbol handle, a zero handle is ignored.
func ReleaseSymbol(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return check("MXSymbolFree")(MXSymbolFree(handle))
}

// ReleaseExecutor frees an executor handle, a zero handle is ignored.
func ReleaseExecutor(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return check("MXExecutorFree")(MXExecutorFree(handle))
}

// Shutdown notifies the engine the process is about to exit.
func Shutdown() error {
	return check("MXNotifyShutdown")(MXNotifyShutdown())
}
