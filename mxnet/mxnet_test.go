package mxnet

import (
	"bytes"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZenLiuCN/trampoline"
	"github.com/ZenLiuCN/trampoline/loader"
)

// standIn is a fake libmxnet recording the handles it frees.
type standIn struct {
	version int32
	freed   []uintptr
	seed    int32
	last    string
}

func (s *standIn) library() trampoline.Funcs {
	return trampoline.Funcs{
		"MXGetVersion":   func(out *int32) int32 { *out = s.version; return 0 },
		"MXGetLastError": func() string { return s.last },
		"MXGetGPUCount":  func(out *int32) int32 { *out = 2; return 0 },
		"MXRandomSeed": func(seed int32) int32 {
			if seed < 0 {
				s.last = "negative seed"
				return -1
			}
			s.seed = seed
			return 0
		},
		"MXNDArrayFree": func(handle uintptr) int32 { s.freed = append(s.freed, handle); return 0 },
	}
}

func TestBind(t *testing.T) {
	s := &standIn{version: 10600}
	buf := new(bytes.Buffer)
	r, err := Bind(log.NewLogfmtLogger(buf), s.library())
	require.NoError(t, err)
	assert.Contains(t, r.Unresolved, "MXSymbolFree")
	assert.Equal(t, 10600, LibVersion())
	assert.Equal(t, 2, GpuCount())
	assert.Contains(t, buf.String(), "mxnet bound")

	require.NoError(t, RandomSeed(42))
	assert.Equal(t, int32(42), s.seed)
	err = RandomSeed(-1)
	var me *Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "MXRandomSeed", me.Op)
	assert.Equal(t, "negative seed", me.Msg)

	require.NoError(t, ReleaseNDArray(0))
	require.NoError(t, ReleaseNDArray(7))
	assert.Equal(t, []uintptr{7}, s.freed)

	assert.NoError(t, ReleaseSymbol(0))
	assert.ErrorIs(t, ReleaseSymbol(3), trampoline.ErrUnresolvedCall)
	assert.ErrorIs(t, ContextRandomSeed(1, 1, 0), trampoline.ErrUnresolvedCall)
	assert.ErrorIs(t, Shutdown(), trampoline.ErrUnresolvedCall)
}

func TestBindRequired(t *testing.T) {
	s := &standIn{version: 10600}
	lib := s.library()
	delete(lib, "MXGetGPUCount")
	_, err := Bind(nil, lib)
	assert.ErrorIs(t, err, trampoline.ErrSymbolNotFound)
}

func TestBindTooOld(t *testing.T) {
	s := &standIn{version: 10400}
	_, err := Bind(nil, s.library())
	assert.ErrorIs(t, err, ErrTooOld)
}

func TestInitMissing(t *testing.T) {
	t.Setenv("MXNET_LIBRARY_PATH", "")
	_, err := Init(nil, loader.Config{Env: []string{"MXNET_LIBRARY_PATH"}, Paths: []string{"/nonexistent/libmxnet.so"}})
	assert.ErrorIs(t, err, trampoline.ErrLibraryUnavailable)
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, []string{"MXNET_LIBRARY_PATH"}, c.Env)
	assert.NotEmpty(t, c.System)
	assert.Equal(t, 10500, Version)
}
