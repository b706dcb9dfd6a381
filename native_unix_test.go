//go:build linux

package trampoline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const libc = "libc.so.6"

func TestOpenSharedMissing(t *testing.T) {
	_, err := OpenShared("/nonexistent/libtrampoline_missing.so")
	assert.ErrorIs(t, err, ErrLibraryUnavailable)
}

func TestSharedLibrary(t *testing.T) {
	so, err := OpenShared(libc)
	if err != nil {
		t.Skipf("%s not loadable: %v", libc, err)
	}
	defer func() { require.NoError(t, so.Close()) }()
	assert.Equal(t, libc, so.Path())

	tb := NewTable()
	getpid := MustDeclare[func() int32](tb, "getpid")
	absent := MustDeclare[func() int32](tb, "trampoline_absent_symbol")
	r, err := tb.ResolveAll(so)
	require.NoError(t, err)
	assert.Equal(t, []string{"getpid"}, r.Resolved)
	assert.Equal(t, []string{"trampoline_absent_symbol"}, r.Unresolved)

	sym, ok := getpid.Symbol()
	require.True(t, ok)
	assert.Equal(t, ABINative, sym.ABI)
	var pid int32
	require.NoError(t, getpid.Invoke(func(f func() int32) { pid = f() }))
	assert.Equal(t, int32(os.Getpid()), pid)

	err = absent.Invoke(func(f func() int32) { f() })
	assert.ErrorIs(t, err, ErrUnresolvedCall)
}

func libcFile(t *testing.T) string {
	for _, dir := range []string{"/lib/x86_64-linux-gnu", "/lib/aarch64-linux-gnu", "/usr/lib64", "/lib64", "/usr/lib", "/lib"} {
		p := filepath.Join(dir, libc)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skipf("%s not found", libc)
	return ""
}

func openFiles(t *testing.T) int {
	e, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skipf("no /proc: %v", err)
	}
	return len(e)
}

func TestInspectClosesFile(t *testing.T) {
	file := libcFile(t)
	v, err := Inspect(file)
	require.NoError(t, err)
	assert.Contains(t, v, "getpid")
	assert.Empty(t, Missing([]string{"getpid", "malloc"}, v))

	before := openFiles(t)
	for i := 0; i < 20; i++ {
		_, err = Inspect(file)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, openFiles(t), before+2)
}
