package arith

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZenLiuCN/trampoline"
	"github.com/ZenLiuCN/trampoline/loader"
)

func TestPartialLibrary(t *testing.T) {
	r, _, err := Table.Reload(trampoline.Funcs{"add": Fallback["add"], "mul": Fallback["mul"]})
	require.NoError(t, err)
	assert.Equal(t, []string{"add", "mul"}, r.Resolved)
	assert.Equal(t, []string{"div"}, r.Unresolved)

	v, err := Add(2, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(5), v)
	v, err = Mul(2, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(6), v)
	_, err = Div(6, 3)
	assert.ErrorIs(t, err, trampoline.ErrUnresolvedCall)
}

func TestFallback(t *testing.T) {
	r := UseFallback()
	require.True(t, r.Ok(), r.String())
	v, err := Div(6, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}

func TestOpenMissing(t *testing.T) {
	UseFallback()
	t.Setenv("LIBARITH_PATH", "")
	_, err := Open(nil, loader.Config{Env: []string{"LIBARITH_PATH"}, Paths: []string{"/nonexistent/libarith.so"}})
	assert.ErrorIs(t, err, trampoline.ErrLibraryUnavailable)
	// a failed open keeps the current binding
	v, err := Add(1, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)
}
