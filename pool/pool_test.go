package pool

import (
	"bytes"
	"testing"

	"github.com/ZenLiuCN/fn"
	"github.com/davecgh/go-spew/spew"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZenLiuCN/trampoline"
)

type typeArith = func(a, b int32) int32

type closer struct {
	trampoline.Funcs
	closed bool
}

func (c *closer) Close() error {
	c.closed = true
	return nil
}

func call(tr *trampoline.Trampoline[typeArith], a, b int32) (r int32, err error) {
	err = tr.Invoke(func(f typeArith) { r = f(a, b) })
	return
}

func TestNewPool(t *testing.T) {
	p := NewPool(nil)
	tb := trampoline.NewTable()
	add := trampoline.MustDeclare[typeArith](tb, "add")
	div := trampoline.MustDeclare[typeArith](tb, "div")

	r := fn.Panic1(p.Attach(tb))
	assert.Equal(t, []string{"add", "div"}, r.Unresolved)
	_, err := p.Attach(tb)
	assert.ErrorIs(t, err, ErrAttached)

	base := &closer{Funcs: trampoline.Funcs{"add": func(a, b int32) int32 { return a + b }}}
	reports := fn.Panic1(p.Load("base", base))
	require.Len(t, reports, 1)
	assert.Equal(t, []string{"add"}, reports[0].Resolved)
	assert.Equal(t, []string{"div"}, reports[0].Unresolved)
	_, err = p.Load("base", base)
	assert.ErrorIs(t, err, ErrAlreadyLoad)

	v, err := call(add, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(5), v)
	_, err = call(div, 6, 3)
	assert.ErrorIs(t, err, trampoline.ErrUnresolvedCall)

	extra := trampoline.Funcs{
		"add": func(a, b int32) int32 { return -1 },
		"div": func(a, b int32) int32 { return a / b },
	}
	reports = fn.Panic1(p.Load("extra", extra))
	assert.True(t, reports[0].Ok())
	assert.Equal(t, []string{"base", "extra"}, p.Modules())
	v, err = call(add, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(5), v, "first loaded member wins")
	v, err = call(div, 6, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(2), v)

	sym, err := p.Require("extra", "add")
	require.NoError(t, err)
	assert.Equal(t, trampoline.ABIValue, sym.ABI)
	_, err = p.Require("absent", "add")
	assert.ErrorIs(t, err, ErrNotLoad)
	spew.Fdump(new(bytes.Buffer), p.Modules(), reports)
}

func TestReplaceAndUnload(t *testing.T) {
	p := NewPool(log.NewNopLogger())
	tb := trampoline.NewTable()
	add := trampoline.MustDeclare[typeArith](tb, "add")
	fn.Panic1(p.Attach(tb))

	v1 := &closer{Funcs: trampoline.Funcs{"add": func(a, b int32) int32 { return a + b }}}
	fn.Panic1(p.Load("arith", v1))
	v2 := &closer{Funcs: trampoline.Funcs{"add": func(a, b int32) int32 { return a + b + 1 }}}
	reports, err := p.Replace("arith", v2)
	require.NoError(t, err)
	assert.True(t, reports[0].Ok())
	assert.True(t, v1.closed)
	assert.False(t, v2.closed)
	v, err := call(add, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(6), v)

	_, err = p.Replace("absent", v2)
	assert.ErrorIs(t, err, ErrNotLoad)
	_, err = p.Replace("arith", nil)
	assert.ErrorIs(t, err, trampoline.ErrLibraryUnavailable)

	reports, err = p.Unload("arith")
	require.NoError(t, err)
	assert.Equal(t, []string{"add"}, reports[0].Unresolved)
	assert.True(t, v2.closed)
	_, err = call(add, 2, 3)
	assert.ErrorIs(t, err, trampoline.ErrUnresolvedCall)
	_, err = p.Unload("arith")
	assert.ErrorIs(t, err, ErrNotLoad)
}

func TestReplaceSame(t *testing.T) {
	p := NewPool(nil)
	tb := trampoline.NewTable()
	add := trampoline.MustDeclare[typeArith](tb, "add")
	fn.Panic1(p.Attach(tb))
	lib := &closer{Funcs: trampoline.Funcs{"add": func(a, b int32) int32 { return a + b }}}
	fn.Panic1(p.Load("arith", lib))
	reports, err := p.Replace("arith", lib)
	require.NoError(t, err)
	assert.True(t, reports[0].Ok())
	assert.False(t, lib.closed)
	v, err := call(add, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(3), v)

	funcs := trampoline.Funcs{"add": func(a, b int32) int32 { return a + b }}
	fn.Panic1(p.Load("funcs", funcs))
	_, err = p.Replace("funcs", funcs)
	require.NoError(t, err)
}

type freer struct {
	trampoline.Funcs
	freed bool
}

func (f *freer) Free() { f.freed = true }

func TestUnloadFrees(t *testing.T) {
	p := NewPool(nil)
	lib := &freer{Funcs: trampoline.Funcs{}}
	fn.Panic1(p.Load("object", lib))
	fn.Panic1(p.Unload("object"))
	assert.True(t, lib.freed)
}

func TestClose(t *testing.T) {
	p := NewPool(nil)
	tb := trampoline.NewTable()
	add := trampoline.MustDeclare[typeArith](tb, "add")
	fn.Panic1(p.Attach(tb))
	lib := &closer{Funcs: trampoline.Funcs{"add": func(a, b int32) int32 { return a + b }}}
	fn.Panic1(p.Load("arith", lib))
	require.NoError(t, p.Close())
	assert.True(t, lib.closed)
	assert.Empty(t, p.Modules())
	assert.Equal(t, trampoline.Unresolvable, add.State())
	_, err := p.Lookup("add")
	assert.ErrorIs(t, err, trampoline.ErrSymbolNotFound)
}

func TestLoadSoMissing(t *testing.T) {
	p := NewPool(nil)
	_, err := p.LoadSo("missing", "/nonexistent/libtrampoline_missing.so")
	assert.ErrorIs(t, err, trampoline.ErrLibraryUnavailable)
	assert.Empty(t, p.Modules())
}
