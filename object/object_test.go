package object

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZenLiuCN/trampoline"
	"github.com/ZenLiuCN/trampoline/pool"
)

//go:noinline
func hostMul(a, b int32) int32 { return a * b }

const hostMulName = "github.com/ZenLiuCN/trampoline/object.hostMul"

func TestUninitialized(t *testing.T) {
	o := New(nil, nil)
	_, err := o.Lookup("add")
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.ErrorIs(t, o.Link(), ErrUninitialized)
	assert.ErrorIs(t, o.Serialize(new(bytes.Buffer)), ErrUninitialized)
	_, err = o.MissingSymbols()
	assert.ErrorIs(t, err, ErrUninitialized)
	assert.Nil(t, o.Exports())
	assert.NotPanics(t, o.Free)
	assert.NotPanics(t, o.Free)

	r, err := trampoline.NewTable().ResolveAll(o)
	require.NoError(t, err)
	assert.True(t, r.Ok())
	assert.Equal(t, []string{"add"}, trampoline.Probe(o, "add").Unresolved)
}

func TestNewCopiesHost(t *testing.T) {
	host := trampoline.Symbols{"main.add": 1}
	o := New(host, nil)
	o.symbols["main.mul"] = 2
	assert.Len(t, host, 1)
}

func TestInitializeMissingFile(t *testing.T) {
	o := New(nil, nil)
	assert.Error(t, o.Initialize("testdata/absent.o", "sample"))
	_, err := Inspect("testdata/absent.o", "")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	p := pool.NewPool(nil)
	_, err := Load(p, "testdata/absent.o", "sample", nil)
	assert.Error(t, err)
	assert.Empty(t, p.Modules())
}

func TestHostSymbols(t *testing.T) {
	host, err := HostSymbols()
	require.NoError(t, err)
	sym, err := host.Lookup(hostMulName)
	require.NoError(t, err)
	assert.Equal(t, trampoline.ABIGo, sym.ABI)
	assert.Equal(t, reflect.ValueOf(hostMul).Pointer(), sym.Addr)

	tb := trampoline.NewTable()
	mul := trampoline.MustDeclare[func(a, b int32) int32](tb, hostMulName)
	r, err := tb.ResolveAll(host)
	require.NoError(t, err)
	require.True(t, r.Ok(), r.String())
	var v int32
	require.NoError(t, mul.Invoke(func(f func(a, b int32) int32) { v = f(6, 7) }))
	assert.Equal(t, int32(42), v)
}

func TestUseGlobalHost(t *testing.T) {
	_, err := UseGlobalHost()
	require.NoError(t, err)
	_, err = UseGlobalHost()
	assert.ErrorIs(t, err, trampoline.ErrGlobalBound)
}

func TestUnescapeModule(t *testing.T) {
	assert.Equal(t, "github.com/ZenLiuCN/fn@v0.1.33/fn.go", unescapeModule("github.com/!zen!liu!c!n/fn@v0.1.33/fn.go"))
	assert.Equal(t, "plain/path.go", unescapeModule("plain/path.go"))
}

func TestInfoString(t *testing.T) {
	i := Info{File: "sample.o", PkgPath: "sample", Imports: map[string]string{"fmt": "", "github.com/ZenLiuCN/fn": "v0.1.33"}}
	assert.Equal(t, "sample (sample.o)\n\tfmt\n\tgithub.com/ZenLiuCN/fn@v0.1.33\n", i.String())
}
