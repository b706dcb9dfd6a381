package gen

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogue = `package arith

import (
	"unsafe"

	"github.com/ZenLiuCN/trampoline"
	str "strings"
)

var _ = trampoline.NewTable
var _ = str.Builder{}

type catalogue struct {
	Add  func(a, b int32) int32 ` + "`symbol:\"add\"`" + `
	Mul  func(a, b int32) int32 ` + "`symbol:\"mul\"`" + `
	Div  func(a, b int32) int32 ` + "`symbol:\"div\"`" + `
	Free func(unsafe.Pointer)
	Sum  func(f int32, r0 ...int32) (int32, bool)
}
`

func TestParse(t *testing.T) {
	c, err := Parse("catalogue.go", catalogue, "catalogue")
	require.NoError(t, err)
	assert.Equal(t, "arith", c.Package)
	assert.Equal(t, []string{`"unsafe"`}, c.Imports)
	require.Len(t, c.Entries, 5)

	add := c.Entries[0]
	assert.Equal(t, "Add", add.Func)
	assert.Equal(t, "add", add.Symbol)
	assert.Equal(t, "func(a int32, b int32) int32", add.Type())
	assert.Equal(t, "(a int32, b int32) (r0 int32, err error)", add.Signature())
	assert.Equal(t, "r0 = f(a, b)", add.Call())
	assert.Equal(t, "trampAdd", add.Var())

	free := c.Entries[3]
	assert.Equal(t, "Free", free.Symbol)
	assert.Equal(t, "func(p0 unsafe.Pointer)", free.Type())
	assert.Equal(t, "(p0 unsafe.Pointer) (err error)", free.Signature())
	assert.Equal(t, "f(p0)", free.Call())

	sum := c.Entries[4]
	assert.True(t, sum.Variadic)
	assert.Equal(t, "func(p0 int32, p1 ...int32) (int32, bool)", sum.Type())
	assert.Equal(t, "r0, r1 = f(p0, p1...)", sum.Call())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("c.go", "package x\ntype other struct{}\n", "catalogue")
	assert.ErrorIs(t, err, ErrNoCatalogue)
	_, err = Parse("c.go", "package x\ntype catalogue struct{ N int }\n", "catalogue")
	assert.ErrorIs(t, err, ErrBadCatalogue)
	_, err = Parse("c.go", "package x\ntype catalogue struct{ A func() `symbol:\"a\"`; B func() `symbol:\"a\"` }\n", "catalogue")
	assert.ErrorIs(t, err, ErrBadCatalogue)
	_, err = Parse("c.go", "package x\ntype catalogue", "catalogue")
	assert.Error(t, err)
	_, err = Generate(&Catalogue{Package: "x"}, Options{})
	assert.ErrorIs(t, err, ErrBadCatalogue)
}

func TestGenerate(t *testing.T) {
	c, err := Parse("catalogue.go", catalogue, "catalogue")
	require.NoError(t, err)
	out, err := Generate(c, Options{})
	require.NoError(t, err)
	src := string(out)
	assert.Contains(t, src, "// Code generated by trampgen. DO NOT EDIT.")
	assert.Contains(t, src, "var Table = trampoline.NewTable()")
	assert.Contains(t, src, `trampAdd  = trampoline.MustDeclare[func(a int32, b int32) int32](Table, "add")`)
	assert.Contains(t, src, "func Add(a int32, b int32) (r0 int32, err error) {")
	assert.Contains(t, src, "err = trampFree.Invoke(func(f func(p0 unsafe.Pointer)) { f(p0) })")
	_, err = parser.ParseFile(token.NewFileSet(), "zz_trampolines.go", out, parser.AllErrors)
	require.NoError(t, err, src)
}

func TestGenerateGlobal(t *testing.T) {
	c, err := Parse("catalogue.go", catalogue, "catalogue")
	require.NoError(t, err)
	out, err := Generate(c, Options{Global: true, Command: "trampgen generate"})
	require.NoError(t, err)
	src := string(out)
	assert.Contains(t, src, "// Code generated by trampgen generate. DO NOT EDIT.")
	assert.NotContains(t, src, "NewTable")
	assert.Contains(t, src, `trampoline.DeclareGlobal[func(a int32, b int32) int32]("add")`)

	out, err = Generate(c, Options{External: true, Table: "lib"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "NewTable")
	assert.Contains(t, string(out), `(lib, "mul")`)
}
