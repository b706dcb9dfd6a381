// Package gen generates typed wrappers for a catalogue of deferred entry points.
//
// A catalogue is a struct type whose fields are function types. Each field becomes one trampoline and one
// wrapper function of the same name; the symbol name is the field's `symbol` tag, or the field name.
//
//	type catalogue struct {
//		Add func(a, b int32) int32 `symbol:"add"`
//	}
//
// generates
//
//	func Add(a int32, b int32) (r0 int32, err error)
package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"text/template"
)

var (
	ErrNoCatalogue  = errors.New("catalogue type not found")
	ErrBadCatalogue = errors.New("invalid catalogue")
)

const importPath = "github.com/ZenLiuCN/trampoline"

type (
	// Catalogue is the parsed form of a catalogue struct.
	Catalogue struct {
		Package string
		Imports []string // import specs the entry types need, already quoted
		Entries []Entry
	}
	// Entry is one catalogue field.
	Entry struct {
		Func     string
		Symbol   string
		Params   []Param
		Results  []string
		Variadic bool
	}
	Param struct {
		Name string
		Type string
	}
	// Options of Generate.
	Options struct {
		Table    string // table variable, default Table
		Global   bool   // declare into the process wide table instead
		External bool   // the table variable is declared elsewhere in the package
		Command  string // recorded in the header
	}
)

// Type of the trampoline function.
func (e Entry) Type() string {
	s := strings.Builder{}
	s.WriteString("func(")
	for i, p := range e.Params {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(p.Name + " " + p.Type)
	}
	s.WriteString(")")
	switch len(e.Results) {
	case 0:
	case 1:
		s.WriteString(" " + e.Results[0])
	default:
		s.WriteString(" (" + strings.Join(e.Results, ", ") + ")")
	}
	return s.String()
}

// Var is the name of the trampoline variable.
func (e Entry) Var() string { return "tramp" + strings.ToUpper(e.Func[:1]) + e.Func[1:] }

// Signature of the wrapper, results are followed by an error.
func (e Entry) Signature() string {
	s := strings.Builder{}
	s.WriteString("(")
	for i, p := range e.Params {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(p.Name + " " + p.Type)
	}
	s.WriteString(") (")
	for i, r := range e.Results {
		s.WriteString(fmt.Sprintf("r%d %s, ", i, r))
	}
	s.WriteString("err error)")
	return s.String()
}

// Call is the forwarded call inside the wrapper.
func (e Entry) Call() string {
	s := strings.Builder{}
	for i := range e.Results {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(fmt.Sprintf("r%d", i))
	}
	if len(e.Results) > 0 {
		s.WriteString(" = ")
	}
	s.WriteString("f(")
	for i, p := range e.Params {
		if i > 0 {
			s.WriteString(", ")
		}
		s.WriteString(p.Name)
		if e.Variadic && i == len(e.Params)-1 {
			s.WriteString("...")
		}
	}
	s.WriteString(")")
	return s.String()
}

// ParseFile reads the catalogue struct typeName from a Go source file.
func ParseFile(filename, typeName string) (*Catalogue, error) {
	return Parse(filename, nil, typeName)
}

// Parse reads the catalogue struct typeName, src follows go/parser.ParseFile.
func Parse(filename string, src any, typeName string) (c *Catalogue, err error) {
	fs := token.NewFileSet()
	f, err := parser.ParseFile(fs, filename, src, parser.SkipObjectResolution)
	if err != nil {
		return
	}
	var st *ast.StructType
	ast.Inspect(f, func(n ast.Node) bool {
		if ts, ok := n.(*ast.TypeSpec); ok && ts.Name.Name == typeName {
			st, _ = ts.Type.(*ast.StructType)
			return false
		}
		return st == nil
	})
	if st == nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoCatalogue, typeName, filename)
	}
	imports := fileImports(f)
	used := map[string]bool{}
	c = &Catalogue{Package: f.Name.Name}
	seen := map[string]bool{}
	for _, field := range st.Fields.List {
		ft, ok := field.Type.(*ast.FuncType)
		if !ok {
			return nil, fmt.Errorf("%w: field %s is not a function", ErrBadCatalogue, types.ExprString(field.Type))
		}
		if len(field.Names) == 0 {
			return nil, fmt.Errorf("%w: embedded field %s", ErrBadCatalogue, types.ExprString(field.Type))
		}
		ast.Inspect(ft, func(n ast.Node) bool {
			if se, ok := n.(*ast.SelectorExpr); ok {
				if id, ok := se.X.(*ast.Ident); ok {
					used[id.Name] = true
				}
			}
			return true
		})
		for _, name := range field.Names {
			e := entry(name.Name, field.Tag, ft)
			if seen[e.Symbol] {
				return nil, fmt.Errorf("%w: symbol %s declared twice", ErrBadCatalogue, e.Symbol)
			}
			seen[e.Symbol] = true
			c.Entries = append(c.Entries, e)
		}
	}
	for name := range used {
		if spec, ok := imports[name]; ok {
			c.Imports = append(c.Imports, spec)
		}
	}
	slices.Sort(c.Imports)
	return
}

func entry(name string, tag *ast.BasicLit, ft *ast.FuncType) (e Entry) {
	e.Func = name
	e.Symbol = name
	if tag != nil {
		if raw, err := strconv.Unquote(tag.Value); err == nil {
			if s, ok := reflect.StructTag(raw).Lookup("symbol"); ok && s != "" {
				e.Symbol = s
			}
		}
	}
	n := 0
	for _, p := range ft.Params.List {
		typ := types.ExprString(p.Type)
		if _, ok := p.Type.(*ast.Ellipsis); ok {
			e.Variadic = true
		}
		if len(p.Names) == 0 {
			e.Params = append(e.Params, Param{Name: fmt.Sprintf("p%d", n), Type: typ})
			n++
			continue
		}
		for _, id := range p.Names {
			pn := id.Name
			if pn == "_" || pn == "err" || pn == "f" || strings.HasPrefix(pn, "r") && isIndex(pn[1:]) {
				pn = fmt.Sprintf("p%d", n)
			}
			e.Params = append(e.Params, Param{Name: pn, Type: typ})
			n++
		}
	}
	if ft.Results != nil {
		for _, r := range ft.Results.List {
			typ := types.ExprString(r.Type)
			k := len(r.Names)
			if k == 0 {
				k = 1
			}
			for i := 0; i < k; i++ {
				e.Results = append(e.Results, typ)
			}
		}
	}
	return
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}

// fileImports maps the local package name of each import to its spec.
func fileImports(f *ast.File) map[string]string {
	m := map[string]string{}
	for _, im := range f.Imports {
		path, _ := strconv.Unquote(im.Path.Value)
		if path == importPath {
			continue
		}
		name := path[strings.LastIndexByte(path, '/')+1:]
		spec := im.Path.Value
		if im.Name != nil {
			name = im.Name.Name
			spec = im.Name.Name + " " + im.Path.Value
		}
		m[name] = spec
	}
	return m
}

var tmpl = template.Must(template.New("wrappers").Parse(`// Code generated by {{.Opt.Command}}. DO NOT EDIT.

package {{.Cat.Package}}

import (
{{- range .Cat.Imports}}
	{{.}}
{{- end}}
{{- if .Cat.Imports}}
{{end}}
	"github.com/ZenLiuCN/trampoline"
)
{{if not (or .Opt.Global .Opt.External)}}
// {{.Opt.Table}} holds the trampolines of this package.
var {{.Opt.Table}} = trampoline.NewTable()
{{end}}
var (
{{- range .Cat.Entries}}
	{{.Var}} = {{if $.Opt.Global}}trampoline.DeclareGlobal[{{.Type}}]({{printf "%q" .Symbol}}){{else}}trampoline.MustDeclare[{{.Type}}]({{$.Opt.Table}}, {{printf "%q" .Symbol}}){{end}}
{{- end}}
)
{{range .Cat.Entries}}
// {{.Func}} calls {{.Symbol}} through its trampoline.
func {{.Func}}{{.Signature}} {
	err = {{.Var}}.Invoke(func(f {{.Type}}) { {{.Call}} })
	return
}
{{end}}`))

// Generate renders the wrappers of c as formatted Go source.
func Generate(c *Catalogue, opt Options) ([]byte, error) {
	if len(c.Entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrBadCatalogue)
	}
	if opt.Table == "" {
		opt.Table = "Table"
	}
	if opt.Command == "" {
		opt.Command = "trampgen"
	}
	b := new(bytes.Buffer)
	if err := tmpl.Execute(b, struct {
		Cat *Catalogue
		Opt Options
	}{c, opt}); err != nil {
		return nil, err
	}
	out, err := format.Source(b.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w\n%s", err, b.String())
	}
	return out, nil
}
