package object

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ZenLiuCN/fn"
	"github.com/pkujhd/goloader"
	"github.com/pkujhd/goloader/obj"

	"github.com/ZenLiuCN/trampoline"
	"github.com/ZenLiuCN/trampoline/pool"
)

// Inspect lists the symbols a Go object file or archive of package pkg defines.
func Inspect(file, pkg string) ([]string, error) {
	if pkg == "" {
		pkg = "main"
	}
	v, err := goloader.Parse(file, pkg)
	if err != nil {
		return nil, err
	}
	slices.Sort(v)
	return v, nil
}

// Load links file of package pkgPath against host and loads it into p under its package path.
//
// The Object is freed when linking or loading fails, and by the pool once unloaded.
func Load(p *pool.Pool, file, pkgPath string, host trampoline.Symbols, types ...any) (reports []*trampoline.Report, err error) {
	if pkgPath == "" {
		pkgPath = "main"
	}
	o := New(host, p.Logger())
	if err = o.Initialize(file, pkgPath, types...); err != nil {
		return
	}
	if err = o.Link(); err != nil {
		o.Free()
		return
	}
	if reports, err = p.Load(pkgPath, o); err != nil {
		o.Free()
	}
	return
}

// Info contains the import information of an object file.
type Info struct {
	File    string
	PkgPath string
	Imports map[string]string // with pairs of package import path and version
}

func (i Info) String() string {
	s := strings.Builder{}
	s.WriteString(fmt.Sprintf("%s (%s)\n", i.PkgPath, i.File))
	k := fn.MapKeys(i.Imports)
	slices.Sort(k)
	for _, p := range k {
		if v := i.Imports[p]; v != "" {
			s.WriteString(fmt.Sprintf("\t%s@%s\n", p, v))
		} else {
			s.WriteString(fmt.Sprintf("\t%s\n", p))
		}
	}
	return s.String()
}

// Imports resolves the packages an object file imports and their module versions when known.
//
// Run it before [Object.Link] to see which dependencies the host executable must carry.
func Imports(file, pkgPath string) (info *Info, err error) {
	if pkgPath == "" {
		pkgPath = "main"
	}
	v := &obj.Pkg{Syms: make(map[string]*obj.ObjSymbol), File: file, PkgPath: pkgPath}
	if err = v.Symbols(); err != nil {
		return
	}
	info = &Info{File: file, PkgPath: pkgPath, Imports: make(map[string]string)}
	for _, pkg := range v.ImportPkgs {
		info.Imports[pkg] = ""
	}
	k := fn.MapKeys(info.Imports)
	for _, f := range v.CUFiles {
		f = strings.TrimPrefix(f, "gofile..")
		if strings.HasPrefix(f, "$GOROOT") {
			continue
		}
		f = unescapeModule(f)
		for _, p := range k {
			if info.Imports[p] != "" {
				continue
			}
			x := strings.Index(f, p+"@")
			if x < 0 {
				continue
			}
			ver := f[x+len(p)+1:]
			if y := strings.IndexByte(ver, '/'); y >= 0 {
				ver = ver[:y]
			}
			info.Imports[p] = ver
		}
	}
	return
}

// unescapeModule reverts the module cache escaping, where '!x' stands for 'X'.
func unescapeModule(f string) string {
	if strings.IndexByte(f, '!') < 0 {
		return f
	}
	v := strings.Builder{}
	x := false
	for _, i := range []byte(f) {
		switch {
		case i == '!':
			x = true
		case x:
			x = false
			v.WriteByte(i - 32)
		default:
			v.WriteByte(i)
		}
	}
	return v.String()
}
