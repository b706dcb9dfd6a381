package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/urfave/cli/v2"

	. "github.com/ZenLiuCN/trampoline"
	"github.com/ZenLiuCN/trampoline/gen"
	"github.com/ZenLiuCN/trampoline/internal/sdk"
	"github.com/ZenLiuCN/trampoline/loader"
)

func main() {
	app := cli.NewApp()
	app.Usage = "trampoline wrapper generator"
	app.Name = "trampgen"
	app.Description = "generate typed trampolines for a catalogue of deferred entry points and check them against libraries"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			EnvVars: []string{"TRAMPGEN_DEBUG"},
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "generate",
			Action: generate,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "catalogue", Usage: "catalogue struct type name"},
				&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "zz_trampolines.go", Usage: "output file, relative to the catalogue directory"},
				&cli.StringFlag{Name: "table", Value: "Table", Usage: "table variable name"},
				&cli.BoolFlag{Name: "global", Aliases: []string{"g"}, Usage: "declare into the process wide table"},
				&cli.BoolFlag{Name: "external", Usage: "the table variable is declared by hand"},
			},
			Args:      true,
			ArgsUsage: "catalogue.go",
			Usage:     "generate wrappers from a catalogue file, defaults to $GOFILE when run by go generate",
		},
		{
			Name:   "check",
			Action: check,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "catalogue", Usage: "catalogue struct type name"},
				&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"TRAMPGEN_CONFIG"}, Usage: "loader yaml config"},
				&cli.StringSliceFlag{Name: "path", Aliases: []string{"p"}, Usage: "library file candidates"},
				&cli.StringSliceFlag{Name: "system", Aliases: []string{"s"}, Usage: "library names for the system search path"},
				&cli.BoolFlag{Name: "strict", Usage: "fail when any symbol is unresolved"},
			},
			Args:      true,
			ArgsUsage: "catalogue.go",
			Usage:     "open the library and report which catalogue symbols resolve",
		},
		{
			Name:   "symbols",
			Action: symbols,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "catalogue", Aliases: []string{"c"}, Usage: "list the catalogue symbols a library lacks instead"},
				&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: "catalogue", Usage: "catalogue struct type name"},
			},
			Args:      true,
			ArgsUsage: "library.so...",
			Usage:     "display function symbols exported by shared objects, go object files are inspected by trampobj",
		},
		{
			Name:   "prepare",
			Action: prepare,
			Flags:  []cli.Flag{gorootFlag},
			Usage:  "copy internals of go sdk, required before building the object package",
		},
		{
			Name:   "clean",
			Action: clean,
			Flags:  []cli.Flag{gorootFlag},
			Usage:  "remove copied internals of go sdk",
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "failure %s\n", err)
		os.Exit(1)
	}
}

func logger(ctx *cli.Context) log.Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if ctx.Bool("debug") {
		return level.NewFilter(l, level.AllowDebug())
	}
	return level.NewFilter(l, level.AllowInfo())
}

func catalogueFile(ctx *cli.Context) (string, error) {
	if ctx.Args().Len() > 0 {
		return ctx.Args().First(), nil
	}
	if f := os.Getenv("GOFILE"); f != "" {
		return f, nil
	}
	return "", fmt.Errorf("missing catalogue file")
}

func generate(ctx *cli.Context) (err error) {
	file, err := catalogueFile(ctx)
	if err != nil {
		return
	}
	c, err := gen.ParseFile(file, ctx.String("type"))
	if err != nil {
		return
	}
	out, err := gen.Generate(c, gen.Options{
		Table:    ctx.String("table"),
		Global:   ctx.Bool("global"),
		External: ctx.Bool("external"),
		Command:  "trampgen",
	})
	if err != nil {
		return
	}
	dst := ctx.String("out")
	if !filepath.IsAbs(dst) {
		dst = filepath.Join(filepath.Dir(file), dst)
	}
	if err = os.WriteFile(dst, out, 0o644); err != nil {
		return
	}
	level.Info(logger(ctx)).Log("msg", "generated trampolines", "catalogue", file, "entries", len(c.Entries), "out", dst)
	return
}

func check(ctx *cli.Context) (err error) {
	l := logger(ctx)
	file, err := catalogueFile(ctx)
	if err != nil {
		return
	}
	c, err := gen.ParseFile(file, ctx.String("type"))
	if err != nil {
		return
	}
	var cfg loader.Config
	if p := ctx.String("config"); p != "" {
		if cfg, err = loader.LoadConfig(p); err != nil {
			return
		}
	}
	cfg = cfg.Merge(loader.Config{Paths: ctx.StringSlice("path"), System: ctx.StringSlice("system")})
	so, err := loader.Open(l, cfg.Sources()...)
	if err != nil {
		return
	}
	defer func() { _ = so.Close() }()
	names := make([]string, 0, len(c.Entries))
	for _, e := range c.Entries {
		names = append(names, e.Symbol)
	}
	r := Probe(so, names...)
	if ctx.Bool("debug") {
		spew.Fdump(os.Stderr, r)
	}
	fmt.Printf("%s\n%s", so.Path(), r)
	if ctx.Bool("strict") {
		return r.Err()
	}
	return
}

func symbols(ctx *cli.Context) (err error) {
	var want []string
	if p := ctx.String("catalogue"); p != "" {
		var c *gen.Catalogue
		if c, err = gen.ParseFile(p, ctx.String("type")); err != nil {
			return
		}
		for _, e := range c.Entries {
			want = append(want, e.Symbol)
		}
	}
	for _, s := range ctx.Args().Slice() {
		var v []string
		if v, err = Inspect(s); err != nil {
			return
		}
		if want != nil {
			v = Missing(want, v)
		}
		fmt.Printf("%s\n\t%s\n", s, strings.Join(v, "\n\t"))
	}
	return
}

var gorootFlag = &cli.StringFlag{Name: "goroot", EnvVars: []string{"GOROOT"}, Usage: "go sdk root, default the one trampgen was built with"}

func goroot(ctx *cli.Context) string {
	if r := ctx.String("goroot"); r != "" {
		return r
	}
	return runtime.GOROOT()
}

func prepare(ctx *cli.Context) (err error) {
	_, err = sdk.Prepare(logger(ctx), goroot(ctx))
	return
}

func clean(ctx *cli.Context) (err error) {
	_, err = sdk.Clean(logger(ctx), goroot(ctx))
	return
}
