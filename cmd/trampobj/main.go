// Command trampobj inspects Go object files and archives loaded through the object package.
//
// It links goloader, so build it after `trampgen prepare`.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"

	"github.com/ZenLiuCN/trampoline/object"
)

func main() {
	app := cli.NewApp()
	app.Usage = "go object file inspector"
	app.Name = "trampobj"
	app.Description = "display symbols and imports of go object files before linking them as trampoline libraries"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			EnvVars: []string{"TRAMPGEN_DEBUG"},
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:   "symbols",
			Action: symbols,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "pkg", Aliases: []string{"k"}, Usage: "package path or default main"},
			},
			Args:      true,
			ArgsUsage: "object...",
			Usage:     "display symbols defined by go object files or archives",
		},
		{
			Name:   "imports",
			Action: imports,
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "pkg", Aliases: []string{"k"}, Usage: "package path or default main"},
			},
			Args:      true,
			ArgsUsage: "object...",
			Usage:     "display imports of go object files",
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "failure %s\n", err)
		os.Exit(1)
	}
}

func symbols(ctx *cli.Context) (err error) {
	for _, s := range ctx.Args().Slice() {
		var v []string
		if v, err = object.Inspect(s, ctx.String("pkg")); err != nil {
			return
		}
		fmt.Printf("%s\n\t%s\n", s, strings.Join(v, "\n\t"))
	}
	return
}

func imports(ctx *cli.Context) (err error) {
	for _, s := range ctx.Args().Slice() {
		var v *object.Info
		if v, err = object.Imports(s, ctx.String("pkg")); err != nil {
			return
		}
		if ctx.Bool("debug") {
			spew.Fdump(os.Stderr, v)
		}
		fmt.Print(v.String())
	}
	return
}
