// Package cmd wires the preprocessor library into its command-line
// front end.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"gocpp/pkg/cpp"
)

// Version is reported by --version; release builds override it through
// the linker.
var Version = "0.9.0-dev"

// NewApp builds the gocpp application. Running it with just a file
// argument preprocesses that file; subcommands expose the other output
// forms.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "gocpp"
	app.Usage = "C preprocessor: macro expansion, includes and conditionals"
	app.Description = `gocpp reads one C translation unit, runs the preprocessing phases
(line splicing, comment stripping, directives, macro expansion) and
writes the result as compiler-ready text. Without a file argument, or
with "-", it reads from standard input.`
	app.ArgsUsage = "[file]"
	app.Version = Version
	app.Flags = configFlags()
	app.Action = runExpand
	app.Commands = []*cli.Command{
		cmdTokens,
	}
	return app
}

// configFlags returns a fresh copy of the flags shared by every
// command. Each command needs its own instances, so this is a function
// rather than a package variable.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "include",
			Aliases: []string{"I"},
			Usage:   "add `DIR` to the include search path",
		},
		&cli.StringSliceFlag{
			Name:  "isystem",
			Usage: "add `DIR` to the system include search path",
		},
		&cli.StringSliceFlag{
			Name:    "define",
			Aliases: []string{"D"},
			Usage:   "define a macro: `NAME[=VALUE]`, value defaults to 1",
		},
		&cli.StringSliceFlag{
			Name:    "undef",
			Aliases: []string{"U"},
			Usage:   "undefine `NAME` after all defines are applied",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "merge defines and search paths from a YAML `FILE`",
		},
		&cli.StringFlag{
			Name:  "line-markers",
			Usage: "line marker style: full, line or none",
			Value: cpp.MarkersFull.String(),
		},
		&cli.BoolFlag{
			Name:  "gnu-extensions",
			Usage: "GNU macro extensions (disable with --gnu-extensions=false)",
			Value: true,
		},
		&cli.BoolFlag{
			Name:  "json-diagnostics",
			Usage: "write diagnostics to standard error as JSON lines",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "write to `FILE` instead of standard output",
		},
		&cli.BoolFlag{
			Name:  "stats",
			Usage: "print allocation and macro statistics after the run",
		},
	}
}

// buildConfig assembles the run configuration: defaults, then the
// profile file, then command-line flags on top.
func buildConfig(c *cli.Context) (cpp.Config, error) {
	cfg := cpp.DefaultConfig()
	if p := c.String("profile"); p != "" {
		if err := cpp.LoadProfile(p, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.IncludePaths = append(cfg.IncludePaths, c.StringSlice("include")...)
	cfg.SysIncludePaths = append(cfg.SysIncludePaths, c.StringSlice("isystem")...)
	cfg.Defines = append(cfg.Defines, c.StringSlice("define")...)
	cfg.Undefines = append(cfg.Undefines, c.StringSlice("undef")...)
	if c.IsSet("gnu-extensions") {
		cfg.GNUExt = c.Bool("gnu-extensions")
	}
	if c.IsSet("line-markers") {
		m, err := cpp.ParseMarkerMode(c.String("line-markers"))
		if err != nil {
			return cfg, err
		}
		cfg.Markers = m
	}
	if c.Bool("json-diagnostics") {
		cfg.Diags = &cpp.JSONSink{W: os.Stderr}
	} else {
		cfg.Diags = &cpp.WriterSink{W: os.Stderr, Color: isatty.IsTerminal(os.Stderr.Fd())}
	}
	return cfg, nil
}

// openInput starts pp on the command's file argument, or on standard
// input when the argument is missing or "-".
func openInput(c *cli.Context, pp *cpp.Preprocessor) error {
	if c.NArg() > 1 {
		return fmt.Errorf("expected one input file, got %d", c.NArg())
	}
	name := c.Args().First()
	if name == "" || name == "-" {
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading standard input: %w", err)
		}
		pp.OpenSource("<stdin>", string(src))
		return nil
	}
	return pp.Open(name)
}

// openOutput returns the stream a command writes to and a close
// function that is a no-op for standard output.
func openOutput(c *cli.Context) (io.Writer, func() error, error) {
	name := c.String("output")
	if name == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// exitErr turns a failure into the command's exit status. Diagnostics
// of type *cpp.Error already reached the user through the configured
// sink, so only plain errors still need printing.
func exitErr(err error, code int) error {
	var diag *cpp.Error
	if errors.As(err, &diag) {
		return cli.Exit("", code)
	}
	return cli.Exit("gocpp: "+err.Error(), code)
}

// printStats reports allocator and table sizes on standard error.
func printStats(pp *cpp.Preprocessor) {
	st := pp.ArenaStats()
	fmt.Fprintf(os.Stderr, "arena: %d regions, %d bytes, %d allocations\n",
		st.Regions, st.Used, st.Allocs)
	fmt.Fprintf(os.Stderr, "macros defined: %d, warnings: %d\n",
		pp.Macros().Len(), pp.Warnings())
}
