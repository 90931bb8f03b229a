package cmd

import (
	"github.com/urfave/cli/v2"

	"gocpp/pkg/cpp"
)

// runExpand is the default action: preprocess one translation unit and
// write it back out as text.
func runExpand(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return exitErr(err, 2)
	}
	pp, err := cpp.New(cfg)
	if err != nil {
		return exitErr(err, 2)
	}
	if err := openInput(c, pp); err != nil {
		return exitErr(err, 1)
	}
	out, closeOut, err := openOutput(c)
	if err != nil {
		return exitErr(err, 1)
	}
	perr := pp.Preprocess(out)
	if cerr := closeOut(); perr == nil {
		perr = cerr
	}
	if perr != nil {
		return exitErr(perr, 1)
	}
	if c.Bool("stats") {
		printStats(pp)
	}
	return nil
}
