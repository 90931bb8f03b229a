package cmd

import (
	"bufio"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"

	"gocpp/pkg/cpp"
)

var cmdTokens = &cli.Command{
	Name:      "tokens",
	Usage:     "dump the token stream instead of rendered text",
	ArgsUsage: "[file]",
	Flags: append(configFlags(),
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "directives still run, but macros stay unexpanded",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "one JSON object per token",
		},
	),
	Action: runTokens,
}

var tokenJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// tokenRecord is the JSON shape of one dumped token.
type tokenRecord struct {
	Kind   string  `json:"kind"`
	Text   string  `json:"text"`
	File   string  `json:"file"`
	Line   int     `json:"line"`
	Column int     `json:"column,omitempty"`
	Value  uint64  `json:"value,omitempty"`
	Float  float64 `json:"float,omitempty"`
}

func runTokens(c *cli.Context) error {
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
	w := bufio.NewWriter(out)
	enc := tokenJSON.NewEncoder(w)
	raw, asJSON := c.Bool("raw"), c.Bool("json")

	for {
		var t cpp.Token
		var terr error
		if raw {
			t, terr = pp.NextTokenRaw()
		} else {
			t, terr = pp.NextToken()
		}
		if terr != nil {
			_ = closeOut()
			return exitErr(terr, 1)
		}
		if t.Kind == cpp.EOF {
			break
		}
		if asJSON {
			rec := tokenRecord{
				Kind:   t.Kind.String(),
				Text:   t.Spelling(),
				File:   t.File,
				Line:   t.Line,
				Column: t.Col,
			}
			switch t.Kind {
			case cpp.INTLIT:
				rec.Value = t.IVal
			case cpp.FLOATLIT:
				rec.Float = t.FVal
			}
			err = enc.Encode(rec)
		} else {
			_, err = fmt.Fprintf(w, "%s:%d:%d\t%s\t%s\n",
				t.File, t.Line, t.Col, t.Kind, t.Spelling())
		}
		if err != nil {
			_ = closeOut()
			return exitErr(err, 1)
		}
	}

	err = w.Flush()
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return exitErr(err, 1)
	}
	if c.Bool("stats") {
		printStats(pp)
	}
	return nil
}
