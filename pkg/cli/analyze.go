package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func analyzeCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:      "analyze",
		Usage:     "Compute metrics and layout suggestions for a stored history snapshot",
		ArgsUsage: "<key>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			key := c.Args().First()
			if key == "" {
				return goerr.New("snapshot key is required")
			}

			e, err := cfg.newEngine(ctx, true)
			if err != nil {
				return err
			}
			defer e.Close()

			s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			s.Suffix = " loading " + key
			s.Start()
			n, err := e.uc.Import(ctx, key)
			s.Stop()
			if err != nil {
				return err
			}

			report := map[string]any{
				"imported":    n,
				"metrics":     e.uc.ComputeMetrics(ctx),
				"suggestions": e.uc.SuggestLayoutImprovements(ctx),
			}
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal report")
			}
			fmt.Fprintf(c.Root().Writer, "%s\n", string(data))
			return nil
		},
	}
}
