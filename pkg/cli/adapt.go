package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func adaptCommand() *cli.Command {
	var (
		cfg         config
		state       string
		profileFile string
		profileID   string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "state",
			Aliases:     []string{"s"},
			Usage:       `User state snapshot as JSON, e.g. {"cognitiveLoad":0.9}`,
			Value:       "{}",
			Sources:     cli.EnvVars("ADAPTIVE_STATE"),
			Destination: &state,
		},
		&cli.StringFlag{
			Name:        "profile-file",
			Usage:       "JSON file with the user profile to evaluate with",
			Destination: &profileFile,
		},
		&cli.StringFlag{
			Name:        "profile-id",
			Usage:       "Load the user profile from the repository",
			Destination: &profileID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg, backendNone)...)

	return &cli.Command{
		Name:  "adapt",
		Usage: "Evaluate the adaptation policy once and print the directives",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			snapshot, err := model.ParseJSON([]byte(state))
			if err != nil {
				return goerr.Wrap(err, "invalid --state")
			}

			e, err := cfg.newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer e.Close()

			switch {
			case profileFile != "":
				data, err := os.ReadFile(profileFile)
				if err != nil {
					return goerr.Wrap(err, "failed to read profile file", goerr.V("path", profileFile))
				}
				p := model.UserProfile{ConsciousnessState: model.DefaultConsciousnessState}
				if err := json.Unmarshal(data, &p); err != nil {
					return goerr.Wrap(err, "invalid profile file", goerr.V("path", profileFile))
				}
				e.uc.SetProfile(ctx, p)

			case profileID != "":
				if _, err := e.uc.LoadProfile(ctx, model.ProfileID(profileID)); err != nil {
					return err
				}
			}

			directives := e.uc.Adapt(ctx, snapshot, nil)

			data, err := json.MarshalIndent(directives, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal directives")
			}
			fmt.Fprintf(c.Root().Writer, "%s\n", string(data))
			return nil
		},
	}
}
