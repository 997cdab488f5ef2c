package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func layoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "layout",
		Usage: "Manage stored layouts",
		Commands: []*cli.Command{
			layoutListCommand(),
			layoutShowCommand(),
			layoutCreateCommand(),
		},
	}
}

func layoutListCommand() *cli.Command {
	var cfg config

	var flags []cli.Flag
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg, backendFile)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List stored layouts",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			e, err := cfg.newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer e.Close()

			layouts, err := e.uc.ListLayouts(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list layouts")
			}
			for _, l := range layouts {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%d components\n", l.ID, l.Name, len(l.Components))
			}
			return nil
		},
	}
}

func layoutShowCommand() *cli.Command {
	var (
		cfg      config
		layoutID model.LayoutID
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "layout-id",
			Aliases:     []string{"id"},
			Usage:       "Layout ID to show",
			Destination: (*string)(&layoutID),
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg, backendFile)...)

	return &cli.Command{
		Name:  "show",
		Usage: "Show a stored layout",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			if repo == nil {
				return goerr.New("a repository backend is required")
			}
			defer repo.Close()

			l, err := repo.GetLayout(ctx, layoutID)
			if err != nil {
				return goerr.Wrap(err, "failed to show layout")
			}

			data, err := json.MarshalIndent(l, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal layout")
			}
			fmt.Fprintf(c.Root().Writer, "%s\n", string(data))
			return nil
		},
	}
}

func layoutCreateCommand() *cli.Command {
	var (
		cfg        config
		name       string
		components string
		grid       string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "name",
			Aliases:     []string{"n"},
			Usage:       "Layout name",
			Destination: &name,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "components",
			Usage:       "Comma separated component IDs placed in the layout",
			Destination: &components,
		},
		&cli.StringFlag{
			Name:        "grid",
			Usage:       "Grid description as JSON",
			Value:       "{}",
			Destination: &grid,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg, backendFile)...)

	return &cli.Command{
		Name:  "create",
		Usage: "Create a layout from registered components",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			g, err := model.ParseJSON([]byte(grid))
			if err != nil {
				return goerr.Wrap(err, "invalid --grid")
			}

			e, err := cfg.newEngine(ctx, false)
			if err != nil {
				return err
			}
			defer e.Close()

			l, err := e.uc.CreateLayout(ctx, name, splitIDs(components), g)
			if err != nil {
				return goerr.Wrap(err, "failed to create layout")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", l.ID)
			return nil
		},
	}
}

func splitIDs(s string) []model.ComponentID {
	var ids []model.ComponentID
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, model.ComponentID(part))
		}
	}
	return ids
}
