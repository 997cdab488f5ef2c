package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "adaptive-engine",
		Usage: "Adaptive UI state and interaction analytics engine",
		Commands: []*cli.Command{
			serveCommand(),
			shellCommand(),
			adaptCommand(),
			analyzeCommand(),
			layoutCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
