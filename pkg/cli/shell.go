package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/registry"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/usecase/adaptive"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const shellHelp = `Commands:
  components                      list registered components
  find [id=X] [type=X] [cap=X]    find components
  get <id>                        show a component state
  set <id> <json>                 replace a component state
  switch <layout-id>              switch the current layout
  layout                          show the current layout
  layouts                         list stored layouts
  record <json>                   record an interaction
  history                         show recorded interactions
  metrics                         compute interaction metrics
  suggest                         suggest layout improvements
  adapt <json>                    evaluate the adaptation policy
  profile [set <json>|load <id>|save|clear]
  export <key>                    store the history snapshot
  import <key>                    replay a stored history snapshot
  help                            show this help
  exit                            leave the shell
`

func shellCommand() *cli.Command {
	var (
		cfg         config
		historyFile string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "history-file",
			Usage:       "Readline history file",
			Value:       filepath.Join(".adaptive", "shell_history"),
			Sources:     cli.EnvVars("ADAPTIVE_SHELL_HISTORY"),
			Destination: &historyFile,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, repositoryFlags(&cfg, backendNone)...)
	flags = append(flags, storageFlags(&cfg)...)

	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive shell over the engine",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			e, err := cfg.newEngine(ctx, true)
			if err != nil {
				return err
			}
			defer e.Close()

			if historyFile != "" {
				if err := os.MkdirAll(filepath.Dir(historyFile), 0o755); err != nil {
					return goerr.Wrap(err, "failed to create history directory", goerr.V("path", historyFile))
				}
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "adaptive> ",
				HistoryFile:     historyFile,
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start readline")
			}
			defer rl.Close()

			sh := &shell{uc: e.uc, w: c.Root().Writer}
			fmt.Fprintf(sh.w, "Adaptive engine shell. Type 'help' for commands.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read line")
				}

				quit, err := sh.exec(ctx, line)
				if err != nil {
					fmt.Fprintf(sh.w, "error: %v\n", err)
				}
				if quit {
					return nil
				}
			}
		},
	}
}

type shell struct {
	uc *adaptive.UseCase
	w  io.Writer
}

// exec runs one shell line and reports whether the shell should exit
func (s *shell) exec(ctx context.Context, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "":
		return false, nil

	case "exit", "quit":
		return true, nil

	case "help":
		fmt.Fprint(s.w, shellHelp)

	case "components":
		for _, c := range s.uc.ListComponents(ctx) {
			s.printComponent(c)
		}

	case "find":
		sel, err := parseSelector(rest)
		if err != nil {
			return false, err
		}
		for _, c := range s.uc.FindComponents(ctx, sel) {
			s.printComponent(c)
		}

	case "get":
		if rest == "" {
			return false, goerr.New("usage: get <id>")
		}
		state, ok := s.uc.GetComponentState(ctx, model.ComponentID(rest))
		if !ok {
			fmt.Fprintf(s.w, "component %s not found\n", rest)
			return false, nil
		}
		return false, s.printJSON(state)

	case "set":
		id, doc, _ := strings.Cut(rest, " ")
		if id == "" || strings.TrimSpace(doc) == "" {
			return false, goerr.New("usage: set <id> <json>")
		}
		state, err := model.ParseJSON([]byte(doc))
		if err != nil {
			return false, goerr.Wrap(err, "invalid state document")
		}
		if !s.uc.SetComponentState(ctx, model.ComponentID(id), state) {
			fmt.Fprintf(s.w, "component %s not found\n", id)
			return false, nil
		}
		fmt.Fprintf(s.w, "updated %s\n", id)

	case "switch":
		if rest == "" {
			return false, goerr.New("usage: switch <layout-id>")
		}
		l, err := s.uc.SwitchLayout(ctx, model.LayoutID(rest))
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.w, "switched to %s (%d components)\n", l.ID, len(l.Components))

	case "layout":
		l, ok := s.uc.CurrentLayout(ctx)
		if !ok {
			fmt.Fprintf(s.w, "no layout\n")
			return false, nil
		}
		return false, s.printJSON(l)

	case "layouts":
		layouts, err := s.uc.ListLayouts(ctx)
		if err != nil {
			return false, err
		}
		for _, l := range layouts {
			fmt.Fprintf(s.w, "%s\t%s\t%d components\n", l.ID, l.Name, len(l.Components))
		}

	case "record":
		event, err := model.ParseJSON([]byte(rest))
		if err != nil {
			return false, goerr.Wrap(err, "invalid interaction event")
		}
		s.uc.Record(ctx, event)
		fmt.Fprintf(s.w, "recorded (%d total)\n", s.uc.InteractionCount())

	case "history":
		for _, ev := range s.uc.History(ctx) {
			data, err := json.Marshal(ev)
			if err != nil {
				return false, goerr.Wrap(err, "failed to encode event")
			}
			fmt.Fprintf(s.w, "%s\n", data)
		}

	case "metrics":
		return false, s.printJSON(s.uc.ComputeMetrics(ctx))

	case "suggest":
		suggestions := s.uc.SuggestLayoutImprovements(ctx)
		if len(suggestions) == 0 {
			fmt.Fprintf(s.w, "no suggestions\n")
		}
		for _, sg := range suggestions {
			fmt.Fprintf(s.w, "%s\t%s\t%s: %s\n", sg.Type, sg.Component, sg.Reason, sg.Suggestion)
		}

	case "adapt":
		state := model.Object()
		if rest != "" {
			var err error
			if state, err = model.ParseJSON([]byte(rest)); err != nil {
				return false, goerr.Wrap(err, "invalid user state")
			}
		}
		return false, s.printJSON(s.uc.Adapt(ctx, state, nil))

	case "profile":
		return false, s.profile(ctx, rest)

	case "export":
		if rest == "" {
			return false, goerr.New("usage: export <key>")
		}
		n, err := s.uc.Export(ctx, rest)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.w, "exported %d interactions to %s\n", n, rest)

	case "import":
		if rest == "" {
			return false, goerr.New("usage: import <key>")
		}
		n, err := s.uc.Import(ctx, rest)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(s.w, "imported %d interactions from %s\n", n, rest)

	default:
		return false, goerr.New("unknown command, type 'help'", goerr.V("command", cmd))
	}

	return false, nil
}

func (s *shell) profile(ctx context.Context, args string) error {
	sub, rest, _ := strings.Cut(args, " ")
	rest = strings.TrimSpace(rest)

	switch sub {
	case "", "show":
		p, ok := s.uc.ActiveProfile(ctx)
		if !ok {
			fmt.Fprintf(s.w, "no active profile\n")
			return nil
		}
		return s.printJSON(p)

	case "set":
		p := model.UserProfile{ConsciousnessState: model.DefaultConsciousnessState}
		if err := json.Unmarshal([]byte(rest), &p); err != nil {
			return goerr.Wrap(err, "invalid profile")
		}
		return s.printJSON(s.uc.SetProfile(ctx, p))

	case "load":
		p, err := s.uc.LoadProfile(ctx, model.ProfileID(rest))
		if err != nil {
			return err
		}
		return s.printJSON(p)

	case "save":
		p, ok := s.uc.ActiveProfile(ctx)
		if !ok {
			return goerr.New("no active profile to save")
		}
		if err := s.uc.SaveProfile(ctx, p); err != nil {
			return err
		}
		fmt.Fprintf(s.w, "saved profile %s\n", p.ID)
		return nil

	case "clear":
		s.uc.ClearProfile(ctx)
		fmt.Fprintf(s.w, "profile cleared\n")
		return nil

	default:
		return goerr.New("usage: profile [show|set <json>|load <id>|save|clear]")
	}
}

func (s *shell) printComponent(c model.ComponentState) {
	fmt.Fprintf(s.w, "%s\t%s\t%s\n", c.ID, c.Type, strings.Join(c.Capabilities, ","))
}

func (s *shell) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	fmt.Fprintf(s.w, "%s\n", data)
	return nil
}

func parseSelector(args string) (registry.Selector, error) {
	var sel registry.Selector
	for _, kv := range strings.Fields(args) {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return sel, goerr.New("expected key=value", goerr.V("arg", kv))
		}
		switch k {
		case "id":
			sel.ID = model.ComponentID(v)
		case "type":
			sel.Type = v
		case "cap", "capability":
			sel.Capability = v
		default:
			return sel, goerr.New("unknown selector key", goerr.V("key", k))
		}
	}
	return sel, nil
}
