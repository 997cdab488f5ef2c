package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/adaptation"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/adapter"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/repository"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/usecase/adaptive"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	backendNone      = "none"
	backendMemory    = "memory"
	backendFile      = "file"
	backendSQLite    = "sqlite"
	backendFirestore = "firestore"
)

// config holds configuration values
type config struct {
	// Logging
	logLevel  string
	logFormat string

	// Engine
	componentsFile  string
	historyCapacity int64
	minEvents       int64
	policyDir       string

	// Repository
	backend    string
	dataDir    string
	sqlitePath string
	project    string
	database   string

	// Storage
	bucket    string
	exportDir string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("ADAPTIVE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json)",
			Value:       string(logging.FormatConsole),
			Sources:     cli.EnvVars("ADAPTIVE_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
		&cli.StringFlag{
			Name:        "components",
			Aliases:     []string{"c"},
			Usage:       "YAML file with the initial component set",
			Sources:     cli.EnvVars("ADAPTIVE_COMPONENTS"),
			Destination: &cfg.componentsFile,
		},
		&cli.IntFlag{
			Name:        "history-capacity",
			Usage:       "Maximum number of interactions kept in memory",
			Value:       1000,
			Sources:     cli.EnvVars("ADAPTIVE_HISTORY_CAPACITY"),
			Destination: &cfg.historyCapacity,
		},
		&cli.IntFlag{
			Name:        "min-events",
			Usage:       "Interactions required before patterns are detected",
			Value:       10,
			Sources:     cli.EnvVars("ADAPTIVE_MIN_EVENTS"),
			Destination: &cfg.minEvents,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego adaptation policies (package adapt, rule directives)",
			Sources:     cli.EnvVars("ADAPTIVE_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
	}
}

// repositoryFlags returns flags selecting the layout and profile repository.
// With the none backend, switching installs an empty layout under the
// requested id instead of looking it up.
func repositoryFlags(cfg *config, defaultBackend string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository",
			Aliases:     []string{"r"},
			Usage:       "Repository backend (none, memory, file, sqlite, firestore)",
			Value:       defaultBackend,
			Sources:     cli.EnvVars("ADAPTIVE_REPOSITORY"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Root directory of the file repository",
			Value:       ".adaptive",
			Sources:     cli.EnvVars("ADAPTIVE_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "SQLite database path (default: <data-dir>/adaptive.db)",
			Sources:     cli.EnvVars("ADAPTIVE_SQLITE_PATH"),
			Destination: &cfg.sqlitePath,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
	}
}

// storageFlags returns flags for history snapshot storage
func storageFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for history snapshots",
			Sources:     cli.EnvVars("ADAPTIVE_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "export-dir",
			Usage:       "Local directory for history snapshots, used when no bucket is set",
			Value:       ".adaptive/snapshots",
			Sources:     cli.EnvVars("ADAPTIVE_EXPORT_DIR"),
			Destination: &cfg.exportDir,
		},
	}
}

// setupLogger installs the configured logger as default and into ctx
func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.NewWithFormat(cfg.logLevel, logging.Format(cfg.logFormat), os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

// newRepository creates a new repository instance. It returns nil for the
// none backend.
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	switch cfg.backend {
	case backendNone, "":
		return nil, nil

	case backendMemory:
		return repository.NewMemory(), nil

	case backendFile:
		repo, err := repository.NewFile(cfg.dataDir)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create file repository")
		}
		return repo, nil

	case backendSQLite:
		path := cfg.sqlitePath
		if path == "" {
			if err := os.MkdirAll(cfg.dataDir, 0o755); err != nil {
				return nil, goerr.Wrap(err, "failed to create data directory", goerr.V("dir", cfg.dataDir))
			}
			path = filepath.Join(cfg.dataDir, "adaptive.db")
		}
		repo, err := repository.NewSQLite(path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create sqlite repository")
		}
		return repo, nil

	case backendFirestore:
		if cfg.project == "" {
			return nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, goerr.New("database is required")
		}
		repo, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil

	default:
		return nil, goerr.New("unsupported repository backend",
			goerr.V("backend", cfg.backend),
			goerr.V("supported", []string{backendNone, backendMemory, backendFile, backendSQLite, backendFirestore}))
	}
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context) (adapter.Storage, error) {
	if cfg.bucket != "" {
		storage, err := adapter.NewStorage(ctx, cfg.bucket)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage")
		}
		return storage, nil
	}

	if cfg.exportDir == "" {
		return nil, goerr.New("bucket or export-dir is required")
	}
	storage, err := adapter.NewFileStorage(cfg.exportDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// newRegoRule loads the policy directory, or returns nil when none is set
func (cfg *config) newRegoRule(ctx context.Context) (*adaptation.RegoRule, error) {
	if cfg.policyDir == "" {
		return nil, nil
	}
	rule, err := adaptation.NewRegoRule(ctx, cfg.policyDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load adaptation policies", goerr.V("dir", cfg.policyDir))
	}
	return rule, nil
}

// componentsFile is the YAML layout of --components
type componentsFile struct {
	Components []model.ComponentState `yaml:"components"`
}

// loadComponents reads the initial component set. Without a file the
// default desktop components are used.
func (cfg *config) loadComponents() ([]model.ComponentState, error) {
	if cfg.componentsFile == "" {
		return defaultComponents(), nil
	}

	data, err := os.ReadFile(cfg.componentsFile)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read components file", goerr.V("path", cfg.componentsFile))
	}

	var file componentsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse components file", goerr.V("path", cfg.componentsFile))
	}
	return file.Components, nil
}

func defaultComponents() []model.ComponentState {
	return []model.ComponentState{
		{
			ID:           "search-input",
			Type:         "SearchInput",
			State:        model.Object(model.F("query", model.String(""))),
			Capabilities: []string{"search", "voice"},
		},
		{
			ID:           "result-list",
			Type:         "ResultList",
			State:        model.Object(model.F("items", model.List())),
			Capabilities: []string{"display", "select"},
		},
		{
			ID:           "command-palette",
			Type:         "CommandPalette",
			State:        model.Object(model.F("open", model.Bool(false))),
			Capabilities: []string{"search", "keyboard"},
		},
		{
			ID:           "status-bar",
			Type:         "StatusBar",
			State:        model.Object(model.F("message", model.String(""))),
			Capabilities: []string{"display"},
		},
	}
}

// engine bundles the UseCase with resources owned by the command
type engine struct {
	uc   *adaptive.UseCase
	rego *adaptation.RegoRule
	repo repository.Repository
}

func (e *engine) Close() error {
	if e.repo != nil {
		return e.repo.Close()
	}
	return nil
}

// newEngine builds the application context from cfg. withStorage enables
// history export and import.
func (cfg *config) newEngine(ctx context.Context, withStorage bool) (*engine, error) {
	components, err := cfg.loadComponents()
	if err != nil {
		return nil, err
	}

	opts := []adaptive.Option{
		adaptive.WithHistoryCapacity(int(cfg.historyCapacity)),
		adaptive.WithMinEvents(int(cfg.minEvents)),
	}

	e := &engine{}

	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, err
	}
	if repo != nil {
		e.repo = repo
		opts = append(opts, adaptive.WithRepository(repo))
	}

	if withStorage {
		storage, err := cfg.newStorage(ctx)
		if err != nil {
			e.Close()
			return nil, err
		}
		opts = append(opts, adaptive.WithStorage(storage))
	}

	rule, err := cfg.newRegoRule(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}
	if rule != nil {
		e.rego = rule
		opts = append(opts, adaptive.WithPolicy(adaptation.Default().With(rule)))
	}

	uc, err := adaptive.New(components, opts...)
	if err != nil {
		e.Close()
		return nil, goerr.Wrap(err, "failed to create engine")
	}
	e.uc = uc

	return e, nil
}
