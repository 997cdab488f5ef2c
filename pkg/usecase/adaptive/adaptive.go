package adaptive

import (
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/adaptation"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/adapter"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/analytics"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/history"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/layout"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/profile"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/registry"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/repository"
	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrNoRepository is returned by operations that need persistence when
	// no repository is configured
	ErrNoRepository = goerr.New("no repository configured")

	// ErrNoStorage is returned by Export and Import without a storage
	ErrNoStorage = goerr.New("no storage configured")
)

// UseCase is the application context shared by every command surface. Each
// resource (components, layout, history, profile) has its own lock.
type UseCase struct {
	registry *registry.Registry
	layouts  *layout.Manager
	history  *history.History
	analyzer *analytics.Analyzer
	profiles *profile.Store
	policy   *adaptation.Policy

	repo    repository.Repository
	storage adapter.Storage

	detectors       []analytics.Detector
	minEvents       int
	historyCapacity int
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithRepository enables stored layouts and profiles. Layout switches then
// resolve through the repository.
func WithRepository(repo repository.Repository) Option {
	return func(uc *UseCase) {
		uc.repo = repo
	}
}

// WithStorage enables history export and import
func WithStorage(s adapter.Storage) Option {
	return func(uc *UseCase) {
		uc.storage = s
	}
}

// WithPolicy replaces the default adaptation policy
func WithPolicy(p *adaptation.Policy) Option {
	return func(uc *UseCase) {
		uc.policy = p
	}
}

// WithDetectors replaces the default pattern detectors
func WithDetectors(detectors ...analytics.Detector) Option {
	return func(uc *UseCase) {
		uc.detectors = detectors
	}
}

// WithMinEvents sets how many interactions are needed before patterns are
// detected
func WithMinEvents(n int) Option {
	return func(uc *UseCase) {
		uc.minEvents = n
	}
}

// WithHistoryCapacity bounds the interaction history
func WithHistoryCapacity(n int) Option {
	return func(uc *UseCase) {
		uc.historyCapacity = n
	}
}

// New creates the application context seeded with components
func New(components []model.ComponentState, opts ...Option) (*UseCase, error) {
	uc := &UseCase{
		detectors:       analytics.DefaultDetectors(),
		minEvents:       analytics.DefaultMinEvents,
		historyCapacity: history.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(uc)
	}

	reg, err := registry.New(components...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to seed component registry")
	}
	uc.registry = reg

	var layoutOpts []layout.Option
	if uc.repo != nil {
		layoutOpts = append(layoutOpts, layout.WithLoader(uc.repo))
	}
	uc.layouts = layout.New(reg, layoutOpts...)

	uc.history = history.New(history.WithCapacity(uc.historyCapacity))
	uc.analyzer = analytics.New(uc.history,
		analytics.WithDetectors(uc.detectors...),
		analytics.WithMinEvents(uc.minEvents),
	)
	uc.profiles = profile.New()

	if uc.policy == nil {
		uc.policy = adaptation.Default()
	}

	return uc, nil
}

// Repository returns the configured repository, or nil
func (uc *UseCase) Repository() repository.Repository {
	return uc.repo
}
