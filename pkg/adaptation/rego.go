package adaptation

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/open-policy-agent/opa/v1/topdown/print"
)

// DefaultRegoQuery is the rule evaluated in user policies. It must produce
// an object of directives.
const DefaultRegoQuery = "data.adapt.directives"

type regoPrintHook struct {
	ctx context.Context
}

func (h *regoPrintHook) Print(_ print.Context, message string) error {
	logging.From(h.ctx).Debug("rego print", "message", message)
	return nil
}

// RegoRule evaluates user supplied Rego policies from a directory. A
// directory without .rego files yields a rule that contributes nothing.
type RegoRule struct {
	dir   string
	query string

	mu       sync.RWMutex
	prepared *rego.PreparedEvalQuery
}

// RegoOption configures RegoRule
type RegoOption func(*RegoRule)

// WithQuery overrides DefaultRegoQuery
func WithQuery(query string) RegoOption {
	return func(r *RegoRule) {
		r.query = query
	}
}

// NewRegoRule loads and compiles every .rego file in dir
func NewRegoRule(ctx context.Context, dir string, opts ...RegoOption) (*RegoRule, error) {
	r := &RegoRule{dir: dir, query: DefaultRegoQuery}
	for _, opt := range opts {
		opt(r)
	}

	if err := r.Reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RegoRule) Name() string { return "rego:" + r.dir }

// Dir returns the watched policy directory
func (r *RegoRule) Dir() string { return r.dir }

// Reload recompiles the policy directory. On failure the previously loaded
// policy stays active.
func (r *RegoRule) Reload(ctx context.Context) error {
	prepared, err := loadPolicy(ctx, r.dir, r.query)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.prepared = prepared
	r.mu.Unlock()
	return nil
}

func (r *RegoRule) Evaluate(ctx context.Context, in Input) (model.Value, error) {
	r.mu.RLock()
	prepared := r.prepared
	r.mu.RUnlock()

	if prepared == nil {
		return model.Null(), nil
	}

	input := map[string]any{
		"state":   in.State.Any(),
		"profile": nil,
	}
	if in.Profile != nil {
		input["profile"] = map[string]any{
			"id":                 string(in.Profile.ID),
			"persona":            in.Profile.Persona,
			"preferences":        in.Profile.Preferences.Any(),
			"consciousnessState": in.Profile.ConsciousnessState,
		}
	}

	rs, err := prepared.Eval(ctx, rego.EvalInput(input), rego.EvalPrintHook(&regoPrintHook{ctx: ctx}))
	if err != nil {
		return model.Null(), goerr.Wrap(err, "failed to evaluate adaptation policy", goerr.V("dir", r.dir))
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return model.Null(), nil
	}

	out, err := model.FromAny(rs[0].Expressions[0].Value)
	if err != nil {
		return model.Null(), goerr.Wrap(err, "unexpected policy result", goerr.V("query", r.query))
	}
	return out, nil
}

func loadPolicy(ctx context.Context, dir, query string) (*rego.PreparedEvalQuery, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.rego"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to glob policy files")
	}
	if len(files) == 0 {
		return nil, nil
	}

	options := make([]func(*rego.Rego), 0, len(files)+1)
	options = append(options, rego.Query(query))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", file))
		}
		options = append(options, rego.Module(file, string(data)))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to prepare query", goerr.V("query", query))
	}

	return &prepared, nil
}
