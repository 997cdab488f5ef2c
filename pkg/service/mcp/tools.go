package mcp

import (
	"context"
	"errors"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/registry"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type emptyParams struct{}

type componentParams struct {
	ID string `json:"id" jsonschema:"Component identifier"`
}

type setStateParams struct {
	ID    string `json:"id" jsonschema:"Component identifier"`
	State any    `json:"state" jsonschema:"New state document; replaces the previous one entirely"`
}

type findParams struct {
	ID         string `json:"id,omitempty" jsonschema:"Match this component identifier"`
	Type       string `json:"type,omitempty" jsonschema:"Match this component type, e.g. SearchInput"`
	Capability string `json:"capability,omitempty" jsonschema:"Match components advertising this capability"`
}

type layoutParams struct {
	ID string `json:"id" jsonschema:"Layout identifier"`
}

type createLayoutParams struct {
	Name       string   `json:"name" jsonschema:"Human readable layout name"`
	Components []string `json:"components" jsonschema:"Registered component identifiers placed in the layout"`
	Grid       any      `json:"grid,omitempty" jsonschema:"Grid description; an empty object when omitted"`
}

type recordParams struct {
	Event any `json:"event"`
}

type profileParams struct {
	ID                 string   `json:"id"`
	Persona            string   `json:"persona,omitempty"`
	Preferences        any      `json:"preferences,omitempty"`
	ConsciousnessState *float64 `json:"consciousnessState,omitempty"`
}

type adaptParams struct {
	State   any            `json:"state"`
	Profile *profileParams `json:"profile,omitempty"`
}

var recordSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"event": {
			Type:        "object",
			Description: "Interaction event. Known fields are used by analytics; others are kept as is.",
			Properties: map[string]*jsonschema.Schema{
				"action":    {Type: "string", Description: "What the user did, e.g. click or search"},
				"target":    {Type: "string", Description: "Component or element the action was applied to"},
				"success":   {Type: "boolean", Description: "Whether the interaction achieved its goal"},
				"timestamp": {Type: "number", Description: "Event time in seconds"},
			},
		},
	},
	Required: []string{"event"},
}

var adaptSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"state": {
			Type:        "object",
			Description: "User state snapshot",
			Properties: map[string]*jsonschema.Schema{
				"cognitiveLoad": {Type: "number", Description: "Mental effort in [0,1]; 0.5 when omitted"},
				"flowLevel":     {Type: "number", Description: "Flow state in [0,1]"},
				"stressLevel":   {Type: "number", Description: "Stress in [0,1]"},
			},
		},
		"profile": {
			Type:        "object",
			Description: "Profile to evaluate with; the active profile is used when omitted",
			Properties: map[string]*jsonschema.Schema{
				"id":                 {Type: "string"},
				"persona":            {Type: "string"},
				"preferences":        {Type: "object"},
				"consciousnessState": {Type: "number", Description: "Engagement in [0,1]; 0.5 when omitted"},
			},
			Required: []string{"id"},
		},
	},
	Required: []string{"state"},
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_components",
		Description: "List all registered UI components with their state and capabilities",
	}, s.listComponents)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_component_state",
		Description: "Get the state document of a component",
	}, s.getComponentState)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_component_state",
		Description: "Replace the state document of an existing component",
	}, s.setComponentState)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_components",
		Description: "Find components by id, type or capability",
	}, s.findComponents)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "switch_layout",
		Description: "Install a layout as the current layout",
	}, s.switchLayout)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "create_layout",
		Description: "Store a new layout referencing registered components; requires a repository",
	}, s.createLayout)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_current_layout",
		Description: "Get the current layout",
	}, s.getCurrentLayout)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "record_interaction",
		Description: "Append a user interaction to the history",
		InputSchema: recordSchema,
	}, s.recordInteraction)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "compute_metrics",
		Description: "Compute success rate and interaction patterns from the history",
	}, s.computeMetrics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_layout_improvements",
		Description: "Suggest layout changes based on interaction patterns",
	}, s.suggestLayoutImprovements)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "adapt",
		Description: "Evaluate the adaptation policy for a user state snapshot",
		InputSchema: adaptSchema,
	}, s.adapt)
}

func (s *Server) listComponents(ctx context.Context, _ *mcp.CallToolRequest, _ *emptyParams) (*mcp.CallToolResult, any, error) {
	s.observe(ctx, "list_components", nil)
	return jsonResult(map[string]any{
		"components": s.uc.ListComponents(ctx),
	})
}

func (s *Server) getComponentState(ctx context.Context, _ *mcp.CallToolRequest, p *componentParams) (*mcp.CallToolResult, any, error) {
	state, ok := s.uc.GetComponentState(ctx, model.ComponentID(p.ID))
	s.observe(ctx, "get_component_state", nil)
	if !ok {
		return jsonResult(map[string]any{"found": false})
	}
	return jsonResult(map[string]any{"found": true, "state": state})
}

func (s *Server) setComponentState(ctx context.Context, _ *mcp.CallToolRequest, p *setStateParams) (*mcp.CallToolResult, any, error) {
	state, err := model.FromAny(p.State)
	if err != nil {
		err = goerr.Wrap(err, "invalid state document", goerr.V("id", p.ID))
		s.observe(ctx, "set_component_state", err)
		return nil, nil, err
	}

	updated := s.uc.SetComponentState(ctx, model.ComponentID(p.ID), state)
	s.observe(ctx, "set_component_state", nil)
	return jsonResult(map[string]any{"updated": updated})
}

func (s *Server) findComponents(ctx context.Context, _ *mcp.CallToolRequest, p *findParams) (*mcp.CallToolResult, any, error) {
	found := s.uc.FindComponents(ctx, registry.Selector{
		ID:         model.ComponentID(p.ID),
		Type:       p.Type,
		Capability: p.Capability,
	})
	s.observe(ctx, "find_components", nil)
	if found == nil {
		found = []model.ComponentState{}
	}
	return jsonResult(map[string]any{"components": found})
}

func (s *Server) switchLayout(ctx context.Context, _ *mcp.CallToolRequest, p *layoutParams) (*mcp.CallToolResult, any, error) {
	l, err := s.uc.SwitchLayout(ctx, model.LayoutID(p.ID))
	if errors.Is(err, model.ErrLayoutNotFound) {
		s.observe(ctx, "switch_layout", nil)
		return jsonResult(map[string]any{"found": false, "id": p.ID})
	}
	s.observe(ctx, "switch_layout", err)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(map[string]any{"found": true, "layout": l})
}

func (s *Server) createLayout(ctx context.Context, _ *mcp.CallToolRequest, p *createLayoutParams) (*mcp.CallToolResult, any, error) {
	grid, err := model.FromAny(p.Grid)
	if err != nil {
		err = goerr.Wrap(err, "invalid grid document")
		s.observe(ctx, "create_layout", err)
		return nil, nil, err
	}

	ids := make([]model.ComponentID, 0, len(p.Components))
	for _, id := range p.Components {
		ids = append(ids, model.ComponentID(id))
	}

	l, err := s.uc.CreateLayout(ctx, p.Name, ids, grid)
	s.observe(ctx, "create_layout", err)
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(map[string]any{"layout": l})
}

func (s *Server) getCurrentLayout(ctx context.Context, _ *mcp.CallToolRequest, _ *emptyParams) (*mcp.CallToolResult, any, error) {
	l, ok := s.uc.CurrentLayout(ctx)
	s.observe(ctx, "get_current_layout", nil)
	if !ok {
		return jsonResult(map[string]any{"found": false})
	}
	return jsonResult(map[string]any{"found": true, "layout": l})
}

func (s *Server) recordInteraction(ctx context.Context, _ *mcp.CallToolRequest, p *recordParams) (*mcp.CallToolResult, any, error) {
	event, err := model.FromAny(p.Event)
	if err != nil {
		err = goerr.Wrap(err, "invalid interaction event")
		s.observe(ctx, "record_interaction", err)
		return nil, nil, err
	}

	s.uc.Record(ctx, event)
	s.observe(ctx, "record_interaction", nil)
	return jsonResult(map[string]any{"recorded": true, "total": s.uc.InteractionCount()})
}

func (s *Server) computeMetrics(ctx context.Context, _ *mcp.CallToolRequest, _ *emptyParams) (*mcp.CallToolResult, any, error) {
	s.observe(ctx, "compute_metrics", nil)
	return jsonResult(s.uc.ComputeMetrics(ctx))
}

func (s *Server) suggestLayoutImprovements(ctx context.Context, _ *mcp.CallToolRequest, _ *emptyParams) (*mcp.CallToolResult, any, error) {
	s.observe(ctx, "suggest_layout_improvements", nil)
	return jsonResult(map[string]any{
		"suggestions": s.uc.SuggestLayoutImprovements(ctx),
	})
}

func (s *Server) adapt(ctx context.Context, _ *mcp.CallToolRequest, p *adaptParams) (*mcp.CallToolResult, any, error) {
	state, err := model.FromAny(p.State)
	if err != nil {
		err = goerr.Wrap(err, "invalid user state")
		s.observe(ctx, "adapt", err)
		return nil, nil, err
	}

	var profile *model.UserProfile
	if p.Profile != nil {
		prefs, err := model.FromAny(p.Profile.Preferences)
		if err != nil {
			err = goerr.Wrap(err, "invalid profile preferences")
			s.observe(ctx, "adapt", err)
			return nil, nil, err
		}
		consciousness := model.DefaultConsciousnessState
		if p.Profile.ConsciousnessState != nil {
			consciousness = *p.Profile.ConsciousnessState
		}
		clamped := model.UserProfile{
			ID:                 model.ProfileID(p.Profile.ID),
			Persona:            p.Profile.Persona,
			Preferences:        prefs,
			ConsciousnessState: consciousness,
		}.Clamped()
		profile = &clamped
	}

	directives := s.uc.Adapt(ctx, state, profile)
	s.observe(ctx, "adapt", nil)
	return jsonResult(map[string]any{"directives": directives})
}
