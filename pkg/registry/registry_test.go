package registry_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/registry"
	"github.com/m-mizutani/gt"
)

func seed() []model.ComponentState {
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
			Capabilities: []string{"display"},
		},
		{
			ID:   "status-bar",
			Type: "StatusBar",
		},
	}
}

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.New(seed()...)
	gt.NoError(t, err)
	return r
}

func TestListKeepsInsertionOrder(t *testing.T) {
	r := newRegistry(t)

	list := r.List()
	gt.A(t, list).Length(3)
	gt.Equal(t, list[0].ID, model.ComponentID("search-input"))
	gt.Equal(t, list[1].ID, model.ComponentID("result-list"))
	gt.Equal(t, list[2].ID, model.ComponentID("status-bar"))
}

func TestListReturnsCopies(t *testing.T) {
	r := newRegistry(t)

	list := r.List()
	list[0].Capabilities[0] = "tampered"
	list[0].State = model.String("tampered")

	c, ok := r.Get("search-input")
	gt.True(t, ok)
	gt.Equal(t, c.Capabilities, []string{"search", "voice"})
	gt.Equal(t, c.State.Kind(), model.KindObject)
}

func TestDuplicateIDRejected(t *testing.T) {
	components := append(seed(), model.ComponentState{ID: "status-bar", Type: "Other"})
	_, err := registry.New(components...)
	gt.Error(t, err)
	gt.True(t, errors.Is(err, model.ErrDuplicateComponent))

	r := newRegistry(t)
	err = r.Register(model.ComponentState{ID: "result-list"})
	gt.True(t, errors.Is(err, model.ErrDuplicateComponent))
	gt.Equal(t, r.Len(), 3)
}

func TestEmptyIDRejected(t *testing.T) {
	r := newRegistry(t)
	err := r.Register(model.ComponentState{Type: "Nameless"})
	gt.True(t, errors.Is(err, model.ErrInvalidComponent))
}

func TestGetStateMissing(t *testing.T) {
	r := newRegistry(t)
	_, ok := r.GetState("unknown")
	gt.False(t, ok)
}

func TestSetStateLastWriterWins(t *testing.T) {
	r := newRegistry(t)

	for i := 0; i < 5; i++ {
		gt.True(t, r.SetState("search-input", model.Object(model.F("query", model.Number(float64(i))))))
	}

	state, ok := r.GetState("search-input")
	gt.True(t, ok)
	gt.True(t, state.Equal(model.Object(model.F("query", model.Number(4)))))
}

func TestSetStateReplacesWholeDocument(t *testing.T) {
	r := newRegistry(t)

	gt.True(t, r.SetState("search-input", model.Object(model.F("cursor", model.Number(3)))))
	state, _ := r.GetState("search-input")
	_, hasQuery := state.Get("query")
	gt.False(t, hasQuery)
	gt.Equal(t, state.Keys(), []string{"cursor"})
}

func TestSetStateUnknownIsNotUpsert(t *testing.T) {
	r := newRegistry(t)

	gt.False(t, r.SetState("ghost", model.Object()))
	gt.Equal(t, r.Len(), 3)
	_, ok := r.Get("ghost")
	gt.False(t, ok)
}

func TestConcurrentSetAndGet(t *testing.T) {
	r := newRegistry(t)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				doc := model.Object(
					model.F("writer", model.Number(float64(w))),
					model.F("seq", model.Number(float64(i))),
				)
				r.SetState("result-list", doc)
				if got, ok := r.GetState("result-list"); ok {
					// a reader sees a complete document from one writer
					if got.Len() != 2 {
						t.Errorf("torn read: %d fields", got.Len())
					}
				}
			}
		}(w)
	}
	wg.Wait()

	state, _ := r.GetState("result-list")
	gt.Equal(t, state.Len(), 2)
}

func TestFind(t *testing.T) {
	r := newRegistry(t)

	testCases := []struct {
		name     string
		selector registry.Selector
		expected []model.ComponentID
	}{
		{"by id", registry.Selector{ID: "result-list"}, []model.ComponentID{"result-list"}},
		{"by type", registry.Selector{Type: "SearchInput"}, []model.ComponentID{"search-input"}},
		{"by capability", registry.Selector{Capability: "voice"}, []model.ComponentID{"search-input"}},
		{"all", registry.Selector{}, []model.ComponentID{"search-input", "result-list", "status-bar"}},
		{"conflicting", registry.Selector{ID: "result-list", Capability: "voice"}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var ids []model.ComponentID
			for _, c := range r.Find(tc.selector) {
				ids = append(ids, c.ID)
			}
			gt.Equal(t, ids, tc.expected)
		})
	}
}

func TestHas(t *testing.T) {
	r := newRegistry(t)

	_, ok := r.Has("search-input", "status-bar")
	gt.True(t, ok)

	missing, ok := r.Has("search-input", "nope")
	gt.False(t, ok)
	gt.Equal(t, missing, model.ComponentID("nope"))
}

func BenchmarkSetState(b *testing.B) {
	components := make([]model.ComponentState, 100)
	for i := range components {
		components[i] = model.ComponentState{ID: model.ComponentID(fmt.Sprintf("c-%d", i))}
	}
	r, err := registry.New(components...)
	if err != nil {
		b.Fatal(err)
	}

	doc := model.Object(model.F("v", model.Number(1)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.SetState(model.ComponentID(fmt.Sprintf("c-%d", i%100)), doc)
	}
}
