package model_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/m-mizutani/gt"
	"gopkg.in/yaml.v3"
)

func TestValueJSONKeepsKeyOrder(t *testing.T) {
	raw := `{"zeta":1,"alpha":{"b":true,"a":null},"list":[1,"two",[3]]}`

	v, err := model.ParseJSON([]byte(raw))
	gt.NoError(t, err)
	gt.Equal(t, v.Kind(), model.KindObject)
	gt.Equal(t, v.Keys(), []string{"zeta", "alpha", "list"})

	out, err := json.Marshal(v)
	gt.NoError(t, err)
	gt.Equal(t, string(out), raw)
}

func TestValueUnmarshalInsideStruct(t *testing.T) {
	var c model.ComponentState
	gt.NoError(t, json.Unmarshal([]byte(`{"id":"search","componentType":"SearchInput","state":{"query":"nix"},"capabilities":["search"]}`), &c))

	gt.Equal(t, c.ID, model.ComponentID("search"))
	q, ok := c.State.Get("query")
	gt.True(t, ok)
	s, _ := q.AsString()
	gt.Equal(t, s, "nix")
}

func TestValueRejectsTrailingData(t *testing.T) {
	_, err := model.ParseJSON([]byte(`{"a":1} {"b":2}`))
	gt.Error(t, err)
}

func TestValueYAML(t *testing.T) {
	src := `
columns: 3
areas:
  - header
  - main
dense: false
name: focus
nothing: ~
`
	var v model.Value
	gt.NoError(t, yaml.Unmarshal([]byte(src), &v))
	gt.Equal(t, v.Keys(), []string{"columns", "areas", "dense", "name", "nothing"})

	cols, _ := v.Get("columns")
	n, ok := cols.AsNumber()
	gt.True(t, ok)
	gt.Equal(t, n, 3.0)

	nothing, _ := v.Get("nothing")
	gt.True(t, nothing.IsNull())

	out, err := yaml.Marshal(v)
	gt.NoError(t, err)

	var back model.Value
	gt.NoError(t, yaml.Unmarshal(out, &back))
	gt.True(t, back.Equal(v))
	gt.Equal(t, back.Keys(), v.Keys())
}

func TestValueMergeLastWriterWins(t *testing.T) {
	base := model.Object(
		model.F("layout", model.String("default")),
		model.F("fontSizeIncrease", model.Number(1.0)),
	)
	over := model.Object(
		model.F("layout", model.String("minimal")),
		model.F("focusMode", model.Bool(true)),
	)

	merged := base.Merge(over)
	gt.Equal(t, merged.Keys(), []string{"layout", "fontSizeIncrease", "focusMode"})

	layout, _ := merged.Get("layout")
	s, _ := layout.AsString()
	gt.Equal(t, s, "minimal")

	// inputs are untouched
	orig, _ := base.Get("layout")
	s, _ = orig.AsString()
	gt.Equal(t, s, "default")
	gt.Equal(t, base.Len(), 2)
}

func TestValueMergeIgnoresNonObject(t *testing.T) {
	base := model.Object(model.F("a", model.Number(1)))
	gt.True(t, base.Merge(model.String("x")).Equal(base))
	gt.True(t, model.Null().Merge(base).Equal(base))
}

func TestValueWithDoesNotAlias(t *testing.T) {
	a := model.Object(model.F("k", model.Number(1)))
	b := a.With("k", model.Number(2))
	c := a.With("other", model.Null())

	n, _ := a.Get("k")
	v, _ := n.AsNumber()
	gt.Equal(t, v, 1.0)
	gt.Equal(t, b.Len(), 1)
	gt.Equal(t, c.Keys(), []string{"k", "other"})
}

func TestFromAny(t *testing.T) {
	v, err := model.FromAny(map[string]any{
		"b":     int64(2),
		"a":     []any{true, json.Number("1.5"), nil},
		"c":     map[string]any{"x": "y"},
		"float": float32(0.5),
	})
	gt.NoError(t, err)
	gt.Equal(t, v.Keys(), []string{"a", "b", "c", "float"})

	a, _ := v.Get("a")
	items := a.Items()
	gt.A(t, items).Length(3)
	n, _ := items[1].AsNumber()
	gt.Equal(t, n, 1.5)
	gt.True(t, items[2].IsNull())

	back := v.Any().(map[string]any)
	gt.Equal(t, back["b"], any(2.0))

	_, err = model.FromAny(struct{}{})
	gt.Error(t, err)
}

func TestValueMarshalRejectsNaN(t *testing.T) {
	_, err := json.Marshal(model.Object(model.F("bad", model.Number(math.NaN()))))
	gt.Error(t, err)
}

func TestValueEqual(t *testing.T) {
	a := model.Object(model.F("x", model.Number(1)), model.F("y", model.List(model.String("s"))))
	b := model.Object(model.F("y", model.List(model.String("s"))), model.F("x", model.Number(1)))
	gt.True(t, a.Equal(b))
	gt.False(t, a.Equal(b.With("x", model.Number(2))))
	gt.False(t, model.Null().Equal(model.Bool(false)))
}

func TestLayoutValidate(t *testing.T) {
	gt.NoError(t, (&model.Layout{ID: "zen"}).Validate())
	gt.Error(t, (&model.Layout{ID: ""}).Validate())
	gt.Error(t, (&model.Layout{ID: "../etc"}).Validate())
	gt.Error(t, (&model.Layout{ID: "a/b"}).Validate())
}

func TestProfileClamped(t *testing.T) {
	gt.Equal(t, model.UserProfile{ConsciousnessState: 1.7}.Clamped().ConsciousnessState, 1.0)
	gt.Equal(t, model.UserProfile{ConsciousnessState: -0.1}.Clamped().ConsciousnessState, 0.0)
	gt.Equal(t, model.UserProfile{ConsciousnessState: math.NaN()}.Clamped().ConsciousnessState, 0.0)
	gt.Equal(t, model.UserProfile{ConsciousnessState: 0.4}.Clamped().ConsciousnessState, 0.4)
}
