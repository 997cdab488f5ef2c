package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/metrics"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/model"
	"github.com/Luminous-Dynamics/adaptive-engine/pkg/usecase/adaptive"
	"github.com/m-mizutani/gt"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newUseCase(t *testing.T) *adaptive.UseCase {
	t.Helper()
	uc, err := adaptive.New([]model.ComponentState{{ID: "a"}, {ID: "b"}}, adaptive.WithHistoryCapacity(50))
	gt.NoError(t, err)
	return uc
}

func TestGauges(t *testing.T) {
	ctx := context.Background()
	uc := newUseCase(t)
	c := metrics.New(uc)

	uc.Record(ctx, model.Object(model.F("success", model.Bool(true))))
	uc.Record(ctx, model.Object(model.F("success", model.Bool(false))))

	count, err := testutil.GatherAndCount(c.Registry(), "adaptive_interactions")
	gt.NoError(t, err)
	gt.Equal(t, count, 1)

	families, err := c.Registry().Gather()
	gt.NoError(t, err)

	values := map[string]float64{}
	for _, f := range families {
		if len(f.GetMetric()) == 1 && f.GetMetric()[0].GetGauge() != nil {
			values[f.GetName()] = f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	gt.Equal(t, values["adaptive_components"], 2.0)
	gt.Equal(t, values["adaptive_interactions"], 2.0)
	gt.Equal(t, values["adaptive_history_capacity"], 50.0)
	gt.Equal(t, values["adaptive_success_rate"], 0.5)
}

func TestObserve(t *testing.T) {
	c := metrics.New(newUseCase(t))

	c.Observe("adapt", nil)
	c.Observe("adapt", nil)
	c.Observe("switch_layout", errors.New("not found"))

	count, err := testutil.GatherAndCount(c.Registry(), "adaptive_operations_total")
	gt.NoError(t, err)
	gt.Equal(t, count, 2)
}

func TestHandler(t *testing.T) {
	c := metrics.New(newUseCase(t))
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	gt.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	gt.NoError(t, err)
	gt.S(t, string(body)).Contains("adaptive_components 2")
}

type staticSource struct {
	rate  float64
	rates int
}

func (s *staticSource) ComponentCount() int   { return 1 }
func (s *staticSource) InteractionCount() int { return 0 }
func (s *staticSource) HistoryCapacity() int  { return 10 }
func (s *staticSource) SuccessRate() float64 {
	s.rates++
	return s.rate
}

func TestSuccessRateGaugeReadsRateOnly(t *testing.T) {
	src := &staticSource{rate: 0.75}
	c := metrics.New(src)

	families, err := c.Registry().Gather()
	gt.NoError(t, err)

	var rate float64
	for _, f := range families {
		if f.GetName() == "adaptive_success_rate" {
			rate = f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	gt.Equal(t, rate, 0.75)
	gt.Equal(t, src.rates, 1)
}
