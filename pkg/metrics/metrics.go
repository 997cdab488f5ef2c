package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Luminous-Dynamics/adaptive-engine/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "adaptive"

// Source is the read side of the application context
type Source interface {
	ComponentCount() int
	InteractionCount() int
	HistoryCapacity() int
	SuccessRate() float64
}

// Collector exposes engine gauges and per-operation counters on its own
// registry
type Collector struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
}

// New registers gauges reading from src. Gauges are evaluated at scrape
// time.
func New(src Source) *Collector {
	reg := prometheus.NewRegistry()

	operations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of command surface operations by operation and status",
		},
		[]string{"operation", "status"},
	)

	reg.MustRegister(
		operations,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "components",
			Help:      "Number of registered UI components",
		}, func() float64 { return float64(src.ComponentCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interactions",
			Help:      "Number of interactions held in the history",
		}, func() float64 { return float64(src.InteractionCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_capacity",
			Help:      "Maximum number of interactions kept in the history",
		}, func() float64 { return float64(src.HistoryCapacity()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "success_rate",
			Help:      "Share of recorded interactions marked successful",
		}, func() float64 { return src.SuccessRate() }),
	)

	return &Collector{registry: reg, operations: operations}
}

// Observe counts one operation
func (c *Collector) Observe(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.operations.WithLabelValues(operation, status).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.From(ctx).Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return goerr.Wrap(err, "metrics server failed", goerr.V("addr", addr))
	}
	return nil
}
