// Package metrics constructs the metrics the node exposes to Prometheus.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "powchain"

// Metrics holds the collectors for the node. It uses its own registry so
// only these collectors and the runtime collectors are exported.
type Metrics struct {
	registry          *prometheus.Registry
	requests          prometheus.Counter
	errors            prometheus.Counter
	panics            prometheus.Counter
	blocksMined       prometheus.Counter
	chainReplacements prometheus.Counter
}

// New constructs the metrics and registers them. The chain length function
// is read on every scrape.
func New(chainLength func() int) *Metrics {
	m := Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Number of HTTP requests handled.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Number of HTTP requests that returned an error.",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "panics_total",
			Help:      "Number of panics recovered while handling HTTP requests.",
		}),
		blocksMined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_mined_total",
			Help:      "Number of blocks mined by this node.",
		}),
		chainReplacements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_replacements_total",
			Help:      "Number of times the local chain was replaced by a longer peer chain.",
		}),
	}

	length := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "chain_length",
		Help:      "Number of blocks in the local chain.",
	}, func() float64 {
		return float64(chainLength())
	})

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		length,
		m.requests,
		m.errors,
		m.panics,
		m.blocksMined,
		m.chainReplacements,
	)

	return &m
}

// Handler returns the handler that serves the metrics for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer provides access to the registry for inspection.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// BlockMined increments the blocks mined counter.
func (m *Metrics) BlockMined() {
	m.blocksMined.Inc()
}

// ChainReplaced increments the chain replacement counter.
func (m *Metrics) ChainReplaced() {
	m.chainReplacements.Inc()
}

// =============================================================================

// ctxKey represents the type of value for the context key.
type ctxKey int

// key is how metric values are stored/retrieved.
const key ctxKey = 1

// Set sets the metrics data into the context.
func Set(ctx context.Context, m *Metrics) context.Context {
	return context.WithValue(ctx, key, m)
}

// AddRequests increments the request metric by 1.
func AddRequests(ctx context.Context) {
	if v, ok := ctx.Value(key).(*Metrics); ok && v != nil {
		v.requests.Inc()
	}
}

// AddErrors increments the errors metric by 1.
func AddErrors(ctx context.Context) {
	if v, ok := ctx.Value(key).(*Metrics); ok && v != nil {
		v.errors.Inc()
	}
}

// AddPanics increments the panics metric by 1.
func AddPanics(ctx context.Context) {
	if v, ok := ctx.Value(key).(*Metrics); ok && v != nil {
		v.panics.Inc()
	}
}

// AddBlocksMined increments the blocks mined metric by 1.
func AddBlocksMined(ctx context.Context) {
	if v, ok := ctx.Value(key).(*Metrics); ok && v != nil {
		v.BlockMined()
	}
}

// AddChainReplacements increments the chain replacement metric by 1.
func AddChainReplacements(ctx context.Context) {
	if v, ok := ctx.Value(key).(*Metrics); ok && v != nil {
		v.ChainReplaced()
	}
}
