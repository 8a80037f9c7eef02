package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineCollector exposes Prometheus counters for editorial pipeline
// activity.
type PipelineCollector struct {
	registry *prometheus.Registry

	itemsPosted  prometheus.Counter
	publishes    prometheus.Counter
	sendRetries  prometheus.Counter
	dedupSkips   *prometheus.CounterVec
	rewrites     *prometheus.CounterVec
	callbacks    *prometheus.CounterVec
	scrapeCycles *prometheus.CounterVec
}

// NewPipelineCollector constructs a collector with all pipeline counters
// registered on an own registry.
func NewPipelineCollector() (*PipelineCollector, error) {
	registry := prometheus.NewRegistry()

	c := &PipelineCollector{
		registry: registry,
		itemsPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deskbot",
			Name:      "items_posted_total",
			Help:      "News items delivered to the review chat.",
		}),
		publishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deskbot",
			Name:      "publishes_total",
			Help:      "Items published to the public channel.",
		}),
		sendRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deskbot",
			Name:      "send_retries_total",
			Help:      "Outbound delivery attempts retried after a rate limit.",
		}),
		dedupSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deskbot",
			Name:      "dedup_skips_total",
			Help:      "Scraped items skipped as duplicates, by check phase.",
		}, []string{"phase"}),
		rewrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deskbot",
			Name:      "rewrites_total",
			Help:      "Rewrite calls, by outcome.",
		}, []string{"outcome"}),
		callbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deskbot",
			Name:      "callback_actions_total",
			Help:      "Inbound callback clicks, by action kind.",
		}, []string{"action"}),
		scrapeCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "deskbot",
			Name:      "scrape_cycles_total",
			Help:      "Completed scrape cycles, by outcome.",
		}, []string{"outcome"}),
	}

	collectors := []prometheus.Collector{
		c.itemsPosted, c.publishes, c.sendRetries,
		c.dedupSkips, c.rewrites, c.callbacks, c.scrapeCycles,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler exposing the registered metrics.
func (c *PipelineCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *PipelineCollector) ItemPosted()  { c.itemsPosted.Inc() }
func (c *PipelineCollector) Published()   { c.publishes.Inc() }
func (c *PipelineCollector) SendRetried() { c.sendRetries.Inc() }

func (c *PipelineCollector) DedupSkip(phase string) {
	c.dedupSkips.WithLabelValues(phase).Inc()
}
func (c *PipelineCollector) Rewrite(outcome string) {
	c.rewrites.WithLabelValues(outcome).Inc()
}
func (c *PipelineCollector) CallbackAction(action string) {
	c.callbacks.WithLabelValues(action).Inc()
}
func (c *PipelineCollector) ScrapeCycle(outcome string) {
	c.scrapeCycles.WithLabelValues(outcome).Inc()
}
