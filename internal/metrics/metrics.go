// Package metrics exposes Prometheus counters for crawl, ingestion and query
// outcomes. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "siterag"

// Metrics holds the application counters and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	pagesCrawled     prometheus.Counter
	crawlFailures    prometheus.Counter
	paragraphsStored prometheus.Counter
	ingestions       *prometheus.CounterVec
	statusChecks     *prometheus.CounterVec
	queries          *prometheus.CounterVec
	llmFallbacks     prometheus.Counter
	toolCalls        *prometheus.CounterVec
	localIndexBuilds prometheus.Counter
	localIndexedDocs prometheus.Gauge
}

// New creates the counters on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		pagesCrawled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "crawl", Name: "pages_total",
			Help: "Pages kept by the crawler.",
		}),
		crawlFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "crawl", Name: "failures_total",
			Help: "URLs that could not be fetched or parsed.",
		}),
		paragraphsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "crawl", Name: "paragraphs_total",
			Help: "Paragraphs written to the content store.",
		}),
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "submissions_total",
			Help: "Ingestion submissions by mode and result.",
		}, []string{"mode", "result"}),
		statusChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ingest", Name: "status_checks_total",
			Help: "Ingestion status checks by reported status.",
		}, []string{"status"}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "query", Name: "total",
			Help: "Queries by outcome.",
		}, []string{"outcome"}),
		llmFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "query", Name: "llm_fallbacks_total",
			Help: "Answers that fell back to the raw context after an LLM failure.",
		}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mcp", Name: "tool_calls_total",
			Help: "MCP tool calls by tool and result.",
		}, []string{"tool", "result"}),
		localIndexBuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "localindex", Name: "builds_total",
			Help: "Local index rebuilds.",
		}),
		localIndexedDocs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "localindex", Name: "documents",
			Help: "Paragraphs in the local index.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pagesCrawled,
		m.crawlFailures,
		m.paragraphsStored,
		m.ingestions,
		m.statusChecks,
		m.queries,
		m.llmFallbacks,
		m.toolCalls,
		m.localIndexBuilds,
		m.localIndexedDocs,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteFile writes the registry to path in the Prometheus text format, for
// pickup by a textfile collector. The file is replaced atomically.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func (m *Metrics) PageCrawled() {
	if m != nil {
		m.pagesCrawled.Inc()
	}
}

func (m *Metrics) CrawlFailed() {
	if m != nil {
		m.crawlFailures.Inc()
	}
}

func (m *Metrics) ParagraphsStored(n int) {
	if m != nil {
		m.paragraphsStored.Add(float64(n))
	}
}

// IngestSubmitted counts a submission; result is "ok" or "error".
func (m *Metrics) IngestSubmitted(mode, result string) {
	if m != nil {
		m.ingestions.WithLabelValues(mode, result).Inc()
	}
}

func (m *Metrics) StatusChecked(status string) {
	if m != nil {
		m.statusChecks.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) QueryAnswered(outcome string) {
	if m != nil {
		m.queries.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) LLMFallback() {
	if m != nil {
		m.llmFallbacks.Inc()
	}
}

func (m *Metrics) ToolCalled(tool string, failed bool) {
	if m == nil {
		return
	}
	result := "ok"
	if failed {
		result = "error"
	}
	m.toolCalls.WithLabelValues(tool, result).Inc()
}

func (m *Metrics) LocalIndexBuilt(docs int) {
	if m != nil {
		m.localIndexBuilds.Inc()
		m.localIndexedDocs.Set(float64(docs))
	}
}
