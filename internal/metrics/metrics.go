// Package metrics exposes Prometheus counters for GitHub traffic, catalog
// syncs, the icon cache and installation outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gitpm"

// Registry holds every gitpm metric plus the Go and process collectors.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	GitHubRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "github_requests_total",
		Help:      "GitHub API requests by endpoint and outcome.",
	}, []string{"endpoint", "status"})

	RepositoriesResolved = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_repositories_resolved_total",
		Help:      "Repositories fully resolved and appended to the catalog.",
	})

	StaleResultsDiscarded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_stale_results_discarded_total",
		Help:      "Repository results dropped because the selection changed.",
	})

	IconCache = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "icon_cache_events_total",
		Help:      "Icon cache hits, misses, downloads, failures and evictions.",
	}, []string{"event"})

	Installations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "installer_operations_total",
		Help:      "Installation orchestrator operations by kind and outcome.",
	}, []string{"kind", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// ObserveGitHubRequest counts one API call.
func ObserveGitHubRequest(endpoint string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	GitHubRequests.WithLabelValues(endpoint, status).Inc()
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
