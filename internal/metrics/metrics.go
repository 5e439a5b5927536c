// Package metrics holds the service's Prometheus instruments. main registers
// them once; other packages only increment.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eras_api",
		Name:      "http_requests_total",
		Help:      "Number of handled HTTP requests by route",
	}, []string{"route"})

	WikiFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eras_api",
		Name:      "wiki_fetches_total",
		Help:      "Number of upstream Wikipedia calls by operation and outcome",
	}, []string{"operation", "result"})

	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eras_api",
		Name:      "cache_lookups_total",
		Help:      "Number of external-result cache lookups by operation and outcome",
	}, []string{"operation", "result"})
)

func MustRegister() {
	prometheus.MustRegister(HTTPRequests, WikiFetches, CacheLookups)
}
