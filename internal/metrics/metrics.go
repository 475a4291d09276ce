package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nimbus"

// Outcome labels.
const (
	OutcomeFound   = "found"
	OutcomeEmpty   = "empty"
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeNoData  = "no_data"
	CacheHit       = "hit"
	CacheMiss      = "miss"
)

// Metrics holds the Prometheus counters and gauges for lookups, decoding and fetching.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	NearestLookups *prometheus.CounterVec // labels: outcome={found,empty}
	Decodes        *prometheus.CounterVec // labels: category={VFR,MVFR,IFR,LIFR}
	FetchRequests  *prometheus.CounterVec // labels: outcome={success,error,no_data}
	FetchCache     *prometheus.CounterVec // labels: result={hit,miss}

	DirectoryStations prometheus.Gauge
	DirectoryRejected prometheus.Gauge
}

// New creates all metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and prometheus.NewRegistry() in
// tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		NearestLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nearest_lookups_total",
			Help:      "Nearest station lookups by outcome.",
		}, []string{"outcome"}),
		Decodes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decodes_total",
			Help:      "Decoded reports by flight category.",
		}, []string{"category"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Report fetches by outcome.",
		}, []string{"outcome"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      "Report cache lookups by result.",
		}, []string{"result"}),
		DirectoryStations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "directory_stations",
			Help:      "Stations in the active directory.",
		}),
		DirectoryRejected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "directory_rejected_rows",
			Help:      "Rows dropped while loading the active directory.",
		}),
	}

	reg.MustRegister(
		m.NearestLookups,
		m.Decodes,
		m.FetchRequests,
		m.FetchCache,
		m.DirectoryStations,
		m.DirectoryRejected,
	)

	return m
}

// ObserveNearest counts a nearest station lookup.
func (m *Metrics) ObserveNearest(found bool) {
	if m == nil {
		return
	}
	outcome := OutcomeEmpty
	if found {
		outcome = OutcomeFound
	}
	m.NearestLookups.WithLabelValues(outcome).Inc()
}

// ObserveDecode counts a decoded report under its flight category.
func (m *Metrics) ObserveDecode(category string) {
	if m == nil {
		return
	}
	m.Decodes.WithLabelValues(category).Inc()
}

// ObserveFetch counts a report fetch.
func (m *Metrics) ObserveFetch(outcome string) {
	if m == nil {
		return
	}
	m.FetchRequests.WithLabelValues(outcome).Inc()
}

// ObserveCache counts a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.FetchCache.WithLabelValues(result).Inc()
}

// SetDirectory records the size of the active directory.
func (m *Metrics) SetDirectory(stations, rejected int) {
	if m == nil {
		return
	}
	m.DirectoryStations.Set(float64(stations))
	m.DirectoryRejected.Set(float64(rejected))
}
