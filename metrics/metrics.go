// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics instruments the engine, dagmap and trie layers.
// It defaults to cheap no-ops so the library costs nothing when the
// embedding application doesn't care about metrics, and switches to a
// real prometheus registry once InitializePrometheusMetrics is called.
package metrics

import "net/http"

const namePrefix = "mmdb_metrics_"

// Counter is a monotonically increasing value.
type Counter interface {
	Add(n int64)
}

// CounterVec is a Counter keyed by a fixed set of label names.
type CounterVec interface {
	AddWithLabel(n int64, labels map[string]string)
}

// Gauge is a value that can go up or down.
type Gauge interface {
	Add(n int64)
}

// GaugeVec is a Gauge keyed by a fixed set of label names.
type GaugeVec interface {
	AddWithLabel(n int64, labels map[string]string)
}

// Histogram observes a distribution of values.
type Histogram interface {
	Observe(n int64)
}

// HistogramVec is a Histogram keyed by a fixed set of label names.
type HistogramVec interface {
	ObserveWithLabels(n int64, labels map[string]string)
}

// provider is the backend that actually creates and stores metrics.
// It's swapped wholesale by InitializePrometheusMetrics.
type provider interface {
	counter(name string) Counter
	counterVec(name string, labels []string) CounterVec
	gauge(name string) Gauge
	gaugeVec(name string, labels []string) GaugeVec
	histogram(name string, buckets []float64) Histogram
	histogramVec(name string, labels []string, buckets []float64) HistogramVec
	httpHandler() http.Handler
}

var metrics provider = defaultNoopMetrics()

func defaultNoopMetrics() provider {
	return &noopProvider{}
}

// InitializePrometheusMetrics switches the package over to a real
// prometheus-backed registry. Metrics created before this call (via
// LazyLoad* closures) resolve against the new backend on next use.
func InitializePrometheusMetrics() {
	metrics = newPromProvider()
}

// Counter returns (creating if needed) the named counter.
func Counter(name string) Counter { return metrics.counter(name) }

// CounterVec returns (creating if needed) the named, labeled counter.
func CounterVec(name string, labels []string) CounterVec { return metrics.counterVec(name, labels) }

// Gauge returns (creating if needed) the named gauge.
func Gauge(name string) Gauge { return metrics.gauge(name) }

// GaugeVec returns (creating if needed) the named, labeled gauge.
func GaugeVec(name string, labels []string) GaugeVec { return metrics.gaugeVec(name, labels) }

// Histogram returns (creating if needed) the named histogram. A nil
// buckets slice uses prometheus's default buckets.
func Histogram(name string, buckets []float64) Histogram { return metrics.histogram(name, buckets) }

// HistogramVec returns (creating if needed) the named, labeled histogram.
func HistogramVec(name string, labels []string, buckets []float64) HistogramVec {
	return metrics.histogramVec(name, labels, buckets)
}

// HTTPHandler serves the metrics endpoint, or 404 when metrics are
// disabled (the default, no-op, state).
func HTTPHandler() http.Handler { return metrics.httpHandler() }

// LazyLoadCounter defers resolution of name to first call, so it can be
// declared at package scope before InitializePrometheusMetrics runs.
func LazyLoadCounter(name string) func() Counter {
	return func() Counter { return Counter(name) }
}

// LazyLoadCounterVec is the CounterVec counterpart of LazyLoadCounter.
func LazyLoadCounterVec(name string, labels []string) func() CounterVec {
	return func() CounterVec { return CounterVec(name, labels) }
}

// LazyLoadGauge is the Gauge counterpart of LazyLoadCounter.
func LazyLoadGauge(name string) func() Gauge {
	return func() Gauge { return Gauge(name) }
}

// LazyLoadGaugeVec is the GaugeVec counterpart of LazyLoadCounter.
func LazyLoadGaugeVec(name string, labels []string) func() GaugeVec {
	return func() GaugeVec { return GaugeVec(name, labels) }
}

// LazyLoadHistogram is the Histogram counterpart of LazyLoadCounter.
func LazyLoadHistogram(name string, buckets []float64) func() Histogram {
	return func() Histogram { return Histogram(name, buckets) }
}

// LazyLoadHistogramVec is the HistogramVec counterpart of LazyLoadCounter.
func LazyLoadHistogramVec(name string, labels []string, buckets []float64) func() HistogramVec {
	return func() HistogramVec { return HistogramVec(name, labels, buckets) }
}
