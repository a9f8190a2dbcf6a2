// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type promProvider struct {
	lock          sync.Mutex
	counters      map[string]*promCountMeter
	counterVecs   map[string]*promCountVecMeter
	gauges        map[string]*promGaugeMeter
	gaugeVecs     map[string]*promGaugeVecMeter
	histograms    map[string]*promHistogramMeter
	histogramVecs map[string]*promHistogramVecMeter
}

func newPromProvider() *promProvider {
	return &promProvider{
		counters:      make(map[string]*promCountMeter),
		counterVecs:   make(map[string]*promCountVecMeter),
		gauges:        make(map[string]*promGaugeMeter),
		gaugeVecs:     make(map[string]*promGaugeVecMeter),
		histograms:    make(map[string]*promHistogramMeter),
		histogramVecs: make(map[string]*promHistogramVecMeter),
	}
}

// register registers c with the default registerer, returning the
// already-registered collector instead when one with the same
// descriptor already exists (repeated calls for the same metric name).
func register(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector
		}
	}
	return c
}

func (p *promProvider) counter(name string) Counter {
	p.lock.Lock()
	defer p.lock.Unlock()
	if m, ok := p.counters[name]; ok {
		return m
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: namePrefix + name})
	m := &promCountMeter{c: register(c).(prometheus.Counter)}
	p.counters[name] = m
	return m
}

func (p *promProvider) counterVec(name string, labels []string) CounterVec {
	p.lock.Lock()
	defer p.lock.Unlock()
	if m, ok := p.counterVecs[name]; ok {
		return m
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: namePrefix + name}, labels)
	m := &promCountVecMeter{cv: register(cv).(*prometheus.CounterVec)}
	p.counterVecs[name] = m
	return m
}

func (p *promProvider) gauge(name string) Gauge {
	p.lock.Lock()
	defer p.lock.Unlock()
	if m, ok := p.gauges[name]; ok {
		return m
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: namePrefix + name})
	m := &promGaugeMeter{g: register(g).(prometheus.Gauge)}
	p.gauges[name] = m
	return m
}

func (p *promProvider) gaugeVec(name string, labels []string) GaugeVec {
	p.lock.Lock()
	defer p.lock.Unlock()
	if m, ok := p.gaugeVecs[name]; ok {
		return m
	}
	gv := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: namePrefix + name}, labels)
	m := &promGaugeVecMeter{gv: register(gv).(*prometheus.GaugeVec)}
	p.gaugeVecs[name] = m
	return m
}

func (p *promProvider) histogram(name string, buckets []float64) Histogram {
	p.lock.Lock()
	defer p.lock.Unlock()
	if m, ok := p.histograms[name]; ok {
		return m
	}
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: namePrefix + name, Buckets: buckets})
	m := &promHistogramMeter{h: register(h).(prometheus.Histogram)}
	p.histograms[name] = m
	return m
}

func (p *promProvider) histogramVec(name string, labels []string, buckets []float64) HistogramVec {
	p.lock.Lock()
	defer p.lock.Unlock()
	if m, ok := p.histogramVecs[name]; ok {
		return m
	}
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: namePrefix + name, Buckets: buckets}, labels)
	m := &promHistogramVecMeter{hv: register(hv).(*prometheus.HistogramVec)}
	p.histogramVecs[name] = m
	return m
}

func (p *promProvider) httpHandler() http.Handler {
	return promhttp.Handler()
}

type promCountMeter struct{ c prometheus.Counter }

func (m *promCountMeter) Add(n int64) { m.c.Add(float64(n)) }

type promCountVecMeter struct{ cv *prometheus.CounterVec }

func (m *promCountVecMeter) AddWithLabel(n int64, labels map[string]string) {
	m.cv.With(labels).Add(float64(n))
}

type promGaugeMeter struct{ g prometheus.Gauge }

func (m *promGaugeMeter) Add(n int64) { m.g.Add(float64(n)) }

type promGaugeVecMeter struct{ gv *prometheus.GaugeVec }

func (m *promGaugeVecMeter) AddWithLabel(n int64, labels map[string]string) {
	m.gv.With(labels).Add(float64(n))
}

type promHistogramMeter struct{ h prometheus.Histogram }

func (m *promHistogramMeter) Observe(n int64) { m.h.Observe(float64(n)) }

type promHistogramVecMeter struct{ hv *prometheus.HistogramVec }

func (m *promHistogramVecMeter) ObserveWithLabels(n int64, labels map[string]string) {
	m.hv.With(labels).Observe(float64(n))
}
