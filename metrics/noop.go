// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import "net/http"

// noopMeters satisfies every metric interface with methods that do
// nothing; a single stateless instance is shared by every metric name.
type noopMeters struct{}

func (*noopMeters) Add(int64)                                 {}
func (*noopMeters) AddWithLabel(int64, map[string]string)      {}
func (*noopMeters) Observe(int64)                              {}
func (*noopMeters) ObserveWithLabels(int64, map[string]string) {}

var shared = &noopMeters{}

type noopProvider struct{}

func (*noopProvider) counter(string) Counter                                 { return shared }
func (*noopProvider) counterVec(string, []string) CounterVec                 { return shared }
func (*noopProvider) gauge(string) Gauge                                     { return shared }
func (*noopProvider) gaugeVec(string, []string) GaugeVec                     { return shared }
func (*noopProvider) histogram(string, []float64) Histogram                  { return shared }
func (*noopProvider) histogramVec(string, []string, []float64) HistogramVec  { return shared }

func (*noopProvider) httpHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "metrics disabled", http.StatusNotFound)
	})
}
