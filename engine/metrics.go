// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package engine

import "github.com/vechain/mmdb/metrics"

var (
	metricPrefixAllocCount = metrics.LazyLoadCounter("engine_prefix_alloc_count")
	metricFlushDuration    = metrics.LazyLoadHistogram("engine_flush_duration_ms", nil)
)
