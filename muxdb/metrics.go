// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package muxdb

import "github.com/vechain/mmdb/metrics"

var (
	metricTrashQueueDepth = metrics.LazyLoadGauge("muxdb_trash_queue_depth")
	metricNodeCacheHits   = metrics.LazyLoadGauge("muxdb_trie_node_cache_hits")
	metricNodeCacheMisses = metrics.LazyLoadGauge("muxdb_trie_node_cache_misses")
)
