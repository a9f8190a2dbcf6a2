// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dagmap

import "github.com/vechain/mmdb/metrics"

var (
	metricPruneCount   = metrics.LazyLoadCounter("dagmap_prune_count")
	metricDestroyCount = metrics.LazyLoadCounter("dagmap_destroy_count")
)
