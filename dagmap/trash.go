// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package dagmap

import (
	"github.com/vechain/mmdb/co"
)

// TrashCollector destroys discarded subtrees off the caller's hot
// path: Prune and explicit discards can hand a subtree root to Toss
// instead of blocking on Destroy, and the background worker clears it.
type TrashCollector struct {
	choes   *co.Choes
	queue   chan *DagMapRaw
	drained co.Signal
}

// NewTrashCollector starts a single background worker draining a
// bounded queue of subtree roots to destroy.
func NewTrashCollector() *TrashCollector {
	tc := &TrashCollector{
		choes: co.NewChoes(),
		queue: make(chan *DagMapRaw, 256),
	}
	tc.choes.Go(tc.loop)
	return tc
}

func (tc *TrashCollector) loop(stopChan chan struct{}) {
	for {
		select {
		case n := <-tc.queue:
			if n != nil {
				if err := n.Destroy(); err != nil {
					logger.Error("trash collector destroy failed", "error", err)
				}
			}
			if len(tc.queue) == 0 {
				tc.drained.Broadcast()
			}
		case <-stopChan:
			// drain whatever is already queued before exiting.
			for {
				select {
				case n := <-tc.queue:
					if n != nil {
						_ = n.Destroy()
					}
				default:
					return
				}
			}
		}
	}
}

// Toss enqueues root for asynchronous destruction. Blocks if the queue
// is full, applying backpressure rather than growing unbounded.
func (tc *TrashCollector) Toss(root *DagMapRaw) {
	if root == nil {
		return
	}
	tc.queue <- root
}

// QueueDepth reports how many subtrees are currently waiting to be
// destroyed; sampled by the embedding facade's metrics gauge.
func (tc *TrashCollector) QueueDepth() int { return len(tc.queue) }

// WaitDrained returns a Waiter that wakes the next time the destroy
// queue empties out, letting a caller that just called Toss block
// until the backlog clears without polling QueueDepth.
func (tc *TrashCollector) WaitDrained() co.Waiter { return tc.drained.NewWaiter() }

// Close stops the background worker after draining its queue.
func (tc *TrashCollector) Close() {
	tc.choes.Stop()
	tc.choes.Wait()
}
