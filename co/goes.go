// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package co provides concurrency helpers used throughout the storage
// engine to coordinate background goroutines (the dagmap trash
// collector, the muxdb metrics sampling loop) without leaking them past
// Wait/Stop.
package co

import "sync"

// Goes manages a group of goroutines and lets the caller wait for all
// of them to finish, similar in spirit to sync.WaitGroup but exposing a
// channel that closes once all goroutines are done.
type Goes struct {
	wg   sync.WaitGroup
	once sync.Once
	done chan struct{}
}

// Go starts f in a new goroutine tracked by g.
func (g *Goes) Go(f func()) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		f()
	}()
}

// Wait blocks until all goroutines started via Go have returned.
func (g *Goes) Wait() {
	g.wg.Wait()
}

// Done returns a channel that's closed once all tracked goroutines have
// returned and Wait has been observed to complete.
func (g *Goes) Done() <-chan struct{} {
	g.once.Do(func() {
		g.done = make(chan struct{})
		go func() {
			g.wg.Wait()
			close(g.done)
		}()
	})
	return g.done
}
