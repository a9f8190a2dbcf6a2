// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "sync"

// Choes manages a group of cancelable goroutines: each one receives a
// stop channel that's closed when Stop is called, and is expected to
// return promptly afterwards.
type Choes struct {
	wg       sync.WaitGroup
	lock     sync.Mutex
	stopChan chan struct{}
	stopped  bool
}

// NewChoes creates an empty group.
func NewChoes() *Choes {
	return &Choes{stopChan: make(chan struct{})}
}

// Go starts f in a new goroutine, passing it the group's stop channel.
func (c *Choes) Go(f func(stopChan chan struct{})) {
	c.lock.Lock()
	stopChan := c.stopChan
	c.lock.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		f(stopChan)
	}()
}

// Stop closes the stop channel, signalling every running goroutine to
// return. Safe to call more than once.
func (c *Choes) Stop() {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stopChan)
}

// Wait blocks until every goroutine started via Go has returned.
func (c *Choes) Wait() {
	c.wg.Wait()
}
