// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "sync"

// Signal is a broadcast primitive: any number of Waiters created before
// Broadcast is called will observe the broadcast on their channel. The
// zero value is ready to use.
type Signal struct {
	lock sync.Mutex
	ch   chan struct{}
}

// Waiter waits for a Signal's broadcast.
type Waiter struct {
	ch chan struct{}
}

// C returns the channel that closes when the associated Signal is
// broadcast.
func (w Waiter) C() <-chan struct{} {
	return w.ch
}

// chan_ returns the channel of the current broadcast generation,
// creating it on first use.
func (s *Signal) chan_() chan struct{} {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	return s.ch
}

// NewWaiter returns a Waiter that will be woken by the next Broadcast.
func (s *Signal) NewWaiter() Waiter {
	return Waiter{s.chan_()}
}

// Broadcast wakes up all current waiters and arms a new generation for
// any waiter created afterwards.
func (s *Signal) Broadcast() {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.ch == nil {
		s.ch = make(chan struct{})
	}
	close(s.ch)
	s.ch = make(chan struct{})
}
