// Package state holds the proxy list, host table and forwarding timeout
// that the resolver reads on every request and the reload path replaces as
// a group. A single atomic.Pointer swap of an immutable snapshot gives
// readers a torn-free view without ever blocking on a writer.
package state

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/dnsscience/overdns/internal/config"
)

// Snapshot is the immutable triple readers observe. Once published, a
// Snapshot is never mutated; a reload builds a new one and swaps it in.
type Snapshot struct {
	Proxy   []*net.UDPAddr
	Hosts   config.HostTable
	Timeout time.Duration
}

// State publishes Snapshots for concurrent, lock-free reads.
type State struct {
	cur atomic.Pointer[Snapshot]
}

// New creates a State already holding the given snapshot.
func New(initial Snapshot) *State {
	s := &State{}
	s.cur.Store(&initial)
	return s
}

// Load returns the currently active snapshot. Safe for concurrent use
// with Store from any number of goroutines.
func (s *State) Load() Snapshot {
	return *s.cur.Load()
}

// Store publishes a new snapshot as a single atomic step: any request
// that starts after Store returns observes every field of the new
// snapshot together; a request already mid-flight keeps whatever
// snapshot it loaded, never a mix of old and new fields.
func (s *State) Store(next Snapshot) {
	s.cur.Store(&next)
}
