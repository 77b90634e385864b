// Package watch polls a file's modification time on a fixed interval and
// emits a tick whenever it changes, so the caller can reload derived state
// without relying on platform filesystem-notification APIs.
package watch

import (
	"os"
	"time"
)

// observation is the comparable snapshot of one stat() call: either a
// modification time, or the kind+code of the failure that replaced it.
type observation struct {
	ok      bool
	modTime time.Time
	errKind string
	errCode string
}

func observe(path string) observation {
	info, err := os.Stat(path)
	if err != nil {
		return observation{ok: false, errKind: errKindOf(err), errCode: errCodeOf(err)}
	}
	return observation{ok: true, modTime: info.ModTime()}
}

// equal compares two observations under the rule: two failures are equal
// when they share the same error kind and OS error code; success and
// failure are never equal; two successes are equal iff their mod times
// match.
func (o observation) equal(other observation) bool {
	if o.ok != other.ok {
		return false
	}
	if !o.ok {
		return o.errKind == other.errKind && o.errCode == other.errCode
	}
	return o.modTime.Equal(other.modTime)
}

// Watcher polls one path on a fixed interval and reports a tick on Ticks
// whenever the observed state changes from the previous poll.
type Watcher struct {
	path     string
	interval time.Duration

	Ticks chan struct{}
	stop   chan struct{}
	done   chan struct{}
}

// New starts polling path every interval, starting from the file's state
// at call time (the first tick fires only once that state differs from
// this initial observation, so a rewrite before the first poll is not
// missed, but the initial state itself never fires a spurious tick).
func New(path string, interval time.Duration) *Watcher {
	w := &Watcher{
		path:     path,
		interval: interval,
		Ticks:    make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run(observe(path))
	return w
}

// Stop halts polling. It does not close Ticks, so a reader draining it in
// a select alongside Stop's caller never sees a spurious close.
func (w *Watcher) Stop() {
	close(w.stop)
	<-w.done
}

func (w *Watcher) run(last observation) {
	defer close(w.done)

	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-timer.C:
			start := time.Now()
			cur := observe(w.path)
			if !cur.equal(last) {
				last = cur
				select {
				case w.Ticks <- struct{}{}:
				default:
					// A tick is already pending; the caller has not
					// drained it yet, coalesce rather than block.
				}
			}
			// If polling took longer than the interval, fire the next
			// tick immediately instead of accumulating drift.
			elapsed := time.Since(start)
			if elapsed >= w.interval {
				timer.Reset(0)
			} else {
				timer.Reset(w.interval - elapsed)
			}
		}
	}
}
