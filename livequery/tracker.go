// Package livequery implements the process-wide live-query registry and
// the poll loop that turns change-feed catch-up reads into per-query
// notifications (spec §4.9 "Live-query tracker"). It sits above
// changefeed (reads ChangeSets) and below the network front-end the spec
// treats as an external collaborator: a session registers a LIVE
// statement here and drains a Go channel for notifications, however that
// channel is actually wired to a client.
package livequery

import (
	"sync"

	"github.com/syssam/veloxdb/changefeed"
	"github.com/syssam/veloxdb/value"
)

// Selector identifies the (namespace, database, table) a set of live
// queries watches — the unit the change feed is scanned per, and the unit
// a watermark advances per (spec §4.9: "LqSelector(ns,db,table) ->
// Vec<(LqIndexKey, LqIndexValue)>").
type Selector struct {
	Namespace string
	Database  string
	Table     string
}

// Registration is one LIVE SELECT: its id, the (opaque to this package)
// condition the poller asks an Evaluator to check, and the channel its
// notifications are pushed on.
type Registration struct {
	ID        value.UUID
	Selector  Selector
	Condition any // the WHERE ast.Expr in practice, nil when there is none; kept `any` so livequery doesn't import syn/ast
	Diff      bool
	Fields    any // projection fields, same opaque-to-this-package treatment

	notify chan Notification
	killed bool
}

// Notify returns the channel this registration's notifications are
// delivered on. The channel is bounded (spec §4.9/§5: "Notification
// channels are bounded; when full, the poll loop awaits the consumer —
// the system does not drop notifications silently").
func (r *Registration) Notify() <-chan Notification { return r.notify }

// Tracker is the single reader/writer-locked process-wide map from
// Selector to its registrations, plus per-selector watermarks (spec §5
// "Shared resources: Live-query tracker — a single reader/writer lock.
// Poll loop takes write to advance watermarks, read to dispatch.
// Registration/kill take write.").
type Tracker struct {
	mu            sync.RWMutex
	bySelector    map[Selector][]*Registration
	byID          map[value.UUID]*Registration
	watermarks    map[Selector]changefeed.Versionstamp
	notifyBufSize int
}

// NewTracker returns an empty Tracker. notifyBufSize sizes every
// registration's notification channel; the spec requires bounded
// channels with blocking backpressure, so 0 (unbuffered, full
// rendezvous) is a valid and conservative choice.
func NewTracker(notifyBufSize int) *Tracker {
	return &Tracker{
		bySelector:    make(map[Selector][]*Registration),
		byID:          make(map[value.UUID]*Registration),
		watermarks:    make(map[Selector]changefeed.Versionstamp),
		notifyBufSize: notifyBufSize,
	}
}

// Register adds a LIVE SELECT to the tracker and returns the handle whose
// Notify() channel the owning session should drain.
func (t *Tracker) Register(id value.UUID, sel Selector, condition any, fields any, diff bool) *Registration {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := &Registration{
		ID:        id,
		Selector:  sel,
		Condition: condition,
		Fields:    fields,
		Diff:      diff,
		notify:    make(chan Notification, t.notifyBufSize),
	}
	t.bySelector[sel] = append(t.bySelector[sel], r)
	t.byID[id] = r
	if _, ok := t.watermarks[sel]; !ok {
		t.watermarks[sel] = changefeed.Zero
	}
	return r
}

// Kill marks a live query dead (spec §4.9 "KILL"): the running poll loop
// skips it on its next tick rather than being interrupted mid-dispatch,
// matching "In-flight notifications may still be delivered." Returns
// false if id isn't a known registration.
func (t *Tracker) Kill(id value.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.byID[id]
	if !ok {
		return false
	}
	r.killed = true
	delete(t.byID, id)
	list := t.bySelector[r.Selector]
	for i, cand := range list {
		if cand == r {
			t.bySelector[r.Selector] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return true
}

// Selectors returns every selector with at least one live registration,
// the poll loop's outer iteration set.
func (t *Tracker) Selectors() []Selector {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Selector, 0, len(t.bySelector))
	for sel, regs := range t.bySelector {
		if len(regs) > 0 {
			out = append(out, sel)
		}
	}
	return out
}

// Registrations returns a snapshot of the live (non-killed) registrations
// for sel, safe to range over without holding the tracker's lock.
func (t *Tracker) Registrations(sel Selector) []*Registration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	src := t.bySelector[sel]
	out := make([]*Registration, 0, len(src))
	for _, r := range src {
		if !r.killed {
			out = append(out, r)
		}
	}
	return out
}

// Watermark returns the last versionstamp processed for sel.
func (t *Tracker) Watermark(sel Selector) changefeed.Versionstamp {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.watermarks[sel]
}

// AdvanceWatermark records vs as the last versionstamp processed for sel.
// Callers must only advance monotonically; the poller guarantees this by
// construction since it always processes ChangeSets in ascending
// versionstamp order.
func (t *Tracker) AdvanceWatermark(sel Selector, vs changefeed.Versionstamp) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watermarks[sel] = vs
}
