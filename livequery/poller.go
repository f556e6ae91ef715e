package livequery

import (
	"context"
	"time"

	"github.com/syssam/veloxdb/changefeed"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/value"
)

// ConditionEvaluator checks a live query's (opaque) WHERE condition
// against a cursor document built from a change-feed mutation. Kept
// narrow and decoupled from syn/ast and exec the same way
// exec.Evaluator/exec.ChangeLogger decouple the executor from its
// collaborators: livequery never needs to import the expression
// interpreter, only this one-method seam.
type ConditionEvaluator interface {
	Matches(ctx context.Context, condition any, doc value.Value) (bool, error)
}

// Projector builds the notification's Result document from the cursor
// document, applying a live query's field list (or the whole document for
// a field-less `LIVE SELECT *`).
type Projector interface {
	Project(ctx context.Context, fields any, doc value.Value) (value.Value, error)
}

// Poller is the background task that drains change-feed catch-up reads
// per selector and dispatches Notifications to every matching live query
// (spec §4.9 "Live-query tracker"). One Poller instance typically serves
// an entire datastore; Tick is called on a fixed interval by the caller
// (or by Run, which loops until ctx is cancelled).
type Poller struct {
	Tracker    *Tracker
	Store      kv.Store
	Eval       ConditionEvaluator
	Project    Projector
	// CatchupSize bounds how many ChangeSets a single Tick reads per
	// selector (spec §4.9: "configurable batch sizes (\"catchup size\")").
	CatchupSize int
}

// NewPoller returns a Poller with a default catch-up size of 256.
func NewPoller(tracker *Tracker, store kv.Store, eval ConditionEvaluator, project Projector) *Poller {
	return &Poller{Tracker: tracker, Store: store, Eval: eval, Project: project, CatchupSize: 256}
}

// Run ticks the poller every interval until ctx is cancelled. Errors from
// an individual tick are swallowed after being reported to onError (which
// may be nil) so one bad selector doesn't stop the whole loop; a
// production caller typically wires onError to its logger.
func (p *Poller) Run(ctx context.Context, interval time.Duration, onError func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}

// Tick processes one round of catch-up for every selector with at least
// one live registration.
func (p *Poller) Tick(ctx context.Context) error {
	for _, sel := range p.Tracker.Selectors() {
		if err := p.tickSelector(ctx, sel); err != nil {
			return err
		}
	}
	return nil
}

func (p *Poller) tickSelector(ctx context.Context, sel Selector) error {
	regs := p.Tracker.Registrations(sel)
	if len(regs) == 0 {
		return nil
	}
	tx, err := p.Store.Begin(ctx, kv.TypeRead, kv.LockOptimistic)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Cancel(ctx) }()

	watermark := p.Tracker.Watermark(sel)
	changesets, err := changefeed.Scan(ctx, tx, sel.Namespace, sel.Database, sel.Table, watermark, p.CatchupSize)
	if err != nil {
		return err
	}
	for _, cs := range changesets {
		for _, mut := range cs.Mutations {
			if err := p.dispatch(ctx, regs, mut); err != nil {
				return err
			}
		}
		// Advance per changeset, not per mutation, so a crash mid-batch
		// never re-advances past a partially-dispatched changeset.
		p.Tracker.AdvanceWatermark(sel, cs.Versionstamp)
	}
	return nil
}

func (p *Poller) dispatch(ctx context.Context, regs []*Registration, mut changefeed.Mutation) error {
	doc := mut.After // spec §9 Open Question 2: whole-row replacement cursor doc
	action := mutationAction(mut.Kind)
	for _, r := range regs {
		matched := true
		if r.Condition != nil && p.Eval != nil {
			var err error
			matched, err = p.Eval.Matches(ctx, r.Condition, doc)
			if err != nil {
				return err
			}
		}
		if !matched {
			continue
		}
		result := doc
		if p.Project != nil && r.Fields != nil {
			var err error
			result, err = p.Project.Project(ctx, r.Fields, doc)
			if err != nil {
				return err
			}
		}
		// Bounded channel, blocking send: backpressure, not a dropped
		// notification (spec §4.9/§5, Open Question 3 resolved in favor
		// of "await the consumer").
		select {
		case r.notify <- Notification{QueryID: r.ID, Action: action, Record: mut.ID, Result: result}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func mutationAction(k changefeed.MutationKind) Action {
	switch k {
	case changefeed.MutationCreate:
		return ActionCreate
	case changefeed.MutationDelete:
		return ActionDelete
	default:
		return ActionUpdate
	}
}
