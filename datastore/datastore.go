package datastore

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/catalog/load"
	"github.com/syssam/veloxdb/changefeed"
	"github.com/syssam/veloxdb/exec"
	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/livequery"
	"github.com/syssam/veloxdb/value"
)

// Datastore is the engine's top-level object: one opened KV store plus
// the process-wide singletons (versionstamp oracle, live-query tracker,
// logger) spec §5 scopes to datastore open. Sessions created from it
// share these; nothing here is torn down except by Close.
type Datastore struct {
	store   kv.Store
	cfg     Config
	log     *zap.Logger
	oracle  changefeed.Oracle
	chlog   *changefeed.Log
	tracker *livequery.Tracker
	poller  *livequery.Poller
	interp  *exec.Interpreter
}

// Option customizes Open.
type Option func(*Datastore)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option { return func(d *Datastore) { d.cfg = cfg } }

// WithLogger sets the structured logger; the default is a no-op logger.
func WithLogger(log *zap.Logger) Option { return func(d *Datastore) { d.log = log } }

// WithOracle overrides the versionstamp oracle (tests inject a
// deterministic one here).
func WithOracle(o changefeed.Oracle) Option { return func(d *Datastore) { d.oracle = o } }

// Open assembles a Datastore over store. The oracle is selected by
// Config.Oracle unless overridden; spec §9's design note applies: these
// are explicit fields, never thread-locals.
func Open(store kv.Store, opts ...Option) (*Datastore, error) {
	d := &Datastore{
		store: store,
		cfg:   DefaultConfig(),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.oracle == nil {
		switch d.cfg.Oracle {
		case OracleEpoch:
			epoch, err := nextEpoch(store)
			if err != nil {
				return nil, err
			}
			d.oracle = changefeed.NewEpochCounter(epoch)
		default:
			d.oracle = changefeed.NewSysTimeCounter()
		}
	}
	d.chlog = changefeed.NewLog(d.oracle)
	d.tracker = livequery.NewTracker(d.cfg.LiveNotifyBuffer)
	d.interp = &exec.Interpreter{User: make(map[string]exec.UserFunc)}
	d.interp.Subquery = &subqueryRunner{d: d}
	d.poller = livequery.NewPoller(d.tracker, store, &liveEvaluator{interp: d.interp}, &liveProjector{interp: d.interp})
	d.poller.CatchupSize = d.cfg.LiveCatchupSize
	if d.cfg.SchemaDir != "" {
		if err := load.New(d.cfg.SchemaDir, d, d.log).LoadAll(context.Background()); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// WatchSchemaDir re-applies bootstrap schema files whenever they change
// on disk, until ctx is cancelled. It is a no-op when no schema directory
// is configured; callers run it in its own goroutine.
func (d *Datastore) WatchSchemaDir(ctx context.Context) error {
	if d.cfg.SchemaDir == "" {
		return nil
	}
	return load.New(d.cfg.SchemaDir, d, d.log).Watch(ctx)
}

// Close releases the underlying store.
func (d *Datastore) Close() error { return d.store.Close() }

// Logger returns the datastore's structured logger.
func (d *Datastore) Logger() *zap.Logger { return d.log }

// NewSession returns a Session with no namespace/database selected.
func (d *Datastore) NewSession() *Session {
	return &Session{
		d:       d,
		params:  make(map[string]value.Value),
		options: make(map[string]bool),
		live:    make(map[value.UUID]*livequery.Registration),
	}
}

// StartLiveQueries runs the live-query poll loop until ctx is cancelled,
// reporting per-tick errors through the datastore's logger. Callers run
// it in its own goroutine.
func (d *Datastore) StartLiveQueries(ctx context.Context) {
	d.log.Info("live-query poller starting")
	d.poller.Run(ctx, d.cfg.LivePollInterval, func(err error) {
		d.log.Error("live-query tick failed", zap.Error(err))
	})
}

// PollLiveQueries performs one synchronous poll tick, used by embedders
// (and tests) that want deterministic delivery instead of a background
// loop.
func (d *Datastore) PollLiveQueries(ctx context.Context) error {
	return d.poller.Tick(ctx)
}

// CompactChangefeeds runs one retention pass over every table with a
// change feed configured, returning how many changesets were removed.
// Under an EpochCounter oracle it removes nothing: the versionstamp's Hi is
// a restart counter, not wall-clock seconds (see changefeed.NewCompactor).
func (d *Datastore) CompactChangefeeds(ctx context.Context) (int, error) {
	if _, ok := d.oracle.(*changefeed.EpochCounter); ok {
		return 0, nil
	}
	tables, err := d.changefeedTables(ctx)
	if err != nil {
		return 0, err
	}
	compactor := changefeed.NewCompactor(d.store, tables)
	return compactor.RunOnce(ctx, &retentionSource{d: d})
}

// changefeedTables walks the catalog for every table with a change feed
// enabled, the compactor's working set.
func (d *Datastore) changefeedTables(ctx context.Context) ([]changefeed.TableRef, error) {
	tx, err := d.store.Begin(ctx, kv.TypeRead, kv.LockOptimistic)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Cancel(ctx) }()
	cat := newTxCatalog(ctx, tx, nil)

	var out []changefeed.TableRef
	nss, err := cat.listNames(key.NamespacesPrefix(), key.CategoryNamespace)
	if err != nil {
		return nil, err
	}
	for _, ns := range nss {
		dbs, err := cat.listNames(key.DatabasesPrefix(ns), key.CategoryDatabase)
		if err != nil {
			return nil, err
		}
		for _, db := range dbs {
			tbs, err := cat.listNames(key.TablesPrefix(ns, db), key.CategoryTable)
			if err != nil {
				return nil, err
			}
			for _, tb := range tbs {
				tbl, err := cat.Table(ns, db, tb)
				if err != nil {
					return nil, err
				}
				if tbl.ChangefeedEnabled != nil && *tbl.ChangefeedEnabled {
					out = append(out, changefeed.TableRef{Namespace: ns, Database: db, Table: tb})
				}
			}
		}
	}
	return out, nil
}

// retentionSource resolves a table's retention window from the catalog,
// falling back to the datastore default.
type retentionSource struct {
	d *Datastore
}

// Retention implements changefeed.RetentionSource.
func (r *retentionSource) Retention(ns, db, table string) (time.Duration, bool) {
	ctx := context.Background()
	tx, err := r.d.store.Begin(ctx, kv.TypeRead, kv.LockOptimistic)
	if err != nil {
		return 0, false
	}
	defer func() { _ = tx.Cancel(ctx) }()
	tbl, err := newTxCatalog(ctx, tx, nil).Table(ns, db, table)
	if err != nil {
		return 0, false
	}
	if tbl.ChangefeedEnabled == nil || !*tbl.ChangefeedEnabled {
		return 0, false
	}
	if tbl.ChangefeedRetention > 0 {
		return time.Duration(tbl.ChangefeedRetention), true
	}
	if r.d.cfg.ChangefeedRetention > 0 {
		return r.d.cfg.ChangefeedRetention, true
	}
	return 0, false
}

// epochKey stores the EpochCounter's persisted startup counter under the
// root category.
var epochKey = func() []byte {
	return key.NewEncoder().PutCategory(key.CategoryRoot).PutString("epoch").Bytes()
}()

// nextEpoch increments and persists the restart epoch an EpochCounter is
// seeded from (spec §4.9: "a persisted epoch: u16, incremented on
// startup").
func nextEpoch(store kv.Store) (uint16, error) {
	ctx := context.Background()
	tx, err := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	if err != nil {
		return 0, err
	}
	raw, err := tx.Get(ctx, epochKey)
	if err != nil {
		_ = tx.Cancel(ctx)
		return 0, err
	}
	var epoch uint16
	if len(raw) >= 2 {
		epoch = uint16(raw[0])<<8 | uint16(raw[1])
	}
	epoch++
	if err := tx.Put(ctx, epochKey, []byte{byte(epoch >> 8), byte(epoch)}); err != nil {
		_ = tx.Cancel(ctx)
		return 0, err
	}
	return epoch, tx.Commit(ctx)
}

// Apply implements catalog/load.Applier: bootstrap schema files run
// through a throwaway session so DEFINE statements land exactly the way
// interactive ones do.
func (d *Datastore) Apply(ctx context.Context, query string) error {
	sess := d.NewSession()
	results, err := sess.Execute(ctx, query)
	if err != nil {
		return err
	}
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return veloxdb.NewAggregateError(errs...)
}

// registerFunction records a DEFINE FUNCTION body in the shared
// interpreter registry under its fn:: call name.
func (d *Datastore) registerFunction(name string, fn exec.UserFunc) {
	d.interp.User[strings.ToLower("fn::"+name)] = fn
}

func (d *Datastore) unregisterFunction(name string) {
	delete(d.interp.User, strings.ToLower("fn::"+name))
}
