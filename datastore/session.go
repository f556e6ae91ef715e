package datastore

import (
	"context"
	"time"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/changefeed"
	"github.com/syssam/veloxdb/catalog"
	"github.com/syssam/veloxdb/exec"
	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/kv/txcache"
	"github.com/syssam/veloxdb/livequery"
	"github.com/syssam/veloxdb/planner"
	"github.com/syssam/veloxdb/syn/ast"
	"github.com/syssam/veloxdb/syn/parser"
	"github.com/syssam/veloxdb/value"
)

// Session is one caller's connection-equivalent: the current USE scope,
// bound parameters, session options, and the live queries it owns. A
// Session is not safe for concurrent use; open one per goroutine.
type Session struct {
	d       *Datastore
	ns, db  string
	params  map[string]value.Value
	options map[string]bool
	live    map[value.UUID]*livequery.Registration
}

// QueryResult is one top-level statement's outcome (spec §7: "each
// top-level statement returns a QueryResult { time, result }").
type QueryResult struct {
	Time   time.Duration
	Result value.Value
	Err    error
}

// Execute parses src and runs each statement in order, one QueryResult
// per statement. A parse error fails the whole batch before anything
// runs; execution errors are carried per statement.
func (s *Session) Execute(ctx context.Context, src string) ([]QueryResult, error) {
	p := parser.NewWithLimits(src, parser.Limits{
		QueryRecursionLimit:  s.d.cfg.QueryRecursionLimit,
		ObjectRecursionLimit: s.d.cfg.ObjectRecursionLimit,
	})
	block, err := p.ParseBlock()
	if err != nil {
		return nil, err
	}
	results := make([]QueryResult, 0, len(block.Stmts))
	for _, stmt := range block.Stmts {
		if tx, ok := stmt.(*ast.TransactionStmt); ok {
			results = append(results, s.execTransaction(ctx, tx)...)
			continue
		}
		started := time.Now()
		v, err := s.execTopLevel(ctx, stmt)
		results = append(results, QueryResult{Time: time.Since(started), Result: v, Err: err})
	}
	return results, nil
}

// SetParam binds a session parameter, the programmatic equivalent of LET.
func (s *Session) SetParam(name string, v value.Value) {
	s.params[name] = v
}

// Notifications returns the channel a LIVE query's notifications arrive
// on, or nil for an unknown id.
func (s *Session) Notifications(id value.UUID) <-chan livequery.Notification {
	r, ok := s.live[id]
	if !ok {
		return nil
	}
	return r.Notify()
}

func (s *Session) execTopLevel(ctx context.Context, stmt ast.Stmt) (value.Value, error) {
	switch st := stmt.(type) {
	case *ast.UseStmt:
		if st.Namespace != "" {
			s.ns = st.Namespace
		}
		if st.Database != "" {
			s.db = st.Database
		}
		return value.None, nil

	case *ast.OptionStmt:
		s.options[st.Name] = st.Value
		return value.None, nil

	case *ast.LetStmt:
		v, err := s.evalExpr(ctx, st.Value)
		if err != nil {
			return value.None, err
		}
		s.params[st.Name] = v
		return value.None, nil

	case *ast.InfoStmt:
		return s.execInfo(ctx, st)

	case *ast.LiveStmt:
		return s.execLive(st)

	case *ast.KillStmt:
		return s.execKill(ctx, st)

	case *ast.DefineNamespaceStmt, *ast.DefineDatabaseStmt, *ast.DefineTableStmt,
		*ast.DefineFieldStmt, *ast.DefineIndexStmt, *ast.DefineFunctionStmt,
		*ast.DefineParamStmt, *ast.DefineEventStmt, *ast.DefineAnalyzerStmt,
		*ast.DefineAccessStmt, *ast.DefineUserStmt, *ast.DefineAPIStmt,
		*ast.DefineBucketStmt, *ast.RemoveStmt:
		return s.execSchema(ctx, stmt)

	default:
		return s.execImplicit(ctx, stmt)
	}
}

// execImplicit runs one statement inside its own implicit transaction:
// commit on success, cancel on any error (spec §4.7 "transaction
// discipline").
func (s *Session) execImplicit(ctx context.Context, stmt ast.Stmt) (value.Value, error) {
	ctx, cancel := s.statementContext(ctx, stmt)
	defer cancel()

	typ := kv.TypeWrite
	if ro, ok := statementReadOnly(stmt); ok && ro {
		typ = kv.TypeRead
	}
	tx, err := s.d.store.Begin(ctx, typ, kv.LockOptimistic)
	if err != nil {
		return value.None, err
	}
	v, err := s.runStatement(ctx, tx, txcache.New(), stmt)
	if err != nil {
		_ = tx.Cancel(ctx)
		return value.None, err
	}
	if err := tx.Commit(ctx); err != nil {
		return value.None, err
	}
	return v, nil
}

// execTransaction runs an explicit BEGIN...COMMIT|CANCEL block: every
// contained statement shares one write transaction, any statement error
// skips the rest and cancels everything, and a CANCEL terminator discards
// the writes even on success (spec §4.7).
func (s *Session) execTransaction(ctx context.Context, block *ast.TransactionStmt) []QueryResult {
	results := make([]QueryResult, 0, len(block.Body))
	tx, err := s.d.store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	if err != nil {
		for range block.Body {
			results = append(results, QueryResult{Err: err})
		}
		return results
	}
	cache := txcache.New()
	failed := false
	for _, stmt := range block.Body {
		if failed {
			results = append(results, QueryResult{Err: veloxdb.ErrQueryCancelled})
			continue
		}
		started := time.Now()
		v, err := s.runStatement(ctx, tx, cache, stmt)
		results = append(results, QueryResult{Time: time.Since(started), Result: v, Err: err})
		if err != nil {
			failed = true
		}
	}
	if failed || block.Cancel {
		_ = tx.Cancel(ctx)
		return results
	}
	if err := tx.Commit(ctx); err != nil {
		for i := range results {
			if results[i].Err == nil {
				results[i].Err = err
			}
		}
	}
	return results
}

// runStatement plans and executes one statement against an already-open
// transaction, without committing: implicit statements commit in
// execImplicit, explicit blocks in execTransaction.
func (s *Session) runStatement(ctx context.Context, tx kv.Transaction, cache *txcache.Cache, stmt ast.Stmt) (value.Value, error) {
	cat := newTxCatalog(ctx, tx, cache)
	ec := s.executionContext(ctx, tx, cat)

	// Schema, session, and INFO statements inside an explicit transaction
	// share its tx and cache, so INFO FOR TABLE right after DEFINE INDEX
	// observes the invalidated (not stale) index list.
	switch st := stmt.(type) {
	case *ast.DefineNamespaceStmt, *ast.DefineDatabaseStmt, *ast.DefineTableStmt,
		*ast.DefineFieldStmt, *ast.DefineIndexStmt, *ast.DefineFunctionStmt,
		*ast.DefineParamStmt, *ast.DefineEventStmt, *ast.DefineAnalyzerStmt,
		*ast.DefineAccessStmt, *ast.DefineUserStmt, *ast.DefineAPIStmt,
		*ast.DefineBucketStmt, *ast.RemoveStmt:
		return value.None, s.applySchema(ctx, ec, cat, stmt)
	case *ast.InfoStmt:
		return s.infoInTx(ctx, cat, st)
	case *ast.UseStmt, *ast.OptionStmt, *ast.LetStmt, *ast.LiveStmt, *ast.KillStmt:
		return s.execTopLevel(ctx, stmt)
	}

	fctx := &planner.FrozenContext{Namespace: s.ns, Database: s.db, Params: s.params}
	plan, err := planner.PlanStatement(cat, fctx, stmt)
	if err != nil {
		if !veloxdb.IsUnimplemented(err) {
			return value.None, err
		}
		// Interpreter fallback over the same frozen context (spec §4.6).
		return s.interpret(ctx, ec, stmt)
	}

	if sel, ok := selectOf(stmt); ok && sel.Explain {
		return value.ArrayValue(planner.Explain(plan)), nil
	}

	deps := exec.BuildDeps{
		Namespace: s.ns,
		Database:  s.db,
		Catalog:   cat,
		ChangeLog: &txChangeLogger{log: s.d.chlog, tx: tx, cat: cat},
	}
	if sel, ok := selectOf(stmt); ok {
		deps.Parallel = sel.Parallel
	}
	op, err := exec.Build(plan, deps)
	if err != nil {
		if !veloxdb.IsUnimplemented(err) {
			return value.None, err
		}
		return s.interpret(ctx, ec, stmt)
	}

	batch, err := exec.Drain(ctx, ec, op)
	if err != nil {
		return value.None, err
	}
	rows := value.Array(batch)

	if sel, ok := selectOf(stmt); ok && len(sel.Split) > 0 {
		rows = splitRows(rows, sel.Split)
	}

	if sel, ok := selectOf(stmt); ok && len(sel.Fetch) > 0 {
		resolver := &txResolver{ctx: ctx, tx: tx, ns: s.ns, db: s.db}
		for i, row := range rows {
			fetched, err := value.Fetch(ctx, resolver, row, sel.Fetch)
			if err != nil {
				return value.None, err
			}
			rows[i] = fetched
		}
	}

	if only, ok := statementOnly(stmt); ok && only {
		if len(rows) == 0 {
			return value.None, nil
		}
		return rows[0], nil
	}
	return value.ArrayValue(rows), nil
}

// interpret evaluates a statement the planner has no lowering for by
// walking the AST directly. A top-level RETURN becomes the statement's
// result.
func (s *Session) interpret(ctx context.Context, ec *exec.ExecutionContext, stmt ast.Stmt) (value.Value, error) {
	v, cf := s.d.interp.EvalBlock(ctx, ec, &ast.Block{Stmts: []ast.Stmt{stmt}}, value.None)
	switch cf.Kind {
	case exec.CFReturn:
		return cf.Value, nil
	case exec.CFErr:
		return value.None, cf.Err
	case exec.CFBreak, exec.CFContinue:
		return value.None, veloxdb.NewInvalidArgumentsError("statement", "BREAK/CONTINUE outside a loop")
	default:
		return v, nil
	}
}

// evalExpr evaluates one expression in a short-lived read transaction
// (LET bindings, KILL ids).
func (s *Session) evalExpr(ctx context.Context, e ast.Expr) (value.Value, error) {
	tx, err := s.d.store.Begin(ctx, kv.TypeRead, kv.LockOptimistic)
	if err != nil {
		return value.None, err
	}
	defer func() { _ = tx.Cancel(ctx) }()
	ec := s.executionContext(ctx, tx, newTxCatalog(ctx, tx, nil))
	v, cf := s.d.interp.Eval(ctx, ec, e, value.None)
	if cf.IsExceptional() {
		if cf.Kind == exec.CFReturn {
			return cf.Value, nil
		}
		return value.None, cf.Err
	}
	return v, nil
}

// executionContext binds the session's scope into the three-tier runtime
// context the executor consumes. The namespace/database pointers are
// synthesized from the USE scope even before DEFINE has persisted them,
// matching the engine's lazy auto-creation of scopes on first write.
func (s *Session) executionContext(ctx context.Context, tx kv.Transaction, cat *txCatalog) *exec.ExecutionContext {
	ec := &exec.ExecutionContext{
		Level:  planner.ContextRoot,
		Cancel: ctx,
		Tx:     tx,
		Params: s.params,
		Eval:   s.d.interp,
	}
	if s.ns != "" {
		ec.Level = planner.ContextNamespace
		ec.Namespace = &catalog.Namespace{Name: s.ns}
		if ns, err := cat.Namespace(s.ns); err == nil {
			ec.Namespace = ns
		}
	}
	if s.ns != "" && s.db != "" {
		ec.Level = planner.ContextDatabase
		ec.Database = &catalog.Database{Namespace: s.ns, Name: s.db}
		if db, err := cat.Database(s.ns, s.db); err == nil {
			ec.Database = db
		}
	}
	return ec
}

// statementContext applies a SELECT's TIMEOUT clause to the statement's
// context. Expiry fires the cancellation token every operator checks
// between batches, so the statement surfaces ErrQueryCancelled rather
// than a raw deadline error (spec §5 "Timeouts").
func (s *Session) statementContext(ctx context.Context, stmt ast.Stmt) (context.Context, context.CancelFunc) {
	sel, ok := selectOf(stmt)
	if !ok || !sel.HasTimeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, sel.Timeout.AsTimeDuration())
}

// execSchema runs one DEFINE/REMOVE in its own implicit write transaction.
func (s *Session) execSchema(ctx context.Context, stmt ast.Stmt) (value.Value, error) {
	tx, err := s.d.store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	if err != nil {
		return value.None, err
	}
	cache := txcache.New()
	cat := newTxCatalog(ctx, tx, cache)
	ec := s.executionContext(ctx, tx, cat)
	if err := s.applySchema(ctx, ec, cat, stmt); err != nil {
		_ = tx.Cancel(ctx)
		return value.None, err
	}
	if err := tx.Commit(ctx); err != nil {
		return value.None, err
	}
	return value.None, nil
}

func (s *Session) applySchema(ctx context.Context, ec *exec.ExecutionContext, cat *txCatalog, stmt ast.Stmt) error {
	switch st := stmt.(type) {
	case *ast.DefineNamespaceStmt:
		return cat.defineNamespace(st)
	case *ast.DefineDatabaseStmt:
		if s.ns == "" {
			return veloxdb.NewNotFoundError("namespace", "(none selected)")
		}
		return cat.defineDatabase(s.ns, st)
	case *ast.DefineTableStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		return cat.defineTable(s.ns, s.db, st)
	case *ast.DefineFieldStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		return cat.defineField(s.ns, s.db, st)
	case *ast.DefineIndexStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		if err := cat.defineIndex(s.ns, s.db, st); err != nil {
			return err
		}
		return s.backfillIndex(ctx, ec, cat, st)
	case *ast.DefineFunctionStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		if err := cat.defineFunction(s.ns, s.db, st); err != nil {
			return err
		}
		args := make([]string, 0, len(st.Args))
		for _, a := range st.Args {
			args = append(args, a.Name)
		}
		s.d.registerFunction(st.Name, exec.UserFunc{Args: args, Body: st.Body})
		return nil
	case *ast.DefineParamStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		v, err := s.evalExpr(ctx, st.Value)
		if err != nil {
			return err
		}
		if err := cat.defineParam(s.ns, s.db, st, v); err != nil {
			return err
		}
		s.params[st.Name] = v
		return nil
	case *ast.DefineEventStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		return cat.defineEvent(s.ns, s.db, st)
	case *ast.DefineAnalyzerStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		return cat.defineAnalyzer(s.ns, s.db, st)
	case *ast.DefineAccessStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		return cat.defineAccess(s.ns, s.db, st)
	case *ast.DefineUserStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		return cat.defineUser(s.ns, s.db, st)
	case *ast.DefineAPIStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		return cat.defineAPI(s.ns, s.db, st)
	case *ast.DefineBucketStmt:
		if err := s.requireScope(); err != nil {
			return err
		}
		return cat.defineBucket(s.ns, s.db, st)
	case *ast.RemoveStmt:
		if err := cat.remove(s.ns, s.db, st); err != nil {
			return err
		}
		if st.Kind == "function" {
			s.d.unregisterFunction(st.Name)
		}
		return nil
	default:
		return veloxdb.NewUnimplementedError("schema statement")
	}
}

// backfillIndex populates a fresh index from the table's existing rows,
// enforcing uniqueness as it goes, so DEFINE INDEX on a populated table
// behaves like the index had always existed.
func (s *Session) backfillIndex(ctx context.Context, ec *exec.ExecutionContext, cat *txCatalog, st *ast.DefineIndexStmt) error {
	w := &exec.WriteOperator{
		Table:     st.Table,
		Namespace: s.ns,
		Database:  s.db,
		Catalog:   cat,
	}
	prefix := key.RecordTablePrefix(s.ns, s.db, st.Table)
	start, end := prefix, key.PrefixEnd(prefix)
	for {
		pairs, err := ec.Tx.Scan(ctx, start, end, 256)
		if err != nil {
			return err
		}
		if len(pairs) == 0 {
			return nil
		}
		for _, pair := range pairs {
			row, err := kv.DecodeValue(pair.Value)
			if err != nil {
				return err
			}
			if obj, ok := row.AsObject(); ok {
				if idv, ok := obj.Get("id"); ok {
					if id, ok := idv.AsRecordID(); ok {
						if err := w.ReindexRow(ctx, ec, id, row); err != nil {
							return err
						}
					}
				}
			}
		}
		start = append(append([]byte{}, pairs[len(pairs)-1].Key...), 0)
	}
}

func (s *Session) requireScope() error {
	if s.ns == "" {
		return veloxdb.NewNotFoundError("namespace", "(none selected)")
	}
	if s.db == "" {
		return veloxdb.NewNotFoundError("database", "(none selected)")
	}
	return nil
}

// execLive registers a LIVE SELECT with the tracker and returns its id
// (spec §4.9 "Live-query tracker").
func (s *Session) execLive(stmt *ast.LiveStmt) (value.Value, error) {
	if err := s.requireScope(); err != nil {
		return value.None, err
	}
	if len(stmt.Select.From) != 1 || stmt.Select.From[0].Table == "" {
		return value.None, veloxdb.NewInvalidArgumentsError("live", "LIVE SELECT requires a single table target")
	}
	id := value.NewUUID()
	sel := livequery.Selector{Namespace: s.ns, Database: s.db, Table: stmt.Select.From[0].Table}
	var cond any
	if stmt.Select.Where != nil {
		cond = stmt.Select.Where
	}
	var fields any
	if len(stmt.Select.Fields) > 0 {
		fields = stmt.Select.Fields
	}
	reg := s.d.tracker.Register(id, sel, cond, fields, stmt.Diff)
	// A fresh selector starts catching up from "now", not from the
	// beginning of the table's history.
	if s.d.tracker.Watermark(sel) == (changefeed.Versionstamp{}) {
		s.d.tracker.AdvanceWatermark(sel, s.d.oracle.Now())
	}
	s.live[id] = reg
	if err := s.persistLive(id, sel, stmt.Diff, true); err != nil {
		livequery.Kill(s.d.tracker, id)
		delete(s.live, id)
		return value.None, err
	}
	return value.UUIDValue(id), nil
}

// persistLive records (or removes) a live query's catalog entry so the
// registrations can be enumerated from storage even though dispatch state
// itself is process-local. INFO does not report these entries.
func (s *Session) persistLive(id value.UUID, sel livequery.Selector, diff, register bool) error {
	ctx := context.Background()
	tx, err := s.d.store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	if err != nil {
		return err
	}
	k := key.Live(sel.Namespace, sel.Database, sel.Table, id.String())
	if register {
		live := catalog.Live{
			Version:   1,
			Namespace: sel.Namespace,
			Database:  sel.Database,
			Table:     sel.Table,
			ID:        id,
			Diff:      diff,
		}
		raw, merr := encodeLive(live)
		if merr != nil {
			_ = tx.Cancel(ctx)
			return merr
		}
		if err := tx.Put(ctx, k, raw); err != nil {
			_ = tx.Cancel(ctx)
			return err
		}
	} else if err := tx.Delete(ctx, k); err != nil {
		_ = tx.Cancel(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// execKill deregisters a live query by id (spec §4.9 "KILL").
func (s *Session) execKill(ctx context.Context, stmt *ast.KillStmt) (value.Value, error) {
	v, err := s.evalExpr(ctx, stmt.ID)
	if err != nil {
		return value.None, err
	}
	id, ok := v.AsUUID()
	if !ok {
		str, isStr := v.AsString()
		if !isStr {
			return value.None, veloxdb.NewInvalidArgumentsError("kill", "expected a live query uuid")
		}
		id, err = value.UUIDFromString(str)
		if err != nil {
			return value.None, veloxdb.NewInvalidArgumentsError("kill", "expected a live query uuid")
		}
	}
	if reg, ok := s.live[id]; ok {
		_ = s.persistLive(id, reg.Selector, reg.Diff, false)
	}
	if !livequery.Kill(s.d.tracker, id) {
		return value.None, veloxdb.NewNotFoundError("live query", id.String())
	}
	delete(s.live, id)
	return value.None, nil
}

// selectOf unwraps a statement to its SELECT, when it is one.
func selectOf(stmt ast.Stmt) (*ast.SelectStmt, bool) {
	switch st := stmt.(type) {
	case *ast.SelectStmt:
		return st, true
	case *ast.ExprStmt:
		if sel, ok := st.Expr.(*ast.SelectStmt); ok {
			return sel, true
		}
	}
	return nil, false
}

// statementReadOnly reports whether stmt can run in a read transaction.
func statementReadOnly(stmt ast.Stmt) (bool, bool) {
	switch st := stmt.(type) {
	case *ast.SelectStmt, *ast.InfoStmt:
		return true, true
	case *ast.ExprStmt:
		if _, ok := st.Expr.(*ast.SelectStmt); ok {
			return true, true
		}
		return false, true
	default:
		return false, true
	}
}

// statementOnly reports the ONLY flag of statements that carry one.
func statementOnly(stmt ast.Stmt) (bool, bool) {
	switch st := stmt.(type) {
	case *ast.SelectStmt:
		return st.Only, true
	case *ast.CreateStmt:
		return st.Only, true
	case *ast.UpdateStmt:
		return st.Only, true
	case *ast.DeleteStmt:
		return st.Only, true
	case *ast.RelateStmt:
		return st.Only, true
	}
	return false, false
}

// splitRows expands each row into one row per element of the array at a
// SPLIT idiom (spec §6.1 "SPLIT <idioms>"); rows without an array at the
// path pass through unchanged.
func splitRows(rows value.Array, idioms []value.Idiom) value.Array {
	for _, idm := range idioms {
		out := make(value.Array, 0, len(rows))
		for _, row := range rows {
			arr, ok := value.Pick(row, idm).AsArray()
			if !ok {
				out = append(out, row)
				continue
			}
			for _, el := range arr {
				out = append(out, value.Put(row, idm, el))
			}
		}
		rows = out
	}
	return rows
}

// txResolver loads records for FETCH splicing (value.Resolver).
type txResolver struct {
	ctx    context.Context
	tx     kv.Transaction
	ns, db string
}

// Resolve implements value.Resolver.
func (r *txResolver) Resolve(ctx context.Context, id value.RecordID) (value.Value, error) {
	raw, err := r.tx.Get(ctx, key.Record(r.ns, r.db, id.Table, id.Key))
	if err != nil {
		return value.None, err
	}
	if raw == nil {
		return value.None, nil
	}
	return kv.DecodeValue(raw)
}
