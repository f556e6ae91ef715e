package datastore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/datastore"
	"github.com/syssam/veloxdb/kv/kvtest"
	"github.com/syssam/veloxdb/livequery"
	"github.com/syssam/veloxdb/value"
)

func openSession(t *testing.T) (*datastore.Datastore, *datastore.Session) {
	t.Helper()
	d, err := datastore.Open(kvtest.New())
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	s := d.NewSession()
	results, err := s.Execute(context.Background(), "USE NAMESPACE test DATABASE test;")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	return d, s
}

// mustRun executes src and requires every statement to succeed, returning
// the last result.
func mustRun(t *testing.T, s *datastore.Session, src string) value.Value {
	t.Helper()
	results, err := s.Execute(context.Background(), src)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for i, r := range results {
		require.NoError(t, r.Err, "statement %d of %q", i, src)
	}
	return results[len(results)-1].Result
}

func rowsOf(t *testing.T, v value.Value) value.Array {
	t.Helper()
	rows, ok := v.AsArray()
	require.True(t, ok, "expected an array result, got %s", v.Kind())
	return rows
}

func TestRecordLifecycle(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `CREATE person:tobie SET name = 'Tobie';`)
	mustRun(t, s, `UPDATE person:tobie SET age = 30;`)
	res := mustRun(t, s, `SELECT * FROM person:tobie;`)

	rows := rowsOf(t, res)
	require.Len(t, rows, 1)
	obj, ok := rows[0].AsObject()
	require.True(t, ok)

	name, _ := obj.Get("name")
	assert.Equal(t, "Tobie", mustString(t, name))
	age, _ := obj.Get("age")
	n, ok := age.AsNumber()
	require.True(t, ok)
	assert.Equal(t, int64(30), n.Int)
	idv, _ := obj.Get("id")
	id, ok := idv.AsRecordID()
	require.True(t, ok)
	assert.Equal(t, "person:tobie", id.String())
}

func TestSelectWhereFiltersRows(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `CREATE person:a SET name = 'a', age = 10;`)
	mustRun(t, s, `CREATE person:b SET name = 'b', age = 30;`)
	res := mustRun(t, s, `SELECT * FROM person WHERE age > 18;`)
	rows := rowsOf(t, res)
	require.Len(t, rows, 1)
	obj, _ := rows[0].AsObject()
	name, _ := obj.Get("name")
	assert.Equal(t, "b", mustString(t, name))
}

func TestSelectProjectionAndOrder(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `CREATE person:a SET name = 'zoe', age = 10;`)
	mustRun(t, s, `CREATE person:b SET name = 'amy', age = 30;`)
	res := mustRun(t, s, `SELECT name FROM person ORDER BY name LIMIT 2;`)
	rows := rowsOf(t, res)
	require.Len(t, rows, 2)

	want := []string{"amy", "zoe"}
	got := make([]string, 0, 2)
	for _, row := range rows {
		obj, _ := row.AsObject()
		name, _ := obj.Get("name")
		got = append(got, mustString(t, name))
	}
	assert.Empty(t, cmp.Diff(want, got))
}

func TestGraphTraversal(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `CREATE user:tobie SET name = 'Tobie';`)
	mustRun(t, s, `CREATE product:phone SET price = 500;`)
	mustRun(t, s, `RELATE user:tobie->bought->product:phone SET payment = 'VISA';`)

	res := mustRun(t, s, `SELECT *, ->bought->product.* AS products FROM user:tobie;`)
	rows := rowsOf(t, res)
	require.Len(t, rows, 1)
	obj, _ := rows[0].AsObject()

	name, _ := obj.Get("name")
	assert.Equal(t, "Tobie", mustString(t, name))

	productsV, ok := obj.Get("products")
	require.True(t, ok)
	products, ok := productsV.AsArray()
	require.True(t, ok)
	require.Len(t, products, 1)
	product, ok := products[0].AsObject()
	require.True(t, ok)
	price, _ := product.Get("price")
	n, ok := price.AsNumber()
	require.True(t, ok)
	assert.Equal(t, int64(500), n.Int)
}

func TestFetchResolvesRecordIDs(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `CREATE user:tobie SET name = 'Tobie';`)
	mustRun(t, s, `CREATE product:phone SET price = 500;`)
	mustRun(t, s, `RELATE user:tobie->bought->product:phone;`)

	res := mustRun(t, s, `SELECT *, ->bought AS purchases FROM user:tobie FETCH purchases;`)
	rows := rowsOf(t, res)
	require.Len(t, rows, 1)
	obj, _ := rows[0].AsObject()
	purchasesV, _ := obj.Get("purchases")
	purchases, ok := purchasesV.AsArray()
	require.True(t, ok)
	require.Len(t, purchases, 1)
	// FETCH replaced the bare record id with the full document.
	doc, ok := purchases[0].AsObject()
	require.True(t, ok)
	_, hasPrice := doc.Get("price")
	assert.True(t, hasPrice)
}

func TestFetchRejectsNonIdiomArgument(t *testing.T) {
	_, s := openSession(t)
	_, err := s.Execute(context.Background(), `SELECT * FROM user FETCH 1.5;`)
	require.Error(t, err)
	var fetchErr *veloxdb.InvalidFetchError
	assert.True(t, errors.As(err, &fetchErr))
}

func TestUniqueIndexViolation(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `DEFINE INDEX email_idx ON user FIELDS email UNIQUE;`)
	mustRun(t, s, `CREATE user:1 SET email = 'a@x';`)

	results, err := s.Execute(context.Background(), `CREATE user:2 SET email = 'a@x';`)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)

	var dup *veloxdb.IndexAlreadyContainsError
	require.True(t, errors.As(results[0].Err, &dup))
	assert.Equal(t, "email_idx", dup.Index)
	assert.Equal(t, "user:1", dup.Record)

	// The failed create must not have left the record behind.
	rows := rowsOf(t, mustRun(t, s, `SELECT * FROM user:2;`))
	assert.Empty(t, rows)
}

func TestTransactionAtomicity(t *testing.T) {
	_, s := openSession(t)
	results, err := s.Execute(context.Background(), `
		BEGIN;
		CREATE account:a SET balance = 100;
		CREATE account:a SET balance = 200;
		COMMIT;
	`)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.True(t, errors.Is(results[1].Err, veloxdb.ErrAlreadyExists))

	rows := rowsOf(t, mustRun(t, s, `SELECT * FROM account:a;`))
	assert.Empty(t, rows, "whole transaction must have been cancelled")
}

func TestExplicitCancelDiscardsWrites(t *testing.T) {
	_, s := openSession(t)
	results, err := s.Execute(context.Background(), `
		BEGIN;
		CREATE account:b SET balance = 100;
		CANCEL;
	`)
	require.NoError(t, err)
	require.NoError(t, results[0].Err)

	rows := rowsOf(t, mustRun(t, s, `SELECT * FROM account:b;`))
	assert.Empty(t, rows)
}

func TestLiveQueryNotifications(t *testing.T) {
	d, s := openSession(t)
	ctx := context.Background()
	mustRun(t, s, `DEFINE TABLE product CHANGEFEED 1h;`)

	liveRes := mustRun(t, s, `LIVE SELECT * FROM product WHERE price > 100;`)
	id, ok := liveRes.AsUUID()
	require.True(t, ok)
	ch := s.Notifications(id)
	require.NotNil(t, ch)

	mustRun(t, s, `CREATE product:x SET price = 200;`)
	require.NoError(t, d.PollLiveQueries(ctx))
	n := <-ch
	assert.Equal(t, livequery.ActionCreate, n.Action)
	assert.Equal(t, "product:x", n.Record.String())

	mustRun(t, s, `UPDATE product:x SET price = 150;`)
	require.NoError(t, d.PollLiveQueries(ctx))
	n = <-ch
	assert.Equal(t, livequery.ActionUpdate, n.Action)

	// Dropping below the condition suppresses the notification.
	mustRun(t, s, `UPDATE product:x SET price = 50;`)
	require.NoError(t, d.PollLiveQueries(ctx))
	select {
	case n := <-ch:
		t.Fatalf("unexpected notification %v", n)
	default:
	}

	// KILL stops any further delivery.
	s.SetParam("id", value.UUIDValue(id))
	mustRun(t, s, `KILL $id;`)
	mustRun(t, s, `UPDATE product:x SET price = 300;`)
	require.NoError(t, d.PollLiveQueries(ctx))
	select {
	case n := <-ch:
		t.Fatalf("notification after KILL: %v", n)
	default:
	}
}

func TestIndexVisibleAfterDefineInSameTransaction(t *testing.T) {
	_, s := openSession(t)
	results, err := s.Execute(context.Background(), `
		BEGIN;
		INFO FOR TABLE person;
		DEFINE INDEX name_idx ON person FIELDS name;
		INFO FOR TABLE person;
		COMMIT;
	`)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err)
	}

	before, _ := results[0].Result.AsObject()
	beforeIdx, _ := before.Get("indexes")
	beforeObj, _ := beforeIdx.AsObject()
	assert.Equal(t, 0, beforeObj.Len())

	after, _ := results[2].Result.AsObject()
	afterIdx, _ := after.Get("indexes")
	afterObj, _ := afterIdx.AsObject()
	_, found := afterObj.Get("name_idx")
	assert.True(t, found, "freshly defined index must be visible in the same transaction")

	// And in a fresh transaction too.
	info, _ := mustRun(t, s, `INFO FOR TABLE person;`).AsObject()
	idxs, _ := info.Get("indexes")
	idxObj, _ := idxs.AsObject()
	_, found = idxObj.Get("name_idx")
	assert.True(t, found)
}

func TestExplainReportsPlan(t *testing.T) {
	_, s := openSession(t)
	res := mustRun(t, s, `SELECT name FROM person WHERE age > 18 EXPLAIN;`)
	rows := rowsOf(t, res)
	require.NotEmpty(t, rows)
	first, ok := rows[0].AsObject()
	require.True(t, ok)
	_, hasOp := first.Get("operation")
	assert.True(t, hasOp)
}

func TestLetAndReturn(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `LET $n = 5;`)
	res := mustRun(t, s, `RETURN $n + 1;`)
	n, ok := res.AsNumber()
	require.True(t, ok)
	assert.Equal(t, int64(6), n.Int)
}

func TestGroupByAggregates(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `CREATE sale:1 SET city = 'nyc', total = 10;`)
	mustRun(t, s, `CREATE sale:2 SET city = 'nyc', total = 20;`)
	mustRun(t, s, `CREATE sale:3 SET city = 'sfo', total = 5;`)

	res := mustRun(t, s, `SELECT city, math::sum(total) AS total FROM sale GROUP BY city;`)
	rows := rowsOf(t, res)
	require.Len(t, rows, 2)
	totals := map[string]float64{}
	for _, row := range rows {
		obj, _ := row.AsObject()
		city, _ := obj.Get("city")
		total, _ := obj.Get("total")
		n, ok := total.AsNumber()
		require.True(t, ok)
		totals[mustString(t, city)] = n.AsFloat64()
	}
	assert.Empty(t, cmp.Diff(map[string]float64{"nyc": 30, "sfo": 5}, totals))
}

func TestDeleteRemovesRows(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `CREATE person:a SET age = 10;`)
	mustRun(t, s, `CREATE person:b SET age = 30;`)
	mustRun(t, s, `DELETE person WHERE age < 18;`)
	rows := rowsOf(t, mustRun(t, s, `SELECT * FROM person;`))
	require.Len(t, rows, 1)
}

func TestUpsertCreatesWhenMissing(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `UPSERT counter:hits SET count = 1;`)
	rows := rowsOf(t, mustRun(t, s, `SELECT * FROM counter:hits;`))
	require.Len(t, rows, 1)
	mustRun(t, s, `UPSERT counter:hits SET count = 2;`)
	rows = rowsOf(t, mustRun(t, s, `SELECT * FROM counter:hits;`))
	require.Len(t, rows, 1)
	obj, _ := rows[0].AsObject()
	count, _ := obj.Get("count")
	n, _ := count.AsNumber()
	assert.Equal(t, int64(2), n.Int)
}

func TestFieldAssertRejectsWrite(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `DEFINE FIELD age ON TABLE person TYPE number ASSERT age >= 0;`)
	results, err := s.Execute(context.Background(), `CREATE person:bad SET age = -1;`)
	require.NoError(t, err)
	require.Error(t, results[0].Err)
}

func TestUserDefinedFunction(t *testing.T) {
	_, s := openSession(t)
	mustRun(t, s, `DEFINE FUNCTION greet($name: string) { RETURN 'hello ' + $name; };`)
	res := mustRun(t, s, `RETURN fn::greet('tobie');`)
	assert.Equal(t, "hello tobie", mustString(t, res))
}

func mustString(t *testing.T, v value.Value) string {
	t.Helper()
	sv, ok := v.AsString()
	require.True(t, ok, "expected string, got %s", v.Kind())
	return sv
}
