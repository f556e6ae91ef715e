package value

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/veloxdb"
)

// Resolver loads the record a RecordId points to. The storage layer
// supplies the implementation; this package only depends on the interface
// so FETCH can recurse through pick.go without importing kv/catalog.
type Resolver interface {
	Resolve(ctx context.Context, id RecordID) (Value, error)
}

// Fetch walks every idiom in idioms and, wherever it resolves to a
// RecordId (or an Array/Set of them), replaces it in place with the
// resolved record fetched through r (spec §4.1 "FETCH clause"). Distinct
// idioms are resolved concurrently via errgroup, the way the teacher's
// loader batches independent lookups.
func Fetch(ctx context.Context, r Resolver, root Value, idioms []Idiom) (Value, error) {
	for _, idm := range idioms {
		if !validFetchIdiom(idm) {
			return root, veloxdb.NewInvalidFetchError(idm.String())
		}
	}

	results := make([]Value, len(idioms))
	g, gctx := errgroup.WithContext(ctx)
	for i, idm := range idioms {
		i, idm := i, idm
		g.Go(func() error {
			target := Pick(root, idm)
			resolved, err := resolveDeep(gctx, r, target)
			if err != nil {
				return err
			}
			results[i] = resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return root, err
	}

	out := root
	for i, idm := range idioms {
		out = Put(out, idm, results[i])
	}
	return out, nil
}

func validFetchIdiom(idm Idiom) bool { return len(idm) > 0 }

func resolveDeep(ctx context.Context, r Resolver, v Value) (Value, error) {
	switch v.Kind() {
	case KindRecordID:
		id, _ := v.AsRecordID()
		return r.Resolve(ctx, id)
	case KindArray:
		a, _ := v.AsArray()
		out := make(Array, len(a))
		for i, e := range a {
			resolved, err := resolveDeep(ctx, r, e)
			if err != nil {
				return v, err
			}
			out[i] = resolved
		}
		return ArrayValue(out), nil
	case KindSet:
		a, _ := v.AsSet()
		out := make(Array, len(a))
		for i, e := range a {
			resolved, err := resolveDeep(ctx, r, e)
			if err != nil {
				return v, err
			}
			out[i] = resolved
		}
		return SetValue(out), nil
	default:
		return v, nil
	}
}
