package veloxdb_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb"
)

func TestNotFoundError(t *testing.T) {
	t.Run("Error", func(t *testing.T) {
		err := veloxdb.NewNotFoundError("table", "person")
		assert.Equal(t, `veloxdb: table "person" not found`, err.Error())
	})

	t.Run("Is", func(t *testing.T) {
		err := veloxdb.NewNotFoundError("namespace", "test")
		assert.True(t, errors.Is(err, veloxdb.ErrNotFound))

		wrapped := fmt.Errorf("wrapper: %w", err)
		assert.True(t, errors.Is(wrapped, veloxdb.ErrNotFound))

		assert.False(t, errors.Is(errors.New("other"), veloxdb.ErrNotFound))
	})
}

func TestAlreadyExistsError(t *testing.T) {
	err := veloxdb.NewAlreadyExistsError("table", "account")
	assert.Equal(t, `veloxdb: table "account" already exists`, err.Error())
	assert.True(t, errors.Is(err, veloxdb.ErrAlreadyExists))
}

func TestIndexAlreadyContainsError(t *testing.T) {
	err := veloxdb.NewIndexAlreadyContainsError("email_idx", []any{"a@x"}, "user:1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email_idx")
	assert.Contains(t, err.Error(), "user:1")
}

func TestConvertError(t *testing.T) {
	err := veloxdb.NewConvertError("string", "int")
	assert.Equal(t, `veloxdb: cannot convert value of type "string" into "int"`, err.Error())
}

func TestReturnCoerceError(t *testing.T) {
	underlying := errors.New("not a number")
	err := veloxdb.NewReturnCoerceError("myFunc", underlying)
	assert.True(t, errors.Is(err, underlying))
}

func TestPatchTestFailError(t *testing.T) {
	err := veloxdb.NewPatchTestFailError("/name", "Tobie", "Jaime")
	assert.Contains(t, err.Error(), "/name")
	assert.Contains(t, err.Error(), "Tobie")
	assert.Contains(t, err.Error(), "Jaime")
}

func TestNotAllowedError(t *testing.T) {
	err := veloxdb.NewNotAllowedError("account", "update")
	assert.Equal(t, `veloxdb: update not allowed on table "account"`, err.Error())
}

func TestUnimplementedError(t *testing.T) {
	err := veloxdb.NewUnimplementedError("vector KNN in interpreter path")
	assert.Contains(t, err.Error(), "unimplemented")
}

func TestAggregateError(t *testing.T) {
	t.Run("NoErrors", func(t *testing.T) {
		assert.Nil(t, veloxdb.NewAggregateError())
	})

	t.Run("SingleError", func(t *testing.T) {
		single := errors.New("single")
		assert.Equal(t, single, veloxdb.NewAggregateError(nil, single, nil))
	})

	t.Run("MultipleErrors", func(t *testing.T) {
		e1, e2 := errors.New("e1"), errors.New("e2")
		err := veloxdb.NewAggregateError(e1, e2)
		require.NotNil(t, err)
		assert.Contains(t, err.Error(), "e1")
		assert.Contains(t, err.Error(), "e2")
	})
}

func TestSentinelErrors(t *testing.T) {
	assert.ErrorContains(t, veloxdb.ErrTxFinished, "transaction finished")
	assert.ErrorContains(t, veloxdb.ErrTxReadonly, "read-only")
	assert.ErrorContains(t, veloxdb.ErrTxConditionNotMet, "expected value")
	assert.ErrorContains(t, veloxdb.ErrQueryCancelled, "cancelled")
}
