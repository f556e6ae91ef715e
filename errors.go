// Package veloxdb is the core of a multi-model document/graph database: a
// transactional storage engine exposing a structured query language that
// blends document, relational, and graph semantics with live subscriptions,
// secondary indexes, and schema-driven validation.
package veloxdb

import (
	"errors"
	"fmt"
)

// Sentinel errors for the transaction lifecycle (spec §7 "Transaction").
var (
	// ErrTxFinished is returned by any operation attempted against a
	// transaction after it has been committed or cancelled.
	ErrTxFinished = errors.New("veloxdb: transaction finished")

	// ErrTxReadonly is returned when a write operation is attempted
	// against a read-only transaction.
	ErrTxReadonly = errors.New("veloxdb: transaction is read-only")

	// ErrTxConditionNotMet is returned when a CAS (putc/delc) operation's
	// expected value does not match the current stored value.
	ErrTxConditionNotMet = errors.New("veloxdb: value did not match the expected value")

	// ErrTxRetry signals that the caller should retry the transaction
	// after a serialization conflict on commit.
	ErrTxRetry = errors.New("veloxdb: transaction conflict, retry")

	// ErrQueryCancelled is returned when a statement's cancellation token
	// fires (TIMEOUT expiry or explicit KILL of the owning session).
	ErrQueryCancelled = errors.New("veloxdb: query cancelled")

	// ErrComputationDepthExceeded is returned when a recursive structure
	// (Idiom recursion, function call depth) exceeds its configured bound.
	ErrComputationDepthExceeded = errors.New("veloxdb: computation depth exceeded")
)

// NotFoundError is returned when a requested catalog or record entity does
// not exist. Kind distinguishes namespace/database/table/etc.
type NotFoundError struct {
	Kind string // "namespace", "database", "table", "field", "index", ...
	Name string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("veloxdb: %s %q not found", e.Kind, e.Name)
}

// Is reports whether target is the generic ErrNotFound sentinel, so
// errors.Is(err, ErrNotFound) succeeds regardless of Kind.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ErrNotFound is the generic sentinel behind every NotFoundError.
var ErrNotFound = errors.New("veloxdb: not found")

// NewNotFoundError returns a NotFoundError for the given catalog kind/name.
func NewNotFoundError(kind, name string) *NotFoundError { return &NotFoundError{Kind: kind, Name: name} }

// AlreadyExistsError is returned by DEFINE statements without IF NOT EXISTS
// when the target already exists (e.g. TbAlreadyExists).
type AlreadyExistsError struct {
	Kind string
	Name string
}

// Error implements the error interface.
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("veloxdb: %s %q already exists", e.Kind, e.Name)
}

// Is reports whether target is the generic ErrAlreadyExists sentinel.
func (e *AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// ErrAlreadyExists is the generic sentinel behind every AlreadyExistsError.
var ErrAlreadyExists = errors.New("veloxdb: already exists")

// NewAlreadyExistsError returns an AlreadyExistsError for kind/name.
func NewAlreadyExistsError(kind, name string) *AlreadyExistsError {
	return &AlreadyExistsError{Kind: kind, Name: name}
}

// FieldCheckError is returned when a FieldDefinition's ASSERT expression
// rejects the value being written.
type FieldCheckError struct {
	Field string
	Value any
}

// Error implements the error interface.
func (e *FieldCheckError) Error() string {
	return fmt.Sprintf("veloxdb: field %q check failed for value %v", e.Field, e.Value)
}

// NewFieldCheckError returns a FieldCheckError for the given field/value.
func NewFieldCheckError(field string, value any) *FieldCheckError {
	return &FieldCheckError{Field: field, Value: value}
}

// IndexAlreadyContainsError is a unique-index violation; it carries the
// colliding value and the record that already holds it (spec §7, §8
// scenario 4).
type IndexAlreadyContainsError struct {
	Index  string
	Value  []any
	Record string // RecordId rendered as "table:key"
}

// Error implements the error interface.
func (e *IndexAlreadyContainsError) Error() string {
	return fmt.Sprintf("veloxdb: index %q already contains %v, in record %s", e.Index, e.Value, e.Record)
}

// NewIndexAlreadyContainsError returns an IndexAlreadyContainsError.
func NewIndexAlreadyContainsError(index string, value []any, record string) *IndexAlreadyContainsError {
	return &IndexAlreadyContainsError{Index: index, Value: value, Record: record}
}

// ConvertError represents a failed value coercion/cast (spec §4.1
// coerce_to/cast_to).
type ConvertError struct {
	From string
	Into string
}

// Error implements the error interface.
func (e *ConvertError) Error() string {
	return fmt.Sprintf("veloxdb: cannot convert value of type %q into %q", e.From, e.Into)
}

// NewConvertError returns a ConvertError for the given type names.
func NewConvertError(from, into string) *ConvertError { return &ConvertError{From: from, Into: into} }

// InvalidArgumentsError is returned by function calls invoked with the
// wrong arity or argument types.
type InvalidArgumentsError struct {
	Name    string
	Message string
}

// Error implements the error interface.
func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("veloxdb: invalid arguments for %s(): %s", e.Name, e.Message)
}

// NewInvalidArgumentsError returns an InvalidArgumentsError.
func NewInvalidArgumentsError(name, message string) *InvalidArgumentsError {
	return &InvalidArgumentsError{Name: name, Message: message}
}

// InvalidFetchError is returned when a FETCH clause argument is not a
// string idiom (spec §8 scenario 3).
type InvalidFetchError struct {
	Value any
}

// Error implements the error interface.
func (e *InvalidFetchError) Error() string {
	return fmt.Sprintf("veloxdb: invalid FETCH value %v, expected an idiom", e.Value)
}

// NewInvalidFetchError returns an InvalidFetchError.
func NewInvalidFetchError(value any) *InvalidFetchError { return &InvalidFetchError{Value: value} }

// ReturnCoerceError is returned when a function or closure's declared
// return type rejects its computed value.
type ReturnCoerceError struct {
	Name  string
	Inner error
}

// Error implements the error interface.
func (e *ReturnCoerceError) Error() string {
	return fmt.Sprintf("veloxdb: return value of %s could not be coerced: %v", e.Name, e.Inner)
}

// Unwrap returns the underlying coercion error.
func (e *ReturnCoerceError) Unwrap() error { return e.Inner }

// NewReturnCoerceError returns a ReturnCoerceError.
func NewReturnCoerceError(name string, inner error) *ReturnCoerceError {
	return &ReturnCoerceError{Name: name, Inner: inner}
}

// PatchTestFailError is returned by the JSON-Patch "test" op when the
// document value at path does not equal the expected value.
type PatchTestFailError struct {
	Path     string
	Expected any
	Got      any
}

// Error implements the error interface.
func (e *PatchTestFailError) Error() string {
	return fmt.Sprintf("veloxdb: patch test failed at %q: expected %v, got %v", e.Path, e.Expected, e.Got)
}

// NewPatchTestFailError returns a PatchTestFailError.
func NewPatchTestFailError(path string, expected, got any) *PatchTestFailError {
	return &PatchTestFailError{Path: path, Expected: expected, Got: got}
}

// InvalidPatchError is returned for a malformed or inapplicable patch
// operation (unknown op, missing path, type mismatch for "move"/"copy").
type InvalidPatchError struct {
	Message string
}

// Error implements the error interface.
func (e *InvalidPatchError) Error() string { return fmt.Sprintf("veloxdb: invalid patch: %s", e.Message) }

// NewInvalidPatchError returns an InvalidPatchError.
func NewInvalidPatchError(message string) *InvalidPatchError { return &InvalidPatchError{Message: message} }

// BucketPermissionsError is returned when a bucket/file operation is
// denied by the bucket's permission policy.
type BucketPermissionsError struct {
	Name string
	Kind string // "select" | "create" | "update" | "delete"
}

// Error implements the error interface.
func (e *BucketPermissionsError) Error() string {
	return fmt.Sprintf("veloxdb: %s not permitted on bucket %q", e.Kind, e.Name)
}

// NewBucketPermissionsError returns a BucketPermissionsError.
func NewBucketPermissionsError(name, kind string) *BucketPermissionsError {
	return &BucketPermissionsError{Name: name, Kind: kind}
}

// NotAllowedError is returned when a table-level permission policy denies
// a CREATE/INSERT for the current auth/cursor row; rows an UPDATE or DELETE
// is not permitted to touch are skipped rather than reported.
type NotAllowedError struct {
	Table string
	Kind  string
}

// Error implements the error interface.
func (e *NotAllowedError) Error() string {
	return fmt.Sprintf("veloxdb: %s not allowed on table %q", e.Kind, e.Table)
}

// NewNotAllowedError returns a NotAllowedError.
func NewNotAllowedError(table, kind string) *NotAllowedError {
	return &NotAllowedError{Table: table, Kind: kind}
}

// ThrownError carries the value of a THROW statement out of the executor
// as an ordinary error (spec §7: THROW aborts the current statement; the
// thrown value is the user-visible message).
type ThrownError struct {
	Value any
}

// Error implements the error interface.
func (e *ThrownError) Error() string { return fmt.Sprintf("veloxdb: an error occurred: %v", e.Value) }

// NewThrownError wraps a thrown value as an error.
func NewThrownError(value any) *ThrownError { return &ThrownError{Value: value} }

// UnimplementedError signals the planner could not lower an expression to
// a physical operator; the executor falls back to interpreting the AST
// directly for that subtree (spec §4.7 "Deferred planning").
type UnimplementedError struct {
	What string
}

// Error implements the error interface.
func (e *UnimplementedError) Error() string { return fmt.Sprintf("veloxdb: unimplemented: %s", e.What) }

// NewUnimplementedError returns an UnimplementedError.
func NewUnimplementedError(what string) *UnimplementedError { return &UnimplementedError{What: what} }

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// IsAlreadyExists returns true if the error is an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	var e *AlreadyExistsError
	return errors.As(err, &e) || errors.Is(err, ErrAlreadyExists)
}

// IsFieldCheck returns true if the error is a FieldCheckError.
func IsFieldCheck(err error) bool {
	if err == nil {
		return false
	}
	var e *FieldCheckError
	return errors.As(err, &e)
}

// IsIndexAlreadyContains returns true if the error is an
// IndexAlreadyContainsError.
func IsIndexAlreadyContains(err error) bool {
	if err == nil {
		return false
	}
	var e *IndexAlreadyContainsError
	return errors.As(err, &e)
}

// IsConvert returns true if the error is a ConvertError.
func IsConvert(err error) bool {
	if err == nil {
		return false
	}
	var e *ConvertError
	return errors.As(err, &e)
}

// IsInvalidArguments returns true if the error is an InvalidArgumentsError.
func IsInvalidArguments(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidArgumentsError
	return errors.As(err, &e)
}

// IsInvalidFetch returns true if the error is an InvalidFetchError.
func IsInvalidFetch(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidFetchError
	return errors.As(err, &e)
}

// IsPatchTestFail returns true if the error is a PatchTestFailError.
func IsPatchTestFail(err error) bool {
	if err == nil {
		return false
	}
	var e *PatchTestFailError
	return errors.As(err, &e)
}

// IsInvalidPatch returns true if the error is an InvalidPatchError.
func IsInvalidPatch(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidPatchError
	return errors.As(err, &e)
}

// IsBucketPermissions returns true if the error is a
// BucketPermissionsError.
func IsBucketPermissions(err error) bool {
	if err == nil {
		return false
	}
	var e *BucketPermissionsError
	return errors.As(err, &e)
}

// IsNotAllowed returns true if the error is a NotAllowedError.
func IsNotAllowed(err error) bool {
	if err == nil {
		return false
	}
	var e *NotAllowedError
	return errors.As(err, &e)
}

// IsThrown returns true if the error is a ThrownError.
func IsThrown(err error) bool {
	if err == nil {
		return false
	}
	var e *ThrownError
	return errors.As(err, &e)
}

// IsUnimplemented returns true if the error is an UnimplementedError.
func IsUnimplemented(err error) bool {
	if err == nil {
		return false
	}
	var e *UnimplementedError
	return errors.As(err, &e)
}

// IsReturnCoerce returns true if the error is a ReturnCoerceError.
func IsReturnCoerce(err error) bool {
	if err == nil {
		return false
	}
	var e *ReturnCoerceError
	return errors.As(err, &e)
}

// AggregateError collects multiple independent errors, e.g. from a patch
// operation's rollback path or a FOREACH body that accumulates failures.
type AggregateError struct {
	Errors []error
}

// Error implements the error interface.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "veloxdb: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("veloxdb: %d errors:", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("\n  [%d] %v", i+1, err)
	}
	return msg
}

// NewAggregateError returns an AggregateError, collapsing to a single
// error (or nil) when possible.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return &AggregateError{Errors: filtered}
	}
}
