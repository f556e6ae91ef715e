// Package exec implements the pull-based streaming operator graph a
// planner.OperatorPlan lowers to: each operator pulls row batches from
// its children, evaluates its own work, and hands batches upstream,
// honoring a cancellation token between batches (spec §4.8 "Executor").
package exec

import "github.com/syssam/veloxdb/value"

// ControlFlowKind distinguishes a normal row batch from the early-exit
// signals a RETURN/BREAK/CONTINUE/THROW inside a nested expression can
// raise mid-stream, plus the stream's own end-of-input signal (spec §9
// "ControlFlow" sum type: Return/Break/Continue/Err, extended here with
// Done since Go has no built-in async-stream terminator).
type ControlFlowKind uint8

const (
	CFNormal ControlFlowKind = iota
	CFDone
	CFReturn
	CFBreak
	CFContinue
	CFErr
)

// ControlFlow carries one of the above signals plus whatever payload it
// needs: a RETURN value, or an error.
type ControlFlow struct {
	Kind  ControlFlowKind
	Value value.Value
	Err   error
}

// Normal signals a valid batch was produced; pulling may continue.
func Normal() ControlFlow { return ControlFlow{Kind: CFNormal} }

// Done signals the stream is exhausted.
func Done() ControlFlow { return ControlFlow{Kind: CFDone} }

// Return signals a RETURN statement unwound the current statement/closure
// with v as its value.
func Return(v value.Value) ControlFlow { return ControlFlow{Kind: CFReturn, Value: v} }

// Break signals a BREAK unwound the innermost FOR loop.
func Break() ControlFlow { return ControlFlow{Kind: CFBreak} }

// Continue signals a CONTINUE skipped to the next FOR loop iteration.
func Continue() ControlFlow { return ControlFlow{Kind: CFContinue} }

// Err wraps a Go error (including a THROWn value surfaced as an error) as
// a control-flow signal, so callers can propagate failure the same way
// they propagate RETURN/BREAK/CONTINUE without a second return channel.
func Err(err error) ControlFlow { return ControlFlow{Kind: CFErr, Err: err} }

// IsExceptional reports whether cf should abort the enclosing operator
// chain rather than simply end this one stream (Return/Break/Continue/Err
// all unwind further than "this operator is out of rows").
func (cf ControlFlow) IsExceptional() bool {
	return cf.Kind != CFNormal && cf.Kind != CFDone
}
