package value

import (
	"github.com/syssam/veloxdb"
)

// PatchOp names a JSON-Patch (RFC 6902) operation, plus the "change" op
// describing a text diff (spec §3 "Value" / §4.1 "PATCH").
type PatchOp string

const (
	PatchAdd     PatchOp = "add"
	PatchRemove  PatchOp = "remove"
	PatchReplace PatchOp = "replace"
	PatchMove    PatchOp = "move"
	PatchCopy    PatchOp = "copy"
	PatchTest    PatchOp = "test"
	// PatchChange applies a line-oriented unified diff to a string field,
	// a variant not present in plain RFC 6902 (grounded on the original
	// implementation's Operation::Change).
	PatchChange PatchOp = "change"
)

// Patch is a single patch operation.
type Patch struct {
	Op    PatchOp
	Path  Idiom
	From  Idiom // move/copy source
	Value Value // add/replace/test value, or change's diff text (as a String)
}

// ApplyPatches applies ops to v in order, short-circuiting on the first
// error (spec §4.1 "PATCH": patch application is all-or-nothing).
func ApplyPatches(v Value, ops []Patch) (Value, error) {
	cur := v
	for _, op := range ops {
		next, err := applyOne(cur, op)
		if err != nil {
			return v, err
		}
		cur = next
	}
	return cur, nil
}

func applyOne(v Value, op Patch) (Value, error) {
	switch op.Op {
	case PatchAdd, PatchReplace:
		return Put(v, op.Path, op.Value), nil
	case PatchRemove:
		return Del(v, op.Path), nil
	case PatchMove:
		moved := Pick(v, op.From)
		return Put(Del(v, op.From), op.Path, moved), nil
	case PatchCopy:
		copied := Pick(v, op.From)
		return Put(v, op.Path, copied), nil
	case PatchTest:
		got := Pick(v, op.Path)
		if !got.Equal(op.Value) {
			return v, veloxdb.NewPatchTestFailError(op.Path.String(), op.Value.String(), got.String())
		}
		return v, nil
	case PatchChange:
		cur, ok := Pick(v, op.Path).AsString()
		if !ok {
			return v, veloxdb.NewInvalidPatchError("change op target is not a string")
		}
		diff, ok := op.Value.AsString()
		if !ok {
			return v, veloxdb.NewInvalidPatchError("change op value is not a string diff")
		}
		patched, err := applyUnifiedDiff(cur, diff)
		if err != nil {
			return v, veloxdb.NewInvalidPatchError(err.Error())
		}
		return Put(v, op.Path, String(patched)), nil
	default:
		return v, veloxdb.NewInvalidPatchError("unknown patch operation " + string(op.Op))
	}
}

// applyUnifiedDiff applies a minimal line-oriented unified diff (context
// lines prefixed with a space, additions with "+", removals with "-") to
// base, matching the textual "change" op format used for DEFINE FIELD ...
// TYPE string diff patches.
func applyUnifiedDiff(base, diff string) (string, error) {
	baseLines := splitLines(base)
	diffLines := splitLines(diff)
	var out []string
	bi := 0
	for _, dl := range diffLines {
		if dl == "" {
			continue
		}
		switch dl[0] {
		case ' ':
			out = append(out, dl[1:])
			bi++
		case '-':
			bi++
		case '+':
			out = append(out, dl[1:])
		default:
			out = append(out, dl)
			bi++
		}
	}
	for ; bi < len(baseLines); bi++ {
		out = append(out, baseLines[bi])
	}
	return joinLines(out), nil
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}
