package table

import (
	"fmt"
	"strings"
)

// KeyFunc canonicalizes one join-key cell. It returns false when the cell
// cannot take part in a match.
type KeyFunc func(Value) (string, bool)

// TrimmedKey matches on the trimmed cell text; null never matches.
func TrimmedKey(v Value) (string, bool) {
	if v.IsNull() {
		return "", false
	}
	key := strings.TrimSpace(v.Text())
	if key == "" {
		return "", false
	}
	return key, true
}

// Field copies one reference column into a target column of the left table.
type Field struct {
	Source   string
	Target   string
	Fallback Value
}

// JoinSpec describes a left join: LeftKeys[i] on the left table is matched
// against RightKeys[i] on the reference table.
type JoinSpec struct {
	LeftKeys  []string
	RightKeys []string
	// KeyFuncs optionally overrides TrimmedKey per key position.
	KeyFuncs []KeyFunc
	Fields   []Field
}

func (s JoinSpec) validate() error {
	if len(s.LeftKeys) == 0 || len(s.LeftKeys) != len(s.RightKeys) {
		return fmt.Errorf("join needs matching key lists, got left=%d right=%d", len(s.LeftKeys), len(s.RightKeys))
	}
	if len(s.KeyFuncs) != 0 && len(s.KeyFuncs) != len(s.LeftKeys) {
		return fmt.Errorf("join has %d key funcs for %d keys", len(s.KeyFuncs), len(s.LeftKeys))
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("join needs at least one field")
	}
	return nil
}

func (s JoinSpec) keyFunc(pos int) KeyFunc {
	if len(s.KeyFuncs) == 0 || s.KeyFuncs[pos] == nil {
		return TrimmedKey
	}
	return s.KeyFuncs[pos]
}

func (s JoinSpec) composite(t *Table, row int, keys []string) (string, bool) {
	parts := make([]string, len(keys))
	for pos, col := range keys {
		part, ok := s.keyFunc(pos)(t.Get(row, col))
		if !ok {
			return "", false
		}
		parts[pos] = part
	}
	return strings.Join(parts, "\x1f"), true
}

// LeftJoin writes reference values into the left table without changing its
// row count or order. Duplicate reference keys resolve to the last row. When
// a target column already exists the joined values go to target+SuffixRight
// so the caller can Coalesce with the existing column taking precedence.
// Every field's output column exists on return, even with no matches.
func LeftJoin(t, ref *Table, spec JoinSpec) error {
	if err := spec.validate(); err != nil {
		return err
	}

	index := make(map[string]int, ref.Len())
	for i := 0; i < ref.Len(); i++ {
		key, ok := spec.composite(ref, i, spec.RightKeys)
		if !ok {
			continue
		}
		index[key] = i
	}

	outputs := make([]string, len(spec.Fields))
	for pos, field := range spec.Fields {
		out := field.Target
		if t.Has(out) {
			out = field.Target + SuffixRight
		}
		outputs[pos] = out
		t.AddColumn(out, Null())
	}

	for i := 0; i < t.Len(); i++ {
		key, ok := spec.composite(t, i, spec.LeftKeys)
		if !ok {
			continue
		}
		refRow, found := index[key]
		if !found {
			continue
		}
		for pos, field := range spec.Fields {
			t.Set(i, outputs[pos], ref.Get(refRow, field.Source))
		}
	}

	return nil
}

// JoinCoalesce is LeftJoin followed by Coalesce of every target with its
// field fallback, so a repeated join never leaves suffixed columns behind.
func JoinCoalesce(t, ref *Table, spec JoinSpec) error {
	if err := LeftJoin(t, ref, spec); err != nil {
		return err
	}
	for _, field := range spec.Fields {
		Coalesce(t, field.Target, field.Fallback)
	}
	return nil
}
