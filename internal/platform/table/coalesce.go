package table

import "strings"

// Merge-artifact suffixes in precedence order: the left/primary side first,
// then the newly joined side.
const (
	SuffixLeft  = "_x"
	SuffixRight = "_y"
)

var artifactSuffixes = []string{SuffixLeft, SuffixRight}

// Ensure adds column filled with v when it does not exist. An existing
// column is left untouched, nulls included.
func Ensure(t *Table, column string, v Value) {
	if t.Has(column) {
		return
	}
	t.AddColumn(column, v)
}

// FillNull replaces null cells of an existing column with v.
func FillNull(t *Table, column string, v Value) {
	idx, ok := t.index[column]
	if !ok {
		return
	}
	for _, row := range t.rows {
		if row[idx].IsNull() {
			row[idx] = v
		}
	}
}

// Coalesce folds base and its suffixed variants into base. Per row the first
// non-null of base, base_x, base_y wins, otherwise fallback. The variants are
// dropped afterwards, and base always exists on return.
func Coalesce(t *Table, base string, fallback Value) {
	variants := make([]string, 0, len(artifactSuffixes))
	for _, suffix := range artifactSuffixes {
		if t.Has(base + suffix) {
			variants = append(variants, base+suffix)
		}
	}

	Ensure(t, base, Null())
	baseIdx := t.index[base]
	for _, row := range t.rows {
		if !row[baseIdx].IsNull() {
			continue
		}
		resolved := fallback
		for _, variant := range variants {
			if v := row[t.index[variant]]; !v.IsNull() {
				resolved = v
				break
			}
		}
		row[baseIdx] = resolved
	}

	t.Drop(variants...)
}

// Artifacts lists columns that still carry a merge suffix.
func Artifacts(t *Table) []string {
	var out []string
	for _, col := range t.columns {
		for _, suffix := range artifactSuffixes {
			if strings.HasSuffix(col, suffix) && len(col) > len(suffix) {
				out = append(out, col)
				break
			}
		}
	}
	return out
}

func HasArtifacts(t *Table) bool {
	return len(Artifacts(t)) > 0
}
