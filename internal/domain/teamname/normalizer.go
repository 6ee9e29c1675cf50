// Package teamname canonicalizes raw team names against a mapping table
// before any join on team keys.
package teamname

import (
	"sort"
	"strings"

	"github.com/riskibarqy/match-features/internal/platform/table"
	"golang.org/x/text/unicode/norm"
)

// Mapping holds raw -> canonical pairs. Lookup keys are trimmed and NFC
// composed so visually identical names match.
type Mapping struct {
	canonical map[string]string
}

func NewMapping() *Mapping {
	return &Mapping{canonical: make(map[string]string)}
}

// MappingFromTable reads raw/canonical columns. Rows with a blank side are
// dropped; a duplicated raw key keeps the last definition.
func MappingFromTable(t *table.Table, rawCol, canonicalCol string) *Mapping {
	m := NewMapping()
	if t == nil {
		return m
	}
	for i := 0; i < t.Len(); i++ {
		raw := t.Get(i, rawCol)
		canonical := t.Get(i, canonicalCol)
		if raw.IsNull() || canonical.IsNull() {
			continue
		}
		m.Add(raw.Text(), canonical.Text())
	}
	return m
}

func (m *Mapping) Add(raw, canonical string) {
	key := lookupKey(raw)
	value := strings.TrimSpace(canonical)
	if key == "" || value == "" {
		return
	}
	m.canonical[key] = value
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.canonical)
}

func (m *Mapping) lookup(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.canonical[lookupKey(name)]
	return v, ok
}

// Chains lists raw keys whose canonical value is itself a raw key. Such
// multi-hop mappings are a data error and are never followed.
func (m *Mapping) Chains() []string {
	if m == nil {
		return nil
	}
	var out []string
	for raw, canonical := range m.canonical {
		if next, ok := m.canonical[lookupKey(canonical)]; ok && next != canonical {
			out = append(out, raw)
		}
	}
	sort.Strings(out)
	return out
}

func lookupKey(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

type Normalizer struct {
	mapping *Mapping
}

func NewNormalizer(m *Mapping) *Normalizer {
	if m == nil {
		m = NewMapping()
	}
	return &Normalizer{mapping: m}
}

// Normalize returns the canonical name for a mapped value, otherwise the
// trimmed input. Null passes through.
func (n *Normalizer) Normalize(v table.Value) table.Value {
	if v.IsNull() {
		return v
	}
	trimmed := strings.TrimSpace(v.Text())
	if canonical, ok := n.mapping.lookup(trimmed); ok {
		return table.String(canonical)
	}
	return table.String(trimmed)
}

// NormalizeColumn rewrites a column in place; a missing column is a no-op.
func (n *Normalizer) NormalizeColumn(t *table.Table, column string) {
	if !t.Has(column) {
		return
	}
	for i := 0; i < t.Len(); i++ {
		t.Set(i, column, n.Normalize(t.Get(i, column)))
	}
}

// Key is the join key of a team name cell, composed the same way as
// mapping lookups.
func Key(v table.Value) (string, bool) {
	key, ok := table.TrimmedKey(v)
	if !ok {
		return "", false
	}
	return norm.NFC.String(key), true
}
