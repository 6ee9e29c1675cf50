package usecase

import (
	"fmt"
	"os"
	"sort"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/match-features/internal/domain/match"
	"github.com/riskibarqy/match-features/internal/platform/table"
	"gopkg.in/yaml.v3"
)

// Default is the documented fallback for one enrichment column.
type Default struct {
	Column string
	Value  float64
	// Flag columns only accept 0 or 1.
	Flag bool
}

// DefaultTable is the single list of fallbacks used by the pipeline steps
// and the final default pass.
type DefaultTable struct {
	entries []Default
	index   map[string]int
}

func NewDefaultTable() DefaultTable {
	entries := []Default{
		{Column: match.ColHomeRest, Value: 4},
		{Column: match.ColAwayRest, Value: 4},
		{Column: match.ColHomeInjury, Value: 0.3},
		{Column: match.ColAwayInjury, Value: 0.3},
		{Column: match.ColHomeGK, Value: 0.6},
		{Column: match.ColAwayGK, Value: 0.6},
		{Column: match.ColHomeSetpiece, Value: 0.6},
		{Column: match.ColAwaySetpiece, Value: 0.6},
		{Column: match.ColRefPenRate, Value: 0.30},
		{Column: match.ColCrowdIndex, Value: 0.70},
		{Column: match.ColHomeTravel, Value: 0.0},
		{Column: match.ColAwayTravel, Value: 200.0},
	}
	for _, col := range match.FlagColumns() {
		entries = append(entries, Default{Column: col, Value: 0, Flag: true})
	}
	return newDefaultTable(entries)
}

func newDefaultTable(entries []Default) DefaultTable {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.Column] = i
	}
	return DefaultTable{entries: entries, index: index}
}

// Entries lists defaults in declaration order.
func (d DefaultTable) Entries() []Default {
	out := make([]Default, len(d.entries))
	copy(out, d.entries)
	return out
}

// Value returns the fallback cell for column. Unknown columns give null.
func (d DefaultTable) Value(column string) table.Value {
	i, ok := d.index[column]
	if !ok {
		return table.Null()
	}
	e := d.entries[i]
	if e.Flag {
		return table.Int(int64(e.Value))
	}
	return table.Float(e.Value)
}

func (d DefaultTable) Has(column string) bool {
	_, ok := d.index[column]
	return ok
}

// ApplyOverrides returns a copy with the given values replaced. Unknown
// columns and non 0/1 flag values are rejected.
func (d DefaultTable) ApplyOverrides(overrides map[string]float64) (DefaultTable, error) {
	entries := d.Entries()

	columns := make([]string, 0, len(overrides))
	for col := range overrides {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		value := overrides[col]
		i, ok := d.index[strings.TrimSpace(col)]
		if !ok {
			return DefaultTable{}, fmt.Errorf("%w: no default for column %q", ErrInvalidInput, col)
		}
		if entries[i].Flag && value != 0 && value != 1 {
			return DefaultTable{}, fmt.Errorf("%w: flag default %q must be 0 or 1, got %v", ErrInvalidInput, col, value)
		}
		entries[i].Value = value
	}
	return newDefaultTable(entries), nil
}

type defaultsFile struct {
	Defaults map[string]float64 `yaml:"defaults"`
}

// LoadDefaults applies a YAML override file of the form
//
//	defaults:
//	  ref_pen_rate: 0.28
//
// on top of the documented constants. An empty path returns the constants.
func LoadDefaults(path string) (DefaultTable, error) {
	base := NewDefaultTable()
	if strings.TrimSpace(path) == "" {
		return base, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return DefaultTable{}, crerr.Wrapf(err, "read defaults file %s", path)
	}

	var file defaultsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return DefaultTable{}, fmt.Errorf("%w: parse defaults file %s: %v", ErrInvalidInput, path, err)
	}
	return base.ApplyOverrides(file.Defaults)
}
