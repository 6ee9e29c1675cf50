// Package refstore loads the optional side tables of an enrichment run from
// a data directory. Loading never fails: a table that is missing or cannot
// be parsed comes back absent with a reason.
package refstore

import (
	"context"
	"path/filepath"

	"github.com/riskibarqy/match-features/internal/domain/reference"
	"github.com/riskibarqy/match-features/internal/infrastructure/csvstore"
	"github.com/riskibarqy/match-features/internal/platform/logging"
	"github.com/riskibarqy/match-features/internal/platform/table"
	"github.com/sourcegraph/conc/iter"
)

type Loader struct {
	dir    string
	logger *logging.Logger
}

func NewLoader(dir string, logger *logging.Logger) *Loader {
	return &Loader{dir: dir, logger: logger}
}

// Path is where a side table of the given schema lives.
func (l *Loader) Path(schema reference.Schema) string {
	return filepath.Join(l.dir, schema.FileName)
}

// Load reads every side table once. Files are read in parallel.
func (l *Loader) Load(ctx context.Context) reference.Set {
	schemas := reference.Schemas()
	loaded := iter.Map(schemas, func(schema *reference.Schema) reference.Optional {
		return l.LoadTable(ctx, *schema)
	})

	var set reference.Set
	for i, schema := range schemas {
		set.Put(schema.Kind, loaded[i])
	}
	return set
}

// LoadTable reads one side table. Required columns missing from a present
// table are added as null.
func (l *Loader) LoadTable(ctx context.Context, schema reference.Schema) reference.Optional {
	path := l.Path(schema)

	t, err := csvstore.Read(path)
	if err != nil {
		reason := reference.ReasonUnreadable
		if csvstore.IsNotExist(err) {
			reason = reference.ReasonNotFound
		}
		l.logger.WarnContext(ctx, "reference table absent",
			"source", string(schema.Kind),
			"path", path,
			"reason", reason,
			"error", err,
		)
		return reference.Absent(reason)
	}

	if len(t.Columns()) == 0 {
		l.logger.WarnContext(ctx, "reference table absent",
			"source", string(schema.Kind),
			"path", path,
			"reason", reference.ReasonEmpty,
		)
		return reference.Absent(reference.ReasonEmpty)
	}

	var missing []string
	for _, col := range schema.Columns {
		if !t.Has(col) {
			missing = append(missing, col)
			table.Ensure(t, col, table.Null())
		}
	}
	if len(missing) > 0 {
		l.logger.WarnContext(ctx, "reference table missing columns",
			"source", string(schema.Kind),
			"path", path,
			"columns", missing,
		)
	}

	l.logger.DebugContext(ctx, "reference table loaded",
		"source", string(schema.Kind),
		"path", path,
		"rows", t.Len(),
	)
	return reference.Present(t)
}
