package postgres

import (
	"database/sql"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/match-features/internal/domain/match"
	"github.com/riskibarqy/match-features/internal/platform/table"
)

const matchFeaturesTable = "match_features"

type matchFeatureInsertModel struct {
	Dataset    string         `db:"dataset"`
	RowIndex   int            `db:"row_index"`
	MatchDate  sql.NullString `db:"match_date"`
	HomeTeam   sql.NullString `db:"home_team"`
	AwayTeam   sql.NullString `db:"away_team"`
	Payload    string         `db:"payload"`
	EnrichedAt time.Time      `db:"enriched_at"`
}

// matchFeatureModels turns every row of t into one insert model. The payload
// holds all columns, nulls as JSON null.
func matchFeatureModels(dataset string, t *table.Table, enrichedAt time.Time) ([]matchFeatureInsertModel, error) {
	columns := t.Columns()
	out := make([]matchFeatureInsertModel, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		payload := make(map[string]any, len(columns))
		for _, col := range columns {
			v := t.Get(i, col)
			if v.IsNull() {
				payload[col] = nil
				continue
			}
			payload[col] = v.Text()
		}
		raw, err := sonic.ConfigStd.Marshal(payload)
		if err != nil {
			return nil, crerr.Wrapf(err, "encode payload dataset=%s row=%d", dataset, i)
		}

		out = append(out, matchFeatureInsertModel{
			Dataset:    dataset,
			RowIndex:   i,
			MatchDate:  nullString(t.Get(i, match.ColDate)),
			HomeTeam:   nullString(t.Get(i, match.ColHomeTeam)),
			AwayTeam:   nullString(t.Get(i, match.ColAwayTeam)),
			Payload:    string(raw),
			EnrichedAt: enrichedAt,
		})
	}
	return out, nil
}

func nullString(v table.Value) sql.NullString {
	if v.IsNull() {
		return sql.NullString{}
	}
	return sql.NullString{String: v.Text(), Valid: true}
}

func chunkModels[T any](models []T, size int) [][]T {
	if size <= 0 {
		size = len(models)
	}
	var out [][]T
	for start := 0; start < len(models); start += size {
		end := start + size
		if end > len(models) {
			end = len(models)
		}
		out = append(out, models[start:end])
	}
	return out
}
