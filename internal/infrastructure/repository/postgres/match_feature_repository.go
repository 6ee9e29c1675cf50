package postgres

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	qb "github.com/riskibarqy/match-features/internal/platform/querybuilder"
	"github.com/riskibarqy/match-features/internal/platform/table"
)

const insertChunkSize = 500

type MatchFeatureRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewMatchFeatureRepository(db *sqlx.DB) *MatchFeatureRepository {
	return &MatchFeatureRepository{db: db, now: time.Now}
}

// ReplaceDataset drops every stored row of dataset and inserts t in its place
// inside one transaction.
func (r *MatchFeatureRepository) ReplaceDataset(ctx context.Context, dataset string, t *table.Table) error {
	models, err := matchFeatureModels(dataset, t, r.now().UTC())
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace match features: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clearQuery, clearArgs, err := qb.DeleteFrom(matchFeaturesTable).
		Where(qb.Eq("dataset", dataset)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear match features query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return wrapExecErr(err, "clear match features dataset=%s", dataset)
	}

	rowsPerInsert := qb.RowsPerStatement(qb.ModelColumnCount[matchFeatureInsertModel](), insertChunkSize)
	for _, chunk := range chunkModels(models, rowsPerInsert) {
		query, args, err := qb.InsertModels(matchFeaturesTable, chunk, "")
		if err != nil {
			return fmt.Errorf("build insert match features query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return wrapExecErr(err, "insert match features dataset=%s from_row=%d", dataset, chunk[0].RowIndex)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace match features tx: %w", err)
	}
	return nil
}

func (r *MatchFeatureRepository) CountDataset(ctx context.Context, dataset string) (int, error) {
	query, args, err := qb.Select("COUNT(*)").From(matchFeaturesTable).
		Where(qb.Eq("dataset", dataset)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count match features query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, wrapExecErr(err, "count match features dataset=%s", dataset)
	}
	return count, nil
}

func wrapExecErr(err error, format string, args ...any) error {
	if isPreparedStatementError(err) {
		err = crerr.WithHint(err, "set DB_DISABLE_PREPARED_BINARY_RESULT=true when connecting through a transaction pooler")
	}
	return crerr.Wrapf(err, format, args...)
}
