package usecase

import (
	"context"
	"path/filepath"

	"github.com/riskibarqy/match-features/internal/domain/reference"
	"github.com/riskibarqy/match-features/internal/infrastructure/csvstore"
	"github.com/riskibarqy/match-features/internal/platform/logging"
)

type EnsureFilesResult struct {
	Created  []string `json:"created"`
	Repaired []string `json:"repaired"`
}

// EnsureFiles writes a header-only CSV for every hand-maintained side table
// that is missing, unreadable or has no header. The hybrid metric table is
// produced upstream and is left alone so its absence stays visible.
func EnsureFiles(ctx context.Context, dataDir string, logger *logging.Logger) (EnsureFilesResult, error) {
	var result EnsureFilesResult

	for _, schema := range reference.Schemas() {
		if schema.Kind == reference.KindHybridMetric {
			continue
		}
		path := filepath.Join(dataDir, schema.FileName)

		t, err := csvstore.Read(path)
		switch {
		case err == nil && len(t.Columns()) > 0:
			continue
		case err != nil && csvstore.IsNotExist(err):
			if err := csvstore.WriteHeader(path, schema.Columns); err != nil {
				return result, err
			}
			result.Created = append(result.Created, path)
			logger.InfoContext(ctx, "created missing side table", "source", string(schema.Kind), "path", path)
		default:
			if err := csvstore.WriteHeader(path, schema.Columns); err != nil {
				return result, err
			}
			result.Repaired = append(result.Repaired, path)
			logger.WarnContext(ctx, "rewrote empty or malformed side table", "source", string(schema.Kind), "path", path)
		}
	}
	return result, nil
}
