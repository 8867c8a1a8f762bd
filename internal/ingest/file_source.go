package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/blueharbor/maritime-risk-engine/internal/domain/errors"
)

// FileSource drains batch files dropped into a spool directory. Each .json
// file holds one Batch; files are consumed oldest-name-first, so producers
// should use sortable names. A consumed file is renamed with a .done suffix,
// an undecodable one with .failed, so a restart never replays either.
type FileSource struct {
	dir    string
	logger *slog.Logger
}

// NewFileSource creates a spool-backed batch source, creating the directory
// if needed.
func NewFileSource(dir string, logger *slog.Logger) (*FileSource, error) {
	if dir == "" {
		return nil, errors.NewValidationError("EMPTY_SPOOL_DIR", "spool directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewInternalError("failed to create spool directory").WithCause(err)
	}
	return &FileSource{dir: dir, logger: logger}, nil
}

// FetchBatch reads the oldest pending batch file. Batches are file-granular:
// limit is advisory here, and the poller's rate limiter paces how fast the
// records inside are applied.
func (s *FileSource) FetchBatch(ctx context.Context, limit int) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, ok, err := s.nextFile()
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Batch{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewInternalError("failed to read batch file").WithCause(err)
	}

	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		// Move the file aside so the feed is not wedged on it forever.
		if renameErr := os.Rename(path, path+".failed"); renameErr != nil {
			return nil, errors.NewInternalError("failed to quarantine batch file").WithCause(renameErr)
		}
		s.logger.Warn("quarantined undecodable batch file", "path", path, "error", err)
		return nil, errors.NewValidationError("INVALID_BATCH_FILE", "batch file is not valid JSON").WithCause(err)
	}

	if err := os.Rename(path, path+".done"); err != nil {
		return nil, errors.NewInternalError("failed to mark batch file consumed").WithCause(err)
	}

	s.logger.Debug("batch file consumed", "path", path,
		"statics", len(batch.Statics),
		"candidates", len(batch.Candidates),
		"owners", len(batch.Owners),
		"events", len(batch.Events))

	return &batch, nil
}

func (s *FileSource) nextFile() (string, bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", false, errors.NewInternalError("failed to read spool directory").WithCause(err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return "", false, nil
	}

	sort.Strings(names)
	return filepath.Join(s.dir, names[0]), true, nil
}
