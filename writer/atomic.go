package writer

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/churn-project/churn-dataset/context_values"
	"github.com/churn-project/churn-dataset/error_types"
	"github.com/churn-project/churn-dataset/filepaths"
)

// sqlite may leave a rollback journal next to the database if a write fails
const sqliteJournalSuffix = "-journal"

// rename publishes a temp file; tests replace it to fail a publish
var rename = os.Rename

// tempFile is written in the destination directory and renamed over the destination on commit,
// so readers of the destination only ever see a complete file
type tempFile struct {
	*os.File
	dest string
	done bool
}

func createTemp(ctx context.Context, dest string) (*tempFile, error) {
	dir, err := filepaths.EnsureParentDir(dest)
	if err != nil {
		return nil, error_types.NewWritePermissionError(dest, err)
	}
	// the execution id is optional here - it only makes temp files of a run recognisable
	executionId, _ := context_values.ExecutionIdFromContext(ctx)
	f, err := os.CreateTemp(dir, filepaths.TempPattern(dest, executionId))
	if err != nil {
		return nil, error_types.NewWritePermissionError(dest, err)
	}
	return &tempFile{File: f, dest: dest}, nil
}

// commit flushes the temp file to disk and renames it over the destination
func (t *tempFile) commit() error {
	if err := t.Sync(); err != nil {
		return error_types.NewWritePermissionError(t.dest, fmt.Errorf("failed to sync %s: %w", t.Name(), err))
	}
	if err := t.Close(); err != nil {
		return error_types.NewWritePermissionError(t.dest, err)
	}
	if err := os.Chmod(t.Name(), 0644); err != nil {
		return error_types.NewWritePermissionError(t.dest, err)
	}
	if err := rename(t.Name(), t.dest); err != nil {
		return error_types.NewWritePermissionError(t.dest, err)
	}
	t.done = true
	return nil
}

// abort removes the temp file unless it has been committed. It is safe to call more than once.
func (t *tempFile) abort() {
	if t.done {
		return
	}
	t.done = true
	// the file may already be closed
	_ = t.Close()
	for _, path := range []string{t.Name(), t.Name() + sqliteJournalSuffix} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}
}
