package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/halvgaard/enrich-batch-client/pkg/cursor"
	"github.com/halvgaard/enrich-batch-client/pkg/logging"
)

// FileStore keeps the checkpoint as a single JSON object on disk:
// {"name": "...", "birth": "..."}. A missing file means start from
// the beginning.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

// NewFileStore creates a file-backed checkpoint store at path.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("checkpoint path is required")
	}
	return &FileStore{
		path:   path,
		logger: logging.NewLogger("checkpoint-file"),
	}, nil
}

// Load reads the checkpoint file.
func (s *FileStore) Load(_ context.Context) (cursor.Cursor, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cursor.Cursor{}, false, nil
		}
		checkpointErrorsTotal.WithLabelValues("load").Inc()
		return cursor.Cursor{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cur cursor.Cursor
	if err := json.Unmarshal(data, &cur); err != nil {
		checkpointErrorsTotal.WithLabelValues("load").Inc()
		return cursor.Cursor{}, false, fmt.Errorf("parse checkpoint %s: %w", s.path, err)
	}

	s.logger.Debug().
		Str("path", s.path).
		Str("cursor_name", cur.Name).
		Str("cursor_birth", cur.Birth).
		Msg("Loaded checkpoint")

	return cur, true, nil
}

// Save overwrites the checkpoint file. The write goes through a temp file
// in the same directory plus rename so a crash cannot leave a truncated
// checkpoint behind.
func (s *FileStore) Save(_ context.Context, cur cursor.Cursor) error {
	data, err := json.Marshal(cur)
	if err != nil {
		checkpointErrorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		checkpointErrorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("create temp checkpoint: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		checkpointErrorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("write temp checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		checkpointErrorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("close temp checkpoint: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		checkpointErrorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("replace checkpoint: %w", err)
	}

	checkpointSavesTotal.Inc()
	s.logger.Debug().
		Str("path", s.path).
		Str("cursor_name", cur.Name).
		Msg("Saved checkpoint")

	return nil
}

// Clear removes the checkpoint file.
func (s *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		checkpointErrorsTotal.WithLabelValues("clear").Inc()
		return fmt.Errorf("remove checkpoint: %w", err)
	}

	checkpointClearsTotal.Inc()
	s.logger.Debug().Str("path", s.path).Msg("Cleared checkpoint")
	return nil
}

// Path returns the checkpoint file location.
func (s *FileStore) Path() string {
	return s.path
}
