package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/icmprog/internal/domain"
)

// RecordStore implements ports.RecordStore with one file per unit under a
// directory. The file is named by the unit id and holds the profile summary.
type RecordStore struct {
	dir string
}

// NewRecordStore creates a store rooted at dir. The directory is created on
// the first write.
func NewRecordStore(dir string) *RecordStore {
	if dir == "" {
		dir = "."
	}
	return &RecordStore{dir: dir}
}

// Exists reports whether a record for id is present.
func (r *RecordStore) Exists(ctx context.Context, id string) (bool, error) {
	path, err := r.path(id)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// Create writes the record for id atomically, replacing any existing one.
// Uses atomic write (write to temp file, then rename) so a reader never sees
// a partial record.
func (r *RecordStore) Create(ctx context.Context, id, content string) error {
	path, err := r.path(id)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create record directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit record: %w", err)
	}
	return nil
}

// Dir returns the record directory.
func (r *RecordStore) Dir() string {
	return r.dir
}

func (r *RecordStore) path(id string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidUnitID, id)
	}
	return filepath.Join(r.dir, id), nil
}
