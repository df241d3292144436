package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirDestination writes round exports under a base directory on the local
// filesystem. The object key becomes a relative path, so exports land at
// <base>/<code_name>/<timestamp>.jsonl.
type DirDestination struct {
	base string
}

// NewDirDestination creates a filesystem destination rooted at base.
func NewDirDestination(base string) *DirDestination {
	return &DirDestination{base: base}
}

func (d *DirDestination) Write(_ context.Context, key string, data []byte) error {
	path := filepath.Join(d.base, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write archive file: %w", err)
	}
	return nil
}
