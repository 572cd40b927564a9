package provision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// NewMkdir creates a provisioner that creates a directory and its parents.
func NewMkdir(path string) Provisioner {
	return ProvisionerFunc(func(_ context.Context) error {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating directory %q: %w", path, err)
		}
		return nil
	})
}

// NewWriteFile creates a provisioner that writes a file, replacing any previous content.
// The data is written to a temporary file and renamed into place.
func NewWriteFile(path string, data []byte) Provisioner {
	return ProvisionerFunc(func(_ context.Context) error {
		tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
		if err != nil {
			return fmt.Errorf("creating temp file for %q: %w", path, err)
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.Write(data); err != nil {
			tmp.Close()
			return fmt.Errorf("writing %q: %w", path, err)
		}
		if err := tmp.Close(); err != nil {
			return fmt.Errorf("closing %q: %w", path, err)
		}
		if err := os.Chmod(tmp.Name(), 0o644); err != nil {
			return fmt.Errorf("setting %q permissions: %w", path, err)
		}
		if err := os.Rename(tmp.Name(), path); err != nil {
			return fmt.Errorf("renaming into %q: %w", path, err)
		}
		return nil
	})
}
