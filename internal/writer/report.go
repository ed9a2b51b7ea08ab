package writer

import (
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-forecast/pkg/errors"
	"gopkg.in/yaml.v3"
)

// WriteYAML marshals value to path, creating parent directories as needed.
func WriteYAML(path string, value any) error {
	content, err := yaml.Marshal(value)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to marshal yaml", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create directory for %s", path)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to write %s", path)
	}

	return nil
}

// RunDirectory creates and returns the result folder of one run under root.
func RunDirectory(root string, runID string) (string, error) {
	dir := filepath.Join(root, runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to create result directory %s", dir)
	}

	return dir, nil
}
