// Package io provides filesystem helpers for generated artifacts.
package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrEmptyOutputPath is returned when a write targets an empty path.
var ErrEmptyOutputPath = errors.New("output path is empty")

// WriteFile writes content to a path, creating parent directories as needed
// and overwriting any existing file. Generated artifacts are owned by the
// reconciler, so overwrite is the correct converging behavior.
func WriteFile(content, output string) error {
	if output == "" {
		return ErrEmptyOutputPath
	}

	output = filepath.Clean(output)

	err := os.MkdirAll(filepath.Dir(output), dirPerm)
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(output), err)
	}

	err = os.WriteFile(output, []byte(content), filePerm)
	if err != nil {
		return fmt.Errorf("failed to write file %s: %w", output, err)
	}

	return nil
}

// FileContains reports whether the file at path exists and contains the
// given substring. Missing files report false without an error so probes
// can fail closed on content rather than on IO details.
func FileContains(path, substring string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return strings.Contains(string(data), substring), nil
}
