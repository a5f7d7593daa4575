package in

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pdfmerge/internal/modules/assembler/dto"
	apperrors "pdfmerge/internal/platform/errors"
)

// ReadFiles expands each argument as a glob (a plain path is its own match), reads every
// match in order and skips directories. A pattern that matches nothing is an error.
func ReadFiles(patterns []string) ([]dto.FileInput, error) {
	files := make([]dto.FileInput, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = expandHome(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", apperrors.ErrInvalidInput, pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: %w", pattern, apperrors.ErrNotFound)
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", path, err)
			}
			if info.IsDir() {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			files = append(files, dto.FileInput{Name: filepath.Base(path), Path: path, Data: data})
		}
	}
	return files, nil
}

// SplitPaths splits free-form input such as "a.pdf, b.pdf  docs/*.pdf" into patterns.
func SplitPaths(input string) []string {
	return strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
