package domain

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	MediaTypePDF      = "application/pdf"
	MediaTypeUnknown  = "application/octet-stream"
	DefaultOutputName = "combined-document"
)

type PreviewState string

const (
	StatePending       PreviewState = "pending"
	StatePreviewed     PreviewState = "previewed"
	StatePreviewFailed PreviewState = "preview_failed"
)

// Entry is one loaded document in the working set. Name, SizeLabel and Source never change
// after creation; PageCount and Preview are filled in by the preview task.
type Entry struct {
	ID         string
	Name       string
	SizeLabel  string
	SourcePath string
	Source     []byte
	PageCount  int
	Preview    []byte
	State      PreviewState
}

func NewEntry(id, name, sourcePath string, source []byte) *Entry {
	return &Entry{
		ID:         id,
		Name:       name,
		SizeLabel:  FormatSize(int64(len(source))),
		SourcePath: sourcePath,
		Source:     source,
		State:      StatePending,
	}
}

// Preview is the result of rendering the first page of a document.
type Preview struct {
	PageCount int
	PNG       []byte
}

// FormatSize renders a byte count as "N B", "X.Y KB" or "X.Y MB".
func FormatSize(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

// SanitizeOutputName turns free-form user input into a file name ending in exactly one ".pdf".
func SanitizeOutputName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultOutputName
	}
	if len(name) >= 4 && strings.EqualFold(name[len(name)-4:], ".pdf") {
		name = name[:len(name)-4]
	}
	return name + ".pdf"
}

// DetectMediaType classifies a file by its extension or its leading bytes.
func DetectMediaType(name string, head []byte) string {
	if strings.EqualFold(filepath.Ext(name), ".pdf") || bytes.HasPrefix(head, []byte("%PDF-")) {
		return MediaTypePDF
	}
	return MediaTypeUnknown
}
