package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	assemblerout "pdfmerge/internal/modules/assembler/port/out"
	"pdfmerge/internal/platform/logger"
)

// maxSuffix bounds the "name (n).pdf" search.
const maxSuffix = 1000

// Launcher hands a saved file to the desktop.
type Launcher interface {
	Open(ctx context.Context, target string) error
}

type OSLauncher struct{}

func NewOSLauncher() Launcher {
	return OSLauncher{}
}

func (OSLauncher) Open(_ context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return fmt.Errorf("opening files is not supported on %s", runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}
	return nil
}

// DirSaveSink writes merged documents into a directory without ever overwriting a file.
type DirSaveSink struct {
	dir      string
	launcher Launcher
	log      logger.Logger
}

// NewDirSaveSink returns a sink writing into dir. A nil launcher leaves saved files closed.
func NewDirSaveSink(dir string, launcher Launcher, log logger.Logger) assemblerout.SaveSink {
	if log == nil {
		log = logger.Nop{}
	}
	return &DirSaveSink{dir: dir, launcher: launcher, log: log}
}

func (s *DirSaveSink) Save(ctx context.Context, data []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	for n := 0; n < maxSuffix; n++ {
		candidate := filename
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		path := filepath.Join(s.dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create %s: %w", candidate, err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", fmt.Errorf("write %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", fmt.Errorf("close %s: %w", candidate, err)
		}
		if s.launcher != nil {
			if err := s.launcher.Open(ctx, path); err != nil {
				s.log.Warn("assembler", "could not open saved file", map[string]any{"path": path, "error": err.Error()})
			}
		}
		return path, nil
	}
	return "", fmt.Errorf("no free file name for %s in %s", filename, s.dir)
}
