package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"choirgrid/internal/logging"
	"choirgrid/internal/project"
	"choirgrid/internal/services"
)

const (
	lockFileName = ".choirgrid.lock"

	// TempVideoName and TempAudioName are the per-track intermediates of an
	// aligned export.
	TempVideoName = "tmp_video.mp4"
	TempAudioName = "tmp_audio.mp3"
)

// ErrBusy is returned when another choirgrid process holds the results lock.
var ErrBusy = errors.New("results directory is in use by another choirgrid process")

// Workspace is a results directory guarded by an advisory file lock.
type Workspace struct {
	dir  string
	lock *flock.Flock
}

// Acquire creates dir when needed and takes its lock without blocking.
func Acquire(dir string) (*Workspace, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "acquire", "results directory not set", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "workspace", "acquire", "create "+dir, err)
	}
	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "workspace", "acquire", dir, ErrBusy)
	}
	return &Workspace{dir: dir, lock: lock}, nil
}

// Dir returns the results directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins name onto the results directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Release drops the lock. The lock file itself stays behind.
func (w *Workspace) Release() error {
	if w == nil || w.lock == nil {
		return nil
	}
	return w.lock.Unlock()
}

// CleanResult contains the outcome of a cleanup pass.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// Err joins every cleanup failure, or nil.
func (r CleanResult) Err() error {
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, fmt.Errorf("%s: %w", e.Path, e.Error))
	}
	return errors.Join(errs...)
}

// CleanupError pairs a file path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanAligned removes every aligned_video_* file from a previous export.
func CleanAligned(ctx context.Context, dir string, logger *slog.Logger) CleanResult {
	return removeMatching(ctx, dir, func(name string) bool {
		return strings.HasPrefix(name, project.AlignedPrefix)
	}, "aligned_cleanup", logger)
}

// RemoveTemp deletes the per-track intermediates. Missing files are fine.
func RemoveTemp(ctx context.Context, dir string, logger *slog.Logger) CleanResult {
	return removeMatching(ctx, dir, func(name string) bool {
		return name == TempVideoName || name == TempAudioName
	}, "temp_cleanup", logger)
}

func removeMatching(ctx context.Context, dir string, match func(string) bool, event string, logger *slog.Logger) CleanResult {
	result := CleanResult{}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return result
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		}
		return result
	}

	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: ctx.Err()})
			return result
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove file",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, event+"_failed"),
					logging.String(logging.FieldErrorHint, "check results directory permissions"),
					logging.String(logging.FieldImpact, "stale output may be mistaken for a fresh export"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Debug("removed file",
				logging.String("path", path),
				logging.String(logging.FieldEventType, event),
			)
		}
	}
	return result
}

// FileInfo describes one output file in the results directory.
type FileInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListOutputs returns the regular files in dir, skipping the lock file.
func ListOutputs(dir string) ([]FileInfo, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == lockFileName {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return files, nil
}
