package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"choirgrid/internal/config"
	"choirgrid/internal/deps"
	"choirgrid/internal/project"
)

// CheckDirectoryAccess verifies that the directory exists and is readable.
func CheckDirectoryAccess(name, path string) Result {
	if msg, ok := statDir(path); !ok {
		return Result{Name: name, Detail: msg}
	}
	if err := unix.Access(path, unix.R_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckWritableDir verifies a directory is writable. A directory that does not
// exist yet passes when its nearest existing parent is writable, since it is
// created on first use.
func CheckWritableDir(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	target := path
	for {
		if _, err := os.Stat(target); err == nil {
			break
		} else if !errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", target, err)}
		}
		parent := filepath.Dir(target)
		if parent == target {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing parent)", path)}
		}
		target = parent
	}
	if msg, ok := statDir(target); !ok {
		return Result{Name: name, Detail: msg}
	}
	if err := unix.Access(target, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", target, err)}
	}
	if target != path {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFile verifies a regular file exists and is readable.
func CheckFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckProject inspects the project directory, its outputs location, every
// track source, the overlay pages, and the mixed audio. A missing track is
// advisory because rendering continues without it; the mixed audio is only
// needed by merge.
func CheckProject(proj *project.Project) []Result {
	results := []Result{
		CheckDirectoryAccess("Project directory", proj.Dir),
		CheckWritableDir("Results directory", proj.ResultsDir()),
	}
	for i, track := range proj.Tracks() {
		r := CheckFile(fmt.Sprintf("Track %d (%s)", i+1, track.Name()), proj.TrackPath(i))
		r.Advisory = true
		results = append(results, r)
	}
	if path := proj.TitlePath(); path != "" {
		results = append(results, CheckFile("Title page", path))
	}
	if path := proj.CreditsPath(); path != "" {
		results = append(results, CheckFile("Credits page", path))
	}
	audio := CheckFile("Mixed audio", proj.MixedAudioPath())
	audio.Advisory = true
	results = append(results, audio)
	return results
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for decoding, encoding, and muxing",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for media inspection",
		},
	})
}

func statDir(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("%s (error: does not exist)", path), false
		}
		return fmt.Sprintf("%s (error: stat: %v)", path, err), false
	}
	if !info.IsDir() {
		return fmt.Sprintf("%s (error: is not a directory)", path), false
	}
	return "", true
}
