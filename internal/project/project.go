package project

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"choirgrid/internal/frame"
	"choirgrid/internal/services"
	"choirgrid/internal/textutil"
)

// ManifestName is the file a project directory is described by.
const ManifestName = "project.toml"

const (
	defaultMixedAudio = "mixed_audio.mp3"
	defaultResultsDir = "results"

	// SilentVideoName is the composite written by render.
	SilentVideoName = "silent_video.mp4"
	// GriddedVideoName is the composite muxed with the mixed audio.
	GriddedVideoName = "gridded_video.mp4"
	// AlignedPrefix starts every aligned per-track export name.
	AlignedPrefix = "aligned_video_"
)

// mediaExtensions are the files Scaffold treats as singer tracks.
var mediaExtensions = []string{".mp4", ".mov", ".m4v", ".mkv", ".webm", ".avi"}

// Track pairs one source file with its timeline offset and rotation hint.
// OffsetMS places the track's local zero on the global timeline: positive
// values start the track later.
type Track struct {
	Path     string `toml:"path"`
	OffsetMS int64  `toml:"offset_ms"`
	Rotation int    `toml:"rotation,omitempty"`
}

// Offset returns OffsetMS in seconds.
func (t Track) Offset() float64 {
	return float64(t.OffsetMS) / 1000
}

// SyncMS is the aligned-export offset: positive values trim leading material,
// negative values pad. It is the negated timeline offset.
func (t Track) SyncMS() int64 {
	return -t.OffsetMS
}

// Name is the track's base file name.
func (t Track) Name() string {
	return filepath.Base(t.Path)
}

// Manifest is the on-disk project description.
type Manifest struct {
	TitlePage   string  `toml:"title_page,omitempty"`
	CreditsPage string  `toml:"credits_page,omitempty"`
	MixedAudio  string  `toml:"mixed_audio,omitempty"`
	ResultsDir  string  `toml:"results_dir,omitempty"`
	Tracks      []Track `toml:"tracks"`
}

// Project is a loaded manifest anchored at its directory. Relative paths in
// the manifest resolve against Dir.
type Project struct {
	Dir      string
	Manifest Manifest
}

// Load reads and validates dir/project.toml.
func Load(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir: %w", err)
	}
	path := filepath.Join(abs, ManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "project", "load", path+" does not exist (run `choirgrid project init`)", nil)
		}
		return nil, services.Wrap(services.ErrConfiguration, "project", "load", path, err)
	}

	var manifest Manifest
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&manifest); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "project", "parse", path, err)
	}
	manifest.normalize()
	if err := manifest.Validate(); err != nil {
		return nil, services.Wrap(services.ErrValidation, "project", "validate", path, err)
	}
	return &Project{Dir: abs, Manifest: manifest}, nil
}

func (m *Manifest) normalize() {
	m.TitlePage = strings.TrimSpace(m.TitlePage)
	m.CreditsPage = strings.TrimSpace(m.CreditsPage)
	m.MixedAudio = strings.TrimSpace(m.MixedAudio)
	if m.MixedAudio == "" {
		m.MixedAudio = defaultMixedAudio
	}
	m.ResultsDir = strings.TrimSpace(m.ResultsDir)
	if m.ResultsDir == "" {
		m.ResultsDir = defaultResultsDir
	}
	for i := range m.Tracks {
		m.Tracks[i].Path = strings.TrimSpace(m.Tracks[i].Path)
	}
}

// Validate checks the track list. Order is preserved; it is what ties each
// track to its grid cell and its offset.
func (m Manifest) Validate() error {
	if len(m.Tracks) == 0 {
		return errors.New("no [[tracks]] entries")
	}
	stems := make(map[string]string, len(m.Tracks))
	for i, t := range m.Tracks {
		if t.Path == "" {
			return fmt.Errorf("tracks[%d]: path is required", i)
		}
		if !frame.Rotation(t.Rotation).Valid() {
			return fmt.Errorf("tracks[%d] (%s): rotation %d must be 0, 90, 180, or 270", i, t.Path, t.Rotation)
		}
		stem := textutil.ExportStem(t.Path)
		if prev, ok := stems[stem]; ok {
			return fmt.Errorf("tracks[%d] (%s): export name %q collides with %s", i, t.Path, stem, prev)
		}
		stems[stem] = t.Path
	}
	return nil
}

// Tracks returns the ordered track list.
func (p *Project) Tracks() []Track {
	return p.Manifest.Tracks
}

// Resolve makes a manifest path absolute relative to the project directory.
func (p *Project) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Dir, path)
}

// TrackPath returns the absolute path of track i.
func (p *Project) TrackPath(i int) string {
	return p.Resolve(p.Manifest.Tracks[i].Path)
}

// TitlePath returns the absolute title page path, or "" when none is set.
func (p *Project) TitlePath() string {
	return p.Resolve(p.Manifest.TitlePage)
}

// CreditsPath returns the absolute credits page path, or "" when none is set.
func (p *Project) CreditsPath() string {
	return p.Resolve(p.Manifest.CreditsPage)
}

// ResultsDir returns the absolute output directory.
func (p *Project) ResultsDir() string {
	return p.Resolve(p.Manifest.ResultsDir)
}

// MixedAudioPath returns the mixed audio location. Relative names resolve
// inside the results directory, where the mixing step leaves its output.
func (p *Project) MixedAudioPath() string {
	if filepath.IsAbs(p.Manifest.MixedAudio) {
		return p.Manifest.MixedAudio
	}
	return filepath.Join(p.ResultsDir(), p.Manifest.MixedAudio)
}

// SilentVideoPath returns where render writes the video-only composite.
func (p *Project) SilentVideoPath() string {
	return filepath.Join(p.ResultsDir(), SilentVideoName)
}

// GriddedVideoPath returns where merge writes the final composite.
func (p *Project) GriddedVideoPath() string {
	return filepath.Join(p.ResultsDir(), GriddedVideoName)
}

// AlignedPath returns the aligned export location for a source path.
func (p *Project) AlignedPath(source string) string {
	return filepath.Join(p.ResultsDir(), AlignedName(source))
}

// AlignedName returns aligned_video_<stem>.mp4 for a source path.
func AlignedName(source string) string {
	return AlignedPrefix + textutil.ExportStem(source) + ".mp4"
}

// Scaffold writes a manifest listing every video file in dir, sorted by name,
// with zero offsets. It refuses to overwrite an existing manifest.
func Scaffold(dir string) (string, int, error) {
	path := filepath.Join(dir, ManifestName)
	if _, err := os.Stat(path); err == nil {
		return path, 0, fmt.Errorf("%s already exists", path)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return path, 0, fmt.Errorf("read project dir: %w", err)
	}
	manifest := Manifest{MixedAudio: defaultMixedAudio, ResultsDir: defaultResultsDir}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if slices.Contains(mediaExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			manifest.Tracks = append(manifest.Tracks, Track{Path: entry.Name()})
		}
	}
	data, err := toml.Marshal(manifest)
	if err != nil {
		return path, 0, fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return path, 0, fmt.Errorf("write manifest: %w", err)
	}
	return path, len(manifest.Tracks), nil
}
