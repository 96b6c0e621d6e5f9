package align_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"choirgrid/internal/align"
	"choirgrid/internal/config"
	"choirgrid/internal/logging"
	"choirgrid/internal/media/ffmpeg"
	"choirgrid/internal/project"
	"choirgrid/internal/runlog"
	"choirgrid/internal/services"
	"choirgrid/internal/testsupport"
	"choirgrid/internal/track"
	"choirgrid/internal/workspace"
)

type fixture struct {
	cfg     *config.Config
	proj    *project.Project
	media   *testsupport.FakeMedia
	writers *testsupport.MemoryWriters
	runner  *testsupport.RecordingRunner
	runs    *runlog.Store
	rates   []float64
}

func newFixture(t *testing.T, manifest string) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	dir := testsupport.WriteManifest(t, t.TempDir(), manifest)
	proj, err := project.Load(dir)
	if err != nil {
		t.Fatalf("load project: %v", err)
	}
	runs, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		t.Fatalf("open runlog: %v", err)
	}
	t.Cleanup(func() { _ = runs.Close() })
	return &fixture{
		cfg:     cfg,
		proj:    proj,
		media:   testsupport.NewFakeMedia(),
		writers: testsupport.NewMemoryWriters(),
		runner:  &testsupport.RecordingRunner{},
		runs:    runs,
	}
}

func (f *fixture) deps() align.Deps {
	return align.Deps{
		Probe:   f.media.Probe,
		Readers: f.media.Readers(),
		Writers: func(fps float64) ffmpeg.WriterFactory {
			f.rates = append(f.rates, fps)
			return f.writers.Factory()
		},
		Run:    f.runner.Run,
		Runs:   f.runs,
		Logger: logging.NewNop(),
	}
}

func TestZeroOffsetKeepsEveryFrame(t *testing.T) {
	f := newFixture(t, "[[tracks]]\npath = \"bass.mp4\"\n")
	f.media.Add("bass.mp4", testsupport.Clip{Width: 32, Height: 18, FPS: 25, Duration: 2, Audio: true})

	result, err := align.Run(context.Background(), f.cfg, f.proj, f.deps())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	export := result.Exports[0]
	if export.Frames != 50 || export.PadFrames != 0 || export.TrimFrames != 0 {
		t.Fatalf("unexpected export: %+v", export)
	}
	w := f.writers.Order[0]
	if len(w.Frames) != 50 || w.Frames[0].Pix[0] != 1 {
		t.Fatalf("expected 50 source frames starting at frame 0, got %d", len(w.Frames))
	}
	if len(f.rates) != 1 || f.rates[0] != 25 {
		t.Fatalf("encoder should run at the track rate, got %v", f.rates)
	}
	if _, err := os.Stat(export.Output); err != nil {
		t.Fatalf("aligned export missing: %v", err)
	}
	if filepath.Base(export.Output) != "aligned_video_bass.mp4" {
		t.Fatalf("unexpected output name %s", export.Output)
	}
}

func TestLateTrackIsPadded(t *testing.T) {
	// offset_ms 500 places the track half a second late; at 25fps the export
	// gets round(12.5) = 13 black frames and 500ms of leading silence.
	f := newFixture(t, "[[tracks]]\npath = \"alto.mp4\"\noffset_ms = 500\n")
	f.media.Add("alto.mp4", testsupport.Clip{Width: 32, Height: 18, FPS: 25, Duration: 1, Audio: true, Color: 90})

	result, err := align.Run(context.Background(), f.cfg, f.proj, f.deps())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	export := result.Exports[0]
	if export.PadFrames != 13 || export.Frames != 13+25 {
		t.Fatalf("unexpected export: %+v", export)
	}
	w := f.writers.Order[0]
	for i := range 13 {
		if !w.Frames[i].Equal(testsupport.SolidFrame(32, 18, 0)) {
			t.Fatalf("frame %d should be black", i)
		}
	}
	if w.Frames[13].Pix[0] != 90 {
		t.Fatalf("frame 13 should be the first source frame, got %d", w.Frames[13].Pix[0])
	}

	calls := f.runner.Joined()
	if len(calls) != 2 {
		t.Fatalf("expected audio and mux calls, got %v", calls)
	}
	if !strings.Contains(calls[0], "adelay=500:all=1") {
		t.Fatalf("expected padded audio, got %s", calls[0])
	}
	if !strings.Contains(calls[1], "-c:v copy -c:a aac") || !strings.HasSuffix(calls[1], export.Output) {
		t.Fatalf("unexpected mux call: %s", calls[1])
	}
}

func TestEarlyTrackIsTrimmed(t *testing.T) {
	f := newFixture(t, "[[tracks]]\npath = \"tenor.mp4\"\noffset_ms = -1000\n")
	f.media.Add("tenor.mp4", testsupport.Clip{Width: 32, Height: 18, FPS: 10, Duration: 3, Audio: true})

	result, err := align.Run(context.Background(), f.cfg, f.proj, f.deps())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	export := result.Exports[0]
	if export.TrimFrames != 10 || export.Frames != 20 {
		t.Fatalf("unexpected export: %+v", export)
	}
	if got := f.writers.Order[0].Frames[0].Pix[0]; got != 11 {
		t.Fatalf("first exported frame should be source frame 10, got value %d", got)
	}
	if calls := f.runner.Joined(); !strings.Contains(calls[0], "-ss 1.000") {
		t.Fatalf("expected trimmed audio, got %s", calls[0])
	}
}

func TestDownscaleKeepsEvenDimensions(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{1280, 720, 1280 * 720, 1280, 720},
		{1920, 1080, 1280 * 720, 1280, 720},
		{3840, 2160, 1280 * 720, 1280, 720},
		{1001, 1001, 1000 * 500, 706, 706},
		{640, 480, 0, 640, 480},
	}
	for _, tt := range tests {
		w, h := align.Downscale(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("Downscale(%d,%d,%d) = %dx%d, want %dx%d", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
		if w%2 != 0 || h%2 != 0 {
			t.Errorf("odd dimensions %dx%d", w, h)
		}
	}
}

func TestOversizedFramesAreScaled(t *testing.T) {
	f := newFixture(t, "[[tracks]]\npath = \"big.mp4\"\n")
	f.cfg.Align.MaxPixels = 16 * 9
	f.media.Add("big.mp4", testsupport.Clip{Width: 64, Height: 36, FPS: 5, Duration: 1, Audio: true})

	result, err := align.Run(context.Background(), f.cfg, f.proj, f.deps())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if e := result.Exports[0]; e.Width != 16 || e.Height != 8 {
		t.Fatalf("expected 16x8 export, got %dx%d", e.Width, e.Height)
	}
	w := f.writers.Order[0]
	if w.Width != 16 || w.Height != 8 || len(w.Frames) != 5 {
		t.Fatalf("unexpected writer: %dx%d with %d frames", w.Width, w.Height, len(w.Frames))
	}
}

func TestTrackWithoutAudioExportsVideoOnly(t *testing.T) {
	f := newFixture(t, "[[tracks]]\npath = \"mute.mp4\"\n")
	f.media.Add("mute.mp4", testsupport.Clip{Width: 32, Height: 18, FPS: 5, Duration: 1})

	result, err := align.Run(context.Background(), f.cfg, f.proj, f.deps())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(f.runner.Calls) != 0 {
		t.Fatalf("no ffmpeg calls expected, got %v", f.runner.Joined())
	}
	export := result.Exports[0]
	if export.Audio {
		t.Fatal("export should be video only")
	}
	if _, err := os.Stat(export.Output); err != nil {
		t.Fatalf("video-only export missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(f.proj.ResultsDir(), workspace.TempVideoName)); !os.IsNotExist(err) {
		t.Fatalf("temporary video should be gone: %v", err)
	}
}

func TestFailuresAreAggregated(t *testing.T) {
	f := newFixture(t, "[[tracks]]\npath = \"missing.mp4\"\n[[tracks]]\npath = \"ok.mp4\"\n[[tracks]]\npath = \"Smith, Jane.mov\"\n")
	f.media.
		Add("ok.mp4", testsupport.Clip{Width: 32, Height: 18, FPS: 5, Duration: 1, Audio: true}).
		Add("Smith, Jane.mov", testsupport.Clip{Width: 32, Height: 18, FPS: 5, Duration: 1, Audio: true})
	f.runner.FailOn = "aligned_video_Smith Jane.mp4"

	result, err := align.Run(context.Background(), f.cfg, f.proj, f.deps())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("mux failure should surface as external tool error: %v", err)
	}
	if !strings.Contains(err.Error(), "missing.mp4") || !strings.Contains(err.Error(), "Smith, Jane.mov") {
		t.Fatalf("error should name both failing tracks: %v", err)
	}
	if result.Completed() != 1 || result.Exports[1].Err != nil {
		t.Fatalf("ok.mp4 should still export: %+v", result.Exports)
	}

	artifacts, aerr := f.runs.Artifacts(context.Background(), result.RunID)
	if aerr != nil || len(artifacts) != 3 {
		t.Fatalf("expected 3 artifacts, got %v (%v)", artifacts, aerr)
	}
	statuses := []runlog.ArtifactStatus{artifacts[0].Status, artifacts[1].Status, artifacts[2].Status}
	if statuses[0] != runlog.ArtifactFailed || statuses[1] != runlog.ArtifactCompleted || statuses[2] != runlog.ArtifactFailed {
		t.Fatalf("unexpected artifact statuses: %v", statuses)
	}
	run, _ := f.runs.Get(context.Background(), result.RunID)
	if run.Status != runlog.StatusFailed {
		t.Fatalf("run should be failed, got %s", run.Status)
	}
	for _, name := range []string{workspace.TempVideoName, workspace.TempAudioName} {
		if _, err := os.Stat(filepath.Join(f.proj.ResultsDir(), name)); !os.IsNotExist(err) {
			t.Fatalf("%s should be removed after a failure", name)
		}
	}
}

func TestStaleExportsAreRemoved(t *testing.T) {
	f := newFixture(t, "[[tracks]]\npath = \"new.mp4\"\n")
	f.media.Add("new.mp4", testsupport.Clip{Width: 32, Height: 18, FPS: 5, Duration: 1, Audio: true})
	stale := filepath.Join(f.proj.ResultsDir(), "aligned_video_old singer.mp4")
	keep := filepath.Join(f.proj.ResultsDir(), "mixed_audio.mp3")
	testsupport.Touch(t, stale, keep)

	if _, err := align.Run(context.Background(), f.cfg, f.proj, f.deps()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatal("stale aligned export should be removed")
	}
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("unrelated file removed: %v", err)
	}
}

func TestDecodeFailureExportsWhatWasRead(t *testing.T) {
	f := newFixture(t, "[[tracks]]\npath = \"glitch.mp4\"\n")
	f.media.Add("glitch.mp4", testsupport.Clip{Width: 32, Height: 18, FPS: 5, Duration: 2, Audio: true, FailAt: 4})

	result, err := align.Run(context.Background(), f.cfg, f.proj, f.deps())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if result.Exports[0].Frames != 4 {
		t.Fatalf("expected the 4 frames before the failure, got %d", result.Exports[0].Frames)
	}
}

func TestNoVideoStreamIsSkipped(t *testing.T) {
	f := newFixture(t, "[[tracks]]\npath = \"voice.m4a\"\n[[tracks]]\npath = \"tenor.mp4\"\n")
	f.media.Add("voice.m4a", testsupport.Clip{NoVideo: true, Duration: 1, Audio: true})
	f.media.Add("tenor.mp4", testsupport.Clip{Width: 32, Height: 18, FPS: 5, Duration: 1, Audio: true})

	result, err := align.Run(context.Background(), f.cfg, f.proj, f.deps())
	if err != nil {
		t.Fatalf("a source without video should not fail the run: %v", err)
	}
	if len(result.Exports) != 2 {
		t.Fatalf("expected 2 exports, got %d", len(result.Exports))
	}
	skipped := result.Exports[0]
	if !skipped.Skipped || !errors.Is(skipped.Err, track.ErrNoVideoStream) {
		t.Fatalf("voice.m4a should be skipped with ErrNoVideoStream, got %+v", skipped)
	}
	if result.Completed() != 1 || result.Skipped() != 1 {
		t.Fatalf("completed=%d skipped=%d, want 1 and 1", result.Completed(), result.Skipped())
	}
	if _, err := os.Stat(skipped.Output); !os.IsNotExist(err) {
		t.Fatalf("no export should exist for a skipped source: %v", err)
	}

	artifacts, err := f.runs.Artifacts(context.Background(), result.RunID)
	if err != nil || len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %v (%v)", artifacts, err)
	}
	if artifacts[0].Status != runlog.ArtifactSkipped || artifacts[0].Error == "" {
		t.Fatalf("unexpected skipped artifact: %+v", artifacts[0])
	}
	if artifacts[1].Status != runlog.ArtifactCompleted {
		t.Fatalf("tenor.mp4 artifact = %s, want completed", artifacts[1].Status)
	}
	run, _ := f.runs.Get(context.Background(), result.RunID)
	if run.Status != runlog.StatusCompleted {
		t.Fatalf("run status = %s, want completed", run.Status)
	}
}
