package ffprobe

import (
	"math"
	"testing"
)

const sampleProbe = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_long_name": "H.264 / AVC", "codec_type": "video",
     "width": 1280, "height": 720, "r_frame_rate": "30000/1001", "avg_frame_rate": "30000/1001", "duration": "12.345"},
    {"index": 1, "codec_name": "aac", "codec_type": "audio", "sample_rate": "48000", "channels": 2}
  ],
  "format": {"filename": "alto.mp4", "nb_streams": 2, "duration": "12.400", "size": "1000"}
}`

func TestParseSample(t *testing.T) {
	result, err := Parse([]byte(sampleProbe))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.VideoStreamCount() != 1 || result.AudioStreamCount() != 1 {
		t.Fatalf("unexpected stream counts: %d video, %d audio", result.VideoStreamCount(), result.AudioStreamCount())
	}
	video, ok := result.VideoStream()
	if !ok {
		t.Fatal("expected video stream")
	}
	if video.Width != 1280 || video.Height != 720 {
		t.Fatalf("unexpected size %dx%d", video.Width, video.Height)
	}
	if got := video.FrameRate(); math.Abs(got-29.97) > 0.001 {
		t.Fatalf("unexpected frame rate %v", got)
	}
	if got := result.VideoDuration(); got != 12.345 {
		t.Fatalf("expected stream duration, got %v", got)
	}
	if len(result.RawJSON()) == 0 {
		t.Fatal("expected raw json to be retained")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFrameRateFallsBackToAverage(t *testing.T) {
	tests := []struct {
		name   string
		stream Stream
		want   float64
	}{
		{"sane real rate", Stream{RFrameRate: "25/1", AvgFrameRate: "24/1"}, 25},
		{"bogus real rate", Stream{RFrameRate: "90000/1", AvgFrameRate: "30/1"}, 30},
		{"zero real rate", Stream{RFrameRate: "0/0", AvgFrameRate: "24000/1001"}, 24000.0 / 1001.0},
		{"missing both", Stream{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stream.FrameRate(); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("FrameRate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVideoDurationFallbacks(t *testing.T) {
	container := Result{
		Streams: []Stream{{CodecType: "video"}},
		Format:  Format{Duration: "8.5"},
	}
	if got := container.VideoDuration(); got != 8.5 {
		t.Fatalf("expected container duration, got %v", got)
	}
	empty := Result{Streams: []Stream{{CodecType: "video"}}}
	if got := empty.VideoDuration(); got != 1 {
		t.Fatalf("expected one second default, got %v", got)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad", Size: "-1"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if ParseRational("30/0") != 0 || ParseRational("x/1") != 0 {
		t.Fatal("expected invalid rationals to parse as 0")
	}
	if ParseRational("29.97") != 29.97 {
		t.Fatal("expected plain numbers to parse")
	}
}
