package ffmpeg

import (
	"fmt"
	"strconv"
)

// Quality presets understood by EncodeArgs.
const (
	QualitySane     = "sane"
	QualityLossless = "lossless"
)

var preamble = []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error"}

// EncodeArgs returns the libx264 output options for a quality preset. Unknown
// presets fall back to sane.
func EncodeArgs(quality string, fps float64) []string {
	crf, preset := "17", "medium"
	if quality == QualityLossless {
		crf, preset = "0", "veryslow"
	}
	return []string{
		"-vcodec", "libx264",
		"-pix_fmt", "yuv420p",
		"-crf", crf,
		"-preset", preset,
		"-r", formatRate(fps),
	}
}

// DecodeArgs builds the command line that streams path as raw rgb24 frames on
// stdout. Container rotation metadata is ignored so frame sizes match the
// probed stream dimensions; rotation is applied by the caller.
func DecodeArgs(path string) []string {
	args := append([]string{}, preamble...)
	return append(args,
		"-noautorotate",
		"-i", path,
		"-map", "0:v:0",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-",
	)
}

// RawEncodeArgs builds the command line that reads width x height rgb24 frames
// from stdin at fps and encodes them to output.
func RawEncodeArgs(width, height int, fps float64, quality, output string) []string {
	args := append([]string{}, preamble...)
	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", formatRate(fps),
		"-i", "-",
	)
	if width%2 != 0 || height%2 != 0 {
		// yuv420p needs even dimensions.
		args = append(args, "-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2")
	}
	args = append(args, EncodeArgs(quality, fps)...)
	return append(args, output)
}

// MuxArgs combines a video-only file with an audio file, copying the video
// stream and encoding audio to AAC.
func MuxArgs(video, audio, output string) []string {
	args := append([]string{}, preamble...)
	return append(args,
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		output,
	)
}

// TrimAudioArgs extracts the first audio stream of input, dropping the leading
// seconds, and encodes it to MP3.
func TrimAudioArgs(input string, seconds float64, output string) []string {
	args := append([]string{}, preamble...)
	args = append(args, "-i", input)
	if seconds > 0 {
		args = append(args, "-ss", strconv.FormatFloat(seconds, 'f', 3, 64))
	}
	return append(args, "-vn", "-map", "0:a:0", "-c:a", "libmp3lame", "-q:a", "2", output)
}

// PadAudioArgs extracts the first audio stream of input with milliseconds of
// silence prepended, encoded to MP3.
func PadAudioArgs(input string, milliseconds int64, output string) []string {
	args := append([]string{}, preamble...)
	return append(args,
		"-i", input,
		"-vn",
		"-map", "0:a:0",
		"-af", fmt.Sprintf("adelay=%d:all=1", milliseconds),
		"-c:a", "libmp3lame",
		"-q:a", "2",
		output,
	)
}

func formatRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
