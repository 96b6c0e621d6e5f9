package deps

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RequiredEncoders are the ffmpeg encoders the render, align, and merge steps
// invoke by name.
var RequiredEncoders = []string{"libx264", "aac", "libmp3lame"}

// OutputFunc runs a command and returns its stdout.
type OutputFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output() //nolint:gosec
}

// CheckFFmpegEncoders lists ffmpeg's encoders and reports any required one the
// build lacks. A nil run uses os/exec.
func CheckFFmpegEncoders(ctx context.Context, binary string, run OutputFunc) Status {
	result := Status{
		Name:        "FFmpeg encoders",
		Command:     binary,
		Description: "libx264 video, aac and libmp3lame audio",
	}
	if run == nil {
		run = defaultOutput
	}
	out, err := run(ctx, binary, "-hide_banner", "-encoders")
	if err != nil {
		result.Detail = fmt.Sprintf("list encoders: %v", err)
		return result
	}
	available := parseEncoders(string(out))
	var missing []string
	for _, name := range RequiredEncoders {
		if _, ok := available[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		result.Detail = "missing " + strings.Join(missing, ", ")
		return result
	}
	result.Available = true
	return result
}

// parseEncoders reads `ffmpeg -encoders` output. Encoder rows look like
// " V....D libx264   libx264 H.264 ..." after a "------" separator.
func parseEncoders(output string) map[string]struct{} {
	names := make(map[string]struct{})
	started := false
	for line := range strings.SplitSeq(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if !started {
			started = strings.HasPrefix(trimmed, "---")
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) < 2 {
			continue
		}
		names[fields[1]] = struct{}{}
	}
	return names
}
