package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"choirgrid/internal/compositor"
	"choirgrid/internal/logging"
)

// newProgress reports tick progress with a bar on a terminal and with sampled
// log lines everywhere else. The returned finish func clears the bar.
func newProgress(out io.Writer, logger *slog.Logger, stage string) (compositor.ProgressFunc, func()) {
	if isTerminal(out) {
		var bar *progressbar.ProgressBar
		report := func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(out),
					progressbar.OptionSetDescription(stage),
					progressbar.OptionShowCount(),
					progressbar.OptionSetPredictTime(true),
					progressbar.OptionThrottle(100*time.Millisecond),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(done)
		}
		return report, func() {
			if bar != nil {
				_ = bar.Finish()
			}
		}
	}

	sampler := logging.NewProgressSampler(10)
	report := func(done, total int) {
		percent, ok := sampler.Sample(done, total)
		if !ok {
			return
		}
		logger.Info("progress",
			logging.String(logging.FieldStage, stage),
			logging.Float64("percent", percent),
			logging.String("frames", fmt.Sprintf("%d/%d", done, total)),
		)
	}
	return report, func() {}
}

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
