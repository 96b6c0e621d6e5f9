package config

const (
	defaultLogDir         = "~/.local/share/choirgrid/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultCanvasWidth    = 1920
	defaultCanvasHeight   = 1080
	defaultFPS            = 30
	defaultBorder         = 10
	defaultFadeDecay      = 0.9
	defaultTailSeconds    = 4
	defaultTitleHold      = 4
	defaultTitleFade      = 1
	defaultCreditsHold    = 4
	defaultCreditsFade    = 1
	defaultAlignMaxPixels = 1280 * 720

	// QualitySane is visually lossless libx264 at the default preset.
	QualitySane = "sane"
	// QualityLossless is crf 0 at the slowest preset.
	QualityLossless = "lossless"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:  defaultFFmpegBinary,
			FFprobe: defaultFFprobeBinary,
		},
		Render: Render{
			Width:       defaultCanvasWidth,
			Height:      defaultCanvasHeight,
			FPS:         defaultFPS,
			Border:      defaultBorder,
			FadeDecay:   defaultFadeDecay,
			TailSeconds: defaultTailSeconds,
			TitleHold:   defaultTitleHold,
			TitleFade:   defaultTitleFade,
			CreditsHold: defaultCreditsHold,
			CreditsFade: defaultCreditsFade,
			Quality:     QualitySane,
		},
		Align: Align{
			MaxPixels: defaultAlignMaxPixels,
			Quality:   QualitySane,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
