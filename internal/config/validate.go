package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateAlign(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRender() error {
	if err := ensurePositiveMap(map[string]int{
		"render.width":  c.Render.Width,
		"render.height": c.Render.Height,
		"render.fps":    c.Render.FPS,
	}); err != nil {
		return err
	}
	if c.Render.Border < 0 {
		return errors.New("render.border must be >= 0")
	}
	if c.Render.Border*2 >= c.Render.Width || c.Render.Border*2 >= c.Render.Height {
		return errors.New("render.border leaves no room for grid cells")
	}
	if c.Render.FadeDecay <= 0 || c.Render.FadeDecay >= 1 {
		return errors.New("render.fade_decay must be between 0 and 1 (exclusive)")
	}
	for key, value := range map[string]float64{
		"render.tail_seconds": c.Render.TailSeconds,
		"render.title_hold":   c.Render.TitleHold,
		"render.credits_hold": c.Render.CreditsHold,
	} {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	if c.Render.TitleFade <= 0 {
		return errors.New("render.title_fade must be positive")
	}
	if c.Render.CreditsFade <= 0 {
		return errors.New("render.credits_fade must be positive")
	}
	return validateQuality("render.quality", c.Render.Quality)
}

func (c *Config) validateAlign() error {
	if c.Align.MaxPixels <= 0 {
		return errors.New("align.max_pixels must be positive")
	}
	return validateQuality("align.quality", c.Align.Quality)
}

func validateQuality(key, value string) error {
	switch value {
	case QualitySane, QualityLossless:
		return nil
	default:
		return fmt.Errorf("%s: unsupported preset %q (want %q or %q)", key, value, QualitySane, QualityLossless)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
