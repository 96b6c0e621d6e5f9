package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"choirgrid/internal/config"
	"choirgrid/internal/logging"
	"choirgrid/internal/media/ffmpeg"
	"choirgrid/internal/media/ffprobe"
	"choirgrid/internal/project"
	"choirgrid/internal/runlog"
	"choirgrid/internal/services"
	"choirgrid/internal/track"
)

type commandContext struct {
	configFlag  *string
	projectFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	runsOnce sync.Once
	runs     *runlog.Store
	runsErr  error
}

func newCommandContext(configFlag, projectFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		projectFlag: projectFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// loggerValue returns the process logger, falling back to stderr-only
// console output when the configured sinks cannot be opened.
func (c *commandContext) loggerValue() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err == nil {
			if logger, logErr := logging.NewFromConfig(cfg); logErr == nil {
				c.logger = logger
				return
			}
		}
		logger, _ := logging.New(logging.Options{Level: "info", Format: "console"})
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) runStore() (*runlog.Store, error) {
	c.runsOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.runsErr = err
			return
		}
		c.runs, c.runsErr = runlog.Open(cfg.RunLogPath())
	})
	return c.runs, c.runsErr
}

func (c *commandContext) projectDir() string {
	if c.projectFlag == nil || strings.TrimSpace(*c.projectFlag) == "" {
		return "."
	}
	return strings.TrimSpace(*c.projectFlag)
}

func (c *commandContext) loadProject() (*project.Project, error) {
	dir, err := config.ExpandPath(c.projectDir())
	if err != nil {
		return nil, err
	}
	return project.Load(dir)
}

// runContext tags ctx with a fresh run id so log lines and run history rows
// share it.
func (c *commandContext) runContext(ctx context.Context) context.Context {
	return services.WithRunID(ctx, uuid.NewString())
}

func (c *commandContext) prober() track.Prober {
	binary := c.config.FFprobeBinary()
	return func(ctx context.Context, path string) (ffprobe.Result, error) {
		return ffprobe.Inspect(ctx, binary, path)
	}
}

func (c *commandContext) readers() ffmpeg.ReaderFactory {
	return ffmpeg.NewReaderFactory(c.config.FFmpegBinary())
}

func (c *commandContext) close() error {
	if c.runs != nil {
		err := c.runs.Close()
		c.runs = nil
		return err
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func requireConfig(ctx *commandContext) (*config.Config, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, errors.New("configuration unavailable")
	}
	return cfg, nil
}
