// Package main is the entry point for the interactive terrain viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/dsterrain/internal/config"
	"github.com/Faultbox/dsterrain/internal/heightmap"
	"github.com/Faultbox/dsterrain/internal/logger"
	"github.com/Faultbox/dsterrain/internal/pipeline"
	"github.com/Faultbox/dsterrain/internal/viewer"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== DS Terrain Viewer ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	generate := func(p viewer.Params) (*heightmap.ColorMap, error) {
		c := *cfg
		c.Synthesis.Seed = p.Seed
		c.Synthesis.Boundary = p.Boundary
		res, err := pipeline.Heightmap(&c)
		if err != nil {
			return nil, err
		}
		return res.Heights.Colors, nil
	}

	v, err := viewer.New(viewer.Config{
		Window: viewer.WindowConfig{
			Title:  "DS Terrain",
			Width:  cfg.Viewer.Width,
			Height: cfg.Viewer.Height,
			VSync:  cfg.Viewer.VSync,
		},
		Params: viewer.Params{
			Seed:     cfg.Synthesis.Seed,
			Boundary: cfg.Synthesis.Boundary,
		},
		ScreenshotDir: "screenshots",
	}, generate)
	if err != nil {
		logger.Error("failed to create viewer", zap.Error(err))
		os.Exit(1)
	}
	defer v.Close()

	if err := v.Run(); err != nil {
		logger.Error("viewer error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("viewer closed normally")
}
