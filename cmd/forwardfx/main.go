// Package main is the entry point for the forwardfx viewer.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/forwardfx/internal/app"
	"github.com/Faultbox/forwardfx/internal/config"
	"github.com/Faultbox/forwardfx/internal/logger"
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

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			logger.Error("failed to write config", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("config written", zap.String("path", path))
		return
	}

	logger.Info("=== forwardfx ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("failed to create app", zap.Error(err))
		os.Exit(1)
	}

	if err := a.Run(); err != nil {
		a.Close()
		logger.Error("frame loop error", zap.Error(err))
		os.Exit(1)
	}
	a.Close()

	logger.Info("closed normally")
}
