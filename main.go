package main

import (
	"fmt"
	"os"

	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/cli"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/config"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/logging"
	"github.com/SaurabhSandav/TradingCompanion-sub000/internal/profile"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	configDir := ""
	for i, arg := range os.Args {
		if arg == "--config" && i+1 < len(os.Args) {
			configDir = os.Args[i+1]
		}
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultLogConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Console = cfg.Logging.Console
	logCfg.File = cfg.Logging.File
	logger := logging.NewLoggerWithConfig(logCfg)

	registry, err := profile.NewRegistry(profile.RegistryConfig{
		Dir:            cfg.ProfilesDir(),
		AttachmentsDir: cfg.AttachmentsDir(),
		PricePrecision: int32(cfg.Journal.PricePrecision),
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer registry.Close()

	rootCmd := cli.NewRootCmd(cfg, logger, registry)
	return rootCmd.Execute()
}
