package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Trading Companion Configuration

[journal]
# Directory holding profile databases and attachment files
# data_dir = "~/.local/share/trading-companion"
# Significant digits for derived average prices
price_precision = 7
# Broker preselected when recording executions: ZERODHA, FINVASIA, PAPER
default_broker = "ZERODHA"
# Instrument preselected when recording executions: EQUITY, FUTURE, OPTION
default_instrument = "EQUITY"

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to console
console = true
# Log to rotating file
file = true
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return fmt.Errorf("config file not found, created template at %s", path)
}
