// Package config resolves the filesystem paths the installer works against.
// The defaults match a stock AllStarLink appliance; an optional
// /etc/default/asl-addons file and the process environment can override
// them for non-standard layouts and for tests.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Defaults for a stock AllStarLink appliance.
const (
	DefaultRptConf  = "/etc/asterisk/rpt.conf"
	DefaultLogFile  = "/var/log/asl-addons.log"
	DefaultWebRoot  = "/var/www/html"
	DefaultStateDir = "/var/lib/asl-addons"

	// DefaultsFile is the optional appliance-level override file.
	DefaultsFile = "/etc/default/asl-addons"
)

// Override keys, recognized both in the defaults file and the environment.
// The environment wins.
const (
	EnvRptConf  = "ASL_ADDONS_RPT_CONF"
	EnvLogFile  = "ASL_ADDONS_LOG_FILE"
	EnvWebRoot  = "ASL_ADDONS_WEB_ROOT"
	EnvStateDir = "ASL_ADDONS_STATE_DIR"

	// EnvDefaults relocates the defaults file itself; environment-only.
	EnvDefaults = "ASL_ADDONS_DEFAULTS"
)

// Config holds the resolved paths for a run.
type Config struct {
	// RptConf is the shared Asterisk config file the add-ons patch
	RptConf string

	// LogFile is the append-only run log
	LogFile string

	// WebRoot is the web document root the PHP add-ons install under
	WebRoot string

	// StateDir holds install receipts
	StateDir string
}

// Default returns the stock appliance paths with no overrides applied.
func Default() *Config {
	return &Config{
		RptConf:  DefaultRptConf,
		LogFile:  DefaultLogFile,
		WebRoot:  DefaultWebRoot,
		StateDir: DefaultStateDir,
	}
}

// Load resolves paths by layering: built-in defaults, then the defaults
// file, then the process environment. A missing defaults file is fine; an
// unreadable or malformed one is an error.
func Load() (*Config, error) {
	path := os.Getenv(EnvDefaults)
	if path == "" {
		path = DefaultsFile
	}

	fileVars, err := parseDefaultsFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		fileVars = map[string]string{}
	}

	return &Config{
		RptConf:  resolve(fileVars, EnvRptConf, DefaultRptConf),
		LogFile:  resolve(fileVars, EnvLogFile, DefaultLogFile),
		WebRoot:  resolve(fileVars, EnvWebRoot, DefaultWebRoot),
		StateDir: resolve(fileVars, EnvStateDir, DefaultStateDir),
	}, nil
}

// resolve layers a defaults-file value over the built-in default, then the
// process environment over both.
func resolve(fileVars map[string]string, key, defaultValue string) string {
	value := getStringOrDefault(fileVars, key, defaultValue)
	if env := os.Getenv(key); env != "" {
		value = env
	}
	return value
}

// parseDefaultsFile parses a shell-style defaults file into key-value
// pairs. It handles:
// - KEY=VALUE, with an optional "export " prefix
// - KEY="VALUE" and KEY='VALUE' (quotes are stripped)
// - Comments (lines starting with #)
// - Empty lines (skipped)
// - Values containing = signs (only the first = delimits)
func parseDefaultsFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	envVars := make(map[string]string)
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		line = strings.TrimPrefix(line, "export ")

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		envVars[key] = value
	}

	return envVars, scanner.Err()
}

// getStringOrDefault returns the value for key or a default if not present.
func getStringOrDefault(envVars map[string]string, key, defaultValue string) string {
	if value, exists := envVars[key]; exists && value != "" {
		return value
	}
	return defaultValue
}
