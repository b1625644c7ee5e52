// Package config provides configuration management for the ETL.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Store   StoreConfig
	Sources SourcesConfig
	// RulesFile is an optional YAML override of the default rules.
	RulesFile string
	// UnitCostStrict makes unit-cost loading fail on malformed input.
	UnitCostStrict bool
	Debug          bool
}

// StoreConfig represents the fact store configuration.
type StoreConfig struct {
	DatabaseURL string
}

// SourcesConfig represents the upload directory and its file names.
type SourcesConfig struct {
	UploadsDir   string
	ExpensesFile string
	SalesFile    string
	UnitCostFile string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	strict, err := parseBoolEnv("UNIT_COST_STRICT", false)
	if err != nil {
		return nil, err
	}
	debug, err := parseBoolEnv("DEBUG", false)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Store: StoreConfig{
			DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		},
		Sources: SourcesConfig{
			UploadsDir:   getEnvOrDefault("UPLOADS_DIR", "./uploads"),
			ExpensesFile: getEnvOrDefault("EXPENSES_FILE", "gastos.xls"),
			SalesFile:    getEnvOrDefault("SALES_FILE", "ventas.xlsx"),
			UnitCostFile: getEnvOrDefault("UNIT_COST_FILE", "costo_unitario.xlsx"),
		},
		RulesFile:      os.Getenv("RULES_FILE"),
		UnitCostStrict: strict,
		Debug:          debug,
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "store":
			switch path[1] {
			case "databaseUrl":
				value = c.Store.DatabaseURL
			}
		case "sources":
			switch path[1] {
			case "uploadsDir":
				value = c.Sources.UploadsDir
			case "expensesFile":
				value = c.Sources.ExpensesFile
			case "salesFile":
				value = c.Sources.SalesFile
			case "unitCostFile":
				value = c.Sources.UnitCostFile
			}
		case "rules":
			switch path[1] {
			case "file":
				value = c.RulesFile
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseBoolEnv parses a bool from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean value for %s: %s", key, value)
	}

	return parsed, nil
}
