package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvFileEnvVar      = "LIGHT_DICT_ENV"
	SettingsFileEnvVar = "SETTINGS_FILE"
	DefaultBusName     = "org.lightdict.Engine"
	DefaultOCRHelper   = "light-dict-ocr"
	settingsFileName   = "settings.yaml"
	appDirName         = "light-dict"
)

// LoadOptions carries command-line overrides. Empty fields are ignored.
type LoadOptions struct {
	EnvFileOverride      string
	SettingsFileOverride string
	LogFileOverride      string
}

// Config is the process bootstrap configuration. Live engine settings live in
// the Store at SettingsFile.
type Config struct {
	SettingsFile      string
	EnableFileLogging bool
	LogFile           string
	LogLevel          string
	HistoryFile       string
	OCRHelper         string
	BusName           string
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Sources in priority order:
	// 1) --env flag
	// 2) .env in the executable directory
	// 3) LIGHT_DICT_ENV as a path to an env file
	envPath := resolveEnvPath(opts)
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	dataDir := filepath.Join(stateHome(), appDirName)
	cfg := &Config{
		SettingsFile:      resolveSettingsFile(opts, dotenvValues),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
		LogFile:           firstNonEmpty(opts.LogFileOverride, os.Getenv("LOG_FILE"), filepath.Join(dataDir, "light-dict.log")),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		HistoryFile:       getEnvWithDefault("HISTORY_FILE", filepath.Join(dataDir, "history.jsonl")),
		OCRHelper:         getEnvWithDefault("OCR_HELPER", DefaultOCRHelper),
		BusName:           getEnvWithDefault("BUS_NAME", DefaultBusName),
	}
	return cfg, nil
}

func resolveEnvPath(opts LoadOptions) string {
	if p := strings.TrimSpace(opts.EnvFileOverride); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	if execPath, err := os.Executable(); err == nil {
		exeEnv := filepath.Join(filepath.Dir(execPath), ".env")
		if _, err := os.Stat(exeEnv); err == nil {
			return exeEnv
		}
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

// resolveSettingsFile prefers the flag, then the env file, then the process
// environment, then the XDG default.
func resolveSettingsFile(opts LoadOptions, dotenvValues map[string]string) string {
	return firstNonEmpty(
		opts.SettingsFileOverride,
		dotenvValues[SettingsFileEnvVar],
		os.Getenv(SettingsFileEnvVar),
		filepath.Join(configHome(), appDirName, settingsFileName),
	)
}

func configHome() string {
	if d := os.Getenv("XDG_CONFIG_HOME"); d != "" {
		return d
	}
	if d, err := os.UserConfigDir(); err == nil {
		return d
	}
	return "."
}

func stateHome() string {
	if d := os.Getenv("XDG_STATE_HOME"); d != "" {
		return d
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state")
	}
	return "."
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
