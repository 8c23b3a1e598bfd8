// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "SCORER"

// Environment variable names set by the enclosing execution environment.
const (
	EnvInputDir  = "IEXEC_IN"
	EnvOutputDir = "IEXEC_OUT"
)

// Load reads config.yaml (and config.<env>.yaml) from the usual locations,
// then applies environment overrides. A missing config file is not an error.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	env := v.GetString("app.environment")
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // ignore error if not found

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// The execution environment names its directories without our prefix.
	_ = v.BindEnv("io.input_dir", envPrefix+"_IO_INPUT_DIR", EnvInputDir)
	_ = v.BindEnv("io.output_dir", envPrefix+"_IO_OUTPUT_DIR", EnvOutputDir)
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "credit-score-runner")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "production")

	v.SetDefault("io.input_dir", "/iexec_in")
	v.SetDefault("io.output_dir", "/iexec_out")
	v.SetDefault("io.scratch_dir", filepath.Join(os.TempDir(), "iexec_input"))
	v.SetDefault("io.result_file", "result.json")
	v.SetDefault("io.manifest_file", "computed.json")
	v.SetDefault("io.secret_env", "IEXEC_REQUESTER_SECRET_1")

	v.SetDefault("discovery.sentinel_bytes", []int{0xB1, 0xB2, 0xB3})
	v.SetDefault("discovery.frame_prefix_len", 4)
	v.SetDefault("discovery.max_archive_depth", 3)
	v.SetDefault("discovery.max_file_bytes", int64(64<<20))
	v.SetDefault("discovery.computed_suffix", "computed.json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("metrics.textfile_path", "")
}

// loadEnvFile loads .env from the working directory or its parent when present.
func loadEnvFile() {
	for _, path := range []string{".env", "../.env"} {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
			v.Set(key, expanded)
		}
	}
}

// Validate re-checks a config after overrides have been applied.
func Validate(cfg *Config) error {
	return validateConfig(cfg)
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.IO.InputDir == "" {
		return fmt.Errorf("io.input_dir is required")
	}
	if cfg.IO.OutputDir == "" {
		return fmt.Errorf("io.output_dir is required")
	}
	if cfg.IO.ScratchDir == "" {
		return fmt.Errorf("io.scratch_dir is required")
	}
	for name, dir := range map[string]string{
		"io.input_dir":   cfg.IO.InputDir,
		"io.output_dir":  cfg.IO.OutputDir,
		"io.scratch_dir": cfg.IO.ScratchDir,
	} {
		if strings.Contains(dir, "${") {
			return fmt.Errorf("%s has an unresolved placeholder: %q", name, dir)
		}
	}
	for name, file := range map[string]string{
		"io.result_file":   cfg.IO.ResultFile,
		"io.manifest_file": cfg.IO.ManifestFile,
	} {
		if file == "" || filepath.Base(file) != file {
			return fmt.Errorf("%s must be a plain file name, got %q", name, file)
		}
	}
	if cfg.IO.ResultFile == cfg.IO.ManifestFile {
		return fmt.Errorf("io.result_file and io.manifest_file must differ")
	}
	for _, b := range cfg.Discovery.SentinelBytes {
		if b < 0 || b > 0xFF {
			return fmt.Errorf("discovery.sentinel_bytes: %d is not a byte value", b)
		}
	}
	if cfg.Discovery.FramePrefixLen < 0 {
		return fmt.Errorf("discovery.frame_prefix_len must be >= 0")
	}
	if cfg.Discovery.MaxArchiveDepth < 0 {
		return fmt.Errorf("discovery.max_archive_depth must be >= 0")
	}
	if cfg.Discovery.MaxFileBytes <= 0 {
		return fmt.Errorf("discovery.max_file_bytes must be > 0")
	}
	return nil
}
