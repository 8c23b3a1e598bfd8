// internal/common/config/config.go
package config

import "path/filepath"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	IO        IOConfig        `mapstructure:"io"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IOConfig describes the directories the runner reads from and writes to.
type IOConfig struct {
	InputDir     string `mapstructure:"input_dir"`
	OutputDir    string `mapstructure:"output_dir"`
	ScratchDir   string `mapstructure:"scratch_dir"`
	ResultFile   string `mapstructure:"result_file"`
	ManifestFile string `mapstructure:"manifest_file"`
	SecretEnv    string `mapstructure:"secret_env"` // name of the env var holding inline JSON
}

// ResultPath returns the absolute path of the result artifact.
func (c IOConfig) ResultPath() string {
	return absPath(filepath.Join(c.OutputDir, c.ResultFile))
}

// ManifestPath returns the absolute path of the manifest artifact.
func (c IOConfig) ManifestPath() string {
	return absPath(filepath.Join(c.OutputDir, c.ManifestFile))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

// DiscoveryConfig tunes the input locator.
type DiscoveryConfig struct {
	SentinelBytes   []int  `mapstructure:"sentinel_bytes"`
	FramePrefixLen  int    `mapstructure:"frame_prefix_len"`
	MaxArchiveDepth int    `mapstructure:"max_archive_depth"`
	MaxFileBytes    int64  `mapstructure:"max_file_bytes"`
	ComputedSuffix  string `mapstructure:"computed_suffix"`
}

// Sentinels returns the framing marker bytes.
func (d DiscoveryConfig) Sentinels() []byte {
	out := make([]byte, 0, len(d.SentinelBytes))
	for _, b := range d.SentinelBytes {
		out = append(out, byte(b))
	}
	return out
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig controls the optional Prometheus textfile dump.
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// Overrides carries command-line values that win over file and env config.
type Overrides struct {
	InputDir   string
	OutputDir  string
	ScratchDir string
	LogLevel   string
}

// Apply copies every non-empty override onto cfg.
func (o Overrides) Apply(cfg *Config) {
	if o.InputDir != "" {
		cfg.IO.InputDir = o.InputDir
	}
	if o.OutputDir != "" {
		cfg.IO.OutputDir = o.OutputDir
	}
	if o.ScratchDir != "" {
		cfg.IO.ScratchDir = o.ScratchDir
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
}
