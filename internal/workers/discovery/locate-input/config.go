// internal/workers/discovery/locate-input/config.go
package locateinput

import "credit-score-runner/internal/common/config"

// Config carries the directories to search and the cleanup rules applied
// to each candidate file.
type Config struct {
	InputDir       string
	ScratchDir     string
	ReservedNames  []string // output artifacts that are never read back as input
	ComputedSuffix string
	Sentinels      []byte
	FramePrefixLen int
	MaxFileBytes   int64
}

// SearchDirs returns the directories scanned for files, in priority order.
// Extracted content is preferred over the raw input.
func (c *Config) SearchDirs() []string {
	return []string{c.ScratchDir, c.InputDir}
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		InputDir:       cfg.IO.InputDir,
		ScratchDir:     cfg.IO.ScratchDir,
		ReservedNames:  []string{cfg.IO.ResultFile},
		ComputedSuffix: cfg.Discovery.ComputedSuffix,
		Sentinels:      cfg.Discovery.Sentinels(),
		FramePrefixLen: cfg.Discovery.FramePrefixLen,
		MaxFileBytes:   cfg.Discovery.MaxFileBytes,
	}
}
