// internal/workers/infrastructure/build-result/config.go
package buildresult

import (
	"os"

	"credit-score-runner/internal/common/config"
)

type Config struct {
	ResultPath   string
	ManifestPath string
	Indent       string
	FileMode     os.FileMode
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		ResultPath:   cfg.IO.ResultPath(),
		ManifestPath: cfg.IO.ManifestPath(),
		Indent:       "    ",
		FileMode:     0o644,
	}
}
