// internal/workers/discovery/extract-archive/config.go
package extractarchive

// Config bounds what the extractor is willing to unpack.
type Config struct {
	MaxDepth     int   // nested archive levels to expand, 0 disables expansion
	MaxFileBytes int64 // per-entry decompressed size limit
	DirSuffix    string
}

func LoadConfig() *Config {
	return &Config{
		MaxDepth:     3,
		MaxFileBytes: 64 << 20,
		DirSuffix:    ".d",
	}
}
