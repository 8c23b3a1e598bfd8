// internal/workers/credit/validate-profile/config.go
package validateprofile

import "math"

// Config bounds the values accepted on top of the base rules.
type Config struct {
	// MaxCount is the largest whole value a count field such as late
	// payments or inquiries may hold. It never exceeds math.MaxInt32.
	MaxCount float64
}

func LoadConfig() *Config {
	return &Config{
		MaxCount: math.MaxInt32,
	}
}

func (c *Config) countCeiling() float64 {
	if c.MaxCount <= 0 || c.MaxCount > math.MaxInt32 {
		return math.MaxInt32
	}
	return c.MaxCount
}
