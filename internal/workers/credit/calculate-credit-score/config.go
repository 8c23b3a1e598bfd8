// internal/workers/credit/calculate-credit-score/config.go
package calculatecreditscore

// Config holds the normalization constants mapping raw points onto the
// reported score range.
type Config struct {
	BaseScore       int
	MaxScore        int
	PointMultiplier float64
}

func LoadConfig() *Config {
	return &Config{
		BaseScore:       300,
		MaxScore:        850,
		PointMultiplier: 5.5,
	}
}
