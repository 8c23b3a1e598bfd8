// internal/workers/credit/calculate-credit-score/models.go
package calculatecreditscore

import "credit-score-runner/internal/models"

type Input struct {
	Profile *models.Profile `json:"profile"`
}

type Output struct {
	RawScore int                `json:"rawScore"`
	Result   models.ScoreResult `json:"result"`
}

// Grade bands, highest first.
type gradeBand struct {
	min, max  int
	grade     string
	riskLevel string
}

var gradeBands = []gradeBand{
	{800, 850, "A", "LOW RISK"},
	{740, 799, "B", "LOW-MEDIUM"},
	{670, 739, "C", "MEDIUM"},
	{580, 669, "D", "HIGH"},
}

const (
	fallbackGrade     = "E"
	fallbackRiskLevel = "VERY HIGH"
)
