// internal/workers/credit/calculate-credit-score/handler.go
package calculatecreditscore

import (
	"context"
	"errors"
	"math"

	"credit-score-runner/internal/common/logger"
	"credit-score-runner/internal/models"
)

const (
	TaskType = "calculate-credit-score"
)

var (
	ErrMissingProfile = errors.New("SCORING_PROFILE_MISSING")
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil || input.Profile == nil {
		return nil, ErrMissingProfile
	}
	p := input.Profile

	breakdown := models.FactorBreakdown{
		PaymentHistory:    CalculatePaymentHistory(p.CreditHistory.LatePayments),
		CreditUtilization: CalculateUtilization(p.CreditUtilization),
		HistoryLength:     CalculateHistoryLength(p.CreditHistory),
		CreditMix:         CalculateCreditMix(p.CreditMix),
		NewCredit:         CalculateNewCredit(p.NewCredit),
	}

	raw := breakdown.Total()
	score := h.finalScore(raw)
	grade, risk := RiskGrade(score)

	h.logger.Info("credit score calculated", map[string]interface{}{
		"rawScore":    raw,
		"creditScore": score,
		"grade":       grade,
		"breakdown":   breakdown,
	})

	return &Output{
		RawScore: raw,
		Result: models.ScoreResult{
			CreditScore:     score,
			Grade:           grade,
			RiskLevel:       risk,
			FactorBreakdown: breakdown,
		},
	}, nil
}

func (h *Handler) finalScore(raw int) int {
	return normalize(raw, h.config.BaseScore, h.config.MaxScore, h.config.PointMultiplier)
}

// FinalScore maps raw points onto [300,850] with the default constants.
// Halves round to even: raw 45 gives 547.5 which becomes 548, raw 1 gives
// 305.5 which becomes 306, raw 3 gives 316.5 which becomes 316.
func FinalScore(raw int) int {
	cfg := LoadConfig()
	return normalize(raw, cfg.BaseScore, cfg.MaxScore, cfg.PointMultiplier)
}

func normalize(raw, base, ceiling int, multiplier float64) int {
	score := int(math.RoundToEven(float64(base) + float64(raw)*multiplier))
	if score < base {
		return base
	}
	if score > ceiling {
		return ceiling
	}
	return score
}

// RiskGrade returns the letter grade and risk label for a final score.
func RiskGrade(score int) (string, string) {
	for _, b := range gradeBands {
		if score >= b.min && score <= b.max {
			return b.grade, b.riskLevel
		}
	}
	return fallbackGrade, fallbackRiskLevel
}

// ==========================
// Factor calculators
// ==========================

// CalculatePaymentHistory scores delinquencies, 35 points max.
func CalculatePaymentHistory(late models.LatePayments) int {
	score := 35 - 5*late.Days30 - 10*late.Days60 - 20*late.Days90
	if score < 0 {
		return 0
	}
	return score
}

// CalculateUtilization scores the utilized/limit ratio, 30 points max.
func CalculateUtilization(u models.CreditUtilization) int {
	if u.TotalCreditLimitUSD <= 0 {
		return 0
	}
	ratio := u.CurrentUtilizedUSD / u.TotalCreditLimitUSD

	if ratio < 0.10 {
		return 30
	} else if ratio < 0.30 {
		return 25
	} else if ratio < 0.50 {
		return 15
	} else if ratio <= 0.75 {
		return 5
	}
	return 0
}

// CalculateHistoryLength scores the age of the oldest account, 15 points max.
func CalculateHistoryLength(history models.CreditHistory) int {
	oldest := history.OldestAccountMonths
	if oldest >= 120 {
		return 15
	} else if oldest >= 60 {
		return 10
	} else if oldest >= 24 {
		return 5
	}
	return 0
}

// CalculateCreditMix scores the number of distinct credit types held.
func CalculateCreditMix(mix models.CreditMix) int {
	types := 0
	for _, n := range []int{mix.CreditCards, mix.InstallmentLoans, mix.Mortgage} {
		if n > 0 {
			types++
		}
	}

	switch types {
	case 3:
		return 10
	case 2:
		return 7
	case 1:
		return 3
	default:
		return 0
	}
}

// CalculateNewCredit scores recent hard inquiries, 10 points max.
func CalculateNewCredit(nc models.NewCredit) int {
	inquiries := nc.HardInquiriesLast12Months
	if inquiries <= 0 {
		return 10
	} else if inquiries <= 2 {
		return 7
	} else if inquiries <= 5 {
		return 3
	}
	return 0
}
