// internal/workers/credit/validate-profile/handler.go
package validateprofile

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	apperrors "credit-score-runner/internal/common/errors"
	"credit-score-runner/internal/common/logger"
	"credit-score-runner/internal/models"
)

const (
	TaskType = "validate-profile"
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

// Execute checks the document and returns the typed profile, or a
// VALIDATION_FAILED StandardError describing the first violated rule.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	var doc map[string]interface{}
	if input != nil {
		doc = input.Document
	}

	profile, err := h.validate(doc)
	if err != nil {
		h.logger.Info("profile rejected", map[string]interface{}{
			"field":  err.Field,
			"reason": err.Message,
		})
		return nil, err
	}

	h.logger.Debug("profile validated", nil)
	return &Output{Profile: profile}, nil
}

func (h *Handler) validate(doc map[string]interface{}) (*models.Profile, *apperrors.StandardError) {
	// (a) structure
	for _, section := range models.RequiredSections {
		if _, ok := doc[section]; !ok {
			return nil, apperrors.NewValidationError(section, fmt.Sprintf("Missing required section: %s", section))
		}
	}
	sections := make(map[string]map[string]interface{}, len(models.RequiredSections))
	for _, section := range models.RequiredSections {
		obj, ok := doc[section].(map[string]interface{})
		if !ok {
			return nil, apperrors.NewValidationError(section, fmt.Sprintf("Section '%s' must be an object", section))
		}
		sections[section] = obj
	}

	// (b) numeric fields, in document order of the sections
	p := &models.Profile{}
	var vals []float64
	var err *apperrors.StandardError

	if vals, err = h.readFields(sections, incomeFields); err != nil {
		return nil, err
	}
	p.Income = models.Income{
		AnnualSalaryUSD:           vals[0],
		OtherIncomeUSD:            vals[1],
		EmploymentStabilityMonths: vals[2],
	}

	if vals, err = h.readFields(sections, liabilityFields); err != nil {
		return nil, err
	}
	p.Liabilities = models.Liabilities{
		TotalOutstandingDebtUSD: vals[0],
		MonthlyDebtPaymentUSD:   vals[1],
	}

	if vals, err = h.readFields(sections, utilizationFields); err != nil {
		return nil, err
	}
	p.CreditUtilization = models.CreditUtilization{
		TotalCreditLimitUSD: vals[0],
		CurrentUtilizedUSD:  vals[1],
	}

	if vals, err = h.readFields(sections, historyFields); err != nil {
		return nil, err
	}
	p.CreditHistory.OldestAccountMonths = vals[0]
	p.CreditHistory.AverageAccountAgeMonths = vals[1]

	late, err := latePaymentsOf(sections[models.SectionCreditHistory])
	if err != nil {
		return nil, err
	}
	if vals, err = h.readFrom(late, latePaymentFields); err != nil {
		return nil, err
	}
	p.CreditHistory.LatePayments = models.LatePayments{
		Days30: int(vals[0]),
		Days60: int(vals[1]),
		Days90: int(vals[2]),
	}

	if vals, err = h.readFields(sections, mixFields); err != nil {
		return nil, err
	}
	p.CreditMix = models.CreditMix{
		CreditCards:      int(vals[0]),
		InstallmentLoans: int(vals[1]),
		Mortgage:         int(vals[2]),
	}

	if vals, err = h.readFields(sections, newCreditFields); err != nil {
		return nil, err
	}
	p.NewCredit = models.NewCredit{
		HardInquiriesLast12Months: int(vals[0]),
		NewAccountsLast12Months:   int(vals[1]),
	}

	// (c) cross-field rules
	if err := checkLogic(p); err != nil {
		return nil, err
	}
	return p, nil
}

func checkLogic(p *models.Profile) *apperrors.StandardError {
	util := p.CreditUtilization
	if util.TotalCreditLimitUSD <= 0 {
		return apperrors.NewValidationError("totalCreditLimitUSD", "totalCreditLimitUSD must be greater than 0")
	}
	if util.CurrentUtilizedUSD > util.TotalCreditLimitUSD {
		return apperrors.NewValidationError("currentUtilizedUSD", "currentUtilizedUSD cannot exceed totalCreditLimitUSD")
	}
	if p.Liabilities.MonthlyDebtPaymentUSD > p.Income.AnnualSalaryUSD/12 {
		return apperrors.NewValidationError("monthlyDebtPaymentUSD", "monthlyDebtPaymentUSD cannot exceed monthly income (annualSalaryUSD / 12)")
	}
	hist := p.CreditHistory
	if hist.OldestAccountMonths < hist.AverageAccountAgeMonths {
		return apperrors.NewValidationError("oldestAccountMonths", "oldestAccountMonths must be greater than or equal to averageAccountAgeMonths")
	}
	return nil
}

// latePaymentsOf returns the late payment object. An absent object behaves
// like an empty one so each bucket is reported as missing.
func latePaymentsOf(history map[string]interface{}) (map[string]interface{}, *apperrors.StandardError) {
	raw, ok := history[latePaymentsKey]
	if !ok {
		return map[string]interface{}{}, nil
	}
	late, ok := raw.(map[string]interface{})
	if !ok {
		return nil, apperrors.NewValidationError(latePaymentsKey,
			fmt.Sprintf("Field '%s' must be an object. Got: %s", latePaymentsKey, formatValue(raw)))
	}
	return late, nil
}

func (h *Handler) readFields(sections map[string]map[string]interface{}, fields []numericField) ([]float64, *apperrors.StandardError) {
	if len(fields) == 0 {
		return nil, nil
	}
	return h.readFrom(sections[fields[0].Section], fields)
}

func (h *Handler) readFrom(obj map[string]interface{}, fields []numericField) ([]float64, *apperrors.StandardError) {
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		raw := obj[f.Key]
		v, ok := toNumber(raw)
		if !ok || v < 0 {
			return nil, apperrors.NewValidationError(f.Name,
				fmt.Sprintf("Field '%s' must be a non-negative number. Got: %s", f.Name, formatValue(raw)))
		}
		if f.Count && (v != math.Trunc(v) || v > h.config.countCeiling()) {
			return nil, apperrors.NewValidationError(f.Name,
				fmt.Sprintf("Field '%s' must be a non-negative integer. Got: %s", f.Name, formatValue(raw)))
		}
		out = append(out, v)
	}
	return out, nil
}

// toNumber accepts JSON numbers only. Booleans and numeric strings are not
// numbers.
func toNumber(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case json.Number:
		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func formatValue(raw interface{}) string {
	switch v := raw.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
