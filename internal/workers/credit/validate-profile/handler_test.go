// internal/workers/credit/validate-profile/handler_test.go
package validateprofile

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	apperrors "credit-score-runner/internal/common/errors"
	"credit-score-runner/internal/common/logger"
	"credit-score-runner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

const validProfileJSON = `{
	"income": {"annualSalaryUSD": 96000, "otherIncomeUSD": 2000, "employmentStabilityMonths": 36},
	"liabilities": {"totalOutstandingDebtUSD": 15000, "monthlyDebtPaymentUSD": 1200},
	"creditUtilization": {"totalCreditLimitUSD": 10000, "currentUtilizedUSD": 2500},
	"creditHistory": {
		"oldestAccountMonths": 84,
		"averageAccountAgeMonths": 40,
		"latePayments": {"30D": 1, "60D": 0, "90D": 0}
	},
	"creditMix": {"creditCards": 2, "installmentLoans": 1, "mortgage": 0},
	"newCredit": {"hardInquiriesLast12Months": 2, "newAccountsLast12Months": 1}
}`

func createTestDocument(t *testing.T) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(validProfileJSON), &doc))
	return doc
}

func section(doc map[string]interface{}, name string) map[string]interface{} {
	return doc[name].(map[string]interface{})
}

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(), logger.NewTestLogger(t))
}

func runValidation(t *testing.T, doc map[string]interface{}) (*Output, *apperrors.StandardError) {
	t.Helper()
	out, err := newTestHandler(t).Execute(context.Background(), &Input{Document: doc})
	if err == nil {
		return out, nil
	}
	var stdErr *apperrors.StandardError
	require.True(t, errors.As(err, &stdErr), "expected StandardError, got %T", err)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
	return nil, stdErr
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ValidProfile(t *testing.T) {
	out, err := runValidation(t, createTestDocument(t))
	require.Nil(t, err)

	assert.Equal(t, &models.Profile{
		Income:            models.Income{AnnualSalaryUSD: 96000, OtherIncomeUSD: 2000, EmploymentStabilityMonths: 36},
		Liabilities:       models.Liabilities{TotalOutstandingDebtUSD: 15000, MonthlyDebtPaymentUSD: 1200},
		CreditUtilization: models.CreditUtilization{TotalCreditLimitUSD: 10000, CurrentUtilizedUSD: 2500},
		CreditHistory: models.CreditHistory{
			OldestAccountMonths:     84,
			AverageAccountAgeMonths: 40,
			LatePayments:            models.LatePayments{Days30: 1},
		},
		CreditMix: models.CreditMix{CreditCards: 2, InstallmentLoans: 1},
		NewCredit: models.NewCredit{HardInquiriesLast12Months: 2, NewAccountsLast12Months: 1},
	}, out.Profile)
}

func TestHandler_Execute_JSONNumbers(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(validProfileJSON))
	dec.UseNumber()
	var doc map[string]interface{}
	require.NoError(t, dec.Decode(&doc))

	out, err := runValidation(t, doc)
	require.Nil(t, err)
	assert.Equal(t, 96000.0, out.Profile.Income.AnnualSalaryUSD)
	assert.Equal(t, 1, out.Profile.CreditHistory.LatePayments.Days30)
}

func TestHandler_Execute_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(doc map[string]interface{})
		wantField   string
		wantMessage string
	}{
		{
			name:        "missing section",
			mutate:      func(doc map[string]interface{}) { delete(doc, "creditMix") },
			wantField:   "creditMix",
			wantMessage: "Missing required section: creditMix",
		},
		{
			name: "missing reported before wrong type",
			mutate: func(doc map[string]interface{}) {
				doc["income"] = "lots"
				delete(doc, "newCredit")
			},
			wantField:   "newCredit",
			wantMessage: "Missing required section: newCredit",
		},
		{
			name:        "section not an object",
			mutate:      func(doc map[string]interface{}) { doc["liabilities"] = []interface{}{1.0} },
			wantField:   "liabilities",
			wantMessage: "Section 'liabilities' must be an object",
		},
		{
			name:        "missing field",
			mutate:      func(doc map[string]interface{}) { delete(section(doc, "income"), "otherIncomeUSD") },
			wantField:   "otherIncomeUSD",
			wantMessage: "Field 'otherIncomeUSD' must be a non-negative number. Got: null",
		},
		{
			name:        "negative number",
			mutate:      func(doc map[string]interface{}) { section(doc, "income")["annualSalaryUSD"] = -1.0 },
			wantField:   "annualSalaryUSD",
			wantMessage: "Field 'annualSalaryUSD' must be a non-negative number. Got: -1",
		},
		{
			name:        "numeric string",
			mutate:      func(doc map[string]interface{}) { section(doc, "liabilities")["monthlyDebtPaymentUSD"] = "100" },
			wantField:   "monthlyDebtPaymentUSD",
			wantMessage: `Field 'monthlyDebtPaymentUSD' must be a non-negative number. Got: "100"`,
		},
		{
			name:        "boolean is not a number",
			mutate:      func(doc map[string]interface{}) { section(doc, "creditMix")["mortgage"] = true },
			wantField:   "mortgage",
			wantMessage: "Field 'mortgage' must be a non-negative number. Got: true",
		},
		{
			name: "missing late payments object",
			mutate: func(doc map[string]interface{}) {
				delete(section(doc, "creditHistory"), "latePayments")
			},
			wantField:   "latePayments.30D",
			wantMessage: "Field 'latePayments.30D' must be a non-negative number. Got: null",
		},
		{
			name: "late payments not an object",
			mutate: func(doc map[string]interface{}) {
				section(doc, "creditHistory")["latePayments"] = 3.0
			},
			wantField:   "latePayments",
			wantMessage: "Field 'latePayments' must be an object. Got: 3",
		},
		{
			name: "fractional count",
			mutate: func(doc map[string]interface{}) {
				section(doc, "creditHistory")["latePayments"].(map[string]interface{})["60D"] = 1.5
			},
			wantField:   "latePayments.60D",
			wantMessage: "Field 'latePayments.60D' must be a non-negative integer. Got: 1.5",
		},
		{
			name:        "zero credit limit",
			mutate:      func(doc map[string]interface{}) { section(doc, "creditUtilization")["totalCreditLimitUSD"] = 0.0 },
			wantField:   "totalCreditLimitUSD",
			wantMessage: "totalCreditLimitUSD must be greater than 0",
		},
		{
			name:        "utilization over limit",
			mutate:      func(doc map[string]interface{}) { section(doc, "creditUtilization")["currentUtilizedUSD"] = 10001.0 },
			wantField:   "currentUtilizedUSD",
			wantMessage: "currentUtilizedUSD cannot exceed totalCreditLimitUSD",
		},
		{
			name:        "debt over monthly income",
			mutate:      func(doc map[string]interface{}) { section(doc, "liabilities")["monthlyDebtPaymentUSD"] = 8000.01 },
			wantField:   "monthlyDebtPaymentUSD",
			wantMessage: "monthlyDebtPaymentUSD cannot exceed monthly income (annualSalaryUSD / 12)",
		},
		{
			name:        "oldest younger than average",
			mutate:      func(doc map[string]interface{}) { section(doc, "creditHistory")["averageAccountAgeMonths"] = 85.0 },
			wantField:   "oldestAccountMonths",
			wantMessage: "oldestAccountMonths must be greater than or equal to averageAccountAgeMonths",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := createTestDocument(t)
			tt.mutate(doc)

			out, err := runValidation(t, doc)
			assert.Nil(t, out)
			require.NotNil(t, err)
			assert.Equal(t, tt.wantField, err.Field)
			assert.Equal(t, tt.wantMessage, err.Message)
		})
	}
}

func TestHandler_Execute_DebtAtExactlyMonthlyIncome(t *testing.T) {
	doc := createTestDocument(t)
	section(doc, "liabilities")["monthlyDebtPaymentUSD"] = 8000.0

	_, err := runValidation(t, doc)
	assert.Nil(t, err)
}

func TestHandler_Execute_UtilizationRuleWinsOverLaterRules(t *testing.T) {
	doc := createTestDocument(t)
	section(doc, "creditUtilization")["currentUtilizedUSD"] = 50000.0
	section(doc, "liabilities")["monthlyDebtPaymentUSD"] = 9000.0
	section(doc, "creditHistory")["averageAccountAgeMonths"] = 200.0

	_, err := runValidation(t, doc)
	require.NotNil(t, err)
	assert.Equal(t, "currentUtilizedUSD cannot exceed totalCreditLimitUSD", err.Message)
}

func TestHandler_Execute_EarlierFieldReportedFirst(t *testing.T) {
	doc := createTestDocument(t)
	section(doc, "newCredit")["newAccountsLast12Months"] = -2.0
	section(doc, "income")["employmentStabilityMonths"] = -3.0

	_, err := runValidation(t, doc)
	require.NotNil(t, err)
	assert.Equal(t, "employmentStabilityMonths", err.Field)
}

func TestHandler_Execute_CountsMustBeWhole(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		value  float64
	}{
		{"fractional inquiries", nil, 2.5},
		{"above the int32 range", nil, float64(math.MaxInt32) + 1},
		{"above configured ceiling", &Config{MaxCount: 50}, 51},
		{"unset ceiling still rejects fractions", &Config{}, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := createTestDocument(t)
			section(doc, "newCredit")["hardInquiriesLast12Months"] = tt.value

			h := NewHandler(tt.config, logger.NewNoOpLogger())
			out, err := h.Execute(context.Background(), &Input{Document: doc})
			assert.Nil(t, out)
			require.Error(t, err)

			var stdErr *apperrors.StandardError
			require.True(t, errors.As(err, &stdErr))
			assert.Equal(t, "hardInquiriesLast12Months", stdErr.Field)
			assert.Contains(t, stdErr.Message, "must be a non-negative integer")
		})
	}
}

func TestHandler_Execute_CountAtConfiguredCeiling(t *testing.T) {
	doc := createTestDocument(t)
	section(doc, "newCredit")["hardInquiriesLast12Months"] = 50.0

	h := NewHandler(&Config{MaxCount: 50}, logger.NewNoOpLogger())
	out, err := h.Execute(context.Background(), &Input{Document: doc})
	require.NoError(t, err)
	assert.Equal(t, 50, out.Profile.NewCredit.HardInquiriesLast12Months)
}

func TestHandler_Execute_NilDocument(t *testing.T) {
	_, err := runValidation(t, nil)
	require.NotNil(t, err)
	assert.Equal(t, "Missing required section: income", err.Message)
}

func TestHandler_Execute_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		doc := createTestDocument(t)
		section(doc, "creditMix")["creditCards"] = -1.0
		section(doc, "newCredit")["newAccountsLast12Months"] = -1.0

		_, err := runValidation(t, doc)
		require.NotNil(t, err)
		assert.Equal(t, "creditCards", err.Field)
	}
}
