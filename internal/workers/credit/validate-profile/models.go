// internal/workers/credit/validate-profile/models.go
package validateprofile

import "credit-score-runner/internal/models"

// Input is the raw decoded document. Numbers may be float64 or json.Number.
type Input struct {
	Document map[string]interface{} `json:"document"`
}

type Output struct {
	Profile *models.Profile `json:"profile"`
}

// numericField describes one required numeric leaf of the profile. Name is
// what error messages report; it matches the original document key except
// for late payment buckets, which are qualified.
type numericField struct {
	Section string
	Key     string
	Name    string
	Count   bool
}

var incomeFields = []numericField{
	{Section: models.SectionIncome, Key: "annualSalaryUSD", Name: "annualSalaryUSD"},
	{Section: models.SectionIncome, Key: "otherIncomeUSD", Name: "otherIncomeUSD"},
	{Section: models.SectionIncome, Key: "employmentStabilityMonths", Name: "employmentStabilityMonths"},
}

var liabilityFields = []numericField{
	{Section: models.SectionLiabilities, Key: "totalOutstandingDebtUSD", Name: "totalOutstandingDebtUSD"},
	{Section: models.SectionLiabilities, Key: "monthlyDebtPaymentUSD", Name: "monthlyDebtPaymentUSD"},
}

var utilizationFields = []numericField{
	{Section: models.SectionCreditUtilization, Key: "totalCreditLimitUSD", Name: "totalCreditLimitUSD"},
	{Section: models.SectionCreditUtilization, Key: "currentUtilizedUSD", Name: "currentUtilizedUSD"},
}

var historyFields = []numericField{
	{Section: models.SectionCreditHistory, Key: "oldestAccountMonths", Name: "oldestAccountMonths"},
	{Section: models.SectionCreditHistory, Key: "averageAccountAgeMonths", Name: "averageAccountAgeMonths"},
}

const latePaymentsKey = "latePayments"

var latePaymentFields = []numericField{
	{Key: "30D", Name: "latePayments.30D", Count: true},
	{Key: "60D", Name: "latePayments.60D", Count: true},
	{Key: "90D", Name: "latePayments.90D", Count: true},
}

var mixFields = []numericField{
	{Section: models.SectionCreditMix, Key: "creditCards", Name: "creditCards", Count: true},
	{Section: models.SectionCreditMix, Key: "installmentLoans", Name: "installmentLoans", Count: true},
	{Section: models.SectionCreditMix, Key: "mortgage", Name: "mortgage", Count: true},
}

var newCreditFields = []numericField{
	{Section: models.SectionNewCredit, Key: "hardInquiriesLast12Months", Name: "hardInquiriesLast12Months", Count: true},
	{Section: models.SectionNewCredit, Key: "newAccountsLast12Months", Name: "newAccountsLast12Months", Count: true},
}
