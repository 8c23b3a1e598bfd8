// internal/models/profile.go
package models

// Profile is the validated financial input to the scorer. It is built once per
// run by the validator and never mutated afterwards.
type Profile struct {
	Income            Income            `json:"income"`
	Liabilities       Liabilities       `json:"liabilities"`
	CreditUtilization CreditUtilization `json:"creditUtilization"`
	CreditHistory     CreditHistory     `json:"creditHistory"`
	CreditMix         CreditMix         `json:"creditMix"`
	NewCredit         NewCredit         `json:"newCredit"`
}

type Income struct {
	AnnualSalaryUSD           float64 `json:"annualSalaryUSD"`
	OtherIncomeUSD            float64 `json:"otherIncomeUSD"`
	EmploymentStabilityMonths float64 `json:"employmentStabilityMonths"`
}

type Liabilities struct {
	TotalOutstandingDebtUSD float64 `json:"totalOutstandingDebtUSD"`
	MonthlyDebtPaymentUSD   float64 `json:"monthlyDebtPaymentUSD"`
}

type CreditUtilization struct {
	TotalCreditLimitUSD float64 `json:"totalCreditLimitUSD"`
	CurrentUtilizedUSD  float64 `json:"currentUtilizedUSD"`
}

type CreditHistory struct {
	OldestAccountMonths     float64      `json:"oldestAccountMonths"`
	AverageAccountAgeMonths float64      `json:"averageAccountAgeMonths"`
	LatePayments            LatePayments `json:"latePayments"`
}

// LatePayments counts delinquencies by bucket.
type LatePayments struct {
	Days30 int `json:"30D"`
	Days60 int `json:"60D"`
	Days90 int `json:"90D"`
}

type CreditMix struct {
	CreditCards      int `json:"creditCards"`
	InstallmentLoans int `json:"installmentLoans"`
	Mortgage         int `json:"mortgage"`
}

type NewCredit struct {
	HardInquiriesLast12Months int `json:"hardInquiriesLast12Months"`
	NewAccountsLast12Months   int `json:"newAccountsLast12Months"`
}

// Section keys as they appear in the input document.
const (
	SectionIncome            = "income"
	SectionLiabilities       = "liabilities"
	SectionCreditUtilization = "creditUtilization"
	SectionCreditHistory     = "creditHistory"
	SectionCreditMix         = "creditMix"
	SectionNewCredit         = "newCredit"
)

// RequiredSections lists the profile sections in validation order.
var RequiredSections = []string{
	SectionIncome,
	SectionLiabilities,
	SectionCreditUtilization,
	SectionCreditHistory,
	SectionCreditMix,
	SectionNewCredit,
}

// ProfileMarkerKey identifies a JSON object as a profile during input discovery.
const ProfileMarkerKey = SectionIncome
