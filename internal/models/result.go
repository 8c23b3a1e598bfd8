// internal/models/result.go
package models

// Run statuses. StatusFailure is the only status an ErrorResult carries.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// ScoreResult is the success artifact. Field order is the order keys are
// written to the result file.
type ScoreResult struct {
	CreditScore     int             `json:"creditScore"`
	Grade           string          `json:"grade"`
	RiskLevel       string          `json:"riskLevel"`
	FactorBreakdown FactorBreakdown `json:"factorBreakdown"`
}

type FactorBreakdown struct {
	PaymentHistory    int `json:"paymentHistory"`
	CreditUtilization int `json:"creditUtilization"`
	HistoryLength     int `json:"historyLength"`
	CreditMix         int `json:"creditMix"`
	NewCredit         int `json:"newCredit"`
}

// Total returns the raw score, the sum of all factor points.
func (f FactorBreakdown) Total() int {
	return f.PaymentHistory + f.CreditUtilization + f.HistoryLength + f.CreditMix + f.NewCredit
}

// ErrorResult is the failure artifact.
type ErrorResult struct {
	Error  string `json:"error"`
	Status string `json:"status"`
}

// ManifestKey is the manifest's only field.
const ManifestKey = "deterministic-output-path"

// Manifest points the execution environment at the result file.
type Manifest struct {
	DeterministicOutputPath string `json:"deterministic-output-path"`
}
