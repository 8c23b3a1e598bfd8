// internal/workers/infrastructure/build-result/models.go
package buildresult

import (
	apperrors "credit-score-runner/internal/common/errors"
	"credit-score-runner/internal/models"
)

// Input carries exactly one of Score or Failure.
type Input struct {
	Score   *models.ScoreResult
	Failure *apperrors.StandardError
}

type Output struct {
	Status       string `json:"status"`
	ResultPath   string `json:"resultPath"`
	ManifestPath string `json:"manifestPath"`
	// Message is the error text written for failed runs.
	Message string `json:"message,omitempty"`
	// Downgraded is set when a success artifact broke its contract and an
	// error artifact was written instead.
	Downgraded bool   `json:"downgraded,omitempty"`
	Body       []byte `json:"-"`
}
