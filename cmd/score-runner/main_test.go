// cmd/score-runner/main_test.go
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-score-runner/internal/pipeline"
)

const profileJSON = `{
  "income": {"annualSalaryUSD": 120000, "otherIncomeUSD": 0, "employmentStabilityMonths": 48},
  "liabilities": {"totalOutstandingDebtUSD": 5000, "monthlyDebtPaymentUSD": 500},
  "creditUtilization": {"totalCreditLimitUSD": 20000, "currentUtilizedUSD": 1000},
  "creditHistory": {"oldestAccountMonths": 130, "averageAccountAgeMonths": 60, "latePayments": {"30D": 0, "60D": 0, "90D": 0}},
  "creditMix": {"creditCards": 2, "installmentLoans": 1, "mortgage": 1},
  "newCredit": {"hardInquiriesLast12Months": 0, "newAccountsLast12Months": 0}
}`

type dirs struct {
	in, out, scratch string
}

func newDirs(t *testing.T) dirs {
	t.Helper()
	t.Setenv("IEXEC_REQUESTER_SECRET_1", "")
	return dirs{in: t.TempDir(), out: t.TempDir(), scratch: t.TempDir()}
}

func (d dirs) args(extra ...string) []string {
	return append([]string{"--in", d.in, "--out", d.out, "--scratch", d.scratch, "--log-level", "error"}, extra...)
}

func execute(t *testing.T, args []string) (int, string, error) {
	t.Helper()
	code := -1
	cmd := newRootCmd(&code)
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return code, stdout.String(), err
}

func TestRootCmd_ScoresProfile(t *testing.T) {
	d := newDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(d.in, "profile.json"), []byte(profileJSON), 0o644))

	code, stdout, err := execute(t, d.args())
	require.NoError(t, err)
	assert.Equal(t, pipeline.ExitSuccess, code)
	assert.Empty(t, stdout)

	result, err := os.ReadFile(filepath.Join(d.out, "result.json"))
	require.NoError(t, err)
	assert.Contains(t, string(result), `"creditScore": 850`)

	manifest, err := os.ReadFile(filepath.Join(d.out, "computed.json"))
	require.NoError(t, err)
	assert.Contains(t, string(manifest), filepath.Join(d.out, "result.json"))
}

func TestRootCmd_EmptyInputExitsNonZero(t *testing.T) {
	d := newDirs(t)

	code, _, err := execute(t, d.args())
	require.NoError(t, err)
	assert.Equal(t, pipeline.ExitFailure, code)

	result, err := os.ReadFile(filepath.Join(d.out, "result.json"))
	require.NoError(t, err)
	assert.Contains(t, string(result), `"status": "FAILURE"`)
	_, err = os.Stat(filepath.Join(d.out, "computed.json"))
	assert.NoError(t, err)
}

func TestRootCmd_SecretFromEnvironment(t *testing.T) {
	d := newDirs(t)
	t.Setenv("IEXEC_REQUESTER_SECRET_1", profileJSON)

	code, _, err := execute(t, d.args())
	require.NoError(t, err)
	assert.Equal(t, pipeline.ExitSuccess, code)
}

func TestRootCmd_ConfigFile(t *testing.T) {
	d := newDirs(t)
	require.NoError(t, os.WriteFile(filepath.Join(d.in, "profile.json"), []byte(profileJSON), 0o644))

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("io:\n  result_file: score.json\n"), 0o644))

	code, _, err := execute(t, d.args("--config", cfgPath))
	require.NoError(t, err)
	assert.Equal(t, pipeline.ExitSuccess, code)

	_, err = os.Stat(filepath.Join(d.out, "score.json"))
	assert.NoError(t, err)
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	d := newDirs(t)
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("io:\n  result_file: nested/result.json\n"), 0o644))

	code, _, err := execute(t, d.args("--config", cfgPath))
	require.Error(t, err)
	assert.Equal(t, pipeline.ExitFailure, code)
}

func TestStagesCmd(t *testing.T) {
	code, stdout, err := execute(t, []string{"stages", "list"})
	require.NoError(t, err)
	assert.Equal(t, -1, code)
	assert.Contains(t, stdout, "locate-input")
	assert.Contains(t, stdout, "VALIDATION_FAILED")

	_, stdout, err = execute(t, []string{"stages", "validate"})
	require.NoError(t, err)
	assert.Contains(t, stdout, "Registry is valid: 5 stages")

	bad := filepath.Join(t.TempDir(), "stages.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"stages": [{"id": "build-result", "order": 1}]}`), 0o644))
	_, _, err = execute(t, []string{"stages", "validate", "--path", bad})
	assert.Error(t, err)
}
