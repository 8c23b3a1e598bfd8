// internal/workers/infrastructure/build-result/handler.go
package buildresult

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "credit-score-runner/internal/common/errors"
	"credit-score-runner/internal/common/fsutil"
	"credit-score-runner/internal/common/logger"
	"credit-score-runner/internal/models"
	"credit-score-runner/pkg/registry"

	"github.com/spf13/afero"
	"github.com/xeipuuv/gojsonschema"
)

const (
	TaskType = "build-result"
)

var (
	ErrNothingToEmit = errors.New("neither a score nor a failure was provided")
)

type Handler struct {
	config   *Config
	fs       afero.Fs
	registry *registry.StageRegistry
	logger   logger.Logger
}

func NewHandler(config *Config, fs afero.Fs, reg *registry.StageRegistry, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		fs:       fs,
		registry: reg,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute renders the run's single result artifact, checks it against its
// contract and persists it followed by the manifest. The returned error is
// non-nil only when an artifact could not be written.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	out := &Output{
		ResultPath:   h.config.ResultPath,
		ManifestPath: h.config.ManifestPath,
	}

	var body []byte
	var err error
	if input != nil && input.Score != nil {
		body, err = h.renderScore(input.Score)
		if err != nil {
			violation := apperrors.Normalize(err)
			h.logger.Error("score result rejected by output contract", map[string]interface{}{
				"errorCode": string(violation.Code),
				"details":   violation.Details,
			})
			out.Downgraded = true
			input = &Input{Failure: violation}
		} else {
			out.Status = models.StatusSuccess
		}
	}

	if out.Status != models.StatusSuccess {
		failure := apperrors.NewInternalError(ErrNothingToEmit)
		if input != nil && input.Failure != nil {
			failure = input.Failure
		}
		out.Status = models.StatusFailure
		out.Message = failureMessage(failure)
		body, err = h.renderFailure(out.Message)
		if err != nil {
			// The failure artifact is still written; its shape is fixed.
			h.logger.Error("error result does not match output contract", map[string]interface{}{
				"error": err,
			})
		}
	}
	out.Body = body

	if err := fsutil.WriteFileAtomic(h.fs, h.config.ResultPath, body, h.config.FileMode); err != nil {
		return out, apperrors.NewResultWriteFailedError(h.config.ResultPath, err)
	}

	manifest, err := h.renderManifest(h.config.ResultPath)
	if err != nil {
		return out, err
	}
	if err := fsutil.WriteFileAtomic(h.fs, h.config.ManifestPath, manifest, h.config.FileMode); err != nil {
		return out, apperrors.NewResultWriteFailedError(h.config.ManifestPath, err)
	}

	h.logger.Info("result written", map[string]interface{}{
		"status":       out.Status,
		"resultPath":   out.ResultPath,
		"manifestPath": out.ManifestPath,
	})
	return out, nil
}

func failureMessage(e *apperrors.StandardError) string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (h *Handler) renderScore(score *models.ScoreResult) ([]byte, error) {
	return h.render(registry.ArtifactScoreResult, score, h.config.Indent)
}

func (h *Handler) renderFailure(message string) ([]byte, error) {
	result := models.ErrorResult{Error: message, Status: models.StatusFailure}
	return h.render(registry.ArtifactErrorResult, result, h.config.Indent)
}

// renderManifest writes the single-key manifest with ": " between key and
// value, the layout the execution environment has always been given.
func (h *Handler) renderManifest(resultPath string) ([]byte, error) {
	path, err := encode(registry.ArtifactManifest, resultPath, "")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"` + models.ManifestKey + `": `)
	buf.Write(path)
	buf.WriteByte('}')
	body := buf.Bytes()

	if err := h.checkContract(registry.ArtifactManifest, body); err != nil {
		return body, err
	}
	return body, nil
}

// render encodes v and validates it against the named artifact schema. On a
// contract violation the encoded body is still returned with the error.
func (h *Handler) render(artifact string, v interface{}, indent string) ([]byte, error) {
	body, err := encode(artifact, v, indent)
	if err != nil {
		return nil, err
	}
	if err := h.checkContract(artifact, body); err != nil {
		return body, err
	}
	return body, nil
}

func encode(artifact string, v interface{}, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("encode %s: %w", artifact, err))
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (h *Handler) checkContract(artifact string, body []byte) error {
	if h.registry == nil {
		return nil
	}
	schema, err := h.registry.ArtifactSchema(TaskType, artifact)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewBytesLoader(body))
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("validation error: %w", err))
	}
	if !result.Valid() {
		violations := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			violations[i] = desc.String()
		}
		return apperrors.NewContractViolationError(artifact, violations)
	}
	return nil
}
