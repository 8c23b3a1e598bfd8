// internal/workers/discovery/locate-input/handler.go
package locateinput

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "credit-score-runner/internal/common/errors"
	"credit-score-runner/internal/common/fsutil"
	"credit-score-runner/internal/common/logger"
	"credit-score-runner/internal/common/metrics"
	"credit-score-runner/internal/models"
	extractarchive "credit-score-runner/internal/workers/discovery/extract-archive"

	"github.com/spf13/afero"
)

const (
	TaskType = "locate-input"
)

var errTrailingData = errors.New("unexpected data after top-level value")

// Expander unpacks archives found under a root directory.
type Expander interface {
	Expand(ctx context.Context, input *extractarchive.ExpandInput) *extractarchive.ExpandOutput
}

type Handler struct {
	config   *Config
	fs       afero.Fs
	expander Expander
	metrics  *metrics.Metrics
	logger   logger.Logger
}

func NewHandler(config *Config, fs afero.Fs, expander Expander, m *metrics.Metrics, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		fs:       fs,
		expander: expander,
		metrics:  m,
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// Execute returns the first profile-shaped document among the ranked
// sources, or a NO_INPUT_FOUND StandardError.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input != nil && input.Secret != "" {
		if doc, ok := decodeSecret(input.Secret); ok {
			h.metrics.RecordCandidate(metrics.OutcomeAccepted)
			h.logger.Info("loaded input from secret", nil)
			return &Output{Document: doc, Source: Source{Kind: SourceSecret}, Scanned: 1}, nil
		}
		h.disqualify(string(SourceSecret), metrics.OutcomeMalformed)
	}

	h.expandArchives(ctx)

	scanned := 0
	var found *Output
	for _, dir := range h.config.SearchDirs() {
		err := fsutil.WalkFiles(h.fs, dir, func(path string, info os.FileInfo) error {
			if h.reserved(info.Name()) {
				h.metrics.RecordCandidate(metrics.OutcomeSkipped)
				return nil
			}
			scanned++

			doc, outcome := h.scanFile(path)
			if outcome != metrics.OutcomeAccepted {
				h.disqualify(path, outcome)
				return nil
			}
			h.metrics.RecordCandidate(outcome)
			found = &Output{Document: doc, Source: Source{Kind: SourceFile, Path: path}}
			return filepath.SkipAll
		})
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		if found != nil {
			found.Scanned = scanned
			h.logger.Info("loaded input from file", map[string]interface{}{
				"path":    found.Source.Path,
				"scanned": scanned,
			})
			return found, nil
		}
	}

	return nil, apperrors.NewNoInputFoundError(scanned)
}

func (h *Handler) disqualify(source, outcome string) {
	h.metrics.RecordCandidate(outcome)
	stdErr := apperrors.NewMalformedCandidateError(source, outcome)
	h.logger.Debug("candidate disqualified", map[string]interface{}{
		"source":    source,
		"outcome":   outcome,
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})
}

// expandArchives unpacks archives from the input directory into scratch.
// Extraction problems never stop discovery.
func (h *Handler) expandArchives(ctx context.Context) {
	if h.expander == nil {
		return
	}
	if err := h.fs.MkdirAll(h.config.ScratchDir, 0o755); err != nil {
		h.logger.Warn("scratch directory unavailable, skipping archive expansion", map[string]interface{}{
			"scratchDir": h.config.ScratchDir,
			"error":      err,
		})
		return
	}

	res := h.expander.Expand(ctx, &extractarchive.ExpandInput{
		Root:     h.config.InputDir,
		DestRoot: h.config.ScratchDir,
	})
	for _, a := range res.Extracted {
		h.metrics.RecordArchive(metrics.ArchiveExtracted)
		h.logger.Info("extracted compressed input", map[string]interface{}{
			"archive": a.Path,
			"format":  string(a.Format),
			"files":   a.Files,
		})
	}
	for _, f := range res.Failed {
		h.metrics.RecordArchive(metrics.ArchiveFailed)
		h.logger.Warn("failed to extract archive", map[string]interface{}{
			"archive": f.Path,
			"error":   f.Error,
		})
	}
}

// reserved reports whether a file must never be read as input: hidden
// files and the runner's own output artifacts.
func (h *Handler) reserved(name string) bool {
	if fsutil.IsHidden(name) {
		return true
	}
	if h.config.ComputedSuffix != "" && strings.HasSuffix(name, h.config.ComputedSuffix) {
		return true
	}
	for _, r := range h.config.ReservedNames {
		if name == r {
			return true
		}
	}
	return false
}

// scanFile reads one candidate and returns the profile document it holds
// together with the outcome label. Only OutcomeAccepted carries a document.
func (h *Handler) scanFile(path string) (map[string]interface{}, string) {
	raw, err := h.readLimited(path)
	if err != nil {
		return nil, metrics.OutcomeSkipped
	}

	text, ok := h.cleanup(raw)
	if !ok {
		return nil, metrics.OutcomeEmpty
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, metrics.OutcomeNoObject
	}

	obj, err := decodeOrdered(text[start : end+1])
	if err != nil {
		return nil, metrics.OutcomeMalformed
	}

	doc, ok := matchProfileShape(obj)
	if !ok {
		return nil, metrics.OutcomeNoProfile
	}
	return doc, metrics.OutcomeAccepted
}

func (h *Handler) readLimited(path string) ([]byte, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	limit := h.config.MaxFileBytes
	if limit <= 0 {
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%s is larger than %d bytes", path, limit)
	}
	return data, nil
}

// cleanup strips framing, drops invalid UTF-8 and unescapes quotes. It
// reports false when nothing is left.
func (h *Handler) cleanup(raw []byte) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	if len(raw) >= h.config.FramePrefixLen && bytes.IndexByte(h.config.Sentinels, raw[0]) >= 0 {
		raw = raw[h.config.FramePrefixLen:]
	}

	text := strings.TrimSpace(strings.ToValidUTF8(string(raw), ""))
	if text == "" {
		return "", false
	}
	return strings.ReplaceAll(text, `\"`, `"`), true
}

// matchProfileShape accepts the object itself when it carries the profile
// marker, otherwise the first top-level value, in document order, that is
// an object carrying it.
func matchProfileShape(obj *orderedObject) (map[string]interface{}, bool) {
	if obj.has(models.ProfileMarkerKey) {
		return obj.values, true
	}
	for _, k := range obj.keys {
		nested, ok := obj.values[k].(map[string]interface{})
		if !ok {
			continue
		}
		if _, ok := nested[models.ProfileMarkerKey]; ok {
			return nested, true
		}
	}
	return nil, false
}

// decodeOrdered parses a single JSON object, keeping the order of its
// top-level keys. A repeated key keeps its first position and last value.
func decodeOrdered(text string) (*orderedObject, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	obj := &orderedObject{values: make(map[string]interface{})}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if !obj.has(key) {
			obj.keys = append(obj.keys, key)
		}
		obj.values[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return obj, nil
}

// decodeSecret decodes the inline secret. A JSON string holding JSON is
// decoded a second time. Only a non-empty object is usable.
func decodeSecret(secret string) (map[string]interface{}, bool) {
	v, err := decodeValue(secret)
	if err != nil {
		return nil, false
	}
	if s, ok := v.(string); ok {
		if v, err = decodeValue(s); err != nil {
			return nil, false
		}
	}
	doc, ok := v.(map[string]interface{})
	if !ok || len(doc) == 0 {
		return nil, false
	}
	return doc, true
}

func decodeValue(text string) (interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errTrailingData
	}
	return v, nil
}
