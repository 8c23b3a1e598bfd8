// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"time"

	"credit-score-runner/internal/common/config"
	apperrors "credit-score-runner/internal/common/errors"
	"credit-score-runner/internal/common/logger"
	"credit-score-runner/internal/common/metrics"
	"credit-score-runner/internal/common/observability"
	"credit-score-runner/internal/models"
	calculatecreditscore "credit-score-runner/internal/workers/credit/calculate-credit-score"
	validateprofile "credit-score-runner/internal/workers/credit/validate-profile"
	extractarchive "credit-score-runner/internal/workers/discovery/extract-archive"
	locateinput "credit-score-runner/internal/workers/discovery/locate-input"
	buildresult "credit-score-runner/internal/workers/infrastructure/build-result"
	"credit-score-runner/pkg/registry"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

// State is a step of a single run.
type State string

const (
	StateStart      State = "start"
	StateLocating   State = "locating"
	StateValidating State = "validating"
	StateScoring    State = "scoring"
	StateEmitted    State = "emitted"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Outcome summarizes a finished run.
type Outcome struct {
	RunID      string
	Status     string
	ExitCode   int
	Score      *models.ScoreResult
	Message    string
	ResultPath string
	States     []State
}

// Pipeline runs locate, validate, score and emit once per call to Run.
type Pipeline struct {
	config   *config.Config
	fs       afero.Fs
	registry *registry.StageRegistry
	metrics  *metrics.Metrics
	obs      *observability.Observability
	logger   logger.Logger
}

// New builds a pipeline. m, obs and reg may be nil.
func New(cfg *config.Config, fs afero.Fs, reg *registry.StageRegistry, m *metrics.Metrics, obs *observability.Observability, log logger.Logger) *Pipeline {
	return &Pipeline{
		config:   cfg,
		fs:       fs,
		registry: reg,
		metrics:  m,
		obs:      obs,
		logger:   log,
	}
}

// run holds the per-run handlers; each one logs with the run id.
type run struct {
	id        string
	logger    logger.Logger
	errors    *apperrors.ErrorHandler
	locator   *locateinput.Handler
	validator *validateprofile.Handler
	scorer    *calculatecreditscore.Handler
	builder   *buildresult.Handler
	states    []State
}

func (p *Pipeline) newRun() *run {
	id := uuid.NewString()
	log := p.logger.WithFields(map[string]interface{}{"runId": id})

	extractCfg := extractarchive.LoadConfig()
	extractCfg.MaxDepth = p.config.Discovery.MaxArchiveDepth
	extractCfg.MaxFileBytes = p.config.Discovery.MaxFileBytes
	extractor := extractarchive.NewHandler(extractCfg, p.fs, log)

	return &run{
		id:        id,
		logger:    log,
		errors:    apperrors.NewErrorHandler(log),
		locator:   locateinput.NewHandler(locateinput.LoadConfig(p.config), p.fs, extractor, p.metrics, log),
		validator: validateprofile.NewHandler(validateprofile.LoadConfig(), log),
		scorer:    calculatecreditscore.NewHandler(calculatecreditscore.LoadConfig(), log),
		builder:   buildresult.NewHandler(buildresult.LoadConfig(p.config), p.fs, p.registry, log),
		states:    []State{StateStart},
	}
}

func (r *run) enter(s State) {
	r.logger.Debug("state transition", map[string]interface{}{
		"from": string(r.states[len(r.states)-1]),
		"to":   string(s),
	})
	r.states = append(r.states, s)
}

// Run executes one scoring run. secret is the inline requester secret, empty
// when absent. Exactly one result artifact is written unless emission itself
// fails, in which case the write error is returned alongside the outcome.
func (p *Pipeline) Run(ctx context.Context, secret string) (*Outcome, error) {
	started := time.Now()
	r := p.newRun()
	r.logger.Info("run started", map[string]interface{}{
		"inputDir":  p.config.IO.InputDir,
		"outputDir": p.config.IO.OutputDir,
		"hasSecret": secret != "",
	})

	input, failedStage := p.score(ctx, r, secret)
	if input.Failure != nil {
		input.Failure = r.errors.HandleRunError(failedStage, input.Failure)
	}

	var built *buildresult.Output
	emitErr := p.stage(ctx, buildresult.TaskType, func(ctx context.Context) error {
		var err error
		built, err = r.builder.Execute(ctx, input)
		return err
	})
	r.enter(StateEmitted)

	outcome := &Outcome{
		RunID:      r.id,
		Status:     built.Status,
		ExitCode:   ExitFailure,
		Message:    built.Message,
		ResultPath: built.ResultPath,
		States:     r.states,
	}
	score := 0
	if built.Status == models.StatusSuccess {
		outcome.Score = input.Score
		score = input.Score.CreditScore
	}
	if emitErr != nil {
		outcome.Status = models.StatusFailure
		r.errors.HandleRunError(buildresult.TaskType, emitErr)
	} else if outcome.Status == models.StatusSuccess {
		outcome.ExitCode = ExitSuccess
	}

	p.record(ctx, r, outcome, score, time.Since(started))
	if emitErr != nil {
		return outcome, emitErr
	}
	return outcome, nil
}

// score walks Locating, Validating and Scoring. On failure it returns the
// stage that failed with the error in Input.Failure.
func (p *Pipeline) score(ctx context.Context, r *run, secret string) (*buildresult.Input, string) {
	var located *locateinput.Output
	r.enter(StateLocating)
	err := p.stage(ctx, locateinput.TaskType, func(ctx context.Context) error {
		var err error
		located, err = r.locator.Execute(ctx, &locateinput.Input{Secret: secret})
		return err
	})
	if err != nil {
		return &buildresult.Input{Failure: apperrors.Normalize(err)}, locateinput.TaskType
	}

	var validated *validateprofile.Output
	r.enter(StateValidating)
	err = p.stage(ctx, validateprofile.TaskType, func(ctx context.Context) error {
		var err error
		validated, err = r.validator.Execute(ctx, &validateprofile.Input{Document: located.Document})
		return err
	}, attribute.String("source", string(located.Source.Kind)))
	if err != nil {
		return &buildresult.Input{Failure: apperrors.Normalize(err)}, validateprofile.TaskType
	}

	var scored *calculatecreditscore.Output
	r.enter(StateScoring)
	err = p.stage(ctx, calculatecreditscore.TaskType, func(ctx context.Context) error {
		var err error
		scored, err = r.scorer.Execute(ctx, &calculatecreditscore.Input{Profile: validated.Profile})
		return err
	})
	if err != nil {
		return &buildresult.Input{Failure: apperrors.Normalize(err)}, calculatecreditscore.TaskType
	}

	result := scored.Result
	return &buildresult.Input{Score: &result}, ""
}

func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	start := time.Now()
	ctx, end := p.obs.StartStage(ctx, name, attrs...)
	err := fn(ctx)
	end(err)
	p.metrics.ObserveStage(name, time.Since(start))
	return err
}

func (p *Pipeline) record(ctx context.Context, r *run, outcome *Outcome, score int, elapsed time.Duration) {
	p.metrics.RecordRun(outcome.Status, score)
	p.obs.RecordRun(ctx, outcome.Status)
	p.obs.RecordRunDuration(ctx, elapsed, outcome.Status)

	if path := p.config.Metrics.TextfilePath; path != "" {
		if err := p.metrics.WriteTextfile(path); err != nil {
			r.logger.Warn("failed to write metrics textfile", map[string]interface{}{
				"path":  path,
				"error": err,
			})
		}
	}

	fields := map[string]interface{}{
		"status":     outcome.Status,
		"exitCode":   outcome.ExitCode,
		"resultPath": outcome.ResultPath,
		"durationMs": elapsed.Milliseconds(),
	}
	if outcome.Score != nil {
		fields["creditScore"] = outcome.Score.CreditScore
		fields["grade"] = outcome.Score.Grade
	}
	r.logger.Info("run completed", fields)
}
