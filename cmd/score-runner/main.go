// cmd/score-runner/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"credit-score-runner/internal/common/config"
	"credit-score-runner/internal/common/logger"
	"credit-score-runner/internal/common/metrics"
	"credit-score-runner/internal/common/observability"
	"credit-score-runner/internal/pipeline"
	"credit-score-runner/pkg/registry"
)

type rootOptions struct {
	configPath   string
	registryPath string
	overrides    config.Overrides
}

func main() {
	exitCode := pipeline.ExitSuccess
	if err := newRootCmd(&exitCode).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(pipeline.ExitFailure)
	}
	os.Exit(exitCode)
}

func newRootCmd(exitCode *int) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "score-runner",
		Short:         "Locate a financial profile, score it and write the result",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := runScore(cmd.Context(), opts)
			*exitCode = code
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.registryPath, "registry", "", "path to a stage registry (defaults to the embedded one)")
	flags.StringVar(&opts.overrides.InputDir, "in", "", "input directory (overrides io.input_dir)")
	flags.StringVar(&opts.overrides.OutputDir, "out", "", "output directory (overrides io.output_dir)")
	flags.StringVar(&opts.overrides.ScratchDir, "scratch", "", "scratch directory for extracted archives")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(newStagesCmd())
	return cmd
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	opts.overrides.Apply(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadRegistry(path string) (*registry.StageRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}

// runScore performs one run and returns the process exit code. A non-nil
// error means the run could not be started at all.
func runScore(ctx context.Context, opts *rootOptions) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return pipeline.ExitFailure, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	stages, err := loadRegistry(opts.registryPath)
	if err != nil {
		return pipeline.ExitFailure, fmt.Errorf("stage registry load failed: %w", err)
	}

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	obs := observability.New(cfg.App.Name, promReg)
	defer obs.Shutdown()

	secret := os.Getenv(cfg.IO.SecretEnv)
	p := pipeline.New(cfg, afero.NewOsFs(), stages, m, obs, log)

	outcome, err := p.Run(ctx, secret)
	if err != nil {
		// Already logged by the pipeline; the exit code carries the failure.
		return pipeline.ExitFailure, nil
	}
	return outcome.ExitCode, nil
}
