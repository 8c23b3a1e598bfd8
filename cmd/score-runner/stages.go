// cmd/score-runner/stages.go
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"

	"credit-score-runner/pkg/registry"
)

// requiredArtifacts are the schemas the result builder looks up at run time.
var requiredArtifacts = map[string][]string{
	"build-result": {registry.ArtifactScoreResult, registry.ArtifactErrorResult, registry.ArtifactManifest},
}

func newStagesCmd() *cobra.Command {
	var registryPath string

	cmd := &cobra.Command{
		Use:   "stages",
		Short: "Inspect the pipeline stage registry",
	}
	cmd.PersistentFlags().StringVar(&registryPath, "path", "", "registry file (defaults to the embedded one)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered stages in pipeline order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadRegistry(registryPath)
			if err != nil {
				return err
			}
			printStages(cmd.OutOrStdout(), reg)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that every required artifact schema is present and compiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadRegistry(registryPath)
			if err != nil {
				return err
			}
			if err := validateRegistry(reg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry is valid: %d stages\n", len(reg.Stages))
			return nil
		},
	})

	return cmd
}

func printStages(w io.Writer, reg *registry.StageRegistry) {
	fmt.Fprintf(w, "Stage registry v%s (%s)\n", reg.Version, reg.LastUpdated)
	for _, s := range reg.Stages {
		codes := "-"
		if len(s.ErrorCodes) > 0 {
			codes = strings.Join(s.ErrorCodes, ",")
		}
		fmt.Fprintf(w, "%d. %-24s %-16s %s\n", s.Order, s.ID, s.Category, codes)
	}
}

func validateRegistry(reg *registry.StageRegistry) error {
	var problems []string
	for stageID, artifacts := range requiredArtifacts {
		for _, artifact := range artifacts {
			schema, err := reg.ArtifactSchema(stageID, artifact)
			if err != nil {
				problems = append(problems, err.Error())
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				problems = append(problems, fmt.Sprintf("%s/%s: %v", stageID, artifact, err))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("registry is invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}
