// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

//go:embed stages.json
var embeddedStages []byte

var (
	defaultOnce sync.Once
	defaultReg  *StageRegistry
	defaultErr  error
)

// Default returns the registry compiled into the binary.
func Default() (*StageRegistry, error) {
	defaultOnce.Do(func() {
		defaultReg, defaultErr = Parse(embeddedStages)
	})
	return defaultReg, defaultErr
}

func LoadRegistry(path string) (*StageRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a registry document and orders its stages by pipeline
// position.
func Parse(data []byte) (*StageRegistry, error) {
	var reg StageRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse stage registry: %w", err)
	}
	seen := make(map[string]bool, len(reg.Stages))
	for _, s := range reg.Stages {
		if s.ID == "" {
			return nil, fmt.Errorf("stage registry: stage without id")
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("stage registry: duplicate stage %q", s.ID)
		}
		seen[s.ID] = true
	}
	sort.SliceStable(reg.Stages, func(i, j int) bool { return reg.Stages[i].Order < reg.Stages[j].Order })
	return &reg, nil
}

// Stage looks a stage up by id.
func (r *StageRegistry) Stage(id string) (*Stage, bool) {
	for i := range r.Stages {
		if r.Stages[i].ID == id {
			return &r.Stages[i], true
		}
	}
	return nil, false
}

// ArtifactSchema returns the JSON schema for one artifact of a stage.
func (r *StageRegistry) ArtifactSchema(stageID, artifact string) (map[string]interface{}, error) {
	s, ok := r.Stage(stageID)
	if !ok {
		return nil, fmt.Errorf("stage %q not registered", stageID)
	}
	schema, ok := s.ArtifactSchemas[artifact]
	if !ok {
		return nil, fmt.Errorf("stage %q has no schema for %q", stageID, artifact)
	}
	return schema, nil
}
