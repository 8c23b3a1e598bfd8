// pkg/registry/schema.go
package registry

// StageRegistry describes every stage of the scoring pipeline and the
// contracts of the artifacts it produces.
type StageRegistry struct {
	Version     string  `json:"version"`
	LastUpdated string  `json:"lastUpdated"`
	Stages      []Stage `json:"stages"`
}

type Stage struct {
	ID              string                            `json:"id"`
	DisplayName     string                            `json:"displayName"`
	Description     string                            `json:"description"`
	Category        string                            `json:"category"`
	Version         string                            `json:"version"`
	TaskType        string                            `json:"taskType"`
	Order           int                               `json:"order"`
	ErrorCodes      []string                          `json:"errorCodes"`
	OutputSchema    map[string]interface{}            `json:"outputSchema,omitempty"`
	ArtifactSchemas map[string]map[string]interface{} `json:"artifactSchemas,omitempty"`
	Tags            []string                          `json:"tags"`
}

// Artifact names carried by the build-result stage.
const (
	ArtifactScoreResult = "score-result"
	ArtifactErrorResult = "error-result"
	ArtifactManifest    = "manifest"
)
