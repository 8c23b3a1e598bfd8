// internal/workers/discovery/locate-input/models.go
package locateinput

// SourceKind tells where the accepted document came from.
type SourceKind string

const (
	SourceSecret SourceKind = "secret"
	SourceFile   SourceKind = "file"
)

type Input struct {
	// Secret is the inline requester secret, empty when none was provided.
	Secret string `json:"-"`
}

type Output struct {
	Document map[string]interface{} `json:"document"`
	Source   Source                 `json:"source"`
	Scanned  int                    `json:"scanned"`
}

type Source struct {
	Kind SourceKind `json:"kind"`
	Path string     `json:"path,omitempty"`
}

// orderedObject is a decoded JSON object that remembers the order its
// top-level keys first appeared in.
type orderedObject struct {
	keys   []string
	values map[string]interface{}
}

func (o *orderedObject) has(key string) bool {
	_, ok := o.values[key]
	return ok
}
