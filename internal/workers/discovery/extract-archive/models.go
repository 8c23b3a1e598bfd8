// internal/workers/discovery/extract-archive/models.go
package extractarchive

// Format is the container type identified from an archive's header.
type Format string

const (
	FormatNone Format = ""
	FormatZip  Format = "zip"
	FormatTar  Format = "tar"
	FormatGzip Format = "gz"
)

// Input describes one archive to unpack into DestDir.
type Input struct {
	ArchivePath string `json:"archivePath"`
	DestDir     string `json:"destDir"`
}

type Output struct {
	Format Format   `json:"format"`
	Files  []string `json:"files"`
}

// ExpandInput asks for every archive under Root to be unpacked below
// DestRoot, mirroring each archive's path relative to Root.
type ExpandInput struct {
	Root     string `json:"root"`
	DestRoot string `json:"destRoot"`
}

type ExpandOutput struct {
	Extracted []ExtractedArchive `json:"extracted"`
	Failed    []FailedArchive    `json:"failed"`
}

type ExtractedArchive struct {
	Path   string `json:"path"`
	Format Format `json:"format"`
	Dest   string `json:"dest"`
	Files  int    `json:"files"`
	Depth  int    `json:"depth"`
}

type FailedArchive struct {
	Path  string `json:"path"`
	Error error  `json:"-"`
}
