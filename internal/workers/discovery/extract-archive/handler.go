// internal/workers/discovery/extract-archive/handler.go
package extractarchive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "credit-score-runner/internal/common/errors"
	"credit-score-runner/internal/common/fsutil"
	"credit-score-runner/internal/common/logger"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding/charmap"
)

const (
	TaskType = "extract-archive"

	// headerSize is how many leading bytes filetype needs to recognise
	// every supported container (tar's magic sits at offset 257).
	headerSize = 262

	zipFlagUTF8 = 0x800
)

var (
	ErrEntryTooLarge = errors.New("archive entry exceeds size limit")
	ErrUnsupported   = errors.New("not a supported archive")
)

type Handler struct {
	config *Config
	fs     afero.Fs
	logger logger.Logger
}

func NewHandler(config *Config, fs afero.Fs, log logger.Logger) *Handler {
	if config == nil {
		config = LoadConfig()
	}
	return &Handler{
		config: config,
		fs:     fs,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

// containers lists the supported formats in match order.
var containers = []struct {
	match  matchers.Matcher
	format Format
}{
	{matchers.Archive[matchers.TypeZip], FormatZip},
	{matchers.Archive[matchers.TypeTar], FormatTar},
	{matchers.Archive[matchers.TypeGz], FormatGzip},
}

// Detect sniffs the file header and reports the container format, or
// FormatNone when the file is not a supported archive. A zip with leading
// bytes is still found through its central directory.
func (h *Handler) Detect(path string) (Format, error) {
	f, err := h.fs.Open(path)
	if err != nil {
		return FormatNone, err
	}
	defer f.Close()

	buf := make([]byte, headerSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatNone, err
	}
	if format := detectHeader(buf[:n]); format != FormatNone {
		return format, nil
	}
	if n == 0 {
		return FormatNone, nil
	}

	info, err := f.Stat()
	if err != nil {
		return FormatNone, err
	}
	if r, err := zip.NewReader(f, info.Size()); r != nil && (err == nil || errors.Is(err, zip.ErrInsecurePath)) {
		return FormatZip, nil
	}
	return FormatNone, nil
}

func detectHeader(buf []byte) Format {
	if len(buf) == 0 || !filetype.IsArchive(buf) {
		return FormatNone
	}
	for _, c := range containers {
		if c.match(buf) {
			return c.format
		}
	}
	return FormatNone
}

// Execute unpacks a single archive into input.DestDir. Nested archives are
// left as files.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	format, err := h.Detect(input.ArchivePath)
	if err != nil {
		return nil, apperrors.NewArchiveExtractionFailedError(input.ArchivePath, err)
	}
	if format == FormatNone {
		return nil, apperrors.NewArchiveExtractionFailedError(input.ArchivePath, ErrUnsupported)
	}

	dest := filepath.Clean(input.DestDir)
	if err := h.fs.MkdirAll(dest, 0o755); err != nil {
		return nil, apperrors.NewArchiveExtractionFailedError(input.ArchivePath, err)
	}

	var files []string
	switch format {
	case FormatZip:
		files, err = h.unzip(input.ArchivePath, dest)
	case FormatTar:
		files, err = h.untarFile(input.ArchivePath, dest)
	case FormatGzip:
		files, err = h.gunzip(input.ArchivePath, dest)
	}
	if err != nil {
		return nil, apperrors.NewArchiveExtractionFailedError(input.ArchivePath, err)
	}

	h.logger.Debug("archive extracted", map[string]interface{}{
		"archive": input.ArchivePath,
		"format":  string(format),
		"dest":    dest,
		"files":   len(files),
	})
	return &Output{Format: format, Files: files}, nil
}

// Expand unpacks every eligible archive under input.Root. Each archive goes
// to DestRoot/<relative path><DirSuffix>; what comes out is expanded again
// until MaxDepth levels have been unpacked. Failures are collected, never
// returned.
func (h *Handler) Expand(ctx context.Context, input *ExpandInput) *ExpandOutput {
	out := &ExpandOutput{}
	if h.config.MaxDepth <= 0 {
		return out
	}
	h.expandTree(ctx, input.Root, input.DestRoot, 1, out)
	return out
}

func (h *Handler) expandTree(ctx context.Context, root, destRoot string, depth int, out *ExpandOutput) {
	type found struct {
		path   string
		format Format
	}
	var archives []found

	_ = fsutil.WalkFiles(h.fs, root, func(path string, info os.FileInfo) error {
		if !Eligible(info.Name()) {
			return nil
		}
		format, err := h.Detect(path)
		if err != nil || format == FormatNone {
			return nil
		}
		archives = append(archives, found{path: path, format: format})
		return nil
	})

	for _, a := range archives {
		rel, err := filepath.Rel(root, a.path)
		if err != nil {
			rel = filepath.Base(a.path)
		}
		dest := filepath.Join(destRoot, rel+h.config.DirSuffix)

		res, err := h.execute(ctx, &Input{ArchivePath: a.path, DestDir: dest})
		if err != nil {
			h.logger.Warn("archive extraction failed", map[string]interface{}{
				"archive": a.path,
				"depth":   depth,
				"error":   err,
			})
			out.Failed = append(out.Failed, FailedArchive{Path: a.path, Error: err})
			continue
		}
		out.Extracted = append(out.Extracted, ExtractedArchive{
			Path:   a.path,
			Format: res.Format,
			Dest:   dest,
			Files:  len(res.Files),
			Depth:  depth,
		})

		if depth < h.config.MaxDepth {
			h.expandTree(ctx, dest, dest, depth+1, out)
		}
	}
}

// Eligible reports whether a file name may be treated as an archive.
// Hidden files and .json documents never are.
func Eligible(name string) bool {
	return !fsutil.IsHidden(name) && !strings.HasSuffix(name, ".json")
}

// ==========================
// Container readers
// ==========================

func (h *Handler) unzip(src, dest string) ([]string, error) {
	f, err := h.fs.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	// Insecure names are still returned; safeJoin drops them below.
	r, err := zip.NewReader(f, info.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("open zip failed: %w", err)
	}

	var files []string
	for _, zf := range r.File {
		target, ok := safeJoin(dest, decodeName(zf))
		if !ok {
			h.logger.Warn("skipping archive entry outside destination", map[string]interface{}{
				"archive": src,
				"entry":   zf.Name,
			})
			continue
		}

		if zf.FileInfo().IsDir() {
			if err := h.fs.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
			continue
		}

		if err := h.extractZipEntry(zf, target); err != nil {
			return files, fmt.Errorf("%s: %w", zf.Name, err)
		}
		files = append(files, target)
	}
	return files, nil
}

func (h *Handler) extractZipEntry(zf *zip.File, target string) error {
	rc, err := zf.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return h.writeEntry(target, rc)
}

// decodeName returns the entry name as UTF-8. Names without the UTF-8 flag
// are CP437 per the zip format.
func decodeName(zf *zip.File) string {
	if zf.Flags&zipFlagUTF8 != 0 {
		return zf.Name
	}
	decoded, err := charmap.CodePage437.NewDecoder().String(zf.Name)
	if err != nil {
		return zf.Name
	}
	return decoded
}

func (h *Handler) untarFile(src, dest string) ([]string, error) {
	f, err := h.fs.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return h.untar(src, f, dest)
}

func (h *Handler) untar(src string, r io.Reader, dest string) ([]string, error) {
	tr := tar.NewReader(r)
	var files []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return files, nil
		}
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return files, fmt.Errorf("read tar: %w", err)
		}

		target, ok := safeJoin(dest, hdr.Name)
		if !ok {
			h.logger.Warn("skipping archive entry outside destination", map[string]interface{}{
				"archive": src,
				"entry":   hdr.Name,
			})
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := h.fs.MkdirAll(target, 0o755); err != nil {
				return files, err
			}
		case tar.TypeReg:
			if err := h.writeEntry(target, tr); err != nil {
				return files, fmt.Errorf("%s: %w", hdr.Name, err)
			}
			files = append(files, target)
		default:
			// links, devices and fifos are never extracted
		}
	}
}

// gunzip expands a gzip stream. A tarball inside is unpacked as tar;
// anything else is written as a single file named after the archive
// without its .gz suffix.
func (h *Handler) gunzip(src, dest string) ([]string, error) {
	f, err := h.fs.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open gzip failed: %w", err)
	}
	defer gz.Close()

	br := bufio.NewReaderSize(gz, headerSize)
	peek, err := br.Peek(headerSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read gzip: %w", err)
	}
	if matchers.Tar(peek) {
		return h.untar(src, br, dest)
	}

	name := strings.TrimSuffix(filepath.Base(src), ".gz")
	if name == filepath.Base(src) || name == "" {
		name = filepath.Base(src) + ".out"
	}
	target := filepath.Join(dest, name)
	if err := h.writeEntry(target, br); err != nil {
		return nil, err
	}
	return []string{target}, nil
}

func (h *Handler) writeEntry(target string, r io.Reader) error {
	if err := h.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := h.fs.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(r, h.config.MaxFileBytes+1))
	if err != nil {
		return err
	}
	if n > h.config.MaxFileBytes {
		return fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, h.config.MaxFileBytes)
	}
	return nil
}

// safeJoin resolves name below dest and rejects anything that escapes it.
func safeJoin(dest, name string) (string, bool) {
	cleanDest := filepath.Clean(dest)
	target := filepath.Join(cleanDest, filepath.FromSlash(name))
	if target == cleanDest {
		return "", false
	}
	if !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
		return "", false
	}
	return target, true
}
