package fswriter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const indexFile = "index.html"

// WriterImpl writes mirrored content to an afero filesystem.
type WriterImpl struct {
	fs afero.Fs
}

// NewWriter creates a writer on fs. Use afero.NewOsFs() for the real disk.
func NewWriter(fs afero.Fs) *WriterImpl {
	return &WriterImpl{fs: fs}
}

// Write stores content at LocalPath(outputRoot, urlPath), creating parent
// directories and replacing any existing file. A path that is needed both as
// a file and as a directory is stored as <dir>/index.html, whichever comes
// first. The returned path is where the content ended up.
func (w *WriterImpl) Write(ctx context.Context, outputRoot, urlPath string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	local := LocalPath(outputRoot, urlPath)
	if err := w.promoteFileParents(outputRoot, filepath.Dir(local)); err != nil {
		return "", err
	}
	if info, err := w.fs.Stat(local); err == nil && info.IsDir() {
		local = filepath.Join(local, indexFile)
	}
	slog.Info("Writing file to path", "path", local)

	if err := w.fs.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", local, err)
	}
	if err := afero.WriteFile(w.fs, local, content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", local, err)
	}
	return local, nil
}

// promoteFileParents turns every file standing where dir needs a directory
// into <file>/index.html, so /blog and /blog/post can both be mirrored.
func (w *WriterImpl) promoteFileParents(outputRoot, dir string) error {
	rel, err := filepath.Rel(outputRoot, dir)
	if err != nil || rel == "." {
		return nil
	}
	cur := outputRoot
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		cur = filepath.Join(cur, seg)
		info, err := w.fs.Stat(cur)
		if err != nil {
			// Nothing below a missing entry can exist.
			return nil
		}
		if info.IsDir() {
			continue
		}
		tmp := cur + ".mirror-tmp"
		if err := w.fs.Rename(cur, tmp); err != nil {
			return fmt.Errorf("move %s aside: %w", cur, err)
		}
		if err := w.fs.Mkdir(cur, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", cur, err)
		}
		if err := w.fs.Rename(tmp, filepath.Join(cur, indexFile)); err != nil {
			return fmt.Errorf("move %s to %s: %w", tmp, indexFile, err)
		}
		slog.Info("Moved file into directory index", "path", filepath.Join(cur, indexFile))
	}
	return nil
}

// LocalPath maps a URL pathname onto the output tree. Directory-style paths
// ("" or ending in "/") get index.html, and ".." segments cannot climb above
// outputRoot. Write may still redirect to <path>/index.html when the path is
// already a directory on disk.
func LocalPath(outputRoot, urlPath string) string {
	p := urlPath
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	dir := p == "" || strings.HasSuffix(p, "/")
	clean := path.Clean("/" + p)
	if dir || clean == "/" {
		clean = path.Join(clean, indexFile)
	}
	return filepath.Join(outputRoot, filepath.FromSlash(clean))
}
