// Package chapterfs reads chapter documents from a filesystem and writes
// migrated ones back.
package chapterfs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"storygraph/internal/story"
)

// ErrUnsupportedFormat is returned for files that are neither JSON nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported chapter format")

// Reader loads chapters through an afero filesystem.
type Reader struct {
	FS afero.Fs
}

// New returns a Reader over fs. A nil fs means the OS filesystem.
func New(fs afero.Fs) *Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Reader{FS: fs}
}

// Supported reports whether path has a chapter file extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// ReadFile returns the raw bytes at path.
func (r *Reader) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(r.FS, filepath.Clean(path))
}

// ReadChapter decodes one chapter file. The format follows the extension.
func (r *Reader) ReadChapter(path string) (story.Chapter, error) {
	var ch story.Chapter
	b, err := r.ReadFile(path)
	if err != nil {
		return ch, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		ch, err = story.ParseChapter(b)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &ch)
	default:
		return ch, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return story.Chapter{}, fmt.Errorf("%s: %w", path, err)
	}
	return ch, nil
}

// Expand resolves glob patterns and directories into chapter files. Matches of
// each pattern are sorted so that chapter2 comes before chapter10; the order
// of the patterns themselves is kept. A path is listed once.
func (r *Reader) Expand(patterns ...string) ([]string, error) {
	col := collate.New(language.Und, collate.Numeric)
	seen := map[string]bool{}
	var out []string
	for _, p := range patterns {
		var matches []string
		if isDir, _ := afero.IsDir(r.FS, p); isDir {
			entries, err := afero.ReadDir(r.FS, p)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if !e.IsDir() && Supported(e.Name()) {
					matches = append(matches, filepath.Join(p, e.Name()))
				}
			}
		} else {
			m, err := afero.Glob(r.FS, p)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p, err)
			}
			if len(m) == 0 {
				return nil, fmt.Errorf("%s: no chapter files match", p)
			}
			matches = m
		}
		col.SortStrings(matches)
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no chapter files given")
	}
	return out, nil
}

// Load expands patterns, reads every chapter and merges them. The first file
// is the primary chapter.
func (r *Reader) Load(ctx context.Context, patterns ...string) (*story.Document, []string, error) {
	paths, err := r.Expand(patterns...)
	if err != nil {
		return nil, nil, err
	}
	chapters := make([]story.Chapter, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		ch, err := r.ReadChapter(p)
		if err != nil {
			return nil, nil, err
		}
		chapters = append(chapters, ch)
	}
	doc, err := story.Merge(chapters...)
	if err != nil {
		var le *story.LoadError
		if errors.As(err, &le) && le.Chapter >= 0 && le.Chapter < len(paths) {
			return nil, nil, fmt.Errorf("%s: %w", paths[le.Chapter], err)
		}
		return nil, nil, err
	}
	return doc, paths, nil
}

// WriteFileAtomic writes data to path through a temp file and rename, so the
// file is either fully written or untouched.
func (r *Reader) WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := r.FS.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := afero.TempFile(r.FS, dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = r.FS.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := r.FS.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}
