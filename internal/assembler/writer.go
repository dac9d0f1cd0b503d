package assembler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	foundation "git.home.luguber.info/inful/adocs/internal/foundation/errors"
	"git.home.luguber.info/inful/adocs/internal/logfields"
	"git.home.luguber.info/inful/adocs/internal/manifest"
	"git.home.luguber.info/inful/adocs/internal/repometa"
)

// MetadataFile holds the extracted repository metadata.
const MetadataFile = "repository_metadata.json"

// FileWriteError is returned for any failure while writing the output
// directory. It is fatal for the run.
type FileWriteError struct {
	Path string
	Err  error
}

func (e *FileWriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *FileWriteError) Unwrap() error {
	return foundation.WrapError(e.Err, foundation.CategoryAssembly, "document write failed").
		Fatal().
		WithContext("path", e.Path).
		Build()
}

// Writer persists a rendered set.
type Writer struct {
	// Clean removes documents listed in the previous manifest that are not
	// part of the new set.
	Clean  bool
	Logger *slog.Logger
}

// WriteResult lists what changed on disk.
type WriteResult struct {
	Written []string
	Removed []string
}

// Write stores docs, the structure manifest and the metadata in dir. Each
// file is written to a temp file and renamed into place.
func (w *Writer) Write(ctx context.Context, dir string, docs []Document, man *manifest.StructureManifest, meta *repometa.Metadata) (*WriteResult, error) {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return nil, &FileWriteError{Path: dir, Err: errors.New("output directory is required")}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, &FileWriteError{Path: dir, Err: err}
	}

	var previous *manifest.StructureManifest
	if w.Clean {
		prev, err := manifest.Load(dir)
		if err != nil {
			logger.Warn("Ignoring unreadable previous manifest", logfields.Path(dir), logfields.Error(err))
		}
		previous = prev
	}

	res := &WriteResult{}
	keep := make(map[string]bool, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return res, &FileWriteError{Path: d.Path, Err: err}
		}
		if err := writeAtomic(dir, d.Path, d.Body); err != nil {
			return res, err
		}
		keep[d.Path] = true
		res.Written = append(res.Written, d.Path)
	}

	manData, err := man.ToJSON()
	if err != nil {
		return res, &FileWriteError{Path: manifest.FileName, Err: err}
	}
	if err := writeAtomic(dir, manifest.FileName, manData); err != nil {
		return res, err
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return res, &FileWriteError{Path: MetadataFile, Err: err}
	}
	if err := writeAtomic(dir, MetadataFile, append(metaData, '\n')); err != nil {
		return res, err
	}

	if previous != nil {
		for _, slug := range slices.Sorted(maps.Keys(previous.Paths)) {
			path := previous.Paths[slug]
			if keep[path] || !strings.HasSuffix(path, ".md") {
				continue
			}
			full, err := within(dir, path)
			if err != nil {
				continue
			}
			if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
				return res, &FileWriteError{Path: path, Err: err}
			}
			logger.Debug("Removed stale document", logfields.Path(path))
			res.Removed = append(res.Removed, path)
		}
	}
	return res, nil
}

// WriteFiles stores auxiliary files such as run reports in dir, keyed by
// path relative to dir, with the same atomic replace as documents.
func (w *Writer) WriteFiles(dir string, files map[string][]byte) error {
	if dir == "" {
		return &FileWriteError{Path: dir, Err: errors.New("output directory is required")}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &FileWriteError{Path: dir, Err: err}
	}
	for _, rel := range slices.Sorted(maps.Keys(files)) {
		if err := writeAtomic(dir, rel, files[rel]); err != nil {
			return err
		}
	}
	return nil
}

// within joins rel onto dir and refuses paths that escape it.
func within(dir, rel string) (string, error) {
	clean := filepath.Clean(rel)
	if rel == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes output directory", rel)
	}
	return filepath.Join(dir, clean), nil
}

func writeAtomic(dir, rel string, data []byte) error {
	full, err := within(dir, rel)
	if err != nil {
		return &FileWriteError{Path: rel, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return &FileWriteError{Path: rel, Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".adocs-*.tmp")
	if err != nil {
		return &FileWriteError{Path: rel, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return &FileWriteError{Path: rel, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &FileWriteError{Path: rel, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return &FileWriteError{Path: rel, Err: err}
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return &FileWriteError{Path: rel, Err: fmt.Errorf("atomic rename: %w", err)}
	}
	return nil
}
