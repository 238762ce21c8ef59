// Package clonestore persists generated clones as write-once directories,
// one per reference, under a single base path.
package clonestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"siteclone/internal/domain"
)

// EntryDocument is the file the static server treats as a clone's entry point.
const EntryDocument = "index.html"

const (
	stylesFile   = "styles.css"
	metadataFile = "clone.json"
	stagingMark  = ".staging-"
	allocRetries = 5
)

// Metadata is written next to the entry document for observability.
type Metadata struct {
	ID        string    `json:"id"`
	SourceURL string    `json:"source_url"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// Store owns the clones directory. Completed clones become visible by a
// rename of their staging directory, so a reference never points at a
// partially written clone.
type Store struct {
	baseDir string
}

// NewStore initializes a Store rooted at baseDir.
func NewStore(baseDir string) (*Store, error) {
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		return nil, errors.New("clonestore: base dir is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("clonestore: ensure base dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// BaseDir returns the configured root directory.
func (s *Store) BaseDir() string { return s.baseDir }

// Create allocates a fresh reference and persists the generated site under
// it. The staging directory's exclusive creation is the uniqueness check, so
// concurrent creates can never share a reference or overwrite each other.
func (s *Store) Create(ctx context.Context, site *domain.GeneratedSite) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrStoreFailed, err)
	}

	ref, staging, err := s.allocate()
	if err != nil {
		return "", err
	}

	if err := s.writeSite(staging, ref, site); err != nil {
		_ = os.RemoveAll(staging)
		return "", err
	}

	final := filepath.Join(s.baseDir, ref.String())
	if err := os.Rename(staging, final); err != nil {
		_ = os.RemoveAll(staging)
		return "", fmt.Errorf("%w: publish clone directory: %v", domain.ErrStoreFailed, err)
	}
	return ref, nil
}

func (s *Store) allocate() (Ref, string, error) {
	for i := 0; i < allocRetries; i++ {
		ref := newRef()
		if _, err := os.Stat(filepath.Join(s.baseDir, ref.String())); err == nil {
			continue
		}
		staging := filepath.Join(s.baseDir, stagingMark+ref.String())
		err := os.Mkdir(staging, 0o755)
		if err == nil {
			return ref, staging, nil
		}
		if !os.IsExist(err) {
			return "", "", fmt.Errorf("%w: create staging directory: %v", domain.ErrStoreFailed, err)
		}
	}
	return "", "", fmt.Errorf("%w: could not allocate a fresh reference", domain.ErrStoreFailed)
}

func (s *Store) writeSite(dir string, ref Ref, site *domain.GeneratedSite) error {
	if err := os.WriteFile(filepath.Join(dir, EntryDocument), []byte(site.HTML), 0o644); err != nil {
		return fmt.Errorf("%w: write entry document: %v", domain.ErrStoreFailed, err)
	}
	if site.CSS != "" {
		if err := os.WriteFile(filepath.Join(dir, stylesFile), []byte(site.CSS), 0o644); err != nil {
			return fmt.Errorf("%w: write styles: %v", domain.ErrStoreFailed, err)
		}
	}
	meta, err := json.MarshalIndent(Metadata{
		ID:        ref.String(),
		SourceURL: site.SourceURL,
		Provider:  site.Provider,
		CreatedAt: time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode metadata: %v", domain.ErrStoreFailed, err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), meta, 0o644); err != nil {
		return fmt.Errorf("%w: write metadata: %v", domain.ErrStoreFailed, err)
	}
	return nil
}

// Resolve maps a reference and a relative path to an absolute file path
// inside that clone's subtree. Unknown references, directories, and paths
// escaping the subtree all report domain.ErrNotFound.
func (s *Store) Resolve(ref Ref, relPath string) (string, error) {
	dir := filepath.Join(s.baseDir, ref.String())
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%w: unknown clone %s", domain.ErrNotFound, ref)
	}

	relPath = strings.TrimSpace(relPath)
	if relPath == "" {
		relPath = EntryDocument
	}
	relPath = strings.ReplaceAll(relPath, "\\", "/")
	relPath = strings.TrimLeft(relPath, "/")
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: invalid path in clone %s", domain.ErrNotFound, ref)
	}

	full := filepath.Join(dir, cleaned)
	fi, err := os.Stat(full)
	if err != nil || fi.IsDir() {
		return "", fmt.Errorf("%w: %s/%s", domain.ErrNotFound, ref, cleaned)
	}
	return full, nil
}

// Exists reports whether a published clone directory is present for ref.
func (s *Store) Exists(ref Ref) bool {
	fi, err := os.Stat(filepath.Join(s.baseDir, ref.String()))
	return err == nil && fi.IsDir()
}

// File is one stored artifact, used when archiving a clone for download.
type File struct {
	Name string
	Data []byte
}

// Archive reads every file in the clone's subtree.
func (s *Store) Archive(ref Ref) ([]File, error) {
	dir := filepath.Join(s.baseDir, ref.String())
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("%w: unknown clone %s", domain.ErrNotFound, ref)
	}

	var files []File
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, File{Name: filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read clone %s: %v", domain.ErrStoreFailed, ref, err)
	}
	return files, nil
}
