package storage

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/mimir-aip/credit-decision/pkg/config"
	"github.com/mimir-aip/credit-decision/pkg/pipeline"
)

const (
	artifactExt   = ".gob"
	formatVersion = 1
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactCorrupt  = errors.New("artifact corrupt")
	ErrSchemaMismatch   = errors.New("artifact schema mismatch")
)

// ArtifactError reports a failed artifact read or write. Err is one of the
// sentinel errors above, possibly wrapping the underlying cause.
type ArtifactError struct {
	Key string
	Op  string
	Err error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("%s artifact %q: %v", e.Op, e.Key, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// SchemaMismatchError is returned when a stored pipeline was trained under
// a different feature schema than the one the process is running with.
type SchemaMismatchError struct {
	Key    string
	Fields []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("artifact %q was trained with a different schema (fields: %s)", e.Key, strings.Join(e.Fields, ", "))
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

// envelope is the on-disk artifact layout.
type envelope struct {
	FormatVersion int
	Key           string
	SavedAt       time.Time
	Schema        config.FeatureSchema
	Pipeline      *pipeline.Pipeline
}

// ArtifactStore keeps one fitted pipeline per key under basePath.
type ArtifactStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewArtifactStore creates the artifact directory if needed.
func NewArtifactStore(basePath string) (*ArtifactStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &ArtifactStore{basePath: basePath}, nil
}

// Path is where the artifact for key lives.
func (s *ArtifactStore) Path(key string) string {
	return filepath.Join(s.basePath, key+artifactExt)
}

// Save writes p under key, replacing any earlier artifact atomically.
func (s *ArtifactStore) Save(p *pipeline.Pipeline, key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if p == nil || !p.Fitted {
		return "", &ArtifactError{Key: key, Op: "save", Err: errors.New("pipeline is not fitted")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.basePath, "."+key+"-*.tmp")
	if err != nil {
		return "", pkgerrors.Wrap(err, "failed to create temp artifact")
	}
	defer os.Remove(tmp.Name())

	env := envelope{
		FormatVersion: formatVersion,
		Key:           key,
		SavedAt:       time.Now().UTC(),
		Schema:        p.Schema,
		Pipeline:      p,
	}
	if err := gob.NewEncoder(tmp).Encode(&env); err != nil {
		tmp.Close()
		return "", &ArtifactError{Key: key, Op: "save", Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return "", pkgerrors.Wrap(err, "failed to flush artifact")
	}
	if err := tmp.Close(); err != nil {
		return "", pkgerrors.Wrap(err, "failed to close artifact")
	}

	path := s.Path(key)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to move artifact into place for %q", key)
	}
	return path, nil
}

// Load reads the pipeline stored under key and checks that it was trained
// under expected.
func (s *ArtifactStore) Load(key string, expected config.FeatureSchema) (*pipeline.Pipeline, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ArtifactError{Key: key, Op: "load", Err: ErrArtifactNotFound}
		}
		return nil, &ArtifactError{Key: key, Op: "load", Err: err}
	}
	defer file.Close()

	var env envelope
	if err := gob.NewDecoder(file).Decode(&env); err != nil {
		return nil, &ArtifactError{Key: key, Op: "load", Err: fmt.Errorf("%w: %v", ErrArtifactCorrupt, err)}
	}
	if env.FormatVersion != formatVersion {
		return nil, &ArtifactError{Key: key, Op: "load", Err: fmt.Errorf("%w: format version %d, want %d", ErrArtifactCorrupt, env.FormatVersion, formatVersion)}
	}
	if env.Pipeline == nil || !env.Pipeline.Fitted || env.Pipeline.Classifier == nil {
		return nil, &ArtifactError{Key: key, Op: "load", Err: fmt.Errorf("%w: no fitted pipeline", ErrArtifactCorrupt)}
	}
	if diff := env.Schema.Diff(expected); len(diff) > 0 {
		return nil, &SchemaMismatchError{Key: key, Fields: diff}
	}
	return env.Pipeline, nil
}

// Exists reports whether an artifact is stored under key.
func (s *ArtifactStore) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.Path(key))
	return err == nil
}

// List returns the stored keys in lexical order.
func (s *ArtifactStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != artifactExt {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, artifactExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete removes the artifact stored under key.
func (s *ArtifactStore) Delete(key string) error {
	if err := validKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ArtifactError{Key: key, Op: "delete", Err: ErrArtifactNotFound}
		}
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	return nil
}

func validKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("invalid artifact key %q", key)
	}
	return nil
}
