package artifact

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store stages payloads under one process-scoped temporary directory.
// The directory is created lazily on first stage.
type Store struct {
	mu   sync.Mutex
	base string
	dir  string
}

// NewStore builds a transient store rooted under base (os.TempDir when empty).
func NewStore(base string) *Store {
	if strings.TrimSpace(base) == "" {
		base = os.TempDir()
	}
	return &Store{base: base}
}

// Dir returns the temp directory, creating it on first use.
func (s *Store) Dir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirLocked()
}

func (s *Store) dirLocked() (string, error) {
	if s.dir != "" {
		return s.dir, nil
	}
	dir := filepath.Join(s.base, "glimpse-staging")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	s.dir = dir
	return dir, nil
}

// Stage writes raw bytes to a uniquely named file and returns the artifact.
func (s *Store) Stage(data []byte, name string, mimeType string) (Artifact, error) {
	s.mu.Lock()
	dir, err := s.dirLocked()
	s.mu.Unlock()
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrWriteFailure, err)
	}

	id := uuid.NewString()
	path := filepath.Join(dir, uniqueName(id, name))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return Artifact{}, fmt.Errorf("%w: write %q: %v", ErrWriteFailure, path, err)
	}

	return Artifact{
		ID:         id,
		Name:       name,
		MimeType:   mimeType,
		ByteLength: int64(len(data)),
		SourcePath: path,
		CreatedAt:  time.Now(),
	}, nil
}

// StageBase64 decodes a base64 payload (optionally carrying a data-URL
// prefix) and stages the raw bytes. The prefix rule is a strict contract:
// split on the first comma and treat everything after it as the payload.
func (s *Store) StageBase64(encoded string, name string, mimeType string) (Artifact, error) {
	payload := encoded
	if strings.HasPrefix(encoded, "data:") {
		if _, after, found := strings.Cut(encoded, ","); found {
			payload = after
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("decode base64 payload for %q: %w", name, err)
	}
	return s.Stage(data, name, mimeType)
}

// Read returns the full payload of a staged artifact.
func (s *Store) Read(a Artifact) ([]byte, error) {
	data, err := os.ReadFile(a.SourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, a.ID)
		}
		return nil, fmt.Errorf("read artifact %s: %w", a.ID, err)
	}
	return data, nil
}

// Delete removes a staged artifact. Missing files are treated as success.
func (s *Store) Delete(a Artifact) error {
	err := os.Remove(a.SourcePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete artifact %s: %w", a.ID, err)
	}
	return nil
}

// PurgeAll removes every file currently under the staging directory.
// Concurrent deletion races resolve as success.
func (s *Store) PurgeAll() error {
	s.mu.Lock()
	dir := s.dir
	s.mu.Unlock()
	if dir == "" {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list staging dir: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("purge %q: %w", path, err)
		}
	}
	return nil
}

// uniqueName composes a collision-free file name from creation time, the
// artifact id, and the caller-supplied name.
func uniqueName(id string, name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "artifact"
	}
	stamp := time.Now().Format("20060102-150405.000")
	return fmt.Sprintf("%s-%s-%s", stamp, id[:8], base)
}
