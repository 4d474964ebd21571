// Package artifact manages staged binary payloads: the transient store for
// in-flight capture output and the persistent file catalog.
package artifact

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a read against an artifact that no longer exists.
	ErrNotFound = errors.New("artifact not found")
	// ErrWriteFailure indicates staging could not persist the payload.
	ErrWriteFailure = errors.New("artifact write failure")
)

// Artifact is one staged binary payload. The transient store owns SourcePath
// until the artifact is deleted or handed to the catalog.
type Artifact struct {
	ID         string
	Name       string
	MimeType   string
	ByteLength int64
	SourcePath string
	CreatedAt  time.Time
}
