// Package prompt assembles provider requests and parses free-form provider
// replies into structured analyses.
package prompt

import (
	"errors"
	"strings"

	"github.com/rbright/glimpse/internal/artifact"
)

// ErrEmptyRequest indicates neither an instruction nor any image was supplied.
var ErrEmptyRequest = errors.New("request requires an instruction or at least one image")

// Request is one assembled unit bound for the inference provider.
// It is immutable once constructed.
type Request struct {
	instruction string
	images      []artifact.Artifact
}

// BuildRequest validates and assembles a request. Auxiliary text (for
// example a transcript) is concatenated after the instruction so the
// provider always sees a single instruction string.
func BuildRequest(instruction string, images []artifact.Artifact, auxiliaryText string) (Request, error) {
	combined := strings.TrimSpace(instruction)
	if aux := strings.TrimSpace(auxiliaryText); aux != "" {
		if combined == "" {
			combined = aux
		} else {
			combined = combined + " " + aux
		}
	}

	if combined == "" && len(images) == 0 {
		return Request{}, ErrEmptyRequest
	}

	copied := make([]artifact.Artifact, len(images))
	copy(copied, images)
	return Request{instruction: combined, images: copied}, nil
}

// Instruction returns the combined instruction text.
func (r Request) Instruction() string {
	return r.instruction
}

// Images returns the ordered image sequence as a defensive copy.
func (r Request) Images() []artifact.Artifact {
	out := make([]artifact.Artifact, len(r.images))
	copy(out, r.images)
	return out
}
