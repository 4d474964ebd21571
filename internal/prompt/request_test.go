package prompt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/glimpse/internal/artifact"
)

func TestBuildRequestRequiresInstructionOrImage(t *testing.T) {
	_, err := BuildRequest("", nil, "")
	require.ErrorIs(t, err, ErrEmptyRequest)

	_, err = BuildRequest("   \t ", nil, "")
	require.ErrorIs(t, err, ErrEmptyRequest)

	img := artifact.Artifact{ID: "img-a", MimeType: "image/png"}
	req, err := BuildRequest("", []artifact.Artifact{img}, "")
	require.NoError(t, err)
	require.Len(t, req.Images(), 1)
}

func TestBuildRequestConcatenatesAuxiliaryText(t *testing.T) {
	req, err := BuildRequest("describe this", nil, "they said hello")
	require.NoError(t, err)
	require.Equal(t, "describe this they said hello", req.Instruction())
}

func TestBuildRequestAuxiliaryAloneSatisfiesInstruction(t *testing.T) {
	req, err := BuildRequest("", nil, "transcript only")
	require.NoError(t, err)
	require.Equal(t, "transcript only", req.Instruction())
}

func TestRequestImagesAreCopied(t *testing.T) {
	images := []artifact.Artifact{{ID: "one"}, {ID: "two"}}
	req, err := BuildRequest("x", images, "")
	require.NoError(t, err)

	images[0].ID = "mutated"
	require.Equal(t, "one", req.Images()[0].ID)

	snapshot := req.Images()
	snapshot[1].ID = "also mutated"
	require.Equal(t, "two", req.Images()[1].ID)
}
