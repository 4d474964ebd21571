package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/glimpse/internal/artifact"
	"github.com/rbright/glimpse/internal/capture"
	"github.com/rbright/glimpse/internal/config"
	"github.com/rbright/glimpse/internal/kv"
	"github.com/rbright/glimpse/internal/ledger"
	"github.com/rbright/glimpse/internal/prompt"
)

type fakePipeline struct {
	analysis   prompt.Analysis
	transcript string
	analyzed   []string
}

func (f *fakePipeline) AnalyzeScreenshot(_ context.Context, img artifact.Artifact, userPrompt string) (prompt.Analysis, error) {
	f.analyzed = append(f.analyzed, userPrompt)
	return f.analysis, nil
}

func (f *fakePipeline) SubmitPrompt(context.Context, string, []artifact.Artifact, string) (prompt.Analysis, error) {
	return f.analysis, nil
}

func (f *fakePipeline) TranscribeAudio(context.Context, []byte, string) (string, error) {
	return f.transcript, nil
}

func (f *fakePipeline) ExtractText(context.Context, artifact.Artifact) (string, error) {
	return "", nil
}

func newTestController(t *testing.T, pipe Pipeline, cfg config.Config) (*Controller, *ledger.Ledger, *artifact.Catalog) {
	t.Helper()

	store, err := kv.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	lg, err := ledger.New(store, 100)
	require.NoError(t, err)
	catalog, err := artifact.NewCatalog(store)
	require.NoError(t, err)

	artifacts := artifact.NewStore(t.TempDir())
	captures := capture.NewManager(nil)

	c := NewController(nil, captures, artifacts, catalog, pipe, lg, func() config.Config { return cfg })
	return c, lg, catalog
}

func TestSnapCapturesAndStagesImage(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.ScreenshotCmd = config.CommandConfig{Argv: []string{"/bin/echo", "fake-png-bytes"}}
	pipe := &fakePipeline{analysis: prompt.Analysis{ContentType: "code"}}
	c, lg, _ := newTestController(t, pipe, cfg)

	result, err := c.Snap(context.Background(), "what is this")
	require.NoError(t, err)
	require.NotEmpty(t, result.Artifact.ID)
	require.Equal(t, "image/png", result.Artifact.MimeType)
	require.NotNil(t, result.Analysis)
	require.Equal(t, "code", result.Analysis.ContentType)
	require.Equal(t, []string{"what is this"}, pipe.analyzed)

	records := lg.List(ledger.Filter{Category: ledger.CategoryCapture})
	require.Len(t, records, 1)
	require.True(t, records[0].Succeeded)
}

func TestSnapWithoutPromptSkipsAnalysis(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.ScreenshotCmd = config.CommandConfig{Argv: []string{"/bin/echo", "png"}}
	pipe := &fakePipeline{}
	c, _, _ := newTestController(t, pipe, cfg)

	result, err := c.Snap(context.Background(), "")
	require.NoError(t, err)
	require.Nil(t, result.Analysis)
	require.Empty(t, pipe.analyzed)
}

func TestSnapMissingCommandRecordsFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.ScreenshotCmd = config.CommandConfig{Argv: []string{"/nonexistent-screenshot-tool"}}
	c, lg, _ := newTestController(t, &fakePipeline{}, cfg)

	_, err := c.Snap(context.Background(), "")
	require.ErrorIs(t, err, capture.ErrDeviceUnavailable)

	records := lg.List(ledger.Filter{ErrorsOnly: true})
	require.Len(t, records, 1)
}

func TestStopRecordingWithoutStartFails(t *testing.T) {
	c, _, _ := newTestController(t, &fakePipeline{}, config.Default())

	_, err := c.StopRecording(context.Background())
	require.ErrorIs(t, err, capture.ErrSessionNotActive)

	require.ErrorIs(t, c.Pause(capture.KindScreen), capture.ErrSessionNotActive)
	require.ErrorIs(t, c.Resume(capture.KindScreen), capture.ErrSessionNotActive)
}

func TestStageUploadDecodesDataURLAndCatalogs(t *testing.T) {
	c, lg, catalog := newTestController(t, &fakePipeline{}, config.Default())

	staged, err := c.StageUpload("data:image/png;base64,AAAA", "x.png", "")
	require.NoError(t, err)
	require.Equal(t, "image/png", staged.MimeType)
	require.Equal(t, int64(3), staged.ByteLength)

	entries := catalog.List()
	require.Len(t, entries, 1)
	require.Equal(t, "x.png", entries[0].Name)

	records := lg.List(ledger.Filter{Category: ledger.CategoryFileUpload})
	require.Len(t, records, 1)
	require.True(t, records[0].Succeeded)
}

func TestStageUploadBadPayloadRecordsFailure(t *testing.T) {
	c, lg, catalog := newTestController(t, &fakePipeline{}, config.Default())

	_, err := c.StageUpload("data:image/png;base64,!!!not-base64!!!", "bad.png", "")
	require.Error(t, err)
	require.Empty(t, catalog.List())

	records := lg.List(ledger.Filter{ErrorsOnly: true})
	require.Len(t, records, 1)
}

func TestStatusEmptyWithNoSessions(t *testing.T) {
	c, _, _ := newTestController(t, &fakePipeline{}, config.Default())
	require.Empty(t, c.Status())
}
