package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/glimpse/internal/artifact"
	"github.com/rbright/glimpse/internal/kv"
	"github.com/rbright/glimpse/internal/ledger"
	"github.com/rbright/glimpse/internal/prompt"
)

type fakeProvider struct {
	reply      string
	transcript string
	err        error
	visionReqs []prompt.Request
	completes  int
}

func (f *fakeProvider) Complete(_ context.Context, _ string, _ string) (string, error) {
	f.completes++
	return f.reply, f.err
}

func (f *fakeProvider) CompleteVision(_ context.Context, _ string, req prompt.Request) (string, error) {
	f.visionReqs = append(f.visionReqs, req)
	return f.reply, f.err
}

func (f *fakeProvider) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	return f.transcript, f.err
}

func testLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	store, err := kv.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	lg, err := ledger.New(store, 100)
	require.NoError(t, err)
	return lg
}

func newTestAssistant(t *testing.T, p *fakeProvider) (*Assistant, *ledger.Ledger) {
	t.Helper()
	lg := testLedger(t)
	return NewAssistantWith(nil, lg, func() Provider { return p }, "en"), lg
}

func TestAnalyzeScreenshotParsesReply(t *testing.T) {
	p := &fakeProvider{reply: `{"content_type":"code","key_elements":["fn"],"suggested_prompt":"sp","context_analysis":"ca","recommended_action":"ra"}`}
	a, lg := newTestAssistant(t, p)

	analysis, err := a.AnalyzeScreenshot(context.Background(), artifact.Artifact{ID: "img"}, "help")
	require.NoError(t, err)
	require.Equal(t, "code", analysis.ContentType)
	require.Len(t, p.visionReqs, 1)
	require.Len(t, p.visionReqs[0].Images(), 1)

	records := lg.List(ledger.Filter{})
	require.Len(t, records, 1)
	require.True(t, records[0].Succeeded)
	require.Equal(t, ledger.CategoryCapture, records[0].Category)
}

func TestAnalyzeScreenshotProviderFailureRecorded(t *testing.T) {
	p := &fakeProvider{err: errors.New("unreachable")}
	a, lg := newTestAssistant(t, p)

	_, err := a.AnalyzeScreenshot(context.Background(), artifact.Artifact{ID: "img"}, "help")
	require.Error(t, err)

	records := lg.List(ledger.Filter{ErrorsOnly: true})
	require.Len(t, records, 1)
	require.False(t, records[0].Succeeded)
}

func TestAnalyzeScreenshotsAlignsInsights(t *testing.T) {
	p := &fakeProvider{reply: "no structure"}
	a, _ := newTestAssistant(t, p)

	imgs := []artifact.Artifact{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	analysis, err := a.AnalyzeScreenshots(context.Background(), imgs, "workflow analysis")
	require.NoError(t, err)
	require.Len(t, analysis.IndividualInsights, 3)
}

func TestSubmitPromptEmptyRequestRejectedBeforeNetwork(t *testing.T) {
	p := &fakeProvider{}
	a, lg := newTestAssistant(t, p)

	_, err := a.SubmitPrompt(context.Background(), "", nil, "")
	require.ErrorIs(t, err, prompt.ErrEmptyRequest)
	require.Zero(t, p.completes)
	require.Empty(t, p.visionReqs)

	records := lg.List(ledger.Filter{ErrorsOnly: true})
	require.Len(t, records, 1)
}

func TestSubmitPromptTextOnlySkipsVision(t *testing.T) {
	p := &fakeProvider{reply: "Just plain text."}
	a, _ := newTestAssistant(t, p)

	analysis, err := a.SubmitPrompt(context.Background(), "hello", nil, "aux words")
	require.NoError(t, err)
	require.Equal(t, 1, p.completes)
	require.Empty(t, p.visionReqs)
	require.Equal(t, "unknown", analysis.ContentType)
	require.Equal(t, "hello aux words", analysis.SuggestedPrompt)
}

func TestProcessTextOperations(t *testing.T) {
	p := &fakeProvider{reply: "processed"}
	a, lg := newTestAssistant(t, p)

	out, err := a.ProcessText(context.Background(), prompt.OpSummarize, "long text")
	require.NoError(t, err)
	require.Equal(t, "processed", out)

	records := lg.List(ledger.Filter{Category: ledger.CategoryTextExtraction})
	require.Len(t, records, 1)
}

func TestTranscribeAudioRecordsCategory(t *testing.T) {
	p := &fakeProvider{transcript: "hello there"}
	a, lg := newTestAssistant(t, p)

	text, err := a.TranscribeAudio(context.Background(), []byte("RIFF"), "voice.wav")
	require.NoError(t, err)
	require.Equal(t, "hello there", text)

	records := lg.List(ledger.Filter{Category: ledger.CategoryAudioTranscription})
	require.Len(t, records, 1)
	require.True(t, records[0].Succeeded)
}

func TestAnalyzeBatchIsolatesFailures(t *testing.T) {
	p := &fakeProvider{reply: "{}"}
	a, _ := newTestAssistant(t, p)

	// An empty artifact list still yields an empty, well-formed outcome set.
	outcomes, summary := a.AnalyzeBatch(context.Background(), nil, "prompt")
	require.Empty(t, outcomes)
	require.Zero(t, summary.Total)

	imgs := []artifact.Artifact{{ID: "a"}, {ID: "b"}}
	outcomes, summary = a.AnalyzeBatch(context.Background(), imgs, "prompt")
	require.Len(t, outcomes, 2)
	require.Equal(t, 2, summary.Succeeded)
}
