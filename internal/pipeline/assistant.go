// Package pipeline composes staged artifacts and user instructions into
// provider requests and records every attempt in the activity ledger.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/glimpse/internal/artifact"
	"github.com/rbright/glimpse/internal/batch"
	"github.com/rbright/glimpse/internal/ledger"
	"github.com/rbright/glimpse/internal/prompt"
	"github.com/rbright/glimpse/internal/provider"
)

// Provider is the inference surface the pipeline depends on.
type Provider interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
	CompleteVision(ctx context.Context, systemPrompt string, req prompt.Request) (string, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// managerSource resolves the current client per operation so configuration
// changes take effect without restarting flows.
type managerSource struct {
	m *provider.Manager
}

func (s managerSource) provider() Provider {
	return s.m.Client()
}

// Assistant runs the capture-to-response flows.
type Assistant struct {
	logger   *slog.Logger
	ledger   *ledger.Ledger
	provider func() Provider
	language string
}

// NewAssistant wires the pipeline to its collaborators. The ledger is
// injected explicitly; there is no ambient global logging hook.
func NewAssistant(logger *slog.Logger, lg *ledger.Ledger, providers *provider.Manager, language string) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		logger:   logger,
		ledger:   lg,
		provider: managerSource{m: providers}.provider,
		language: language,
	}
}

// NewAssistantWith is the test seam taking a provider factory directly.
func NewAssistantWith(logger *slog.Logger, lg *ledger.Ledger, providerFn func() Provider, language string) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{logger: logger, ledger: lg, provider: providerFn, language: language}
}

// record writes one activity entry; ledger failures are fire-and-forget.
func (a *Assistant) record(category ledger.Category, description string, started time.Time, err error) {
	if a.ledger == nil {
		return
	}
	a.ledger.Record(category, description, nil, time.Since(started), err == nil)
}

// AnalyzeScreenshot sends one image plus the user's custom prompt for
// structured analysis. The result is always a full Analysis; parse
// tolerance is handled downstream of the provider call.
func (a *Assistant) AnalyzeScreenshot(ctx context.Context, img artifact.Artifact, userPrompt string) (prompt.Analysis, error) {
	started := time.Now()

	req, err := prompt.BuildRequest(prompt.AnalysisUserPrompt(userPrompt), []artifact.Artifact{img}, "")
	if err != nil {
		a.record(ledger.CategoryCapture, "screenshot analysis", started, err)
		return prompt.Analysis{}, err
	}

	raw, err := a.provider().CompleteVision(ctx, prompt.AnalysisSystemPrompt, req)
	a.record(ledger.CategoryCapture, "screenshot analysis", started, err)
	if err != nil {
		return prompt.Analysis{}, err
	}
	return prompt.ParseAnalysis(raw, userPrompt), nil
}

// AnalyzeScreenshots analyzes an ordered image set as one connected
// request. The returned insights are index-aligned with the input.
func (a *Assistant) AnalyzeScreenshots(ctx context.Context, imgs []artifact.Artifact, analysisType string) (prompt.MultiAnalysis, error) {
	started := time.Now()

	req, err := prompt.BuildRequest(prompt.MultiAnalysisUserPrompt(len(imgs), analysisType), imgs, "")
	if err != nil {
		a.record(ledger.CategoryCapture, "multi-screenshot analysis", started, err)
		return prompt.MultiAnalysis{}, err
	}

	raw, err := a.provider().CompleteVision(ctx, prompt.MultiAnalysisSystemPrompt(analysisType), req)
	a.record(ledger.CategoryCapture, "multi-screenshot analysis", started, err)
	if err != nil {
		return prompt.MultiAnalysis{}, err
	}
	return prompt.ParseMultiAnalysis(raw, len(imgs)), nil
}

// GenerateResponse produces free-form text for the user's prompt given a
// prior analysis as context.
func (a *Assistant) GenerateResponse(ctx context.Context, userPrompt string, analysis prompt.Analysis) (string, error) {
	started := time.Now()

	req, err := prompt.BuildRequest(userPrompt, nil, "")
	if err != nil {
		a.record(ledger.CategoryCustomPrompt, "custom prompt response", started, err)
		return "", err
	}

	reply, err := a.provider().Complete(ctx, prompt.ResponseSystemPrompt(a.language, analysis), req.Instruction())
	a.record(ledger.CategoryCustomPrompt, "custom prompt response", started, err)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// SubmitPrompt is the general boundary operation: instruction plus images
// plus optional auxiliary text, parsed into a structured analysis.
func (a *Assistant) SubmitPrompt(ctx context.Context, instruction string, images []artifact.Artifact, auxiliaryText string) (prompt.Analysis, error) {
	started := time.Now()

	req, err := prompt.BuildRequest(instruction, images, auxiliaryText)
	if err != nil {
		a.record(ledger.CategoryCustomPrompt, "prompt submission", started, err)
		return prompt.Analysis{}, err
	}

	var raw string
	if len(req.Images()) > 0 {
		raw, err = a.provider().CompleteVision(ctx, prompt.AnalysisSystemPrompt, req)
	} else {
		raw, err = a.provider().Complete(ctx, prompt.AnalysisSystemPrompt, req.Instruction())
	}
	a.record(ledger.CategoryCustomPrompt, "prompt submission", started, err)
	if err != nil {
		return prompt.Analysis{}, err
	}
	return prompt.ParseAnalysis(raw, req.Instruction()), nil
}

// ProcessText runs one text-processing operation over input text.
func (a *Assistant) ProcessText(ctx context.Context, op prompt.TextOperation, text string) (string, error) {
	started := time.Now()

	req, err := prompt.BuildRequest(prompt.TextOperationPrompt(op, text), nil, "")
	if err != nil {
		a.record(ledger.CategoryTextExtraction, fmt.Sprintf("text %s", op), started, err)
		return "", err
	}

	reply, err := a.provider().Complete(ctx, "", req.Instruction())
	a.record(ledger.CategoryTextExtraction, fmt.Sprintf("text %s", op), started, err)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// ExtractText performs OCR-style extraction over one staged image.
func (a *Assistant) ExtractText(ctx context.Context, img artifact.Artifact) (string, error) {
	started := time.Now()

	req, err := prompt.BuildRequest(prompt.ExtractTextInstruction, []artifact.Artifact{img}, "")
	if err != nil {
		a.record(ledger.CategoryTextExtraction, "image text extraction", started, err)
		return "", err
	}

	text, err := a.provider().CompleteVision(ctx, "", req)
	a.record(ledger.CategoryTextExtraction, "image text extraction", started, err)
	if err != nil {
		return "", err
	}
	return text, nil
}

// TranscribeAudio converts recorded audio to text.
func (a *Assistant) TranscribeAudio(ctx context.Context, audio []byte, filename string) (string, error) {
	started := time.Now()
	text, err := a.provider().Transcribe(ctx, audio, filename)
	a.record(ledger.CategoryAudioTranscription, "audio transcription", started, err)
	if err != nil {
		return "", err
	}
	return text, nil
}

// AnalyzeBatch applies single-image analysis across an ordered image set,
// one outcome per image, failures isolated per item.
func (a *Assistant) AnalyzeBatch(ctx context.Context, imgs []artifact.Artifact, userPrompt string) ([]batch.Outcome[artifact.Artifact, prompt.Analysis], batch.Summary) {
	started := time.Now()

	outcomes, summary := batch.Run(ctx, imgs, func(ctx context.Context, img artifact.Artifact) (prompt.Analysis, error) {
		return a.AnalyzeScreenshot(ctx, img, userPrompt)
	})

	a.record(ledger.CategoryFileUpload,
		fmt.Sprintf("batch analysis: %d/%d succeeded", summary.Succeeded, summary.Total),
		started, nil)
	return outcomes, summary
}
