// Package session coordinates capture lifecycle commands and the
// capture-to-response flows behind the IPC surface.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/glimpse/internal/artifact"
	"github.com/rbright/glimpse/internal/capture"
	"github.com/rbright/glimpse/internal/config"
	"github.com/rbright/glimpse/internal/ledger"
	"github.com/rbright/glimpse/internal/prompt"
)

// Pipeline is the session-facing subset of assistant behavior.
type Pipeline interface {
	AnalyzeScreenshot(ctx context.Context, img artifact.Artifact, userPrompt string) (prompt.Analysis, error)
	SubmitPrompt(ctx context.Context, instruction string, images []artifact.Artifact, auxiliaryText string) (prompt.Analysis, error)
	TranscribeAudio(ctx context.Context, audio []byte, filename string) (string, error)
	ExtractText(ctx context.Context, img artifact.Artifact) (string, error)
}

// noopPipeline preserves session flow when no pipeline is wired.
type noopPipeline struct{}

func (noopPipeline) AnalyzeScreenshot(context.Context, artifact.Artifact, string) (prompt.Analysis, error) {
	return prompt.Analysis{}, nil
}

func (noopPipeline) SubmitPrompt(context.Context, string, []artifact.Artifact, string) (prompt.Analysis, error) {
	return prompt.Analysis{}, nil
}

func (noopPipeline) TranscribeAudio(context.Context, []byte, string) (string, error) {
	return "", nil
}

func (noopPipeline) ExtractText(context.Context, artifact.Artifact) (string, error) {
	return "", nil
}

// SnapResult is the output of one still-capture flow.
type SnapResult struct {
	Artifact artifact.Artifact
	Analysis *prompt.Analysis
}

// StopResult is the output of finalizing a recording session.
type StopResult struct {
	Artifact   artifact.Artifact
	Transcript string
	Elapsed    time.Duration
}

// Controller owns the per-kind capture sessions and drives each finalized
// payload through staging and the pipeline.
type Controller struct {
	logger   *slog.Logger
	captures *capture.Manager
	store    *artifact.Store
	catalog  *artifact.Catalog
	pipe     Pipeline
	ledger   *ledger.Ledger
	cfg      func() config.Config
}

// NewController constructs a controller with safe default fallbacks.
func NewController(
	logger *slog.Logger,
	captures *capture.Manager,
	store *artifact.Store,
	catalog *artifact.Catalog,
	pipe Pipeline,
	lg *ledger.Ledger,
	cfg func() config.Config,
) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if pipe == nil {
		pipe = noopPipeline{}
	}
	if cfg == nil {
		cfg = func() config.Config { return config.Default() }
	}
	return &Controller{
		logger:   logger,
		captures: captures,
		store:    store,
		catalog:  catalog,
		pipe:     pipe,
		ledger:   lg,
		cfg:      cfg,
	}
}

func (c *Controller) log(category ledger.Category, description string, started time.Time, err error) {
	if c.ledger == nil {
		return
	}
	c.ledger.Record(category, description, nil, time.Since(started), err == nil)
}

// Snap captures one still image, stages it, and when a prompt is supplied
// runs single-image analysis over it.
func (c *Controller) Snap(ctx context.Context, userPrompt string) (SnapResult, error) {
	started := time.Now()
	cfg := c.cfg()

	result, err := capture.CaptureStill(ctx, cfg.Capture.ScreenshotCmd.Argv)
	if err != nil {
		c.log(ledger.CategoryCapture, "screenshot capture", started, err)
		return SnapResult{}, err
	}

	staged, err := c.store.Stage(result.Data, result.Name, result.MimeType)
	c.log(ledger.CategoryCapture, "screenshot capture", started, err)
	if err != nil {
		return SnapResult{}, err
	}

	out := SnapResult{Artifact: staged}
	if userPrompt != "" {
		analysis, err := c.pipe.AnalyzeScreenshot(ctx, staged, userPrompt)
		if err != nil {
			return out, err
		}
		out.Analysis = &analysis
	}
	return out, nil
}

// StartRecording begins a screen-recording session.
func (c *Controller) StartRecording(ctx context.Context) (capture.Handle, error) {
	started := time.Now()
	cfg := c.cfg()

	handle, err := c.captures.Start(ctx, capture.KindScreen, capture.NewScreenRecorder(cfg.Capture.RecorderCmd.Argv))
	c.log(ledger.CategoryRecording, "screen recording started", started, err)
	return handle, err
}

// StartVoice begins a voice-recording session on the configured input.
func (c *Controller) StartVoice(ctx context.Context) (capture.Handle, error) {
	started := time.Now()
	cfg := c.cfg()

	rec := capture.NewVoiceRecorder(cfg.Audio.Input, cfg.Audio.Fallback)
	handle, err := c.captures.Start(ctx, capture.KindVoice, rec)
	if err == nil && rec.Selection().Fallback {
		c.logger.Warn("voice capture fallback", "warning", rec.Selection().Warning)
	}
	c.log(ledger.CategoryRecording, "voice recording started", started, err)
	return handle, err
}

// StartMonitor begins best-effort system-audio monitoring. Missing platform
// support degrades to a successful no-op session.
func (c *Controller) StartMonitor(ctx context.Context) (capture.Handle, error) {
	started := time.Now()

	monitor := capture.NewSystemAudioMonitor()
	handle, err := c.captures.Start(ctx, capture.KindSystemAudio, monitor)
	if err != nil {
		c.log(ledger.CategorySystemAudio, "system audio monitoring started", started, err)
		return capture.Handle{}, err
	}
	if monitor.Degraded() {
		c.logger.Warn("system audio monitoring degraded to no-op")
	}

	go func() {
		for snap := range monitor.Snapshots() {
			c.logger.Debug("system audio snapshot", "level", snap.Level, "active", snap.Active)
		}
	}()

	c.log(ledger.CategorySystemAudio, "system audio monitoring started", started, nil)
	return handle, nil
}

// Pause suspends the session of the given kind.
func (c *Controller) Pause(kind capture.Kind) error {
	return c.captures.Pause(kind)
}

// Resume reactivates the session of the given kind.
func (c *Controller) Resume(kind capture.Kind) error {
	return c.captures.Resume(kind)
}

// StopRecording finalizes the screen recording and stages its payload.
func (c *Controller) StopRecording(ctx context.Context) (StopResult, error) {
	started := time.Now()

	result, err := c.captures.Stop(capture.KindScreen)
	if err != nil {
		c.log(ledger.CategoryRecording, "screen recording stopped", started, err)
		return StopResult{}, err
	}

	staged, err := c.store.Stage(result.Data, result.Name, result.MimeType)
	c.log(ledger.CategoryRecording, "screen recording stopped", started, err)
	if err != nil {
		return StopResult{}, err
	}
	return StopResult{Artifact: staged, Elapsed: time.Since(started)}, nil
}

// StopVoice finalizes the voice recording, stages the audio, and
// transcribes it.
func (c *Controller) StopVoice(ctx context.Context) (StopResult, error) {
	started := time.Now()

	result, err := c.captures.Stop(capture.KindVoice)
	if err != nil {
		c.log(ledger.CategoryRecording, "voice recording stopped", started, err)
		return StopResult{}, err
	}

	staged, err := c.store.Stage(result.Data, result.Name, result.MimeType)
	if err != nil {
		c.log(ledger.CategoryRecording, "voice recording stopped", started, err)
		return StopResult{}, err
	}
	c.log(ledger.CategoryRecording, "voice recording stopped", started, nil)

	transcript, err := c.pipe.TranscribeAudio(ctx, result.Data, result.Name)
	if err != nil {
		return StopResult{Artifact: staged}, err
	}
	return StopResult{Artifact: staged, Transcript: transcript, Elapsed: time.Since(started)}, nil
}

// StopMonitor ends system-audio monitoring; it never yields a payload.
func (c *Controller) StopMonitor() error {
	started := time.Now()
	_, err := c.captures.Stop(capture.KindSystemAudio)
	c.log(ledger.CategorySystemAudio, "system audio monitoring stopped", started, err)
	return err
}

// StageUpload stages an imported file (raw bytes or base64/data-URL) and
// catalogs it for long-term reference.
func (c *Controller) StageUpload(payload string, name string, mimeType string) (artifact.Artifact, error) {
	started := time.Now()
	if mimeType == "" {
		mimeType = artifact.MimeTypeForName(name)
	}

	staged, err := c.store.StageBase64(payload, name, mimeType)
	if err != nil {
		c.log(ledger.CategoryFileUpload, fmt.Sprintf("file upload %q", name), started, err)
		return artifact.Artifact{}, err
	}

	if c.catalog != nil {
		if data, readErr := c.store.Read(staged); readErr == nil {
			_, _ = c.catalog.Add(staged.Name, staged.MimeType, data)
		}
	}
	c.log(ledger.CategoryFileUpload, fmt.Sprintf("file upload %q", name), started, nil)
	return staged, nil
}

// Status reports all live capture sessions.
func (c *Controller) Status() []capture.Status {
	return c.captures.Snapshot()
}
