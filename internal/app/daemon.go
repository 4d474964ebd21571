package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rbright/glimpse/internal/artifact"
	"github.com/rbright/glimpse/internal/capture"
	"github.com/rbright/glimpse/internal/config"
	"github.com/rbright/glimpse/internal/ipc"
	"github.com/rbright/glimpse/internal/kv"
	"github.com/rbright/glimpse/internal/ledger"
	"github.com/rbright/glimpse/internal/pipeline"
	"github.com/rbright/glimpse/internal/provider"
	"github.com/rbright/glimpse/internal/session"
)

// configHolder hands the latest loaded config to flows that must observe
// live edits.
type configHolder struct {
	mu  sync.RWMutex
	cfg config.Config
}

func (h *configHolder) get() config.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

func (h *configHolder) set(cfg config.Config) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cfg = cfg
}

// commandServe runs the daemon: it owns the IPC socket, the capture
// sessions, the artifact store, and the activity ledger until cancelled.
func (r Runner) commandServe(ctx context.Context, cfgLoaded config.Loaded, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	kvPath, err := kv.DefaultPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	store, err := kv.Open(kvPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer store.Close()

	activities, err := ledger.New(store, cfgLoaded.Config.Ledger.MaxRecords)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	catalog, err := artifact.NewCatalog(store)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	artifacts := artifact.NewStore("")
	defer func() {
		if err := artifacts.PurgeAll(); err != nil {
			logger.Warn("staging purge failed", "error", err.Error())
		}
	}()

	holder := &configHolder{cfg: cfgLoaded.Config}
	providers := provider.NewManager(cfgLoaded.Config.Provider, artifacts)
	assistant := pipeline.NewAssistant(logger, activities, providers, cfgLoaded.Config.Provider.Language)
	captures := capture.NewManager(logger)
	controller := session.NewController(logger, captures, artifacts, catalog, assistant, activities, holder.get)

	watcher := config.NewWatcher(cfgLoaded.Path, 0,
		func(loaded config.Loaded) {
			holder.set(loaded.Config)
			providers.Apply(loaded.Config.Provider)
			logger.Info("config reloaded", "path", loaded.Path)
		},
		func(err error) {
			logger.Warn("config reload failed", "error", err.Error())
		},
	)
	go watcher.Run(ctx)

	logger.Info("daemon ready", "socket", socketPath)
	handler := &daemon{logger: logger, controller: controller, assistant: assistant, activities: activities}
	if err := ipc.Serve(ctx, listener, handler); err != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", err)
		return 1
	}
	return 0
}

// daemon dispatches IPC commands against the session controller.
type daemon struct {
	logger     *slog.Logger
	controller *session.Controller
	assistant  *pipeline.Assistant
	activities *ledger.Ledger
}

func (d *daemon) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return d.status()
	case "snap":
		return d.snap(ctx, req.Prompt)
	case "record":
		return d.start(ctx, capture.KindScreen)
	case "voice":
		return d.start(ctx, capture.KindVoice)
	case "listen":
		return d.start(ctx, capture.KindSystemAudio)
	case "pause":
		return respond(d.controller.Pause(kindFromArg(req.Filter)), "paused")
	case "resume":
		return respond(d.controller.Resume(kindFromArg(req.Filter)), "resumed")
	case "stop":
		return d.stop(ctx, kindFromArg(req.Filter))
	case "prompt":
		return d.prompt(ctx, req.Prompt)
	case "stage":
		return d.stage(req)
	case "log":
		return d.activityLog(req.Filter)
	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("unknown command: %s", req.Command)}
	}
}

func kindFromArg(arg string) capture.Kind {
	switch arg {
	case "", "screen", "record":
		return capture.KindScreen
	case "voice":
		return capture.KindVoice
	case "listen", "system", "system-audio":
		return capture.KindSystemAudio
	default:
		return capture.Kind(arg)
	}
}

func respond(err error, message string) ipc.Response {
	if err != nil {
		return ipc.Response{OK: false, Error: err.Error()}
	}
	return ipc.Response{OK: true, Message: message}
}

func withData(v any, message string) ipc.Response {
	data, err := json.Marshal(v)
	if err != nil {
		return ipc.Response{OK: false, Error: fmt.Sprintf("encode response: %v", err)}
	}
	return ipc.Response{OK: true, Message: message, Data: data}
}

func (d *daemon) status() ipc.Response {
	statuses := d.controller.Status()
	state := "idle"
	if len(statuses) > 0 {
		state = string(statuses[0].State)
	}
	resp := withData(statuses, "")
	resp.State = state
	return resp
}

func (d *daemon) snap(ctx context.Context, userPrompt string) ipc.Response {
	result, err := d.controller.Snap(ctx, userPrompt)
	if err != nil {
		return ipc.Response{OK: false, Error: err.Error()}
	}
	return withData(result, fmt.Sprintf("captured %s", result.Artifact.Name))
}

func (d *daemon) start(ctx context.Context, kind capture.Kind) ipc.Response {
	var err error
	switch kind {
	case capture.KindScreen:
		_, err = d.controller.StartRecording(ctx)
	case capture.KindVoice:
		_, err = d.controller.StartVoice(ctx)
	case capture.KindSystemAudio:
		_, err = d.controller.StartMonitor(ctx)
	default:
		err = fmt.Errorf("cannot start kind %q", kind)
	}
	return respond(err, fmt.Sprintf("%s started", kind))
}

func (d *daemon) stop(ctx context.Context, kind capture.Kind) ipc.Response {
	switch kind {
	case capture.KindScreen:
		result, err := d.controller.StopRecording(ctx)
		if err != nil {
			return ipc.Response{OK: false, Error: err.Error()}
		}
		return withData(result, fmt.Sprintf("recording saved: %s", result.Artifact.Name))
	case capture.KindVoice:
		result, err := d.controller.StopVoice(ctx)
		if err != nil {
			return ipc.Response{OK: false, Error: err.Error()}
		}
		return withData(result, result.Transcript)
	case capture.KindSystemAudio:
		return respond(d.controller.StopMonitor(), "monitoring stopped")
	default:
		return ipc.Response{OK: false, Error: fmt.Sprintf("cannot stop kind %q", kind)}
	}
}

func (d *daemon) prompt(ctx context.Context, text string) ipc.Response {
	analysis, err := d.assistant.SubmitPrompt(ctx, text, nil, "")
	if err != nil {
		return ipc.Response{OK: false, Error: err.Error()}
	}
	return withData(analysis, "")
}

func (d *daemon) stage(req ipc.Request) ipc.Response {
	staged, err := d.controller.StageUpload(req.Payload, req.Name, req.Mime)
	if err != nil {
		return ipc.Response{OK: false, Error: err.Error()}
	}
	return withData(staged, fmt.Sprintf("staged %s", staged.Name))
}

func (d *daemon) activityLog(filter string) ipc.Response {
	switch filter {
	case "clear":
		d.activities.Clear()
		return ipc.Response{OK: true, Message: "activity log cleared"}
	case "export":
		return withData(d.activities.Export(), "")
	case "errors":
		return withData(d.activities.List(ledger.Filter{ErrorsOnly: true}), "")
	case "":
		return withData(d.activities.List(ledger.Filter{}), "")
	default:
		return withData(d.activities.List(ledger.Filter{Category: ledger.Category(filter)}), "")
	}
}
