// Package app wires configuration, logging, capture, pipeline, and IPC into
// the glimpse command surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/rbright/glimpse/internal/capture"
	"github.com/rbright/glimpse/internal/cli"
	"github.com/rbright/glimpse/internal/config"
	"github.com/rbright/glimpse/internal/doctor"
	"github.com/rbright/glimpse/internal/ipc"
	"github.com/rbright/glimpse/internal/logging"
	"github.com/rbright/glimpse/internal/version"
)

type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	r := Runner{Stdout: stdout, Stderr: stderr}
	return r.Execute(ctx, args)
}

func (r Runner) Execute(ctx context.Context, args []string) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n\n", err)
		fmt.Fprint(r.Stderr, cli.HelpText("glimpse"))
		return 2
	}

	if parsed.ShowHelp {
		fmt.Fprint(r.Stdout, cli.HelpText("glimpse"))
		return 0
	}

	if parsed.Command == cli.CommandVersion {
		fmt.Fprintln(r.Stdout, version.String())
		return 0
	}

	logRuntime, err := logging.New()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()

	logger := r.Logger
	if logger == nil {
		logger = logRuntime.Logger
	}

	cfgLoaded, err := config.Load(parsed.ConfigPath)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		msg := w.Message
		if w.Line > 0 {
			msg = fmt.Sprintf("line %d: %s", w.Line, w.Message)
		}
		fmt.Fprintf(r.Stderr, "warning: %s\n", msg)
		logger.Warn("config warning", "line", w.Line, "message", w.Message)
	}

	logger.Info("command start",
		"command", parsed.Command,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
	)

	switch parsed.Command {
	case cli.CommandDoctor:
		report := doctor.Run(cfgLoaded)
		fmt.Fprintln(r.Stdout, report.String())
		if report.OK() {
			return 0
		}
		return 1
	case cli.CommandDevices:
		return r.commandDevices(ctx)
	case cli.CommandStatus:
		return r.commandStatus(ctx)
	case cli.CommandServe:
		return r.commandServe(ctx, cfgLoaded, logger)
	case cli.CommandSnap:
		return r.forwardOrFail(ctx, ipc.Request{Command: "snap", Prompt: parsed.Text})
	case cli.CommandRecord:
		return r.forwardOrFail(ctx, ipc.Request{Command: "record"})
	case cli.CommandVoice:
		return r.forwardOrFail(ctx, ipc.Request{Command: "voice"})
	case cli.CommandListen:
		return r.forwardOrFail(ctx, ipc.Request{Command: "listen"})
	case cli.CommandStop:
		return r.forwardOrFail(ctx, ipc.Request{Command: "stop", Filter: parsed.Text})
	case cli.CommandPause:
		return r.forwardOrFail(ctx, ipc.Request{Command: "pause", Filter: parsed.Text})
	case cli.CommandResume:
		return r.forwardOrFail(ctx, ipc.Request{Command: "resume", Filter: parsed.Text})
	case cli.CommandPrompt:
		if strings.TrimSpace(parsed.Text) == "" {
			fmt.Fprintln(r.Stderr, "error: prompt requires text")
			return 2
		}
		return r.forwardOrFail(ctx, ipc.Request{Command: "prompt", Prompt: parsed.Text})
	case cli.CommandLog:
		return r.forwardOrFail(ctx, ipc.Request{Command: "log", Filter: parsed.Text})
	default:
		fmt.Fprintf(r.Stderr, "error: unsupported command %q\n", parsed.Command)
		return 2
	}
}

func (r Runner) commandDevices(ctx context.Context) int {
	devices, err := capture.ListDevices(ctx)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Fprintln(r.Stdout, "no audio devices found")
		return 1
	}

	for _, device := range devices {
		defaultMark := " "
		if device.Default {
			defaultMark = "*"
		}
		availability := "yes"
		if !device.Available {
			availability = "no"
		}
		muted := "no"
		if device.Muted {
			muted = "yes"
		}
		fmt.Fprintf(
			r.Stdout,
			"%s id=%s | description=%q | state=%s | available=%s | muted=%s\n",
			defaultMark,
			device.ID,
			device.Description,
			device.State,
			availability,
			muted,
		)
	}

	return 0
}

func (r Runner) commandStatus(ctx context.Context) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintln(r.Stdout, "idle")
		return 0
	}

	resp, handled, err := tryForward(ctx, socketPath, ipc.Request{Command: "status"})
	if handled {
		if err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			return 1
		}
		if resp.State == "" {
			resp.State = "idle"
		}
		fmt.Fprintln(r.Stdout, resp.State)
		if len(resp.Data) > 0 {
			fmt.Fprintln(r.Stdout, string(resp.Data))
		}
		return 0
	}

	fmt.Fprintln(r.Stdout, "idle")
	return 0
}

func (r Runner) forwardOrFail(ctx context.Context, req ipc.Request) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	resp, handled, err := tryForward(ctx, socketPath, req)
	if !handled {
		fmt.Fprintln(r.Stderr, "error: no running glimpse daemon (start one with `glimpse serve`)")
		return 1
	}
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if resp.Message != "" {
		fmt.Fprintln(r.Stdout, resp.Message)
	}
	if len(resp.Data) > 0 {
		fmt.Fprintln(r.Stdout, string(resp.Data))
	}
	return 0
}

// tryForward reports handled=false only when no daemon owns the socket.
func tryForward(ctx context.Context, socketPath string, req ipc.Request) (ipc.Response, bool, error) {
	timeout := 220 * time.Millisecond
	if forwardNeedsWork(req.Command) {
		// Capture and provider calls take real time.
		timeout = 90 * time.Second
	}

	resp, err := ipc.Send(ctx, socketPath, req, timeout)
	if err == nil {
		if resp.OK {
			return resp, true, nil
		}
		return resp, true, errors.New(resp.Error)
	}

	if isSocketMissing(err) || isConnectionRefused(err) {
		return ipc.Response{}, false, nil
	}

	return ipc.Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
}

func forwardNeedsWork(command string) bool {
	switch command {
	case "snap", "stop", "prompt":
		return true
	default:
		return false
	}
}

func isSocketMissing(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) ||
		strings.Contains(err.Error(), "no such file or directory")
}

func isConnectionRefused(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, syscall.ECONNREFUSED)
}
