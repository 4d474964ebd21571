// Package doctor runs runtime readiness diagnostics for config, capture
// tools, audio devices, and the inference provider.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rbright/glimpse/internal/capture"
	"github.com/rbright/glimpse/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	checks = append(checks, checkCommand(cfg.Config.Capture.ScreenshotCmd.Argv, "screenshot_cmd"))
	checks = append(checks, checkCommand(cfg.Config.Capture.RecorderCmd.Argv, "recorder_cmd"))

	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkProvider(cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := capture.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkProvider validates provider configuration without a network call.
func checkProvider(cfg config.Config) Check {
	if strings.TrimSpace(cfg.Provider.Endpoint) == "" {
		return Check{Name: "provider", Pass: false, Message: "provider endpoint is empty"}
	}
	if strings.TrimSpace(cfg.Provider.APIKey) == "" {
		return Check{Name: "provider", Pass: false, Message: "api_key is empty; prompt submission will fail with not_configured"}
	}
	return Check{Name: "provider", Pass: true, Message: fmt.Sprintf("%s via %s", cfg.Provider.Model, cfg.Provider.Endpoint)}
}
