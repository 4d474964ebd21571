package capture

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CaptureStill runs the configured screenshot command and returns the image
// it writes to stdout. The reference command is `grim -`. Still capture is
// request/response: no session state is retained.
func CaptureStill(ctx context.Context, argv []string) (Result, error) {
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("%w: screenshot command not configured", ErrDeviceUnavailable)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return Result{}, fmt.Errorf("%w: %q not found", ErrDeviceUnavailable, argv[0])
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return Result{}, fmt.Errorf("%w: %s failed: %v", ErrDeviceUnavailable, argv[0], err)
		}
		return Result{}, fmt.Errorf("%w: %s failed: %v (%s)", ErrDeviceUnavailable, argv[0], err, detail)
	}
	if len(out) == 0 {
		return Result{}, fmt.Errorf("%w: %s produced no image data", ErrDeviceUnavailable, argv[0])
	}

	return Result{
		Data:     out,
		Name:     fmt.Sprintf("screenshot-%s.png", time.Now().Format("20060102-150405")),
		MimeType: "image/png",
	}, nil
}
