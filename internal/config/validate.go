package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Provider.Name) == "" {
		return nil, fmt.Errorf("provider.name must not be empty")
	}
	if strings.TrimSpace(cfg.Provider.Endpoint) == "" {
		return nil, fmt.Errorf("provider.endpoint must not be empty")
	}
	if !strings.HasPrefix(cfg.Provider.Endpoint, "http://") && !strings.HasPrefix(cfg.Provider.Endpoint, "https://") {
		return nil, fmt.Errorf("provider.endpoint must start with http:// or https://")
	}
	if strings.TrimSpace(cfg.Provider.Model) == "" {
		return nil, fmt.Errorf("provider.model must not be empty")
	}
	if strings.TrimSpace(cfg.Provider.Language) == "" {
		return nil, fmt.Errorf("provider.language must not be empty")
	}
	if strings.TrimSpace(cfg.Provider.APIKey) == "" {
		warnings = append(warnings, Warning{
			Message: "provider.api_key is empty; prompt submission will fail until one is configured",
		})
	}

	if cfg.Ledger.MaxRecords <= 0 {
		return nil, fmt.Errorf("ledger.max_records must be > 0")
	}

	if len(cfg.Capture.ScreenshotCmd.Argv) == 0 {
		return nil, fmt.Errorf("capture.screenshot_cmd must not be empty")
	}
	if len(cfg.Capture.RecorderCmd.Argv) == 0 {
		return nil, fmt.Errorf("capture.recorder_cmd must not be empty")
	}

	return warnings, nil
}
