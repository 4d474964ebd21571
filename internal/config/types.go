// Package config resolves, parses, validates, and defaults glimpse configuration.
package config

// Config is the fully materialized runtime configuration used by glimpse.
type Config struct {
	Provider ProviderConfig
	Audio    AudioConfig
	Capture  CaptureConfig
	Ledger   LedgerConfig
	Debug    DebugConfig
}

// ProviderConfig identifies the remote inference provider and its credentials.
type ProviderConfig struct {
	Name               string
	APIKey             string
	Endpoint           string
	Model              string
	VisionModel        string
	TranscriptionModel string
	Language           string
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// CaptureConfig controls the external capture tooling used for still and
// screen-recording sessions.
type CaptureConfig struct {
	ScreenshotCmd CommandConfig
	RecorderCmd   CommandConfig
}

// LedgerConfig bounds the activity ledger.
type LedgerConfig struct {
	MaxRecords int
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	DumpRequests bool
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
