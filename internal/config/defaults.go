package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	screenshot := "grim -"
	recorder := "wf-recorder --audio -f {output}"

	return Config{
		Provider: ProviderConfig{
			Name:               "openai",
			Endpoint:           "https://api.openai.com/v1",
			Model:              "gpt-4o",
			VisionModel:        "gpt-4o",
			TranscriptionModel: "whisper-1",
			Language:           "en",
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Capture: CaptureConfig{
			ScreenshotCmd: CommandConfig{Raw: screenshot, Argv: mustParseArgv(screenshot)},
			RecorderCmd:   CommandConfig{Raw: recorder, Argv: mustParseArgv(recorder)},
		},
		Ledger: LedgerConfig{MaxRecords: 1000},
		Debug:  DebugConfig{},
	}
}
