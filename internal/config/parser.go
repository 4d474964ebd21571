package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Provider *jsoncProvider `json:"provider"`
	Audio    *jsoncAudio    `json:"audio"`
	Capture  *jsoncCapture  `json:"capture"`
	Ledger   *jsoncLedger   `json:"ledger"`
	Debug    *jsoncDebug    `json:"debug"`
}

type jsoncProvider struct {
	Name               *string `json:"name"`
	APIKey             *string `json:"api_key"`
	Endpoint           *string `json:"endpoint"`
	Model              *string `json:"model"`
	VisionModel        *string `json:"vision_model"`
	TranscriptionModel *string `json:"transcription_model"`
	Language           *string `json:"language"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncCapture struct {
	ScreenshotCmd *string `json:"screenshot_cmd"`
	RecorderCmd   *string `json:"recorder_cmd"`
}

type jsoncLedger struct {
	MaxRecords *int `json:"max_records"`
}

type jsoncDebug struct {
	DumpRequests *bool `json:"dump_requests"`
}

// Parse reads configuration content as JSONC layered over base defaults.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if payload.Provider != nil {
		if payload.Provider.Name != nil {
			cfg.Provider.Name = strings.TrimSpace(*payload.Provider.Name)
		}
		if payload.Provider.APIKey != nil {
			cfg.Provider.APIKey = strings.TrimSpace(*payload.Provider.APIKey)
		}
		if payload.Provider.Endpoint != nil {
			cfg.Provider.Endpoint = strings.TrimSpace(*payload.Provider.Endpoint)
		}
		if payload.Provider.Model != nil {
			cfg.Provider.Model = strings.TrimSpace(*payload.Provider.Model)
		}
		if payload.Provider.VisionModel != nil {
			cfg.Provider.VisionModel = strings.TrimSpace(*payload.Provider.VisionModel)
		}
		if payload.Provider.TranscriptionModel != nil {
			cfg.Provider.TranscriptionModel = strings.TrimSpace(*payload.Provider.TranscriptionModel)
		}
		if payload.Provider.Language != nil {
			cfg.Provider.Language = strings.TrimSpace(*payload.Provider.Language)
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Capture != nil {
		if payload.Capture.ScreenshotCmd != nil {
			raw := *payload.Capture.ScreenshotCmd
			argv, err := parseArgv(raw)
			if err != nil {
				return fmt.Errorf("invalid capture.screenshot_cmd: %w", err)
			}
			cfg.Capture.ScreenshotCmd = CommandConfig{Raw: raw, Argv: argv}
		}
		if payload.Capture.RecorderCmd != nil {
			raw := *payload.Capture.RecorderCmd
			argv, err := parseArgv(raw)
			if err != nil {
				return fmt.Errorf("invalid capture.recorder_cmd: %w", err)
			}
			cfg.Capture.RecorderCmd = CommandConfig{Raw: raw, Argv: argv}
		}
	}

	if payload.Ledger != nil && payload.Ledger.MaxRecords != nil {
		cfg.Ledger.MaxRecords = *payload.Ledger.MaxRecords
	}

	if payload.Debug != nil && payload.Debug.DumpRequests != nil {
		cfg.Debug.DumpRequests = *payload.Debug.DumpRequests
	}

	return nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			next := content[i+1]
			if next == '/' {
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			}
			if next == '*' {
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) && isJSONWhitespace(content[j]) {
				j++
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra struct{}
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

func wrapJSONDecodeError(content string, err error) error {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(content, syntaxErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(content, typeErr.Offset)
		return fmt.Errorf("line %d column %d: %w", line, col, err)
	}

	return err
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line := 1
	col := 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
