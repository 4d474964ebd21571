// Package provider speaks the OpenAI-compatible REST surface: chat
// completions for text and vision, and multipart transcription for audio.
package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/rbright/glimpse/internal/artifact"
	"github.com/rbright/glimpse/internal/config"
	"github.com/rbright/glimpse/internal/prompt"
)

const requestTimeout = 60 * time.Second

// Client issues inference requests against one configured endpoint.
type Client struct {
	cfg    config.ProviderConfig
	httpc  *http.Client
	reader interface {
		Read(artifact.Artifact) ([]byte, error)
	}
}

// NewClient binds a client to provider configuration and an artifact reader
// used to inline staged images into requests.
func NewClient(cfg config.ProviderConfig, reader interface {
	Read(artifact.Artifact) ([]byte, error)
}) *Client {
	return &Client{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: requestTimeout},
		reader: reader,
	}
}

// Configured reports whether the client has enough configuration to issue
// requests at all.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != "" && strings.TrimSpace(c.cfg.Endpoint) != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *imageURLPart `json:"image_url,omitempty"`
}

type imageURLPart struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a text-only chat completion and returns the raw reply text.
func (c *Client) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	messages := []chatMessage{}
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userPrompt})
	return c.chat(ctx, "complete", c.cfg.Model, messages)
}

// CompleteVision sends a chat completion carrying the request's images as
// inline data URLs alongside the instruction text.
func (c *Client) CompleteVision(ctx context.Context, systemPrompt string, req prompt.Request) (string, error) {
	if !c.Configured() {
		return "", &Error{Kind: KindNotConfigured, Op: "vision"}
	}

	parts := []contentPart{{Type: "text", Text: req.Instruction()}}
	for _, img := range req.Images() {
		data, err := c.reader.Read(img)
		if err != nil {
			return "", fmt.Errorf("inline image %s: %w", img.ID, err)
		}
		mime := img.MimeType
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, contentPart{
			Type: "image_url",
			ImageURL: &imageURLPart{
				URL: fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)),
			},
		})
	}

	messages := []chatMessage{}
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: parts})

	model := c.cfg.VisionModel
	if model == "" {
		model = c.cfg.Model
	}
	return c.chat(ctx, "vision", model, messages)
}

func (c *Client) chat(ctx context.Context, op string, model string, messages []chatMessage) (string, error) {
	if !c.Configured() {
		return "", &Error{Kind: KindNotConfigured, Op: op}
	}

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   1500,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("encode %s request: %w", op, err)
	}

	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build %s request: %w", op, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", classifyTransport(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &Error{Kind: KindUnreachable, Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &Error{Kind: KindUnauthorized, Op: op, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindBadResponse, Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 200))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &Error{Kind: KindBadResponse, Op: op, Err: err}
	}
	if parsed.Error != nil {
		return "", &Error{Kind: KindBadResponse, Op: op, Err: errors.New(parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return "", &Error{Kind: KindBadResponse, Op: op, Err: errors.New("empty choices")}
	}
	return parsed.Choices[0].Message.Content, nil
}

// Transcribe uploads audio bytes for speech-to-text and returns the text.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if !c.Configured() {
		return "", &Error{Kind: KindNotConfigured, Op: "transcribe"}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}
	model := c.cfg.TranscriptionModel
	if model == "" {
		model = "whisper-1"
	}
	if err := mw.WriteField("model", model); err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}
	if lang := strings.TrimSpace(c.cfg.Language); lang != "" {
		if err := mw.WriteField("language", lang); err != nil {
			return "", fmt.Errorf("build transcription form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build transcription form: %w", err)
	}

	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", classifyTransport("transcribe", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", &Error{Kind: KindUnreachable, Op: "transcribe", Err: err}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &Error{Kind: KindUnauthorized, Op: "transcribe", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindBadResponse, Op: "transcribe", Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(raw, 200))}
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &Error{Kind: KindBadResponse, Op: "transcribe", Err: err}
	}
	return parsed.Text, nil
}

func classifyTransport(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	var nerr interface{ Timeout() bool }
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &Error{Kind: KindTimeout, Op: op, Err: err}
	}
	return &Error{Kind: KindUnreachable, Op: op, Err: err}
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
