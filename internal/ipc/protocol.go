// Package ipc carries line-delimited JSON commands over the glimpse unix
// socket.
package ipc

import "encoding/json"

// Request is one command from a client. Optional fields carry the
// command-specific arguments.
type Request struct {
	Command string `json:"command"`
	Prompt  string `json:"prompt,omitempty"`
	Payload string `json:"payload,omitempty"`
	Name    string `json:"name,omitempty"`
	Mime    string `json:"mime,omitempty"`
	Filter  string `json:"filter,omitempty"`
}

// Response is the single reply to one request. Data holds a structured
// result (analysis, ledger records, session status) when the command
// produces one.
type Response struct {
	OK      bool            `json:"ok"`
	State   string          `json:"state,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
