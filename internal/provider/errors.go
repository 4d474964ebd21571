package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures so callers can branch on cause
// without string matching.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotConfigured
	KindUnauthorized
	KindUnreachable
	KindTimeout
	KindBadResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotConfigured:
		return "not_configured"
	case KindUnauthorized:
		return "unauthorized"
	case KindUnreachable:
		return "unreachable"
	case KindTimeout:
		return "timeout"
	case KindBadResponse:
		return "bad_response"
	default:
		return "unknown"
	}
}

// Error is a classified provider failure.
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("provider %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("provider %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnknown
}
