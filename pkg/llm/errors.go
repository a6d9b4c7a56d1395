package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies provider failures. The classification drives
// failover: all provider kinds are failover candidates, validation
// rejections are not.
type ErrorKind string

const (
	KindAuthentication ErrorKind = "authentication"
	KindRateLimit      ErrorKind = "rate_limit"
	KindServer         ErrorKind = "server"
	KindTimeout        ErrorKind = "timeout"
	KindConnection     ErrorKind = "connection"
	KindGeneric        ErrorKind = "generic"
)

// ProviderError is a classified failure from an AI provider.
type ProviderError struct {
	Kind       ErrorKind
	Provider   string
	Message    string
	RetryAfter int // seconds, 0 when the provider sent no hint
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Kind)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ClassifyStatus maps an HTTP response from a provider API to a typed
// error. Returns nil for 2xx statuses.
func ClassifyStatus(provider string, status int, statusText string, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 401 || status == 403:
		return &ProviderError{Kind: KindAuthentication, Provider: provider,
			Message: fmt.Sprintf("HTTP %d: %s", status, statusText)}
	case status == 429:
		return &ProviderError{Kind: KindRateLimit, Provider: provider,
			Message: fmt.Sprintf("HTTP %d: %s", status, statusText)}
	case status >= 500:
		return &ProviderError{Kind: KindServer, Provider: provider,
			Message: fmt.Sprintf("HTTP %d: %s", status, statusText)}
	default:
		msg := fmt.Sprintf("HTTP error %d: %s", status, statusText)
		if len(body) > 0 && len(body) < 200 {
			msg += " - " + strings.TrimSpace(string(body))
		}
		return &ProviderError{Kind: KindGeneric, Provider: provider, Message: msg}
	}
}

// ClassifyError maps an opaque provider SDK error to a typed error by
// message sniffing. SDKs rarely expose structured status codes, so we
// match the same markers the APIs put in their messages.
func ClassifyError(provider string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: KindTimeout, Provider: provider, Message: "request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ProviderError{Kind: KindConnection, Provider: provider, Message: err.Error(), Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "unauthorized") || strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "api key"):
		return &ProviderError{Kind: KindAuthentication, Provider: provider, Message: err.Error(), Err: err}
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "quota"):
		return &ProviderError{Kind: KindRateLimit, Provider: provider, Message: err.Error(), Err: err}
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "internal error") || strings.Contains(msg, "overloaded"):
		return &ProviderError{Kind: KindServer, Provider: provider, Message: err.Error(), Err: err}
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return &ProviderError{Kind: KindTimeout, Provider: provider, Message: err.Error(), Err: err}
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "connection reset"):
		return &ProviderError{Kind: KindConnection, Provider: provider, Message: err.Error(), Err: err}
	default:
		return &ProviderError{Kind: KindGeneric, Provider: provider, Message: err.Error(), Err: err}
	}
}

// IsFailoverable reports whether a failure should trigger a retry on
// the alternate provider. Any classified provider failure qualifies;
// unclassified errors (prompt bugs, JSON issues) do not.
func IsFailoverable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// Kind extracts the classified kind from an error chain, or
// KindGeneric when the error is not a ProviderError.
func Kind(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindGeneric
}
