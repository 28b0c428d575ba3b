package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ErrorKind classifies a model call failure
type ErrorKind string

const (
	KindNetwork           ErrorKind = "network"
	KindTimeout           ErrorKind = "timeout"
	KindCanceled          ErrorKind = "canceled"
	KindAuthentication    ErrorKind = "authentication"
	KindRateLimit         ErrorKind = "rate_limit"
	KindInvalidRequest    ErrorKind = "invalid_request"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindServer            ErrorKind = "server"
	KindUnknown           ErrorKind = "unknown"
)

// Sentinels for errors.Is checks against an *Error
var (
	ErrNetwork           = errors.New("network error")
	ErrTimeout           = errors.New("timeout")
	ErrCanceled          = errors.New("canceled")
	ErrAuthentication    = errors.New("authentication failed")
	ErrRateLimit         = errors.New("rate limited")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrMalformedResponse = errors.New("malformed response")
	ErrServer            = errors.New("server error")
	ErrUnknown           = errors.New("unknown error")
)

var kindSentinels = map[ErrorKind]error{
	KindNetwork:           ErrNetwork,
	KindTimeout:           ErrTimeout,
	KindCanceled:          ErrCanceled,
	KindAuthentication:    ErrAuthentication,
	KindRateLimit:         ErrRateLimit,
	KindInvalidRequest:    ErrInvalidRequest,
	KindMalformedResponse: ErrMalformedResponse,
	KindServer:            ErrServer,
	KindUnknown:           ErrUnknown,
}

// Error is the single structured failure returned by every provider call
type Error struct {
	Kind       ErrorKind
	Provider   ProviderType
	StatusCode int // HTTP status when known, otherwise 0
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s error (status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// Retryable reports whether the failure is transient
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout, KindRateLimit, KindServer:
		return true
	default:
		return false
	}
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error
func KindOf(err error) ErrorKind {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	return KindUnknown
}

// NewMalformedResponseError reports a response that could not be turned into text
func NewMalformedResponseError(provider ProviderType, format string, args ...interface{}) *Error {
	return &Error{
		Kind:     KindMalformedResponse,
		Provider: provider,
		Err:      fmt.Errorf(format, args...),
	}
}

// Classify converts a raw SDK error into an *Error. Errors that are already
// classified are returned unchanged.
func Classify(provider ProviderType, err error) error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return err
	}

	classified := &Error{Provider: provider, Err: err, StatusCode: statusCode(err)}
	if classified.StatusCode > 0 {
		classified.Kind = kindFromStatus(classified.StatusCode)
		return classified
	}

	classified.Kind = kindFromError(err)
	return classified
}

func statusCode(err error) int {
	var anthropicErr *anthropic.Error
	if errors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}

	var openaiErr *openai.APIError
	if errors.As(err, &openaiErr) {
		return openaiErr.HTTPStatusCode
	}

	var requestErr *openai.RequestError
	if errors.As(err, &requestErr) {
		return requestErr.HTTPStatusCode
	}

	var geminiErr genai.APIError
	if errors.As(err, &geminiErr) {
		return geminiErr.Code
	}

	var geminiErrPtr *genai.APIError
	if errors.As(err, &geminiErrPtr) && geminiErrPtr != nil {
		return geminiErrPtr.Code
	}

	return 0
}

func kindFromStatus(code int) ErrorKind {
	switch {
	case code == 401 || code == 403:
		return KindAuthentication
	case code == 429:
		return KindRateLimit
	case code == 408:
		return KindTimeout
	case code >= 500:
		return KindServer
	case code >= 400:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

func kindFromError(err error) ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindNetwork
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}

	if IsRateLimitError(err) {
		return KindRateLimit
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"),
		strings.Contains(msg, "unauthenticated"),
		strings.Contains(msg, "permission_denied"),
		strings.Contains(msg, "unauthorized"):
		return KindAuthentication
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "unexpected eof"):
		return KindNetwork
	}

	return KindUnknown
}
