package llm

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
)

// RetryConfig defines bounded retry behaviour for transient model failures
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt (0 disables retry)
	MaxRetries int

	// InitialBackoff is the wait before the first retry
	InitialBackoff time.Duration

	// MaxBackoff caps every wait, including API-suggested delays
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to the backoff on each retry
	BackoffMultiplier float64
}

const (
	DefaultMaxRetries        = 2
	DefaultInitialBackoff    = 1 * time.Second
	DefaultMaxBackoff        = 10 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// NewRetryConfig builds a RetryConfig from the [llm] config section
func NewRetryConfig(config *common.LLMConfig) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        config.MaxRetries,
		InitialBackoff:    common.Duration(config.InitialBackoff, DefaultInitialBackoff),
		MaxBackoff:        common.Duration(config.MaxBackoff, DefaultMaxBackoff),
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

// IsRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(errStr), "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error.
// Returns 0 if no delay is found in the error message.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the wait before retry number attempt (0-based).
// An API-provided delay replaces InitialBackoff as the base. The result is
// capped at MaxBackoff.
func (c *RetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	return backoff
}

// Do runs call until it succeeds, returns a non-retryable error, or retries
// are exhausted. Errors are classified for provider before the retry decision.
func (c *RetryConfig) Do(ctx context.Context, provider ProviderType, logger arbor.ILogger, call func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		err := call(ctx)
		if err == nil {
			return nil
		}

		lastErr = Classify(provider, err)
		var llmErr *Error
		if !errors.As(lastErr, &llmErr) || !llmErr.Retryable() || attempt == c.MaxRetries {
			break
		}

		backoff := c.CalculateBackoff(attempt, ExtractRetryDelay(err))

		logger.Warn().
			Str("provider", string(provider)).
			Str("kind", string(llmErr.Kind)).
			Int("attempt", attempt+1).
			Dur("backoff", backoff).
			Err(err).
			Msg("Retrying model call")

		select {
		case <-ctx.Done():
			return Classify(provider, ctx.Err())
		case <-time.After(backoff):
		}
	}

	return lastErr
}
