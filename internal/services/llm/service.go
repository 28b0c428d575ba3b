package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
)

// DefaultTimeout bounds a single model call attempt
const DefaultTimeout = 60 * time.Second

// Service implements interfaces.LLMService over a Provider, adding a
// per-attempt timeout and bounded retry of transient failures.
type Service struct {
	provider Provider
	model    string
	retry    *RetryConfig
	timeout  time.Duration
	logger   arbor.ILogger
}

// NewService wraps provider. A zero timeout uses DefaultTimeout.
func NewService(provider Provider, model string, retry *RetryConfig, timeout time.Duration, logger arbor.ILogger) *Service {
	if retry == nil {
		retry = &RetryConfig{MaxRetries: 0}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		provider: provider,
		model:    model,
		retry:    retry,
		timeout:  timeout,
		logger:   logger,
	}
}

// CallBudget is the longest a Chat call can take under config: every
// attempt running to its timeout plus the maximum wait between attempts
func CallBudget(config *common.LLMConfig) time.Duration {
	retry := NewRetryConfig(config)
	timeout := common.Duration(config.Timeout, DefaultTimeout)
	return time.Duration(retry.MaxRetries+1)*timeout + time.Duration(retry.MaxRetries)*retry.MaxBackoff
}

// NewServiceFromConfig builds the provider factory for config.LLM.Provider
// and verifies its credentials are present
func NewServiceFromConfig(ctx context.Context, config *common.Config, logger arbor.ILogger) (*Service, error) {
	factory := NewProviderFactory(config, logger)
	if err := factory.Init(ctx); err != nil {
		return nil, err
	}

	provider := factory.GetProviderType()
	service := NewService(
		factory,
		factory.GetDefaultModel(provider),
		NewRetryConfig(&config.LLM),
		common.Duration(config.LLM.Timeout, DefaultTimeout),
		logger,
	)

	logger.Debug().
		Str("provider", string(provider)).
		Str("model", service.model).
		Dur("timeout", service.timeout).
		Int("max_retries", service.retry.MaxRetries).
		Msg("LLM service initialized")

	return service, nil
}

// Chat generates a completion for messages. Failures are returned as *Error.
func (s *Service) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	provider := s.provider.GetProviderType()
	if len(messages) == 0 {
		return "", &Error{Kind: KindInvalidRequest, Provider: provider, Err: fmt.Errorf("messages cannot be empty")}
	}

	startTime := time.Now()
	var response *ContentResponse

	err := s.retry.Do(ctx, provider, s.logger, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		resp, err := s.provider.GenerateContent(callCtx, &ContentRequest{
			Messages: messages,
			Model:    s.model,
		})
		if err != nil {
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return &Error{Kind: KindTimeout, Provider: provider, Err: fmt.Errorf("no response within %s: %w", s.timeout, err)}
			}
			return err
		}
		response = resp
		return nil
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("provider", string(provider)).
			Str("kind", string(KindOf(err))).
			Dur("duration", time.Since(startTime)).
			Msg("Chat completion failed")
		return "", err
	}

	s.logger.Debug().
		Str("provider", string(provider)).
		Int("response_length", len(response.Text)).
		Dur("duration", time.Since(startTime)).
		Msg("Chat completion completed")

	return response.Text, nil
}

// ModelName returns "<provider>:<model>"
func (s *Service) ModelName() string {
	return fmt.Sprintf("%s:%s", s.provider.GetProviderType(), s.model)
}

// Close releases provider clients
func (s *Service) Close() error {
	return s.provider.Close()
}
