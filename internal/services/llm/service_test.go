package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"google.golang.org/genai"
)

// MockProvider is a mock implementation of Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	args := m.Called(ctx, request)
	if resp := args.Get(0); resp != nil {
		return resp.(*ContentResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) GetProviderType() ProviderType {
	return ProviderGemini
}

func (m *MockProvider) Close() error {
	return nil
}

func fastRetry(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

var question = []interfaces.Message{{Role: "user", Content: "What is the capital of France?"}}

func TestService_Chat_Success(t *testing.T) {
	provider := new(MockProvider)
	provider.On("GenerateContent", mock.Anything, mock.MatchedBy(func(req *ContentRequest) bool {
		return req.Model == "gemini-2.5-pro" && len(req.Messages) == 1
	})).Return(&ContentResponse{Text: "Paris.", Provider: ProviderGemini}, nil).Once()

	service := NewService(provider, "gemini-2.5-pro", fastRetry(2), time.Second, common.NewSilentLogger())

	answer, err := service.Chat(context.Background(), question)
	require.NoError(t, err)
	assert.Equal(t, "Paris.", answer)
	assert.Equal(t, "gemini:gemini-2.5-pro", service.ModelName())
	provider.AssertExpectations(t)
}

func TestService_Chat_RetriesTransientFailures(t *testing.T) {
	provider := new(MockProvider)
	provider.On("GenerateContent", mock.Anything, mock.Anything).
		Return(nil, &genai.APIError{Code: 429, Message: "quota exceeded", Status: "RESOURCE_EXHAUSTED"}).Once()
	provider.On("GenerateContent", mock.Anything, mock.Anything).
		Return(&ContentResponse{Text: "Paris."}, nil).Once()

	service := NewService(provider, "gemini-2.5-pro", fastRetry(2), time.Second, common.NewSilentLogger())

	answer, err := service.Chat(context.Background(), question)
	require.NoError(t, err)
	assert.Equal(t, "Paris.", answer)
	provider.AssertNumberOfCalls(t, "GenerateContent", 2)
}

func TestService_Chat_DoesNotRetryAuthentication(t *testing.T) {
	provider := new(MockProvider)
	provider.On("GenerateContent", mock.Anything, mock.Anything).
		Return(nil, &genai.APIError{Code: 403, Message: "Permission denied", Status: "PERMISSION_DENIED"})

	service := NewService(provider, "gemini-2.5-pro", fastRetry(3), time.Second, common.NewSilentLogger())

	_, err := service.Chat(context.Background(), question)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthentication)
	provider.AssertNumberOfCalls(t, "GenerateContent", 1)
}

func TestService_Chat_GivesUpAfterMaxRetries(t *testing.T) {
	provider := new(MockProvider)
	provider.On("GenerateContent", mock.Anything, mock.Anything).
		Return(nil, &genai.APIError{Code: 503, Message: "The model is overloaded", Status: "UNAVAILABLE"})

	service := NewService(provider, "gemini-2.5-pro", fastRetry(2), time.Second, common.NewSilentLogger())

	_, err := service.Chat(context.Background(), question)
	assert.ErrorIs(t, err, ErrServer)
	provider.AssertNumberOfCalls(t, "GenerateContent", 3)
}

func TestService_Chat_Timeout(t *testing.T) {
	provider := new(MockProvider)
	provider.On("GenerateContent", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			ctx := args.Get(0).(context.Context)
			<-ctx.Done()
		}).
		Return(nil, errors.New("request aborted"))

	service := NewService(provider, "gemini-2.5-pro", fastRetry(0), 20*time.Millisecond, common.NewSilentLogger())

	_, err := service.Chat(context.Background(), question)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestService_Chat_EmptyMessages(t *testing.T) {
	provider := new(MockProvider)
	service := NewService(provider, "gemini-2.5-pro", nil, 0, common.NewSilentLogger())

	_, err := service.Chat(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	provider.AssertNotCalled(t, "GenerateContent", mock.Anything, mock.Anything)
}

func TestCallBudget(t *testing.T) {
	config := &common.LLMConfig{Timeout: "5s", MaxRetries: 1, InitialBackoff: "1s", MaxBackoff: "2s"}
	assert.Equal(t, 12*time.Second, CallBudget(config))

	config.MaxRetries = 0
	assert.Equal(t, 5*time.Second, CallBudget(config))

	assert.Equal(t, 200*time.Second, CallBudget(&common.NewDefaultConfig().LLM))
}
