package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"google.golang.org/genai"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API
	ProviderClaude ProviderType = "claude"
	// ProviderOpenAI uses the OpenAI chat completions API
	ProviderOpenAI ProviderType = "openai"
)

// ContentRequest represents a provider-agnostic content generation request
type ContentRequest struct {
	Messages          []interfaces.Message
	Model             string
	Temperature       float32
	MaxTokens         int
	SystemInstruction string
}

// ContentResponse represents a provider-agnostic content generation response
type ContentResponse struct {
	Text     string
	Provider ProviderType
	Model    string
}

// Provider defines the interface for AI content generation
type Provider interface {
	GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error)
	GetProviderType() ProviderType
	Close() error
}

// ProviderFactory creates provider clients on first use and routes requests
// to the configured provider
type ProviderFactory struct {
	config *common.Config
	logger arbor.ILogger

	mu           sync.Mutex
	geminiClient *genai.Client
	claudeClient *anthropic.Client
	openaiClient *openai.Client
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(config *common.Config, logger arbor.ILogger) *ProviderFactory {
	return &ProviderFactory{
		config: config,
		logger: logger,
	}
}

// GetProviderType returns the configured default provider
func (f *ProviderFactory) GetProviderType() ProviderType {
	if f.config.LLM.Provider == "" {
		return ProviderGemini
	}
	return ProviderType(f.config.LLM.Provider)
}

// GetDefaultModel returns the default model for a provider
func (f *ProviderFactory) GetDefaultModel(provider ProviderType) string {
	switch provider {
	case ProviderClaude:
		return f.config.Claude.Model
	case ProviderOpenAI:
		return f.config.OpenAI.Model
	default:
		return f.config.Gemini.Model
	}
}

// Init creates the client for the default provider so that missing
// credentials surface at startup rather than on the first request
func (f *ProviderFactory) Init(ctx context.Context) error {
	var err error
	switch f.GetProviderType() {
	case ProviderClaude:
		_, err = f.GetClaudeClient()
	case ProviderOpenAI:
		_, err = f.GetOpenAIClient()
	case ProviderGemini:
		_, err = f.GetGeminiClient(ctx)
	default:
		err = fmt.Errorf("unknown LLM provider '%s'", f.config.LLM.Provider)
	}
	return err
}

// GetGeminiClient returns a Gemini client, creating one if necessary
func (f *ProviderFactory) GetGeminiClient(ctx context.Context) (*genai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.geminiClient != nil {
		return f.geminiClient, nil
	}

	apiKey, err := common.ResolveAPIKey("gemini", f.config.Gemini.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Gemini API key: %w", err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	return client, nil
}

// GetClaudeClient returns a Claude client, creating one if necessary
func (f *ProviderFactory) GetClaudeClient() (*anthropic.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claudeClient != nil {
		return f.claudeClient, nil
	}

	apiKey, err := common.ResolveAPIKey("claude", f.config.Claude.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Anthropic API key: %w", err)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)

	f.claudeClient = &client
	return f.claudeClient, nil
}

// GetOpenAIClient returns an OpenAI client, creating one if necessary
func (f *ProviderFactory) GetOpenAIClient() (*openai.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.openaiClient != nil {
		return f.openaiClient, nil
	}

	apiKey, err := common.ResolveAPIKey("openai", f.config.OpenAI.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve OpenAI API key: %w", err)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if f.config.OpenAI.BaseURL != "" {
		clientConfig.BaseURL = f.config.OpenAI.BaseURL
	}

	f.openaiClient = openai.NewClientWithConfig(clientConfig)
	return f.openaiClient, nil
}

// GenerateContent generates content with the default provider.
// Returned errors are *Error values.
func (f *ProviderFactory) GenerateContent(ctx context.Context, request *ContentRequest) (*ContentResponse, error) {
	provider := f.GetProviderType()
	model := request.Model
	if model == "" {
		model = f.GetDefaultModel(provider)
	}

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Int("message_count", len(request.Messages)).
		Msg("Generating content with provider")

	var (
		response *ContentResponse
		err      error
	)
	switch provider {
	case ProviderClaude:
		response, err = f.generateWithClaude(ctx, request, model)
	case ProviderOpenAI:
		response, err = f.generateWithOpenAI(ctx, request, model)
	default:
		response, err = f.generateWithGemini(ctx, request, model)
	}
	if err != nil {
		return nil, Classify(provider, err)
	}
	return response, nil
}

// generateWithGemini generates content using Gemini API
func (f *ProviderFactory) generateWithGemini(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, err := f.GetGeminiClient(ctx)
	if err != nil {
		return nil, &Error{Kind: KindAuthentication, Provider: ProviderGemini, Err: err}
	}

	geminiContents, systemText, err := convertMessagesToGemini(request.Messages)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Provider: ProviderGemini, Err: err}
	}
	if request.SystemInstruction != "" {
		systemText = request.SystemInstruction
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.config.Gemini.Temperature
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temp),
	}
	if systemText != "" {
		config.SystemInstruction = genai.NewContentFromText(systemText, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, model, geminiContents, config)
	if err != nil {
		return nil, err
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, NewMalformedResponseError(ProviderGemini, "empty response from Gemini API")
	}

	responseText := resp.Text()
	if responseText == "" {
		return nil, NewMalformedResponseError(ProviderGemini, "no text in Gemini response (finish reason: %s)", resp.Candidates[0].FinishReason)
	}

	return &ContentResponse{
		Text:     responseText,
		Provider: ProviderGemini,
		Model:    model,
	}, nil
}

// generateWithClaude generates content using Claude API
func (f *ProviderFactory) generateWithClaude(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, err := f.GetClaudeClient()
	if err != nil {
		return nil, &Error{Kind: KindAuthentication, Provider: ProviderClaude, Err: err}
	}

	claudeMessages, systemText, err := convertMessagesToClaude(request.Messages)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Provider: ProviderClaude, Err: err}
	}
	if request.SystemInstruction != "" {
		systemText = request.SystemInstruction
	}

	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = f.config.Claude.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = 2048
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  claudeMessages,
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.config.Claude.Temperature
	}
	if temp > 0 {
		params.Temperature = anthropic.Float(float64(temp))
	}

	if systemText != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemText},
		}
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return nil, NewMalformedResponseError(ProviderClaude, "no text blocks in Claude response (stop reason: %s)", resp.StopReason)
	}

	return &ContentResponse{
		Text:     text.String(),
		Provider: ProviderClaude,
		Model:    model,
	}, nil
}

// generateWithOpenAI generates content using the OpenAI chat completions API
func (f *ProviderFactory) generateWithOpenAI(ctx context.Context, request *ContentRequest, model string) (*ContentResponse, error) {
	client, err := f.GetOpenAIClient()
	if err != nil {
		return nil, &Error{Kind: KindAuthentication, Provider: ProviderOpenAI, Err: err}
	}

	messages, err := convertMessagesToOpenAI(request.Messages, request.SystemInstruction)
	if err != nil {
		return nil, &Error{Kind: KindInvalidRequest, Provider: ProviderOpenAI, Err: err}
	}

	temp := request.Temperature
	if temp <= 0 {
		temp = f.config.OpenAI.Temperature
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temp,
	}
	if request.MaxTokens > 0 {
		req.MaxTokens = request.MaxTokens
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, NewMalformedResponseError(ProviderOpenAI, "no choices in OpenAI response")
	}

	responseText := resp.Choices[0].Message.Content
	if responseText == "" {
		return nil, NewMalformedResponseError(ProviderOpenAI, "empty message in OpenAI response (finish reason: %s)", resp.Choices[0].FinishReason)
	}

	return &ContentResponse{
		Text:     responseText,
		Provider: ProviderOpenAI,
		Model:    model,
	}, nil
}

// Close releases all provider clients
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.geminiClient = nil
	f.claudeClient = nil
	f.openaiClient = nil
	return nil
}
