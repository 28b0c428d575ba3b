package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/ragbot/internal/common"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/services/llm"
)

type scriptedAnswers struct {
	questions []string
	answers   map[string]string
	failures  map[string]error
}

func (s *scriptedAnswers) Answer(ctx context.Context, question string) (*interfaces.AnswerResult, error) {
	s.questions = append(s.questions, question)
	if err, ok := s.failures[question]; ok {
		return nil, err
	}
	return &interfaces.AnswerResult{Answer: s.answers[question]}, nil
}

func run(t *testing.T, answerer *scriptedAnswers, input string) string {
	t.Helper()
	var out bytes.Buffer
	err := NewLoop(answerer, strings.NewReader(input), &out, common.NewSilentLogger()).Run(context.Background())
	require.NoError(t, err)
	return out.String()
}

func TestLoop_AnswersUntilExit(t *testing.T) {
	answerer := &scriptedAnswers{answers: map[string]string{
		"What is the capital of France?": "Paris.",
	}}

	out := run(t, answerer, "What is the capital of France?\n\n  EXIT  \nignored\n")

	assert.Equal(t, []string{"What is the capital of France?"}, answerer.questions)
	assert.Contains(t, out, "Chatbot is ready. Type 'exit' to quit.\n")
	assert.Contains(t, out, "You: Bot: Paris.\n")
	assert.NotContains(t, out, "ignored")
}

func TestLoop_EOFTerminates(t *testing.T) {
	answerer := &scriptedAnswers{answers: map[string]string{"q": "a"}}

	out := run(t, answerer, "q")

	assert.Equal(t, []string{"q"}, answerer.questions)
	assert.Contains(t, out, "Bot: a\n")
}

func TestLoop_FailureContinues(t *testing.T) {
	answerer := &scriptedAnswers{
		answers: map[string]string{"second": "fine"},
		failures: map[string]error{
			"first": &llm.Error{Kind: llm.KindRateLimit, Provider: llm.ProviderGemini, Err: errors.New("429")},
		},
	}

	out := run(t, answerer, "first\nsecond\nexit\n")

	assert.Equal(t, []string{"first", "second"}, answerer.questions)
	assert.Contains(t, out, "Bot: Sorry, something went wrong: rate_limit\n")
	assert.Contains(t, out, "Bot: fine\n")
}

func TestLoop_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	answerer := &scriptedAnswers{}
	var out bytes.Buffer
	err := NewLoop(answerer, strings.NewReader("q\n"), &out, common.NewSilentLogger()).Run(ctx)

	assert.NoError(t, err)
	assert.Empty(t, answerer.questions)
}
