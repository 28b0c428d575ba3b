package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ragbot/internal/interfaces"
	"github.com/ternarybob/ragbot/internal/services/answer"
)

// Loop is the interactive question/answer loop over stdin and stdout
type Loop struct {
	answerer interfaces.AnswerService
	in       io.Reader
	out      io.Writer
	logger   arbor.ILogger
}

// NewLoop creates a console loop
func NewLoop(answerer interfaces.AnswerService, in io.Reader, out io.Writer, logger arbor.ILogger) *Loop {
	return &Loop{
		answerer: answerer,
		in:       in,
		out:      out,
		logger:   logger,
	}
}

// Run reads one question per line until "exit", EOF or ctx is done.
// A failed question is reported and the loop continues.
func (l *Loop) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(l.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Fprintln(l.out, "Chatbot is ready. Type 'exit' to quit.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		fmt.Fprint(l.out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(l.out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") {
			return nil
		}

		result, err := l.answerer.Answer(ctx, question)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil
			}
			kind := answer.ErrorKind(err)
			l.logger.Warn().Err(err).Str("kind", kind).Msg("Failed to answer question")
			fmt.Fprintf(l.out, "Bot: Sorry, something went wrong: %s\n", kind)
			continue
		}

		fmt.Fprintf(l.out, "Bot: %s\n", result.Answer)
	}
}
