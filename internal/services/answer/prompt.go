package answer

import (
	"strings"
	"text/template"
)

const promptTemplate = `You are an assistant for question-answering tasks.
Use the following pieces of retrieved context to answer the question.
If you don't know the answer, just say that you don't know.
Use ten sentences maximum and keep the answer concise.
Question: {{.Question}}
Context: {{.Context}}
Answer:`

var prompt = template.Must(template.New("answer").Parse(promptTemplate))

type promptData struct {
	Question string
	Context  string
}

// FillPrompt renders the answer prompt for question and retrieved context
func FillPrompt(question, context string) string {
	var b strings.Builder
	// Execute only fails on writer errors, which strings.Builder never returns
	_ = prompt.Execute(&b, promptData{Question: question, Context: context})
	return b.String()
}

// BuildContext joins chunk texts with a blank line
func BuildContext(texts []string) string {
	return strings.Join(texts, "\n\n")
}
