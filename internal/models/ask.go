package models

// AskRequest is the POST /ask request body
type AskRequest struct {
	Question string `json:"question" validate:"required,notblank"`
}

// AskResponse is the POST /ask success body
type AskResponse struct {
	Answer     string `json:"answer"`
	AnswerHTML string `json:"answer_html,omitempty"`
}

// ErrorResponse is the error body shared by all endpoints
type ErrorResponse struct {
	Error string `json:"error"`
}
