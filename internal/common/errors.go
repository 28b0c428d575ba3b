package common

import "errors"

var (
	// ErrIndexNotFound is returned when the index directory does not exist
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexIncomplete is returned when an index directory has no manifest
	// or its chunk records disagree with the manifest (interrupted build)
	ErrIndexIncomplete = errors.New("index is incomplete")

	// ErrModelMismatch is returned when the query-time embedding model differs
	// from the model the index was built with
	ErrModelMismatch = errors.New("embedding model does not match index")

	// ErrCorpusNotFound is returned when the corpus file does not exist
	ErrCorpusNotFound = errors.New("corpus file not found")

	// ErrCorpusEmpty is returned when the corpus yields no chunks
	ErrCorpusEmpty = errors.New("corpus contains no text")

	// ErrNotReady is returned when the answer pipeline failed to initialize
	ErrNotReady = errors.New("service is not ready")

	// ErrEmptyQuestion is returned for a missing or blank question
	ErrEmptyQuestion = errors.New("no question provided")

	// ErrMissingAPIKey is returned when a provider has no credential configured
	ErrMissingAPIKey = errors.New("missing API key")
)
