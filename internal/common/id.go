package common

import (
	"github.com/google/uuid"
)

// NewIndexID generates a unique index ID with the "idx_" prefix
// Format: idx_<uuid>
func NewIndexID() string {
	return "idx_" + uuid.New().String()
}

// NewRequestID generates a request correlation ID with the "req_" prefix
func NewRequestID() string {
	return "req_" + uuid.New().String()
}
