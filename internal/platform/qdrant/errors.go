package qdrant

import (
	"fmt"

	"github.com/yungbote/edugenius-backend/internal/platform/httpx"
)

// Error is a failed call against the Qdrant REST API.
type Error struct {
	Op     string
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("qdrant %s: status %d: %s", e.Op, e.Status, e.Msg)
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("qdrant %s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("qdrant %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("qdrant %s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) HTTPStatusCode() int { return e.Status }

// Retryable treats transport failures, 429 and 5xx as transient. Validation
// errors carry no status and never retry.
func (e *Error) Retryable() bool {
	if e.Status != 0 {
		return httpx.IsRetryableStatus(e.Status)
	}
	return e.Err != nil && httpx.IsRetryableError(e.Err)
}
