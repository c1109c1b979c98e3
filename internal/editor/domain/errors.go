package domain

import (
	"fmt"
	"strings"
)

// ConfigurationError reports missing or incomplete tenant credentials. It is
// surfaced to the user and never retried.
type ConfigurationError struct {
	ShopID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("shop %s is not properly configured: %s", e.ShopID, e.Reason)
}

// AuthenticationError reports a failed token exchange. Retrying is the
// caller's decision; nothing retries automatically.
type AuthenticationError struct {
	ShopID  string
	Message string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("token exchange failed for shop %s: %s", e.ShopID, e.Message)
}

// APIError reports a transport-level or GraphQL-level failure. Its message
// aggregates every reported error; callers must not assume any further
// structure.
type APIError struct {
	Messages []string
}

func NewAPIError(messages ...string) *APIError {
	return &APIError{Messages: messages}
}

func (e *APIError) Error() string {
	return strings.Join(e.Messages, "; ")
}
