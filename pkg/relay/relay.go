// Package relay models the request channel to the privileged process that
// performs cross-origin HTTP on behalf of the in-page logic. Callers hand it
// an operation descriptor and get back a uniform success/failure envelope;
// they never see transport details.
package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/webshoptools/shopedit/pkg/idx"
)

// Action identifies the operation the relay should perform.
type Action string

const (
	ActionOAuth   Action = "oauth"
	ActionGraphQL Action = "graphql"
)

// Request is an operation descriptor. OAuth requests carry the client
// credentials; GraphQL requests carry the operation and a bearer token.
type Request struct {
	ID     idx.ID `json:"id"`
	Action Action `json:"action"`
	ShopID string `json:"shopId"`
	APIURL string `json:"apiUrl"`

	// oauth
	ClientID     string `json:"clientId,omitempty"`
	ClientSecret string `json:"clientSecret,omitempty"`

	// graphql
	Query         string         `json:"query,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
	AccessToken   string         `json:"accessToken,omitempty"`
}

// Response is the uniform result envelope. Failed operations carry a
// human-readable message in Error; Data is only meaningful on success.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Fail builds an unsuccessful response from an error message.
func Fail(format string, args ...any) Response {
	return Response{Success: false, Error: fmt.Sprintf(format, args...)}
}

// OK builds a successful response carrying the payload.
func OK(data json.RawMessage) Response {
	return Response{Success: true, Data: data}
}

// Relay executes operation descriptors. Implementations must always return
// an envelope; transport failures become Success=false responses.
type Relay interface {
	Do(ctx context.Context, req Request) Response
}

// APIBaseURL derives the backend base URL for a shop.
func APIBaseURL(shopID string) string {
	return fmt.Sprintf("https://%s.mywebshop.io", shopID)
}
