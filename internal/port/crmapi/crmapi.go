// Package crmapi defines the GraphQL wire types and the executor port for
// the CRM backend. Services are written against Executor and never see
// authorization failures: implementations re-authenticate transparently.
package crmapi

import (
	"context"
	"encoding/json"
	"strings"
)

// Operation is a single GraphQL query or mutation. Immutable once built.
type Operation struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Error is a top-level GraphQL error returned by the CRM, carried verbatim.
type Error struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Response is the parsed GraphQL response envelope. Exactly one of Data or
// Errors is meaningful: a non-empty Errors slice means the CRM rejected the
// operation on domain grounds.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []Error         `json:"errors,omitempty"`
}

// Executor sends a GraphQL operation to the CRM with a valid bearer token.
// A non-nil error is transport-class (network, HTTP status, parse, or a
// failed re-authentication); domain rejections arrive in Response.Errors.
type Executor interface {
	Execute(ctx context.Context, op Operation) (*Response, error)
}

// UserError is a mutation-level rejection reported by the CRM alongside an
// otherwise successful response (duplicate, invalid field, ...).
type UserError struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

// UserErrors carries the CRM's validation messages verbatim so the webhook
// layer can surface them to the end user unmodified.
type UserErrors []UserError

func (e UserErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ue := range e {
		msgs[i] = ue.Message
	}
	return "crm user errors: " + strings.Join(msgs, "; ")
}

// Messages returns the raw error texts in CRM order.
func (e UserErrors) Messages() []string {
	msgs := make([]string, len(e))
	for i, ue := range e {
		msgs[i] = ue.Message
	}
	return msgs
}

// ErrorsError mirrors UserErrors for the top-level GraphQL errors field.
type ErrorsError []Error

func (e ErrorsError) Error() string {
	msgs := make([]string, len(e))
	for i, ge := range e {
		msgs[i] = ge.Message
	}
	return "graphql errors: " + strings.Join(msgs, "; ")
}

// Messages returns the raw error texts in CRM order.
func (e ErrorsError) Messages() []string {
	msgs := make([]string, len(e))
	for i, ge := range e {
		msgs[i] = ge.Message
	}
	return msgs
}
