// Package http exposes the Dialogflow CX webhook surface of the gateway.
package http

import (
	"fmt"
	"strconv"
)

// WebhookRequest is the Dialogflow CX webhook envelope subset the gateway
// reads. Session parameters carry the collected intake answers.
type WebhookRequest struct {
	FulfillmentInfo struct {
		Tag string `json:"tag"`
	} `json:"fulfillmentInfo"`
	SessionInfo SessionInfo `json:"sessionInfo"`
}

// SessionInfo mirrors the Dialogflow CX sessionInfo object.
type SessionInfo struct {
	Session    string         `json:"session,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// WebhookResponse merges parameters back into the caller's session state.
type WebhookResponse struct {
	SessionInfo *SessionInfo `json:"sessionInfo,omitempty"`
}

// sessionResponse builds a WebhookResponse carrying the given parameters.
func sessionResponse(params map[string]any) WebhookResponse {
	return WebhookResponse{SessionInfo: &SessionInfo{Parameters: params}}
}

// stringParam reads a session parameter as a string. Dialogflow delivers
// numbers as float64 and may omit optional parameters entirely; both cases
// normalize to a plain string ("" when absent or null).
func stringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
