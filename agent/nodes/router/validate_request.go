// Package routernode holds the node functions of the inbound-message router
// graph. Each node takes the shared graph state, does one step of the
// read-decide-append sequence, and hands the state on.
package routernode

import (
	"context"
	"errors"
	"strings"

	contractx "github.com/avelarsol/concierge/agent/contract"
)

var ErrInvalidSession = errors.New("session id is empty")

// EventAppender persists one event for a session. The router supplies an
// implementation with bounded retries; exhaustion surfaces as ErrPersistence.
type EventAppender func(ctx context.Context, sessionID, eventType string, data map[string]any) error

type GraphInput struct {
	SessionID string
	Payload   contractx.InboundPayload
}

type GraphOutput struct {
	Outcome contractx.RouterOutcome
}

type GraphState struct {
	SessionID string
	Payload   contractx.InboundPayload

	// Waiting is the checkpoint flag read at the start of the turn.
	Waiting bool

	Outcome contractx.RouterOutcome
}

// ValidateRequest admits the turn. A payload with no email, no phone and no
// body is "nothing to extract", not an error; only a missing session id
// rejects the message. Event timestamps are assigned by the store, so the
// graph carries no clock of its own.
func ValidateRequest(in GraphInput) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	payload := contractx.InboundPayload{
		Email: strings.TrimSpace(in.Payload.Email),
		Phone: strings.TrimSpace(in.Payload.Phone),
		Body:  strings.TrimSpace(in.Payload.Body),
	}

	return &GraphState{
		SessionID: sessionID,
		Payload:   payload,
		Outcome: contractx.RouterOutcome{
			SessionID: sessionID,
		},
	}, nil
}
