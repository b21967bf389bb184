// Package router decides, for each inbound message, whether a session resumes
// a paused contact-collection checkpoint or is treated as a fresh turn, and
// appends the outcome to the conversation event log.
package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/avelarsol/concierge/agent/contract"
	routernode "github.com/avelarsol/concierge/agent/nodes/router"
	statex "github.com/avelarsol/concierge/agent/state"
)

var ErrInvalidSession = routernode.ErrInvalidSession

const (
	defaultMaxAppendAttempts = 3
	defaultAppendRetryDelay  = 100 * time.Millisecond
)

type Config struct {
	// MaxAppendAttempts bounds retries of a failing event append before the
	// turn is failed. Zero means the default of 3.
	MaxAppendAttempts int
	AppendRetryDelay  time.Duration
}

// Router is the inbound message router. It holds no conversation state of its
// own between calls; everything durable lives in the checkpoint store.
type Router struct {
	store    statex.Store
	resolver contractx.Resolver
	pipeline contractx.PipelinePublisher

	graphRunner compose.Runnable[routernode.GraphInput, routernode.GraphOutput]

	maxAppendAttempts int
	appendRetryDelay  time.Duration

	// sessionLocks serializes the read-decide-append sequence per session so
	// two concurrent messages cannot both observe the waiting flag as set.
	// Entries are never evicted; cardinality is bounded by live sessions.
	sessionLocks sync.Map
}

func New(
	store statex.Store,
	resolver contractx.Resolver,
	pipeline contractx.PipelinePublisher,
	cfg Config,
) (*Router, error) {
	if store == nil {
		return nil, errors.New("checkpoint store is required")
	}
	if resolver == nil {
		return nil, errors.New("contact resolver is required")
	}
	if pipeline == nil {
		pipeline = noopPublisher{}
	}

	maxAttempts := cfg.MaxAppendAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAppendAttempts
	}
	retryDelay := cfg.AppendRetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultAppendRetryDelay
	}

	r := &Router{
		store:             store,
		resolver:          resolver,
		pipeline:          pipeline,
		maxAppendAttempts: maxAttempts,
		appendRetryDelay:  retryDelay,
	}

	graphRunner, err := r.compileHandleInboundGraph(context.Background())
	if err != nil {
		return nil, err
	}
	r.graphRunner = graphRunner

	return r, nil
}

// HandleInbound routes one inbound message for a session. Safe for concurrent
// use across sessions; calls for the same session are serialized.
func (r *Router) HandleInbound(
	ctx context.Context,
	sessionID string,
	payload contractx.InboundPayload,
) (contractx.RouterOutcome, error) {
	mu := r.sessionLock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	out, err := r.graphRunner.Invoke(ctx, routernode.GraphInput{
		SessionID: sessionID,
		Payload:   payload,
	})
	if err != nil {
		return contractx.RouterOutcome{}, err
	}
	return out.Outcome, nil
}

func (r *Router) sessionLock(sessionID string) *sync.Mutex {
	mu, _ := r.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// appendEvent persists one event with bounded retries. Exhaustion surfaces as
// ErrPersistence: the router never proceeds as if a lost event had been
// written.
func (r *Router) appendEvent(ctx context.Context, sessionID, eventType string, data map[string]any) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxAppendAttempts; attempt++ {
		lastErr = r.store.AppendEvent(ctx, sessionID, eventType, data)
		if lastErr == nil {
			return nil
		}

		log.Warn().
			Err(lastErr).
			Str("session_id", sessionID).
			Str("event_type", eventType).
			Int("attempt", attempt).
			Msg("event append failed")

		if attempt == r.maxAppendAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: append aborted: %v", contractx.ErrPersistence, ctx.Err())
		case <-time.After(r.appendRetryDelay):
		}
	}
	return fmt.Errorf("%w: append event type=%s after %d attempts: %v",
		contractx.ErrPersistence, eventType, r.maxAppendAttempts, lastErr)
}

type noopPublisher struct{}

func (noopPublisher) PublishOutcome(context.Context, contractx.RouterOutcome) error {
	return nil
}
