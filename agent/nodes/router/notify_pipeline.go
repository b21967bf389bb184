package routernode

import (
	"context"
	"fmt"

	contractx "github.com/avelarsol/concierge/agent/contract"
)

// NotifyPipeline hands the finished outcome to the broader conversation
// pipeline for reply generation. Events are already durably appended at this
// point; a publish failure fails the turn so the caller can retry the hand-off.
func NotifyPipeline(ctx context.Context, in *GraphState, publisher contractx.PipelinePublisher) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if err := publisher.PublishOutcome(ctx, in.Outcome); err != nil {
		return nil, fmt.Errorf("publish router outcome: %w", err)
	}
	return in, nil
}
