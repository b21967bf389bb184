package router

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/avelarsol/concierge/agent/contract"
	routernode "github.com/avelarsol/concierge/agent/nodes/router"
)

func (r *Router) compileHandleInboundGraph(
	ctx context.Context,
) (compose.Runnable[routernode.GraphInput, routernode.GraphOutput], error) {
	graph := compose.NewGraph[routernode.GraphInput, routernode.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in routernode.GraphInput) (*routernode.GraphState, error) {
			return routernode.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("check_checkpoint",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.CheckCheckpoint(ctx, in, r.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node check_checkpoint: %w", err)
	}

	if err := graph.AddLambdaNode("resume_from_session",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.ResolveFromSession(ctx, in, r.resolver, r.appendEvent)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resume_from_session: %w", err)
	}

	if err := graph.AddLambdaNode("check_direct_payload",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.CheckDirectPayload(ctx, in, r.resolver, r.appendEvent)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node check_direct_payload: %w", err)
	}

	if err := graph.AddLambdaNode("notify_pipeline",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (*routernode.GraphState, error) {
			return routernode.NotifyPipeline(ctx, in, r.pipeline)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node notify_pipeline: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_outcome",
		compose.InvokableLambda(func(ctx context.Context, in *routernode.GraphState) (routernode.GraphOutput, error) {
			return routernode.FinalizeOutcome(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_outcome: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *routernode.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.Waiting {
				return "resume_from_session", nil
			}
			return "check_direct_payload", nil
		},
		map[string]bool{
			"resume_from_session":  true,
			"check_direct_payload": true,
		},
	)

	if err := graph.AddEdge(compose.START, "validate_request"); err != nil {
		return nil, fmt.Errorf("add edge start->validate_request: %w", err)
	}
	if err := graph.AddEdge("validate_request", "check_checkpoint"); err != nil {
		return nil, fmt.Errorf("add edge validate_request->check_checkpoint: %w", err)
	}
	if err := graph.AddBranch("check_checkpoint", branch); err != nil {
		return nil, fmt.Errorf("add checkpoint branch: %w", err)
	}
	if err := graph.AddEdge("resume_from_session", "notify_pipeline"); err != nil {
		return nil, fmt.Errorf("add edge resume_from_session->notify_pipeline: %w", err)
	}
	if err := graph.AddEdge("check_direct_payload", "notify_pipeline"); err != nil {
		return nil, fmt.Errorf("add edge check_direct_payload->notify_pipeline: %w", err)
	}
	if err := graph.AddEdge("notify_pipeline", "finalize_outcome"); err != nil {
		return nil, fmt.Errorf("add edge notify_pipeline->finalize_outcome: %w", err)
	}
	if err := graph.AddEdge("finalize_outcome", compose.END); err != nil {
		return nil, fmt.Errorf("add edge finalize_outcome->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("router.handle_inbound"))
	if err != nil {
		return nil, fmt.Errorf("compile router graph: %w", err)
	}
	return runner, nil
}
