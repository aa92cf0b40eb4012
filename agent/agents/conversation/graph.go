package conversation

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/nodes"
)

func (s *Service) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodex.NodeValidateInput,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateInput(in, s.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_input: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeLoadOrCreateCall,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadOrCreateCall(ctx, in, s.store, s.systemPrompt)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_or_create_call: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeRecordUser,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RecordUser(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node record_user: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeCloseCall,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CloseCall(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node close_call: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeGenerateAction,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.GenerateAction(ctx, in, s.responder)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node generate_action: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeNudge,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Nudge(in, s.nudge)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node nudge: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeRunTools,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RunTools(ctx, in, s.tools, s.responder, s.maxToolSteps)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_tools: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeFinalizeReply,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeSaveCall,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.SaveCall(ctx, in, s.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_call: %w", err)
	}

	afterRecord := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			return nodex.AfterRecordUser(in)
		},
		map[string]bool{
			nodex.NodeCloseCall:      true,
			nodex.NodeGenerateAction: true,
		},
	)
	if err := graph.AddBranch(nodex.NodeRecordUser, afterRecord); err != nil {
		return nil, fmt.Errorf("add branch after record_user: %w", err)
	}

	afterGenerate := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			return nodex.AfterGenerateAction(in)
		},
		map[string]bool{
			nodex.NodeNudge:         true,
			nodex.NodeRunTools:      true,
			nodex.NodeFinalizeReply: true,
		},
	)
	if err := graph.AddBranch(nodex.NodeGenerateAction, afterGenerate); err != nil {
		return nil, fmt.Errorf("add branch after generate_action: %w", err)
	}

	edges := [][2]string{
		{compose.START, nodex.NodeValidateInput},
		{nodex.NodeValidateInput, nodex.NodeLoadOrCreateCall},
		{nodex.NodeLoadOrCreateCall, nodex.NodeRecordUser},
		{nodex.NodeRunTools, nodex.NodeFinalizeReply},
		{nodex.NodeCloseCall, nodex.NodeSaveCall},
		{nodex.NodeNudge, nodex.NodeSaveCall},
		{nodex.NodeFinalizeReply, nodex.NodeSaveCall},
		{nodex.NodeSaveCall, compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx,
		compose.WithGraphName("conversation.handle_turn"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
	if err != nil {
		return nil, fmt.Errorf("compile conversation graph: %w", err)
	}
	return runner, nil
}
