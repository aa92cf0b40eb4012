package conversationnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	statex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/state"
)

func SaveCall(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
) (GraphOutput, error) {
	if in == nil || in.Call == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph call is nil", contractx.ErrValidation)
	}

	in.Call.Touch(in.Now)
	if err := store.Save(ctx, in.Call); err != nil {
		return GraphOutput{}, fmt.Errorf("save call %s: %w", in.CallID, err)
	}

	return GraphOutput{
		CallID:    in.CallID,
		Reply:     in.Reply,
		Action:    in.Action.Type,
		State:     in.Call.Context.State,
		ToolSteps: in.ToolSteps,
		Nudged:    in.Nudged,
		Ended:     in.Call.Ended,
	}, nil
}
