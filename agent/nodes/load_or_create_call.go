package conversationnode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	statex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/state"
)

func LoadOrCreateCall(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	systemPrompt string,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	call, err := store.Load(ctx, in.CallID)
	switch {
	case errors.Is(err, statex.ErrCallNotFound):
		call = statex.NewCall(in.CallID, systemPrompt, in.Now)
	case err != nil:
		return nil, err
	}
	if call.Ended {
		return nil, fmt.Errorf("%w: call_id=%s", contractx.ErrCallEnded, in.CallID)
	}

	in.Call = call
	return in, nil
}
