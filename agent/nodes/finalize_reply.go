package conversationnode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	protocolx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/protocol"
)

func FinalizeReply(in *GraphState) (*GraphState, error) {
	if in == nil || in.Call == nil {
		return nil, fmt.Errorf("%w: graph call is nil", contractx.ErrValidation)
	}

	switch {
	case in.ModelErr != nil:
		// apology already set by fail
	case in.Action.Type == contractx.ActionSay:
		in.Call.AddAssistant(protocolx.FormatSpoken(in.Action.Text))
		in.Call.Spoke(in.Action.Text)
		in.Reply = in.Action.Text
	default:
		in.Call.AddAssistant(in.RawReply)
		in.Reply = strings.TrimSpace(in.RawReply)
	}
	return in, nil
}
