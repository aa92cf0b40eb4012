package conversationnode

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	promptx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/prompt"
	protocolx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/protocol"
	statex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/state"
)

// Responder asks the chat model for the next protocol line.
type Responder struct {
	Model   model.BaseChatModel
	Prompts promptx.PromptSet
	Owner   string

	// HistoryLimit bounds the messages sent per request; <= 0 sends all.
	HistoryLimit int
}

func (r Responder) Ask(ctx context.Context, call *statex.Call) (string, error) {
	msg, err := r.Model.Generate(ctx, r.messages(call))
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
	}
	return msg.Content, nil
}

// messages is the windowed call history with stage guidance appended to the
// system message. The stored history is not modified.
func (r Responder) messages(call *statex.Call) []*schema.Message {
	guidance := r.Prompts.Stage(string(call.Context.State), r.Owner)
	window := call.Window(r.HistoryLimit)
	out := make([]*schema.Message, 0, len(window))
	for _, m := range window {
		if m == nil {
			continue
		}
		if m.Role == schema.System && guidance != "" {
			content := m.Content + "\n\nCurrent stage (" + string(call.Context.State) + "): " + guidance
			out = append(out, schema.SystemMessage(content))
			guidance = ""
			continue
		}
		out = append(out, m)
	}
	return out
}

func GenerateAction(ctx context.Context, in *GraphState, r Responder) (*GraphState, error) {
	if in == nil || in.Call == nil {
		return nil, fmt.Errorf("%w: graph call is nil", contractx.ErrValidation)
	}

	raw, err := r.Ask(ctx, in.Call)
	if err != nil {
		fail(in, err)
		return in, nil
	}

	in.RawReply = raw
	in.Action = protocolx.ParseAction(raw)
	log.Debug().Str("call_id", in.CallID).Str("action", string(in.Action.Type)).Msg("model replied")
	return in, nil
}

func AfterGenerateAction(in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.ModelErr != nil {
		return NodeFinalizeReply, nil
	}
	switch in.Action.Type {
	case contractx.ActionUnknown:
		return NodeNudge, nil
	case contractx.ActionCall:
		return NodeRunTools, nil
	default:
		return NodeFinalizeReply, nil
	}
}

// fail turns a model error into an apology. The call keeps going.
func fail(in *GraphState, err error) {
	log.Error().Err(fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)).Str("call_id", in.CallID).Msg("model request failed")
	in.ModelErr = err
	in.Call.Failed(err)
	in.Reply = fmt.Sprintf("I'm sorry, I encountered an error: %v", err)
	in.Action = contractx.Action{Type: contractx.ActionUnknown}
	in.RawReply = ""
}
