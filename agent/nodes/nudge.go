package conversationnode

import (
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

// Nudge reminds the model of the protocol without asking it again this turn.
func Nudge(in *GraphState, nudge string) (*GraphState, error) {
	if in == nil || in.Call == nil {
		return nil, fmt.Errorf("%w: graph call is nil", contractx.ErrValidation)
	}

	log.Warn().Str("call_id", in.CallID).Str("raw", in.RawReply).Msg("model broke the protocol")
	in.Call.AddAssistant(nudge)
	in.Call.Nudges++
	in.Nudged = true
	in.Reply = RepeatReply
	return in, nil
}
