package conversationnode

import (
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

func CloseCall(in *GraphState) (*GraphState, error) {
	if in == nil || in.Call == nil {
		return nil, fmt.Errorf("%w: graph call is nil", contractx.ErrValidation)
	}

	in.Call.End(in.Now)
	log.Info().Str("call_id", in.CallID).Int("turns", in.Call.Turns).Msg("customer ended the call")
	return in, nil
}
