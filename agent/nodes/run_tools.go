package conversationnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	protocolx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/protocol"
	statex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/state"
	toolx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/tool"
)

// RunTools executes CALL actions and feeds each result back to the model
// until it says something or maxSteps tools have run.
func RunTools(
	ctx context.Context,
	in *GraphState,
	tools contractx.ToolGateway,
	r Responder,
	maxSteps int,
) (*GraphState, error) {
	if in == nil || in.Call == nil {
		return nil, fmt.Errorf("%w: graph call is nil", contractx.ErrValidation)
	}

	for in.Action.Type == contractx.ActionCall && in.ToolSteps < maxSteps {
		in.ToolSteps++

		req := contractx.ToolRequest{Tool: in.Action.Tool, Args: in.Action.Args}
		res := tools.Execute(ctx, req)
		applyToolOutcome(in.Call, req, res)
		in.Call.AddAssistant(protocolx.FormatToolResult(req.Tool, res.Payload()))

		log.Debug().
			Str("call_id", in.CallID).
			Str("tool", req.Tool).
			Int("step", in.ToolSteps).
			Bool("failed", res.Error != "").
			Msg("tool result fed back")

		raw, err := r.Ask(ctx, in.Call)
		if err != nil {
			fail(in, err)
			return in, nil
		}
		in.RawReply = raw
		in.Action = protocolx.ParseAction(raw)
	}

	if in.Action.Type == contractx.ActionCall {
		log.Warn().Str("call_id", in.CallID).Int("steps", in.ToolSteps).Msg("tool step limit reached")
	}
	return in, nil
}

func applyToolOutcome(call *statex.Call, req contractx.ToolRequest, res contractx.ToolResult) {
	if res.Error != "" {
		return
	}

	switch req.Tool {
	case toolx.ToolCheckCoverage:
		call.CheckingCoverage(stringArg(req.Args, "address"))
		if out, ok := res.Result.(toolx.CoverageOutput); ok {
			call.SetMetadata("is_covered", out.IsCovered)
		}
	case toolx.ToolGetAvailableSlots:
		slots, _ := res.Result.([]string)
		call.OfferingSlots(stringArg(req.Args, "address"), slots)
	case toolx.ToolBookAppointment:
		call.Booking(statex.BookingDetails{
			Name:           stringArg(req.Args, "name"),
			Address:        stringArg(req.Args, "address"),
			Phone:          stringArg(req.Args, "phone"),
			Email:          stringArg(req.Args, "email"),
			ServiceRequest: stringArg(req.Args, "service_request"),
			Slot:           stringArg(req.Args, "slot"),
		})
		if out, ok := res.Result.(toolx.BookingOutput); ok && out.Success {
			call.Confirmed(out.ConfirmationID)
		}
	}
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}
