package summary

import (
	"context"
	"errors"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	promptx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/prompt"
	statex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/state"
)

// Generator turns a finished call into a ConversationNote.
type Generator struct {
	runner compose.Runnable[*statex.Call, contractx.ConversationNote]
}

func New(ctx context.Context, chatModel einomodel.BaseChatModel, prompts promptx.PromptSet, owner string) (*Generator, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	summaryPrompt, err := prompts.Summary(owner)
	if err != nil {
		return nil, err
	}
	runner, err := compileSummaryGraph(ctx, chatModel, summaryPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: compile summary graph: %v", contractx.ErrModelInvoke, err)
	}
	return &Generator{runner: runner}, nil
}

func (g *Generator) Summarize(ctx context.Context, call *statex.Call) (contractx.ConversationNote, error) {
	note, err := g.runner.Invoke(ctx, call)
	if err != nil {
		if errors.Is(err, contractx.ErrEmptyInput) || errors.Is(err, contractx.ErrValidation) {
			return contractx.ConversationNote{}, err
		}
		return contractx.ConversationNote{}, fmt.Errorf("%w: summary invoke: %v", contractx.ErrModelInvoke, err)
	}
	note.CallID = call.ID

	log.Info().
		Str("call_id", call.ID).
		Str("customer", note.CustomerDetail.Name).
		Str("appointment_time", note.AppointmentTime).
		Str("confirmation", note.Confirmation).
		Msg("conversation note generated")
	return note, nil
}
