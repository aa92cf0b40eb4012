package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	nodex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/nodes"
	promptx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/prompt"
	statex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/state"
	toolx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/tool"
)

type TurnOutput = nodex.GraphOutput

type Config struct {
	Owner        string
	Dialog       string
	Tools        string
	HistoryLimit int
	MaxToolSteps int
}

// Service drives one customer turn at a time through the turn graph.
type Service struct {
	store     statex.Store
	tools     contractx.ToolGateway
	responder nodex.Responder

	systemPrompt string
	nudge        string
	maxToolSteps int

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now   func() time.Time
	newID func() string
}

func New(
	chatModel model.BaseChatModel,
	tools contractx.ToolGateway,
	store statex.Store,
	prompts promptx.PromptSet,
	cfg Config,
) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}
	if store == nil {
		store = statex.NewMemoryStore()
	}

	owner := strings.TrimSpace(cfg.Owner)
	toolsDesc := strings.TrimSpace(cfg.Tools)
	if toolsDesc == "" {
		toolsDesc = toolx.Describe(toolx.Specs())
	}
	systemPrompt, err := prompts.System(promptx.SystemInput{
		Owner:  owner,
		Tools:  toolsDesc,
		Dialog: cfg.Dialog,
	})
	if err != nil {
		return nil, err
	}

	maxToolSteps := cfg.MaxToolSteps
	if maxToolSteps <= 0 {
		maxToolSteps = 4
	}

	responder := nodex.Responder{
		Model:        chatModel,
		Prompts:      prompts,
		Owner:        owner,
		HistoryLimit: cfg.HistoryLimit,
	}

	s := &Service{
		store:        store,
		tools:        tools,
		responder:    responder,
		systemPrompt: systemPrompt,
		nudge:        prompts.Nudge,
		maxToolSteps: maxToolSteps,
		now:          time.Now,
		newID:        uuid.NewString,
	}

	graphRunner, err := s.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

func (s *Service) SystemPrompt() string {
	return s.systemPrompt
}

// StartCall creates and stores a fresh call holding only the system prompt.
func (s *Service) StartCall(ctx context.Context) (string, error) {
	call := statex.NewCall(s.newID(), s.systemPrompt, s.now())
	if err := s.store.Save(ctx, call); err != nil {
		return "", err
	}
	log.Info().Str("call_id", call.ID).Msg("call started")
	return call.ID, nil
}

func (s *Service) HandleTurn(ctx context.Context, callID string, text string) (TurnOutput, error) {
	out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{
		CallID: callID,
		Text:   text,
	})
	if err != nil {
		return TurnOutput{}, err
	}
	log.Debug().
		Str("call_id", out.CallID).
		Str("state", string(out.State)).
		Int("tool_steps", out.ToolSteps).
		Bool("ended", out.Ended).
		Msg("turn handled")
	return out, nil
}

func (s *Service) Call(ctx context.Context, callID string) (*statex.Call, error) {
	return s.store.Load(ctx, callID)
}

// EndCall marks the call ended without a customer farewell, as on hang-up.
func (s *Service) EndCall(ctx context.Context, callID string) (*statex.Call, error) {
	call, err := s.store.Load(ctx, callID)
	if err != nil {
		return nil, fmt.Errorf("end call: %w", err)
	}
	if !call.Ended {
		call.End(s.now())
		if err := s.store.Save(ctx, call); err != nil {
			return nil, err
		}
	}
	return call, nil
}

// Release drops a finished call from the store.
func (s *Service) Release(ctx context.Context, callID string) error {
	if err := s.store.Delete(ctx, callID); err != nil {
		return fmt.Errorf("release call %s: %w", callID, err)
	}
	log.Debug().Str("call_id", callID).Msg("call released")
	return nil
}
