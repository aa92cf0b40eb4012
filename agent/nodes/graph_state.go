package conversationnode

import (
	"strings"
	"time"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	statex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/state"
)

const (
	NodeValidateInput    = "validate_input"
	NodeLoadOrCreateCall = "load_or_create_call"
	NodeRecordUser       = "record_user"
	NodeCloseCall        = "close_call"
	NodeGenerateAction   = "generate_action"
	NodeNudge            = "nudge"
	NodeRunTools         = "run_tools"
	NodeFinalizeReply    = "finalize_reply"
	NodeSaveCall         = "save_call"
)

const RepeatReply = "Sorry, could you repeat that?"

type GraphInput struct {
	CallID string
	Text   string
}

type GraphOutput struct {
	CallID    string
	Reply     string
	Action    contractx.ActionType
	State     statex.ConversationState
	ToolSteps int
	Nudged    bool
	Ended     bool
}

// GraphState is threaded through every node of one customer turn.
type GraphState struct {
	CallID string
	Text   string
	Now    time.Time

	Call     *statex.Call
	Farewell bool

	RawReply  string
	Action    contractx.Action
	ToolSteps int
	ModelErr  error

	Reply  string
	Nudged bool
}

func ValidateInput(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	callID := strings.TrimSpace(in.CallID)
	if callID == "" {
		return nil, statex.ErrInvalidCall
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, contractx.ErrEmptyInput
	}

	return &GraphState{
		CallID: callID,
		Text:   text,
		Now:    nowFn().UTC(),
	}, nil
}
