package state

import (
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
)

// ConversationState is a coarse tag for where the call is. Transitions are not
// validated; any state may follow any other.
type ConversationState string

const (
	StateGreeting         ConversationState = "greeting"
	StateCollectingInfo   ConversationState = "collecting_info"
	StateCheckingCoverage ConversationState = "checking_coverage"
	StateOfferingSlots    ConversationState = "offering_slots"
	StateBooking          ConversationState = "booking"
	StateConfirmation     ConversationState = "confirmation"
	StateClosing          ConversationState = "closing"
	StateError            ConversationState = "error"
)

// ConversationContext is what the driver has learned about the customer so far.
type ConversationContext struct {
	State          ConversationState `json:"state"`
	CustomerName   string            `json:"customer_name,omitempty"`
	CustomerPhone  string            `json:"customer_phone,omitempty"`
	CustomerEmail  string            `json:"customer_email,omitempty"`
	ServiceAddress string            `json:"service_address,omitempty"`
	ServiceRequest string            `json:"service_request,omitempty"`
	AvailableSlots []string          `json:"available_slots,omitempty"`
	SelectedSlot   string            `json:"selected_slot,omitempty"`
	ConfirmationID string            `json:"confirmation_id,omitempty"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
}

// Call is one phone call: its history and context.
type Call struct {
	ID        string              `json:"id"`
	History   []*schema.Message   `json:"history"`
	Context   ConversationContext `json:"context"`
	Turns     int                 `json:"turns"`
	Nudges    int                 `json:"nudges"`
	Ended     bool                `json:"ended"`
	StartedAt time.Time           `json:"started_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

var (
	ErrCallNotFound = errors.New("call not found")
	ErrInvalidCall  = errors.New("call id is empty")
	ErrNilCall      = errors.New("call is nil")
)

func NewCall(id, systemPrompt string, now time.Time) *Call {
	return &Call{
		ID:        id,
		History:   []*schema.Message{schema.SystemMessage(systemPrompt)},
		Context:   ConversationContext{State: StateGreeting},
		StartedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (c *Call) Touch(now time.Time) {
	c.UpdatedAt = now.UTC()
}

func (c *Call) AddUser(text string) {
	c.History = append(c.History, schema.UserMessage(text))
}

func (c *Call) AddAssistant(text string) {
	c.History = append(c.History, schema.AssistantMessage(text, nil))
}

// SystemPrompt returns the first system message, or "".
func (c *Call) SystemPrompt() string {
	for _, m := range c.History {
		if m != nil && m.Role == schema.System {
			return m.Content
		}
	}
	return ""
}

// Window is the view of the history sent to the model: the system message plus
// the newest limit-1 messages. Customer lines that fall outside the window are
// recapped at the end of the system message so details given early in the call
// stay visible. The stored history is never shortened. limit <= 0 returns the
// full history.
func (c *Call) Window(limit int) []*schema.Message {
	msgs := make([]*schema.Message, 0, len(c.History))
	var system *schema.Message
	for _, m := range c.History {
		if m == nil {
			continue
		}
		if system == nil && m.Role == schema.System {
			system = m
			continue
		}
		msgs = append(msgs, m)
	}

	keep := len(msgs)
	if limit > 0 {
		tail := limit
		if system != nil {
			tail = limit - 1
		}
		if tail < keep {
			keep = max(tail, 0)
		}
	}
	dropped, kept := msgs[:len(msgs)-keep], msgs[len(msgs)-keep:]

	out := make([]*schema.Message, 0, keep+1)
	if system != nil {
		content := system.Content
		if recap := customerRecap(dropped); recap != "" {
			content += "\n\nEarlier in this call the customer said:\n" + recap
		}
		out = append(out, schema.SystemMessage(content))
	}
	return append(out, kept...)
}

func customerRecap(msgs []*schema.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		if m.Role != schema.User {
			continue
		}
		b.WriteString("- ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Transcript renders the non-system history for logs and prompts.
func (c *Call) Transcript() string {
	var b strings.Builder
	for _, m := range c.History {
		if m == nil || m.Role == schema.System {
			continue
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
