package contract

type ActionType string

const (
	ActionSay     ActionType = "say"
	ActionCall    ActionType = "call"
	ActionUnknown ActionType = "unknown"
)

// Action is one model reply classified by the SAY/CALL protocol.
type Action struct {
	Type ActionType     `json:"type"`
	Text string         `json:"text,omitempty"`
	Tool string         `json:"tool,omitempty"`
	Args map[string]any `json:"args,omitempty"`
	Raw  string         `json:"raw,omitempty"`
}

type ToolRequest struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult carries the payload serialized back to the model. Failures are
// reported through Error, never as Go errors.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Got    any    `json:"got,omitempty"`
}

// Payload is what the model sees after TOOL_RESULT.
func (r ToolResult) Payload() any {
	if r.Error == "" {
		return r.Result
	}
	payload := map[string]any{"error": r.Error}
	if r.Got != nil {
		payload["got"] = r.Got
	}
	return payload
}

type CustomerDetail struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Service string `json:"service"`
}

type Availability struct {
	IsAvailability bool   `json:"is_availability"`
	Reasons        string `json:"reasons"`
}

// ConversationNote is the end-of-call summary.
type ConversationNote struct {
	CallID              string         `json:"call_id,omitempty"`
	Greeting            string         `json:"greeting"`
	CustomerDetail      CustomerDetail `json:"customer_detail"`
	ConfirmAvailability Availability   `json:"confirm_availability"`
	AppointmentTime     string         `json:"appointment_time"`
	Confirmation        string         `json:"confirmation"`
}
