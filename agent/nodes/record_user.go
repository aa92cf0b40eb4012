package conversationnode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

var (
	farewellPhrases = []string{"bye", "goodbye", "thank you", "thanks"}
	exitWords       = []string{"quit", "exit"}
)

// RecordUser appends the customer's words before anything else looks at them,
// so a farewell still lands in the transcript.
func RecordUser(in *GraphState) (*GraphState, error) {
	if in == nil || in.Call == nil {
		return nil, fmt.Errorf("%w: graph call is nil", contractx.ErrValidation)
	}

	in.Call.BeginCustomerTurn()
	in.Call.AddUser(in.Text)
	in.Farewell = IsFarewell(in.Text)
	return in, nil
}

// IsFarewell matches farewell phrases anywhere in the input, case-insensitive,
// and exit words only as the whole input.
func IsFarewell(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, w := range exitWords {
		if lower == w {
			return true
		}
	}
	for _, p := range farewellPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func AfterRecordUser(in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Farewell {
		return NodeCloseCall, nil
	}
	return NodeGenerateAction, nil
}
