// Package protocol classifies model replies into SAY / CALL actions.
//
// The model is instructed to answer with exactly one of:
//
//	SAY: <message for the customer>
//	CALL: <tool_name> {json_args}
package protocol

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

const RawArgsKey = "_raw_args"

var (
	callPattern = regexp.MustCompile(`(?s)^\s*CALL:\s*([a-zA-Z_]\w*)\s*(\{.*\})\s*$`)
	sayPattern  = regexp.MustCompile(`(?s)^\s*SAY:\s*(.+)\s*$`)
)

// ParseAction never fails: anything that matches neither form is ActionUnknown.
func ParseAction(text string) contractx.Action {
	if m := callPattern.FindStringSubmatch(text); m != nil {
		tool := strings.TrimSpace(m[1])
		rawArgs := strings.TrimSpace(m[2])
		return contractx.Action{
			Type: contractx.ActionCall,
			Tool: tool,
			Args: decodeArgs(rawArgs),
			Raw:  text,
		}
	}

	if m := sayPattern.FindStringSubmatch(text); m != nil {
		return contractx.Action{
			Type: contractx.ActionSay,
			Text: strings.TrimSpace(m[1]),
			Raw:  text,
		}
	}

	return contractx.Action{
		Type: contractx.ActionUnknown,
		Raw:  text,
	}
}

func decodeArgs(raw string) map[string]any {
	args := map[string]any{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{RawArgsKey: raw}
	}
	return args
}

// FormatToolResult renders the synthetic history entry fed back after a tool runs.
func FormatToolResult(tool string, payload any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw, _ = json.Marshal(map[string]any{"error": err.Error()})
	}
	return fmt.Sprintf("TOOL_RESULT %s: %s", tool, raw)
}

func FormatSpoken(text string) string {
	return "SPOKEN: " + text
}
