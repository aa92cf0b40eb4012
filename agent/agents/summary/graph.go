package summary

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	statex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/state"
)

func compileSummaryGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	summaryPrompt string,
) (compose.Runnable[*statex.Call, contractx.ConversationNote], error) {
	parser := schema.NewMessageJSONParser[contractx.ConversationNote](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[*statex.Call, contractx.ConversationNote]()

	if err := graph.AddLambdaNode("build_request",
		compose.InvokableLambda(func(ctx context.Context, call *statex.Call) ([]*schema.Message, error) {
			return buildRequest(call, summaryPrompt)
		}),
	); err != nil {
		return nil, fmt.Errorf("add summary request node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add summary model node: %w", err)
	}
	if err := graph.AddLambdaNode("strip_fences",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (*schema.Message, error) {
			if msg == nil {
				return nil, fmt.Errorf("%w: empty summary response", contractx.ErrSchemaViolation)
			}
			out := *msg
			out.Content = StripFences(msg.Content)
			return &out, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add summary strip node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add summary parser node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "build_request"},
		{"build_request", "model"},
		{"model", "strip_fences"},
		{"strip_fences", "parse_json"},
		{"parse_json", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add summary edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("summary.conversation_note"))
	if err != nil {
		return nil, fmt.Errorf("compile summary graph: %w", err)
	}
	return runner, nil
}

func buildRequest(call *statex.Call, summaryPrompt string) ([]*schema.Message, error) {
	if call == nil {
		return nil, fmt.Errorf("%w: call is nil", contractx.ErrValidation)
	}
	transcript := strings.TrimSpace(call.Transcript())
	if transcript == "" {
		return nil, fmt.Errorf("%w: call %s has no turns to summarize", contractx.ErrEmptyInput, call.ID)
	}
	return []*schema.Message{
		schema.SystemMessage(summaryPrompt),
		schema.UserMessage("Conversation:\n" + transcript),
	}, nil
}

// StripFences removes a markdown code fence around a JSON reply and any chatter
// outside the outermost braces.
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
