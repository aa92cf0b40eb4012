package contract

import (
	"context"
	"time"
)

type ToolGateway interface {
	Execute(ctx context.Context, req ToolRequest) ToolResult
}

// Recorder captures one utterance and returns it WAV encoded.
type Recorder interface {
	Record(ctx context.Context, duration time.Duration) ([]byte, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

type Speaker interface {
	Say(ctx context.Context, text string) error
}

type NoteSink interface {
	Publish(ctx context.Context, note ConversationNote) error
}
