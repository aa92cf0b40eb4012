package audio

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

// WhisperTranscriber sends WAV audio to an OpenAI-compatible transcription
// endpoint, such as Groq's Whisper.
type WhisperTranscriber struct {
	client *openaisdk.Client
	model  string
}

var _ contractx.Transcriber = (*WhisperTranscriber)(nil)

func NewWhisperTranscriber(client *openaisdk.Client, model string) (*WhisperTranscriber, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: transcription client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(model) == "" {
		model = "whisper-large-v3"
	}
	return &WhisperTranscriber{client: client, model: model}, nil
}

func (w *WhisperTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if _, err := wavSampleRate(wav); err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, openaisdk.AudioTranscriptionNewParams{
		File:  openaisdk.File(bytes.NewReader(wav), "input.wav", "audio/wav"),
		Model: openaisdk.AudioModel(w.model),
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
