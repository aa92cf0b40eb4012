package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	qstashx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/pkg/qstash"
)

// LogSink writes the note to the global logger only.
type LogSink struct{}

var _ contractx.NoteSink = LogSink{}

func (LogSink) Publish(ctx context.Context, note contractx.ConversationNote) error {
	log.Info().
		Str("call_id", note.CallID).
		Interface("note", note).
		Msg("conversation note")
	return nil
}

type publisher interface {
	PublishJSON(ctx context.Context, payload any) (qstashx.PublishResponse, error)
}

// QStashSink enqueues the note for delivery to the configured QStash destination.
type QStashSink struct {
	client publisher
}

var _ contractx.NoteSink = (*QStashSink)(nil)

func NewQStashSink(client *qstashx.Client) (*QStashSink, error) {
	if client == nil {
		return nil, qstashx.ErrNotConfigured
	}
	return &QStashSink{client: client}, nil
}

func (s *QStashSink) Publish(ctx context.Context, note contractx.ConversationNote) error {
	resp, err := s.client.PublishJSON(ctx, note)
	if err != nil {
		return fmt.Errorf("publish note for call %s: %w", note.CallID, err)
	}
	log.Info().Str("call_id", note.CallID).Str("message_id", resp.MessageID).Msg("conversation note published")
	return nil
}

// Fanout publishes to every sink and joins their errors.
type Fanout []contractx.NoteSink

func (f Fanout) Publish(ctx context.Context, note contractx.ConversationNote) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig always logs the note and also publishes it when QStash is configured.
func FromConfig(cfg qstashx.Config) (contractx.NoteSink, error) {
	if !cfg.Enabled() {
		return Fanout{LogSink{}}, nil
	}
	client, err := qstashx.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	sink, err := NewQStashSink(client)
	if err != nil {
		return nil, err
	}
	return Fanout{LogSink{}, sink}, nil
}
