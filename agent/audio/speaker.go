package audio

import (
	"context"
	"strconv"
	"strings"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

// CommandSpeaker reads text aloud through a TTS program (espeak by default),
// blocking until it finishes.
type CommandSpeaker struct {
	command string
	rate    int
	run     runFunc
}

var _ contractx.Speaker = (*CommandSpeaker)(nil)

func NewCommandSpeaker(command string, rate int) *CommandSpeaker {
	if strings.TrimSpace(command) == "" {
		command = "espeak"
	}
	if rate <= 0 {
		rate = 175
	}
	return &CommandSpeaker{command: command, rate: rate, run: runCommand}
}

func (s *CommandSpeaker) Say(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	_, err := s.run(ctx, s.command, "-s", strconv.Itoa(s.rate), text)
	return err
}
