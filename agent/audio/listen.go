package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

// Listener turns one customer utterance into text.
type Listener struct {
	Recorder    contractx.Recorder
	Transcriber contractx.Transcriber
	Duration    time.Duration

	// PushToTalk, when set, waits for Enter on Input before each recording.
	PushToTalk bool
	Input      *bufio.Reader
	Prompt     io.Writer
}

func (l *Listener) Listen(ctx context.Context) (string, error) {
	if l.PushToTalk {
		if err := WaitForEnter(l.Input, l.Prompt, fmt.Sprintf("Press Enter to record... (%s)", l.Duration)); err != nil {
			return "", err
		}
	}

	wav, err := l.Recorder.Record(ctx, l.Duration)
	if err != nil {
		return "", err
	}
	return l.Transcriber.Transcribe(ctx, wav)
}

// WaitForEnter prints prompt and blocks until a line is read. io.EOF is
// returned unchanged so callers can treat it as a hang-up.
func WaitForEnter(in *bufio.Reader, out io.Writer, prompt string) error {
	if out != nil {
		fmt.Fprint(out, prompt)
	}
	if in == nil {
		return nil
	}
	_, err := in.ReadString('\n')
	return err
}
