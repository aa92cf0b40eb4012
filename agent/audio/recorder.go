package audio

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// CommandRecorder captures raw S16LE mono PCM from an external program
// (arecord by default) and returns it as a normalized WAV.
type CommandRecorder struct {
	command    string
	sampleRate int
	run        runFunc
}

var _ contractx.Recorder = (*CommandRecorder)(nil)

func NewCommandRecorder(command string, sampleRate int) *CommandRecorder {
	if strings.TrimSpace(command) == "" {
		command = "arecord"
	}
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	return &CommandRecorder{command: command, sampleRate: sampleRate, run: runCommand}
}

func (r *CommandRecorder) Record(ctx context.Context, duration time.Duration) ([]byte, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: recording duration must be positive", contractx.ErrValidation)
	}
	seconds := int(math.Ceil(duration.Seconds()))
	args := []string{
		"-q",
		"-t", "raw",
		"-f", "S16_LE",
		"-c", "1",
		"-r", strconv.Itoa(r.sampleRate),
		"-d", strconv.Itoa(seconds),
	}

	raw, err := r.run(ctx, r.command, args...)
	if err != nil {
		return nil, fmt.Errorf("record audio: %w", err)
	}

	samples := DecodePCM(raw)
	if len(samples) == 0 {
		return nil, fmt.Errorf("record audio: %s produced no samples", r.command)
	}
	Normalize(samples)
	log.Debug().Int("samples", len(samples)).Int("sample_rate", r.sampleRate).Msg("audio recorded")
	return EncodeWAV(samples, r.sampleRate)
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", name, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
