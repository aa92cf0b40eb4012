package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
)

func TestConfigDefaults(t *testing.T) {
	t.Setenv("LLMTEST_API_KEY", "gsk_test")

	var cfg Config
	if err := envconfig.Process("LLMTEST", &cfg); err != nil {
		t.Fatalf("envconfig.Process() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Temperature != 0.2 {
		t.Fatalf("Temperature = %v, want 0.2", cfg.Temperature)
	}
	if cfg.STTModel != "whisper-large-v3" {
		t.Fatalf("STTModel = %q", cfg.STTModel)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("Timeout = %v", cfg.Timeout)
	}
}

func TestAppConfigDefaults(t *testing.T) {
	var cfg AppConfig
	if err := envconfig.Process("APPTEST", &cfg); err != nil {
		t.Fatalf("envconfig.Process() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Name != "Jacobs Plumbing" || cfg.VoiceMode || !cfg.PushToTalk {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SampleRate != 16000 || cfg.RecordDuration != 3*time.Second || cfg.TTSRate != 175 {
		t.Fatalf("unexpected audio defaults: %+v", cfg)
	}
	if cfg.HistoryLimit != 20 || cfg.MaxToolSteps != 4 {
		t.Fatalf("unexpected loop defaults: %+v", cfg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()

	cfg := Config{
		BaseURL:            "not a url",
		Model:              "m",
		STTModel:           "s",
		MaxCompletionToken: 10,
		Temperature:        0.2,
		Timeout:            time.Second,
	}
	if err := cfg.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	app := AppConfig{Name: "x", SampleRate: 16000, RecordDuration: time.Second, TTSRate: 1,
		RecorderCommand: "arecord", TTSCommand: "espeak", MaxToolSteps: 0, SummaryTimeout: time.Second}
	if err := app.Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for zero tool steps, got %v", err)
	}
}

func TestGroqForRole(t *testing.T) {
	t.Parallel()

	cfg := Config{
		BaseURL:            " https://api.groq.com/openai/v1 ",
		APIKey:             " key ",
		Model:              "chat-model",
		MaxCompletionToken: 512,
		Temperature:        0.2,
		Timeout:            time.Second,
		SummaryModel:       "summary-model",
		SummaryTemperature: -1,
	}

	conv := cfg.GroqFor(RoleConversation)
	if conv.Model != "chat-model" || conv.Temperature != 0.2 || conv.APIKey != "key" {
		t.Fatalf("unexpected conversation config: %+v", conv)
	}
	if conv.MaxCompletionToken == nil || *conv.MaxCompletionToken != 512 {
		t.Fatalf("max tokens not carried over")
	}

	sum := cfg.GroqFor(RoleSummary)
	if sum.Model != "summary-model" || sum.Temperature != 0.2 {
		t.Fatalf("unexpected summary config: %+v", sum)
	}

	cfg.SummaryTemperature = 0
	if got := cfg.GroqFor(RoleSummary).Temperature; got != 0 {
		t.Fatalf("summary temperature override = %v, want 0", got)
	}
}
