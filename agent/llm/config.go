package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	groqx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/pkg/groq"
)

type Role string

const (
	RoleConversation Role = "conversation"
	RoleSummary      Role = "summary"
)

// Config is read with the GROQ prefix.
type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.groq.com/openai/v1" validate:"required,url"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true" validate:"required"`
	Model              string        `envconfig:"MODEL_NAME" split_words:"true" default:"llama-3.3-70b-versatile" validate:"required"`
	STTModel           string        `envconfig:"STT_MODEL" split_words:"true" default:"whisper-large-v3" validate:"required"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1024" validate:"gt=0"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2" validate:"gte=0,lte=2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s" validate:"gt=0"`

	SummaryModel       string  `envconfig:"SUMMARY_MODEL" split_words:"true"`
	SummaryTemperature float32 `envconfig:"SUMMARY_TEMPERATURE" split_words:"true" default:"-1" validate:"lte=2"`
}

func (c Config) Validate() error {
	return validate(c, "groq")
}

// GroqFor returns the chat model settings for a role. Summary overrides apply
// only when set.
func (c Config) GroqFor(role Role) groqx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	if role == RoleSummary {
		if v := strings.TrimSpace(c.SummaryModel); v != "" {
			modelName = v
		}
		if c.SummaryTemperature >= 0 {
			temp = c.SummaryTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return groqx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
	}
}

// AppConfig is read with the APP prefix.
type AppConfig struct {
	Name            string        `envconfig:"NAME" default:"Jacobs Plumbing" validate:"required"`
	VoiceMode       bool          `envconfig:"VOICE_MODE" split_words:"true" default:"false"`
	PushToTalk      bool          `envconfig:"PUSH_TO_TALK" split_words:"true" default:"true"`
	SampleRate      int           `envconfig:"SAMPLE_RATE" split_words:"true" default:"16000" validate:"gte=8000,lte=48000"`
	RecordDuration  time.Duration `envconfig:"RECORD_DURATION" split_words:"true" default:"3s" validate:"gt=0"`
	TTSRate         int           `envconfig:"TTS_RATE" split_words:"true" default:"175" validate:"gt=0"`
	RecorderCommand string        `envconfig:"RECORDER_COMMAND" split_words:"true" default:"arecord" validate:"required"`
	TTSCommand      string        `envconfig:"TTS_COMMAND" split_words:"true" default:"espeak" validate:"required"`
	DialogFile      string        `envconfig:"DIALOG_FILE" split_words:"true" default:"samples/dialog.yaml"`
	HistoryLimit    int           `envconfig:"HISTORY_LIMIT" split_words:"true" default:"20" validate:"gte=0"`
	MaxToolSteps    int           `envconfig:"MAX_TOOL_STEPS" split_words:"true" default:"4" validate:"gt=0"`
	SummaryTimeout  time.Duration `envconfig:"SUMMARY_TIMEOUT" split_words:"true" default:"60s" validate:"gt=0"`
}

func (c AppConfig) Validate() error {
	return validate(c, "app")
}

func validate(v any, name string) error {
	if err := validator.New().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s config: %s", contractx.ErrValidation, name, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %s config: %v", contractx.ErrValidation, name, err)
	}
	return nil
}
