package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/agents/conversation"
	"github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/agents/summary"
	audiox "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/audio"
	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	llmx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/llm"
	notesx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/notes"
	promptx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/prompt"
	statex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/state"
	toolx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/tool"
	configx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/pkg/config"
	groqx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/pkg/groq"
	_ "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/pkg/logger/autoload"
	qstashx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/pkg/qstash"
)

func main() {
	appCfg, err := configx.New[llmx.AppConfig]("APP")
	if err != nil {
		log.Fatal().Err(err).Msg("load app config")
	}
	if err := appCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid app config")
	}

	groqCfg, err := configx.New[llmx.Config]("GROQ")
	if err != nil {
		log.Fatal().Err(err).Msg("load groq config")
	}
	if err := groqCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid groq config")
	}

	qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chatCfg := groqCfg.GroqFor(llmx.RoleConversation)
	chatModel, err := chatCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("create conversation model")
	}
	summaryCfg := groqCfg.GroqFor(llmx.RoleSummary)
	summaryModel, err := summaryCfg.New(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("create summary model")
	}

	prompts := promptx.LoadPromptSet()
	dialog, err := promptx.LoadDialog(appCfg.DialogFile)
	if err != nil {
		log.Warn().Err(err).Str("path", appCfg.DialogFile).Msg("sample dialog not loaded")
	}

	svc, err := conversation.New(chatModel, toolx.NewCatalog(nil, nil), statex.NewMemoryStore(), prompts, conversation.Config{
		Owner:        appCfg.Name,
		Dialog:       promptx.FormatDialog(dialog),
		HistoryLimit: appCfg.HistoryLimit,
		MaxToolSteps: appCfg.MaxToolSteps,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create conversation service")
	}
	log.Debug().Str("system_prompt", svc.SystemPrompt()).Msg("system prompt ready")

	summarizer, err := summary.New(ctx, summaryModel, prompts, appCfg.Name)
	if err != nil {
		log.Fatal().Err(err).Msg("create summary generator")
	}

	sink, err := notesx.FromConfig(*qstashCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("create note sink")
	}

	stdin := bufio.NewReader(os.Stdin)
	customer := customerInput{stdin: stdin}
	var speaker contractx.Speaker
	if appCfg.VoiceMode {
		transcriber, err := audiox.NewWhisperTranscriber(groqx.NewClient(chatCfg), groqCfg.STTModel)
		if err != nil {
			log.Fatal().Err(err).Msg("create transcriber")
		}
		customer.listener = &audiox.Listener{
			Recorder:    audiox.NewCommandRecorder(appCfg.RecorderCommand, appCfg.SampleRate),
			Transcriber: transcriber,
			Duration:    appCfg.RecordDuration,
			PushToTalk:  appCfg.PushToTalk,
			Input:       stdin,
			Prompt:      os.Stdout,
		}
		speaker = audiox.NewCommandSpeaker(appCfg.TTSCommand, appCfg.TTSRate)
	}

	callID, err := svc.StartCall(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("start call")
	}
	fmt.Println("Call started. Speak or type as the CUSTOMER.")
	fmt.Println("Say 'bye' or 'thank you' to end.")

	runCall(ctx, svc, callID, customer, speaker, os.Stdout)

	finishCtx, cancel := context.WithTimeout(context.Background(), appCfg.SummaryTimeout)
	defer cancel()
	if err := finishCall(finishCtx, svc, summarizer, sink, callID); err != nil {
		log.Error().Err(err).Str("call_id", callID).Msg("conversation note not delivered")
		os.Exit(1)
	}
}

type customerInput struct {
	stdin    *bufio.Reader
	listener *audiox.Listener
}

func (c customerInput) next(ctx context.Context) (string, error) {
	if c.listener != nil {
		text, err := await(ctx, func() (string, error) { return c.listener.Listen(ctx) })
		if err == nil {
			log.Debug().Str("text", text).Msg("customer (stt)")
		}
		return text, err
	}
	fmt.Print("Customer: ")
	return await(ctx, func() (string, error) { return c.stdin.ReadString('\n') })
}

// await runs a blocking read so that Ctrl-C can interrupt it.
func await(ctx context.Context, read func() (string, error)) (string, error) {
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := read()
		ch <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.text, r.err
	}
}

type turnHandler interface {
	HandleTurn(ctx context.Context, callID, text string) (conversation.TurnOutput, error)
}

type inputSource interface {
	next(ctx context.Context) (string, error)
}

type callCloser interface {
	EndCall(ctx context.Context, callID string) (*statex.Call, error)
	Release(ctx context.Context, callID string) error
}

type noteSummarizer interface {
	Summarize(ctx context.Context, call *statex.Call) (contractx.ConversationNote, error)
}

var (
	_ turnHandler    = (*conversation.Service)(nil)
	_ callCloser     = (*conversation.Service)(nil)
	_ noteSummarizer = (*summary.Generator)(nil)
	_ inputSource    = customerInput{}
)

func runCall(
	ctx context.Context,
	svc turnHandler,
	callID string,
	customer inputSource,
	speaker contractx.Speaker,
	w io.Writer,
) {
	for {
		text, err := customer.next(ctx)
		text = strings.TrimSpace(text)
		switch {
		case ctx.Err() != nil:
			fmt.Fprintln(w)
			log.Info().Str("call_id", callID).Msg("call interrupted")
			return
		case errors.Is(err, io.EOF) && text == "":
			log.Info().Str("call_id", callID).Msg("input closed")
			return
		case err != nil && !errors.Is(err, io.EOF):
			log.Warn().Err(err).Msg("could not capture customer input")
			continue
		}
		if text == "" {
			continue
		}

		out, err := svc.HandleTurn(ctx, callID, text)
		if err != nil {
			log.Error().Err(err).Str("call_id", callID).Msg("turn failed")
			if errors.Is(err, contractx.ErrCallEnded) {
				return
			}
			continue
		}
		if out.Ended {
			return
		}

		fmt.Fprintf(w, "Agent: %s\n", out.Reply)
		if speaker != nil {
			if err := speaker.Say(ctx, out.Reply); err != nil {
				log.Warn().Err(err).Msg("text to speech failed")
			}
		}
	}
}

// finishCall ends the call, publishes its note and drops it from the store.
// A call with no customer turns produces no note.
func finishCall(
	ctx context.Context,
	svc callCloser,
	summarizer noteSummarizer,
	sink contractx.NoteSink,
	callID string,
) error {
	call, err := svc.EndCall(ctx, callID)
	if err != nil {
		return err
	}

	log.Info().Str("call_id", callID).Msg("generating conversation note")
	note, err := summarizer.Summarize(ctx, call)
	switch {
	case errors.Is(err, contractx.ErrEmptyInput):
		log.Info().Str("call_id", callID).Msg("nothing to summarize")
	case err != nil:
		return err
	default:
		if err := sink.Publish(ctx, note); err != nil {
			return err
		}
	}
	return svc.Release(ctx, callID)
}
