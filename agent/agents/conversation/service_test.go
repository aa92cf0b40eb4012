package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/agents/summary"
	contractx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/contract"
	nodex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/nodes"
	promptx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/prompt"
	statex "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/state"
	toolx "github.com/tanpawarit/Jacobs-Plumbing-Call-Agent/agent/tool"
)

var testNow = time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

type fakeChatModel struct {
	mu         sync.Mutex
	responses  []string
	repeatLast bool
	err        error
	inputs     [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	idx := len(f.inputs) - 1
	if idx >= len(f.responses) {
		if !f.repeatLast || len(f.responses) == 0 {
			return nil, errors.New("no fake response left")
		}
		idx = len(f.responses) - 1
	}
	return schema.AssistantMessage(f.responses[idx], nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeChatModel) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

type countingTools struct {
	inner contractx.ToolGateway
	reqs  []contractx.ToolRequest
}

func (c *countingTools) Execute(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	c.reqs = append(c.reqs, req)
	return c.inner.Execute(ctx, req)
}

func newTestService(t *testing.T, fake *fakeChatModel, historyLimit int) (*Service, *countingTools) {
	t.Helper()

	catalog := toolx.NewCatalog(toolx.NewSlotStore(func() time.Time { return testNow }), toolx.NewLedger())
	tools := &countingTools{inner: catalog}

	svc, err := New(fake, tools, statex.NewMemoryStore(), promptx.LoadPromptSet(), Config{
		Owner:        "Jacobs Plumbing",
		HistoryLimit: historyLimit,
		MaxToolSteps: 4,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	svc.now = func() time.Time { return testNow }
	return svc, tools
}

func startCall(t *testing.T, svc *Service) string {
	t.Helper()
	id, err := svc.StartCall(context.Background())
	if err != nil {
		t.Fatalf("StartCall() error = %v", err)
	}
	return id
}

func loadCall(t *testing.T, svc *Service, id string) *statex.Call {
	t.Helper()
	call, err := svc.Call(context.Background(), id)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	return call
}

func lastContent(call *statex.Call) string {
	return call.History[len(call.History)-1].Content
}

func TestHandleTurnInvalidInput(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &fakeChatModel{}, 20)

	_, err := svc.HandleTurn(context.Background(), "", "hello")
	if !errors.Is(err, statex.ErrInvalidCall) {
		t.Fatalf("expected ErrInvalidCall, got %v", err)
	}

	_, err = svc.HandleTurn(context.Background(), "call-1", "   ")
	if !errors.Is(err, contractx.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestHandleTurnSay(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{responses: []string{"SAY: Hello! May I have your full name?"}}
	svc, tools := newTestService(t, fake, 20)
	id := startCall(t, svc)

	out, err := svc.HandleTurn(context.Background(), id, "Hi, my sink is leaking")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if out.Reply != "Hello! May I have your full name?" {
		t.Fatalf("unexpected reply %q", out.Reply)
	}
	if out.Action != contractx.ActionSay || out.State != statex.StateCollectingInfo || out.Ended {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(tools.reqs) != 0 {
		t.Fatalf("no tool should run, got %d", len(tools.reqs))
	}

	call := loadCall(t, svc, id)
	if len(call.History) != 3 {
		t.Fatalf("expected system, user, spoken; got %d messages", len(call.History))
	}
	if call.History[1].Role != schema.User || call.History[1].Content != "Hi, my sink is leaking" {
		t.Fatalf("unexpected user entry %+v", call.History[1])
	}
	if lastContent(call) != "SPOKEN: Hello! May I have your full name?" {
		t.Fatalf("unexpected spoken entry %q", lastContent(call))
	}

	sent := fake.inputs[0]
	if sent[0].Role != schema.System || !strings.Contains(sent[0].Content, "Current stage (collecting_info)") {
		t.Fatalf("system message should carry stage guidance: %q", sent[0].Content)
	}
	if strings.Contains(call.History[0].Content, "Current stage") {
		t.Fatalf("stored system prompt must not carry stage guidance")
	}
}

func TestHandleTurnCallThenSay(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{responses: []string{
		`CALL: get_available_slots {"address": "42 Elm Street"}`,
		"SAY: I have Friday at 11:00 AM. Does that work?",
	}}
	svc, tools := newTestService(t, fake, 20)
	id := startCall(t, svc)

	out, err := svc.HandleTurn(context.Background(), id, "My address is 42 Elm Street")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if out.Reply != "I have Friday at 11:00 AM. Does that work?" || out.ToolSteps != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(tools.reqs) != 1 || tools.reqs[0].Tool != toolx.ToolGetAvailableSlots {
		t.Fatalf("unexpected tool requests %+v", tools.reqs)
	}

	call := loadCall(t, svc, id)
	toolEntry := call.History[2].Content
	if !strings.HasPrefix(toolEntry, `TOOL_RESULT get_available_slots: ["Friday, 2026-01-02 11:00 AM",`) {
		t.Fatalf("unexpected tool entry %q", toolEntry)
	}
	if call.Context.ServiceAddress != "42 Elm Street" || len(call.Context.AvailableSlots) != 6 {
		t.Fatalf("slots should be recorded in context: %+v", call.Context)
	}
	if call.Context.State != statex.StateOfferingSlots {
		t.Fatalf("expected offering_slots, got %s", call.Context.State)
	}
	if fake.calls() != 2 {
		t.Fatalf("expected 2 model calls, got %d", fake.calls())
	}
}

func TestHandleTurnBooking(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{responses: []string{
		`CALL: book_appointment {"name": "Dana Reyes", "address": "42 Elm Street", "phone": "555-0100", "email": "dana@example.com", "service_request": "leaking sink", "slot": "Friday, 2026-01-02 03:00 PM"}`,
		"SAY: You're booked. Thank you for choosing Jacobs Plumbing!",
	}}
	svc, _ := newTestService(t, fake, 20)
	id := startCall(t, svc)

	out, err := svc.HandleTurn(context.Background(), id, "Yes, 3 PM on Friday works")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if out.State != statex.StateClosing {
		t.Fatalf("closing cue in the reply should move to closing, got %s", out.State)
	}

	call := loadCall(t, svc, id)
	want := toolx.ConfirmationID("Dana Reyes", "42 Elm Street", "Friday, 2026-01-02 03:00 PM")
	if call.Context.ConfirmationID != want {
		t.Fatalf("confirmation id = %q, want %q", call.Context.ConfirmationID, want)
	}
	if call.Context.CustomerName != "Dana Reyes" || call.Context.SelectedSlot != "Friday, 2026-01-02 03:00 PM" {
		t.Fatalf("booking details not recorded: %+v", call.Context)
	}
	if !strings.Contains(call.History[2].Content, `"success":true`) {
		t.Fatalf("unexpected tool entry %q", call.History[2].Content)
	}
}

func TestHandleTurnToolStepLimit(t *testing.T) {
	t.Parallel()

	loop := `CALL: check_coverage {"address": "42 Elm Street"}`
	fake := &fakeChatModel{responses: []string{loop}, repeatLast: true}
	svc, tools := newTestService(t, fake, 0)
	id := startCall(t, svc)

	out, err := svc.HandleTurn(context.Background(), id, "Am I covered?")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if len(tools.reqs) != 4 || out.ToolSteps != 4 {
		t.Fatalf("expected 4 tool executions, got %d (steps=%d)", len(tools.reqs), out.ToolSteps)
	}
	if fake.calls() != 5 {
		t.Fatalf("expected 5 model calls, got %d", fake.calls())
	}
	if out.Reply != loop {
		t.Fatalf("raw reply expected after the limit, got %q", out.Reply)
	}

	call := loadCall(t, svc, id)
	if lastContent(call) != loop {
		t.Fatalf("raw text should be appended, got %q", lastContent(call))
	}
	if len(call.History) != 1+1+4+1 {
		t.Fatalf("unexpected history length %d", len(call.History))
	}
}

func TestHandleTurnUnknownNudges(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{responses: []string{"Sure, what's your name?"}}
	svc, tools := newTestService(t, fake, 20)
	id := startCall(t, svc)

	out, err := svc.HandleTurn(context.Background(), id, "I need a plumber")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if out.Reply != nodex.RepeatReply || !out.Nudged {
		t.Fatalf("unexpected output %+v", out)
	}
	if fake.calls() != 1 || len(tools.reqs) != 0 {
		t.Fatalf("nudge must not re-query or run tools")
	}

	call := loadCall(t, svc, id)
	if call.Nudges != 1 {
		t.Fatalf("expected one nudge, got %d", call.Nudges)
	}
	last := call.History[len(call.History)-1]
	if last.Role != schema.Assistant || last.Content != promptx.LoadPromptSet().Nudge {
		t.Fatalf("unexpected nudge entry %+v", last)
	}
}

func TestHandleTurnModelErrorApologizes(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{err: errors.New("rate limited")}
	svc, _ := newTestService(t, fake, 20)
	id := startCall(t, svc)

	out, err := svc.HandleTurn(context.Background(), id, "hello")
	if err != nil {
		t.Fatalf("model errors must not fail the turn: %v", err)
	}
	if out.Reply != "I'm sorry, I encountered an error: rate limited" {
		t.Fatalf("unexpected reply %q", out.Reply)
	}
	if out.State != statex.StateError || out.Ended {
		t.Fatalf("unexpected output %+v", out)
	}

	fake.mu.Lock()
	fake.err = nil
	fake.responses = []string{"", "SAY: Sorry about that. How can I help?"}
	fake.mu.Unlock()

	out, err = svc.HandleTurn(context.Background(), id, "hello again")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if out.Reply != "Sorry about that. How can I help?" {
		t.Fatalf("call should continue after an error, got %q", out.Reply)
	}
}

func TestHandleTurnFarewellEndsCall(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{}
	svc, _ := newTestService(t, fake, 20)
	id := startCall(t, svc)

	out, err := svc.HandleTurn(context.Background(), id, "That's all, Thanks!")
	if err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	if !out.Ended || out.State != statex.StateClosing {
		t.Fatalf("unexpected output %+v", out)
	}
	if fake.calls() != 0 {
		t.Fatalf("farewell must not query the model")
	}

	call := loadCall(t, svc, id)
	if lastContent(call) != "That's all, Thanks!" {
		t.Fatalf("farewell should be recorded, got %q", lastContent(call))
	}

	_, err = svc.HandleTurn(context.Background(), id, "hello?")
	if !errors.Is(err, contractx.ErrCallEnded) {
		t.Fatalf("expected ErrCallEnded, got %v", err)
	}
}

func TestHandleTurnCreatesUnknownCall(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{responses: []string{"SAY: Hi!"}}
	svc, _ := newTestService(t, fake, 20)

	if _, err := svc.HandleTurn(context.Background(), "walk-in", "hello"); err != nil {
		t.Fatalf("HandleTurn() error = %v", err)
	}
	call := loadCall(t, svc, "walk-in")
	if call.SystemPrompt() != svc.SystemPrompt() {
		t.Fatalf("new call should start with the system prompt")
	}
}

func TestHandleTurnBoundsModelInputOnly(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{responses: []string{"SAY: Go on."}, repeatLast: true}
	svc, _ := newTestService(t, fake, 6)
	id := startCall(t, svc)

	for i := 0; i < 5; i++ {
		if _, err := svc.HandleTurn(context.Background(), id, "more details"); err != nil {
			t.Fatalf("HandleTurn() error = %v", err)
		}
	}

	call := loadCall(t, svc, id)
	if len(call.History) != 11 {
		t.Fatalf("stored history must keep every message, got %d", len(call.History))
	}
	if lastContent(call) != "SPOKEN: Go on." {
		t.Fatalf("newest message must be stored, got %q", lastContent(call))
	}

	sent := fake.inputs[len(fake.inputs)-1]
	if len(sent) != 6 {
		t.Fatalf("model input should be bounded to 6 messages, got %d", len(sent))
	}
	if sent[0].Role != schema.System {
		t.Fatalf("system message must lead the model input")
	}
}

func TestLongCallKeepsEarlyDetails(t *testing.T) {
	t.Parallel()

	const name = "Dana Reyes"
	slot := "Friday, 2026-01-02 03:00 PM"

	responses := []string{"SAY: Sorry to hear that. What's the service address?"}
	for i := 0; i < 11; i++ {
		responses = append(responses, "SAY: Got it, anything else?")
	}
	responses = append(responses,
		`CALL: book_appointment {"name": "`+name+`", "address": "42 Elm Street", "phone": "555-0100", "email": "dana@example.com", "service_request": "leaking sink", "slot": "`+slot+`"}`,
		"SAY: You're booked. Thank you for choosing Jacobs Plumbing!",
	)
	fake := &fakeChatModel{responses: responses}
	svc, _ := newTestService(t, fake, 6)
	id := startCall(t, svc)

	turns := []string{"Hi, this is " + name + " and my kitchen sink is leaking"}
	for i := 0; i < 11; i++ {
		turns = append(turns, "okay")
	}
	turns = append(turns, "Friday at 3 PM works")

	for _, text := range turns {
		if _, err := svc.HandleTurn(context.Background(), id, text); err != nil {
			t.Fatalf("HandleTurn(%q) error = %v", text, err)
		}
	}

	if fake.calls() != len(responses) {
		t.Fatalf("expected %d model calls, got %d", len(responses), fake.calls())
	}
	bookingInput := fake.inputs[len(responses)-2]
	if !strings.Contains(bookingInput[0].Content, name) {
		t.Fatalf("booking-time model input lost the customer name: %q", bookingInput[0].Content)
	}
	for _, m := range bookingInput[1:] {
		if strings.Contains(m.Content, name) {
			t.Fatalf("name should only survive through the recap here, found in %q", m.Content)
		}
	}

	call, err := svc.EndCall(context.Background(), id)
	if err != nil {
		t.Fatalf("EndCall() error = %v", err)
	}
	if call.History[1].Content != turns[0] {
		t.Fatalf("first customer line must stay in history, got %q", call.History[1].Content)
	}

	noteModel := &fakeChatModel{responses: []string{`{"customer_detail": {"name": "Dana Reyes"}}`}}
	gen, err := summary.New(context.Background(), noteModel, promptx.LoadPromptSet(), "Jacobs Plumbing")
	if err != nil {
		t.Fatalf("summary.New() error = %v", err)
	}
	if _, err := gen.Summarize(context.Background(), call); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if noteModel.calls() != 1 {
		t.Fatalf("expected one summary request, got %d", noteModel.calls())
	}
	request := noteModel.inputs[0]
	if !strings.Contains(request[len(request)-1].Content, "user: "+turns[0]) {
		t.Fatalf("summary request lost the first customer line: %q", request[len(request)-1].Content)
	}
}

func TestEndCall(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &fakeChatModel{}, 20)
	id := startCall(t, svc)

	call, err := svc.EndCall(context.Background(), id)
	if err != nil {
		t.Fatalf("EndCall() error = %v", err)
	}
	if !call.Ended {
		t.Fatalf("call should be ended")
	}
	if _, err := svc.EndCall(context.Background(), "missing"); !errors.Is(err, statex.ErrCallNotFound) {
		t.Fatalf("expected ErrCallNotFound, got %v", err)
	}
}

func TestReleaseDropsCall(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &fakeChatModel{}, 20)
	id := startCall(t, svc)
	if _, err := svc.EndCall(context.Background(), id); err != nil {
		t.Fatalf("EndCall() error = %v", err)
	}

	if err := svc.Release(context.Background(), id); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if _, err := svc.Call(context.Background(), id); !errors.Is(err, statex.ErrCallNotFound) {
		t.Fatalf("released call should be gone, got %v", err)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, &countingTools{}, nil, promptx.LoadPromptSet(), Config{Owner: "x"}); err == nil {
		t.Fatalf("expected error for nil model")
	}
	if _, err := New(&fakeChatModel{}, nil, nil, promptx.LoadPromptSet(), Config{Owner: "x"}); err == nil {
		t.Fatalf("expected error for nil tools")
	}
	if _, err := New(&fakeChatModel{}, &countingTools{}, nil, promptx.LoadPromptSet(), Config{}); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
