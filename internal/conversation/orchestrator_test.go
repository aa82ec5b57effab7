package conversation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/chat"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/dispatcher"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm"
	"github.com/iternal-technologies-partners/basic-blockify-results-visualizer-demo/internal/llm/llmtest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memoryRecorder struct {
	mu       sync.Mutex
	messages []chat.Message
	err      error
}

func (r *memoryRecorder) RecordMessage(_ context.Context, _ string, msg chat.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
	return r.err
}

func (r *memoryRecorder) recorded() []chat.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]chat.Message(nil), r.messages...)
}

type staticHistory []chat.Message

func (h staticHistory) LoadMessages(context.Context, string) ([]chat.Message, error) {
	return append([]chat.Message(nil), h...), nil
}

func open(t *testing.T, tr llm.Transport, cfg dispatcher.Config, rec *memoryRecorder, c Config) *Orchestrator {
	t.Helper()
	deps := Deps{Runner: dispatcher.New(tr, cfg, nil)}
	if rec != nil {
		deps.Recorders = []Recorder{rec}
	}
	o, err := Open(context.Background(), deps, c)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func TestOpen_RequiresRunner(t *testing.T) {
	if _, err := Open(context.Background(), Deps{}, Config{}); !errors.Is(err, ErrNoRunner) {
		t.Errorf("Open() error = %v, want ErrNoRunner", err)
	}
}

func TestSubmit_Blank(t *testing.T) {
	tr := llmtest.Echo()
	o := open(t, tr, dispatcher.DefaultConfig(), nil, Config{})

	for _, text := range []string{"", "   ", "\n\t"} {
		ok, err := o.Submit(context.Background(), text)
		if ok || err != nil {
			t.Errorf("Submit(%q) = (%v, %v), want (false, nil)", text, ok, err)
		}
	}
	if len(tr.Calls()) != 0 {
		t.Error("blank submit reached the transport")
	}
	if n := len(o.Snapshot().Messages); n != 0 {
		t.Errorf("blank submit added %d messages", n)
	}
}

func TestSubmit_Success(t *testing.T) {
	tr := &llmtest.Transport{
		Respond: func(context.Context, int, []llm.Message) (*llm.RawResponse, error) {
			return llmtest.JSON("hi"), nil
		},
	}
	rec := &memoryRecorder{}
	o := open(t, tr, dispatcher.DefaultConfig(), rec, Config{ChatID: "c1"})

	ok, err := o.Submit(context.Background(), "hello")
	if !ok || err != nil {
		t.Fatalf("Submit() = (%v, %v), want (true, nil)", ok, err)
	}

	state := o.Snapshot()
	if state.IsGenerating {
		t.Error("IsGenerating still set after the turn")
	}
	if state.ChunkProgress != (chat.Progress{}) {
		t.Errorf("ChunkProgress = %+v, want reset", state.ChunkProgress)
	}
	if state.Error != "" {
		t.Errorf("Error = %q, want empty", state.Error)
	}
	if len(state.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(state.Messages))
	}
	if m := state.Messages[1]; m.Role != chat.RoleAssistant || m.Content != "hi" || !m.IsComplete {
		t.Errorf("assistant message = %+v", m)
	}

	got := rec.recorded()
	if len(got) != 2 || got[0].Role != chat.RoleUser || got[1].Content != "hi" {
		t.Errorf("recorded = %+v, want user then assistant", got)
	}
}

func TestSubmit_PartialFailureMerged(t *testing.T) {
	tr := &llmtest.Transport{
		Respond: func(_ context.Context, n int, _ []llm.Message) (*llm.RawResponse, error) {
			if n == 0 {
				return nil, errors.New("timeout talking to model")
			}
			return llmtest.JSON("second part"), nil
		},
	}
	rec := &memoryRecorder{}
	cfg := dispatcher.DefaultConfig()
	cfg.ChunkSize, cfg.Overlap = 10, 2
	o := open(t, tr, cfg, rec, Config{})

	ok, err := o.Submit(context.Background(), "0123456789abcdef")
	if !ok || err != nil {
		t.Fatalf("Submit() = (%v, %v)", ok, err)
	}

	state := o.Snapshot()
	if state.Error != "" {
		t.Errorf("Error = %q, want empty for a chunk failure", state.Error)
	}
	if len(state.Messages) != 2 {
		t.Fatalf("got %d messages, want 2 (partial replaced, not appended)", len(state.Messages))
	}
	final := state.Messages[1]
	if !final.IsComplete || final.ChunkInfo != nil {
		t.Errorf("final message = %+v", final)
	}
	if !strings.Contains(final.Content, "[Error processing chunk 1: timeout talking to model]") ||
		!strings.Contains(final.Content, "second part") {
		t.Errorf("final content = %q", final.Content)
	}

	var assistants int
	for _, m := range rec.recorded() {
		if m.Role == chat.RoleAssistant {
			assistants++
		}
	}
	if assistants != 1 {
		t.Errorf("recorded %d assistant messages, want exactly 1", assistants)
	}
}

func TestSubmit_WhileGenerating(t *testing.T) {
	release := make(chan struct{})
	tr := &llmtest.Transport{
		Respond: func(context.Context, int, []llm.Message) (*llm.RawResponse, error) {
			<-release
			return llmtest.JSON("slow"), nil
		},
	}
	o := open(t, tr, dispatcher.DefaultConfig(), nil, Config{MaxInputLength: 20})

	done := make(chan error, 1)
	go func() {
		_, err := o.Submit(context.Background(), "first")
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for !o.Snapshot().IsGenerating {
		select {
		case <-deadline:
			t.Fatal("turn never started")
		case <-time.After(5 * time.Millisecond):
		}
	}

	ok, err := o.Submit(context.Background(), "second")
	if ok || err != nil {
		t.Errorf("Submit() while generating = (%v, %v), want (false, nil)", ok, err)
	}
	// the single-flight guard wins over the length limit
	ok, err = o.Submit(context.Background(), strings.Repeat("x", 50))
	if ok || err != nil {
		t.Errorf("oversized Submit() while generating = (%v, %v), want (false, nil)", ok, err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit() error = %v", err)
	}

	state := o.Snapshot()
	if len(state.Messages) != 2 {
		t.Errorf("got %d messages, want 2", len(state.Messages))
	}
	if len(tr.Calls()) != 1 {
		t.Errorf("transport called %d times, want 1", len(tr.Calls()))
	}
}

func TestSubmit_WholeTurnFailure(t *testing.T) {
	rec := &memoryRecorder{}
	o := open(t, llmtest.Echo(), dispatcher.Config{ChunkSize: 5, Overlap: 5}, rec, Config{})

	ok, err := o.Submit(context.Background(), "hello")
	if !ok || !errors.Is(err, dispatcher.ErrTurnFailed) {
		t.Fatalf("Submit() = (%v, %v), want (true, ErrTurnFailed)", ok, err)
	}

	state := o.Snapshot()
	if state.Error == "" {
		t.Error("Error slot not set")
	}
	if state.IsGenerating {
		t.Error("IsGenerating still set")
	}
	last := state.Messages[len(state.Messages)-1]
	if !last.IsError || last.Role != chat.RoleAssistant {
		t.Errorf("last message = %+v, want assistant error", last)
	}
	if !strings.HasPrefix(last.Content, "Sorry, I encountered an error processing your request: ") {
		t.Errorf("error content = %q", last.Content)
	}

	got := rec.recorded()
	if len(got) != 2 || !got[1].IsError {
		t.Errorf("recorded = %+v, want user and error message", got)
	}
}

func TestSubmit_InputTooLong(t *testing.T) {
	o := open(t, llmtest.Echo(), dispatcher.DefaultConfig(), nil, Config{MaxInputLength: 5})

	ok, err := o.Submit(context.Background(), "toolong")
	if ok || !errors.Is(err, ErrInputTooLong) {
		t.Errorf("Submit() = (%v, %v), want (false, ErrInputTooLong)", ok, err)
	}
	if ok, err := o.Submit(context.Background(), "héllo"); !ok || err != nil {
		t.Errorf("Submit() at the limit = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestSubmit_SendsHistory(t *testing.T) {
	tr := llmtest.Echo()
	o := open(t, tr, dispatcher.DefaultConfig(), nil, Config{SystemPrompt: "be an ingest engine"})

	if _, err := o.Submit(context.Background(), "one"); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Submit(context.Background(), "two"); err != nil {
		t.Fatal(err)
	}

	calls := tr.Calls()
	if len(calls) != 2 {
		t.Fatalf("transport called %d times, want 2", len(calls))
	}
	second := calls[1].Messages
	wantRoles := []string{"system", "user", "assistant", "user"}
	if len(second) != len(wantRoles) {
		t.Fatalf("second request has %d messages, want %d", len(second), len(wantRoles))
	}
	for i, role := range wantRoles {
		if second[i].Role != role {
			t.Errorf("message %d role = %q, want %q", i, second[i].Role, role)
		}
	}
	if second[3].Content != "two" {
		t.Errorf("last content = %q, want %q", second[3].Content, "two")
	}
}

func TestOpen_History(t *testing.T) {
	history := staticHistory{
		chat.NewMessage(chat.RoleUser, "old question"),
		chat.NewMessage(chat.RoleAssistant, "old answer"),
	}
	deps := Deps{Runner: dispatcher.New(llmtest.Echo(), dispatcher.DefaultConfig(), nil), History: history}

	o, err := Open(context.Background(), deps, Config{ChatID: "c1", SystemPrompt: "ignored for existing chats"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer o.Close()

	msgs := o.Snapshot().Messages
	if len(msgs) != 2 || msgs[0].Content != "old question" {
		t.Errorf("Snapshot().Messages = %+v, want loaded history only", msgs)
	}
}

func TestOpen_SeedsSystemPrompt(t *testing.T) {
	rec := &memoryRecorder{}
	o := open(t, llmtest.Echo(), dispatcher.DefaultConfig(), rec, Config{ChatID: "new", SystemPrompt: "You are helpful."})

	msgs := o.Snapshot().Messages
	if len(msgs) != 1 || msgs[0].Role != chat.RoleSystem || msgs[0].Content != "You are helpful." {
		t.Errorf("Snapshot().Messages = %+v, want seeded system prompt", msgs)
	}
	if len(rec.recorded()) != 1 {
		t.Error("seeded system prompt was not recorded")
	}
}

func TestSubmitInitial(t *testing.T) {
	t.Run("new chat", func(t *testing.T) {
		tr := llmtest.Echo()
		o := open(t, tr, dispatcher.DefaultConfig(), nil, Config{InitialMessage: "start here"})

		ok, err := o.SubmitInitial(context.Background())
		if !ok || err != nil {
			t.Fatalf("SubmitInitial() = (%v, %v)", ok, err)
		}
		ok, _ = o.SubmitInitial(context.Background())
		if ok {
			t.Error("SubmitInitial() ran twice")
		}
		if len(tr.Calls()) != 1 {
			t.Errorf("transport called %d times, want 1", len(tr.Calls()))
		}
	})

	t.Run("already in history", func(t *testing.T) {
		tr := llmtest.Echo()
		deps := Deps{
			Runner:  dispatcher.New(tr, dispatcher.DefaultConfig(), nil),
			History: staticHistory{chat.NewMessage(chat.RoleUser, "start here")},
		}
		o, err := Open(context.Background(), deps, Config{ChatID: "c", InitialMessage: "start here"})
		if err != nil {
			t.Fatal(err)
		}
		defer o.Close()

		if ok, _ := o.SubmitInitial(context.Background()); ok {
			t.Error("SubmitInitial() resent a message already in history")
		}
	})
}

func TestRecorderFailureDoesNotBreakTurn(t *testing.T) {
	rec := &memoryRecorder{err: errors.New("disk full")}
	o := open(t, llmtest.Echo(), dispatcher.DefaultConfig(), rec, Config{})

	ok, err := o.Submit(context.Background(), "hello")
	if !ok || err != nil {
		t.Errorf("Submit() = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestUpdates(t *testing.T) {
	o := open(t, llmtest.Echo(), dispatcher.DefaultConfig(), nil, Config{})

	if _, err := o.Submit(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}

	var last chat.State
	var n int
drain:
	for {
		select {
		case s := <-o.Updates():
			last = s
			n++
		default:
			break drain
		}
	}
	if n == 0 {
		t.Fatal("no updates delivered")
	}
	if last.IsGenerating || len(last.Messages) != 2 {
		t.Errorf("last update = %+v, want finished turn", last)
	}

	if err := o.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, open := <-o.Updates(); open {
		t.Error("Updates() still open after Close")
	}
	if _, err := o.Submit(context.Background(), "again"); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit() after Close error = %v, want ErrClosed", err)
	}
}

func TestDisplayFilter(t *testing.T) {
	msgs := []chat.Message{
		{Role: chat.RoleUser, Content: "a"},
		{Role: chat.RoleAssistant, Content: "x"},
		{Role: chat.RoleUser, Content: "a"},
		{Role: chat.RoleAssistant, Content: "y"},
		{Role: chat.RoleUser, Content: "b"},
		{Role: chat.RoleUser, Content: "a"},
		{Role: chat.RoleSystem, Content: "s"},
	}

	tests := []struct {
		role chat.Role
		want []string
	}{
		{chat.RoleUser, []string{"a", "b", "a"}},
		{chat.RoleAssistant, []string{"x", "y"}},
		{chat.RoleSystem, []string{"s"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			got := DisplayFilter(msgs, tt.role)
			var contents []string
			for _, m := range got {
				contents = append(contents, m.Content)
			}
			if strings.Join(contents, ",") != strings.Join(tt.want, ",") {
				t.Errorf("DisplayFilter() = %v, want %v", contents, tt.want)
			}
		})
	}

	if len(msgs) != 7 {
		t.Error("DisplayFilter() modified its input")
	}
}

func TestRoleViews(t *testing.T) {
	o := open(t, llmtest.Echo(), dispatcher.DefaultConfig(), nil, Config{})
	for i := 0; i < 2; i++ {
		if _, err := o.Submit(context.Background(), "same"); err != nil {
			t.Fatal(err)
		}
	}

	if n := len(o.UserMessages()); n != 1 {
		t.Errorf("UserMessages() = %d entries, want 1 after dedup", n)
	}
	if n := len(o.AssistantMessages()); n != 1 {
		t.Errorf("AssistantMessages() = %d entries, want 1 after dedup", n)
	}
	if n := len(o.Snapshot().Messages); n != 4 {
		t.Errorf("stored %d messages, want all 4", n)
	}
}
