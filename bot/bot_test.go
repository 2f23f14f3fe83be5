// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/plateforge/plateforge/chat"
	"github.com/plateforge/plateforge/lib/batch"
)

// fakeAPI records outgoing traffic and hands out message IDs.
type fakeAPI struct {
	mutex sync.Mutex

	sent      []string
	edits     []string
	documents []sentDocument
	nextID    int
}

type sentDocument struct {
	chatID   int64
	filename string
	content  []byte
	caption  string
}

func (f *fakeAPI) GetMe(context.Context) (*chat.User, error) {
	return &chat.User{ID: 1, IsBot: true, Username: "plateforge_bot"}, nil
}

func (f *fakeAPI) GetUpdates(context.Context, int64, int) ([]chat.Update, error) {
	return nil, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID int64, text string) (*chat.Message, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.nextID++
	f.sent = append(f.sent, text)
	return &chat.Message{MessageID: f.nextID, Chat: chat.Chat{ID: chatID}, Text: text}, nil
}

func (f *fakeAPI) EditMessageText(_ context.Context, chatID int64, messageID int, text string) (*chat.Message, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.edits = append(f.edits, text)
	return &chat.Message{MessageID: messageID, Chat: chat.Chat{ID: chatID}, Text: text}, nil
}

func (f *fakeAPI) SendDocument(_ context.Context, chatID int64, filename string, content []byte, caption string) (*chat.Message, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.nextID++
	f.documents = append(f.documents, sentDocument{chatID, filename, content, caption})
	return &chat.Message{MessageID: f.nextID, Chat: chat.Chat{ID: chatID}}, nil
}

func (f *fakeAPI) lastSent(t *testing.T) string {
	t.Helper()
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if len(f.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return f.sent[len(f.sent)-1]
}

// fakeRunner captures the options it was called with and emits one
// progress event before returning.
type fakeRunner struct {
	output []byte
	err    error

	mutex   sync.Mutex
	options []batch.Options
}

func (f *fakeRunner) Generate(ctx context.Context, options batch.Options, progress batch.ProgressFunc) ([]byte, error) {
	f.mutex.Lock()
	f.options = append(f.options, options)
	f.mutex.Unlock()

	if progress != nil {
		_ = progress(ctx, "generated 1 of 1 units")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func testBot(t *testing.T, runner BatchRunner) (*Bot, *fakeAPI, SessionStore) {
	t.Helper()
	api := &fakeAPI{}
	sessions := NewMemorySessionStore(30*time.Minute, nil)
	b := New(Config{
		API:      api,
		Runner:   runner,
		Sessions: sessions,
		MaxUnits: 200,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return b, api, sessions
}

func send(b *Bot, chatID int64, text string) {
	b.handleMessage(context.Background(), &chat.Message{
		MessageID: 1,
		Chat:      chat.Chat{ID: chatID},
		Text:      text,
	})
}

func TestDialogFullFlow(t *testing.T) {
	runner := &fakeRunner{output: []byte("outer archive bytes")}
	b, api, sessions := testBot(t, runner)

	send(b, 55, "/generate")
	if got := api.lastSent(t); !strings.Contains(got, "How many") {
		t.Errorf("count prompt = %q", got)
	}

	send(b, 55, "5")
	if got := api.lastSent(t); !strings.Contains(got, "First name") {
		t.Errorf("first-name prompt = %q", got)
	}

	send(b, 55, "ahsan")
	if got := api.lastSent(t); !strings.Contains(got, "Last name") {
		t.Errorf("last-name prompt = %q", got)
	}

	send(b, 55, "random")
	if got := api.lastSent(t); !strings.Contains(got, "Date text") {
		t.Errorf("date prompt = %q", got)
	}

	send(b, 55, "default")
	b.jobs.Wait()

	if len(runner.options) != 1 {
		t.Fatalf("runner called %d times, want 1", len(runner.options))
	}
	options := runner.options[0]
	if options.Count != 5 {
		t.Errorf("Count = %d, want 5", options.Count)
	}
	if options.FirstNameMode != batch.ModeFixed || options.FixedFirstName != "ahsan" {
		t.Errorf("first name options = %q mode %q", options.FixedFirstName, options.FirstNameMode)
	}
	if options.LastNameMode != batch.ModeRandom {
		t.Errorf("LastNameMode = %q, want random", options.LastNameMode)
	}
	if options.DateText != "" {
		t.Errorf("DateText = %q, want empty (default)", options.DateText)
	}

	if len(api.documents) != 1 {
		t.Fatalf("sent %d documents, want 1", len(api.documents))
	}
	document := api.documents[0]
	if document.filename != "batch.zip" || string(document.content) != "outer archive bytes" {
		t.Errorf("document = %+v", document)
	}

	// Progress edits went into the status message.
	if len(api.edits) == 0 || api.edits[0] != "generated 1 of 1 units" {
		t.Errorf("edits = %v", api.edits)
	}

	// The session is gone once the job finished.
	if _, ok := sessions.Get(55); ok {
		t.Error("session survived job completion")
	}
}

func TestDialogRejectsBadCount(t *testing.T) {
	b, api, sessions := testBot(t, &fakeRunner{})

	send(b, 55, "/generate")
	for _, input := range []string{"zero", "0", "201", "-3"} {
		send(b, 55, input)
		if got := api.lastSent(t); !strings.Contains(got, "between 1 and 200") {
			t.Errorf("reply to %q = %q, want a re-prompt", input, got)
		}
	}

	// The session is still waiting for a count.
	session, ok := sessions.Get(55)
	if !ok || session.Stage != StageCount {
		t.Errorf("session = %+v, want StageCount", session)
	}

	// A valid count still advances.
	send(b, 55, "10")
	session, _ = sessions.Get(55)
	if session.Stage != StageFirstName || session.Options.Count != 10 {
		t.Errorf("session after valid count = %+v", session)
	}
}

func TestDialogCancel(t *testing.T) {
	b, api, sessions := testBot(t, &fakeRunner{})

	send(b, 55, "/generate")
	send(b, 55, "5")
	send(b, 55, "/cancel")

	if got := api.lastSent(t); got != "Cancelled." {
		t.Errorf("cancel reply = %q", got)
	}
	if _, ok := sessions.Get(55); ok {
		t.Error("session survived /cancel")
	}

	// Input after cancel gets the hint, not a dialog step.
	send(b, 55, "7")
	if got := api.lastSent(t); !strings.Contains(got, "/generate") {
		t.Errorf("post-cancel reply = %q", got)
	}
}

func TestDialogFailureSurfacesErrorVerbatim(t *testing.T) {
	runner := &fakeRunner{err: errors.New("fetching template from \"https://example.com/t.zip\": connection refused")}
	b, api, sessions := testBot(t, runner)

	send(b, 55, "/generate")
	send(b, 55, "1")
	send(b, 55, "ahsan")
	send(b, 55, "khan")
	send(b, 55, "default")
	b.jobs.Wait()

	if got := api.lastSent(t); got != runner.err.Error() {
		t.Errorf("failure reply = %q, want the error verbatim", got)
	}
	if len(api.documents) != 0 {
		t.Error("a document was sent despite the failure")
	}
	if _, ok := sessions.Get(55); ok {
		t.Error("session survived job failure")
	}
}

func TestDialogRejectsInputWhileRunning(t *testing.T) {
	b, api, sessions := testBot(t, &fakeRunner{})

	sessions.Put(&Session{ChatID: 55, Stage: StageRunning})

	send(b, 55, "3")
	if got := api.lastSent(t); !strings.Contains(got, "already running") {
		t.Errorf("reply = %q", got)
	}

	send(b, 55, "/generate")
	if got := api.lastSent(t); !strings.Contains(got, "already running") {
		t.Errorf("reply to /generate while running = %q", got)
	}
}

func TestDialogIndependentChats(t *testing.T) {
	b, _, sessions := testBot(t, &fakeRunner{})

	send(b, 55, "/generate")
	send(b, 66, "/generate")
	send(b, 55, "5")
	send(b, 66, "9")

	first, _ := sessions.Get(55)
	second, _ := sessions.Get(66)
	if first.Options.Count != 5 || second.Options.Count != 9 {
		t.Errorf("counts = %d, %d; want 5, 9", first.Options.Count, second.Options.Count)
	}
}

func TestDialogCustomDateText(t *testing.T) {
	runner := &fakeRunner{output: []byte("x")}
	b, _, _ := testBot(t, runner)

	send(b, 55, "/generate")
	send(b, 55, "1")
	send(b, 55, "random")
	send(b, 55, "random")
	send(b, 55, "14/08/2031")
	b.jobs.Wait()

	if len(runner.options) != 1 {
		t.Fatalf("runner called %d times", len(runner.options))
	}
	if runner.options[0].DateText != "14/08/2031" {
		t.Errorf("DateText = %q", runner.options[0].DateText)
	}
}
