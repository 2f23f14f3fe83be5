// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/plateforge/plateforge/chat"
	"github.com/plateforge/plateforge/lib/batch"
)

// pollRetryDelay is how long the poll loop waits after a failed
// getUpdates call before retrying.
const pollRetryDelay = 3 * time.Second

// outputFilename is the name of the uploaded outer archive.
const outputFilename = "batch.zip"

// BatchRunner runs one generation job. *batch.Batcher implements it;
// tests substitute a fake.
type BatchRunner interface {
	Generate(ctx context.Context, options batch.Options, progress batch.ProgressFunc) ([]byte, error)
}

// Config configures a Bot.
type Config struct {
	// API is the chat transport. Required.
	API chat.API

	// Runner generates batches. Required.
	Runner BatchRunner

	// Sessions holds in-progress dialogs. Required.
	Sessions SessionStore

	// MaxUnits caps the per-batch unit count. Required, 1–200.
	MaxUnits int

	// PollTimeoutSeconds is the long-poll window. Defaults to 30.
	PollTimeoutSeconds int

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// Bot drives the conversational front-end.
type Bot struct {
	api         chat.API
	runner      BatchRunner
	sessions    SessionStore
	maxUnits    int
	pollTimeout int
	logger      *slog.Logger

	// jobs tracks in-flight generation goroutines so Run can drain
	// them on shutdown.
	jobs sync.WaitGroup
}

// New creates a Bot. Panics on missing required config.
func New(config Config) *Bot {
	if config.API == nil {
		panic("bot: API is required")
	}
	if config.Runner == nil {
		panic("bot: Runner is required")
	}
	if config.Sessions == nil {
		panic("bot: Sessions is required")
	}
	if config.MaxUnits < 1 || config.MaxUnits > 200 {
		panic("bot: MaxUnits must be in [1,200]")
	}
	if config.Logger == nil {
		panic("bot: Logger is required")
	}

	pollTimeout := config.PollTimeoutSeconds
	if pollTimeout == 0 {
		pollTimeout = 30
	}

	return &Bot{
		api:         config.API,
		runner:      config.Runner,
		sessions:    config.Sessions,
		maxUnits:    config.MaxUnits,
		pollTimeout: pollTimeout,
		logger:      config.Logger,
	}
}

// Run long-polls for updates until ctx is cancelled, then waits for
// in-flight jobs to finish.
func (b *Bot) Run(ctx context.Context) error {
	me, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("verifying bot identity: %w", err)
	}
	b.logger.Info("bot online", "username", me.Username, "id", me.ID)

	var offset int64
	for {
		if ctx.Err() != nil {
			break
		}

		updates, err := b.api.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			b.logger.Warn("update poll failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}

	b.logger.Info("bot shutting down, draining jobs")
	b.jobs.Wait()
	return nil
}

// handleMessage advances one chat's dialog by one step.
func (b *Bot) handleMessage(ctx context.Context, message *chat.Message) {
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch text {
	case "/start":
		b.reply(ctx, chatID, "This bot generates document batches from a plate template. Send /generate to begin, /cancel to abandon a dialog.")
		return
	case "/cancel":
		b.sessions.Delete(chatID)
		b.reply(ctx, chatID, "Cancelled.")
		return
	case "/generate":
		session, ok := b.sessions.Get(chatID)
		if ok && session.Stage == StageRunning {
			b.reply(ctx, chatID, "A batch is already running for this chat. Wait for it to finish.")
			return
		}
		b.sessions.Put(&Session{ChatID: chatID, Stage: StageCount})
		b.reply(ctx, chatID, fmt.Sprintf("How many documents? (1–%d)", b.maxUnits))
		return
	}

	session, ok := b.sessions.Get(chatID)
	if !ok {
		b.reply(ctx, chatID, "Send /generate to start a batch.")
		return
	}

	switch session.Stage {
	case StageCount:
		b.handleCount(ctx, session, text)
	case StageFirstName:
		b.handleName(ctx, session, text, true)
	case StageLastName:
		b.handleName(ctx, session, text, false)
	case StageDate:
		b.handleDate(ctx, session, text)
	case StageRunning:
		b.reply(ctx, chatID, "A batch is already running for this chat. Wait for it to finish.")
	}
}

func (b *Bot) handleCount(ctx context.Context, session *Session, text string) {
	count, err := strconv.Atoi(text)
	if err != nil || count < 1 || count > b.maxUnits {
		b.reply(ctx, session.ChatID, fmt.Sprintf("Send a number between 1 and %d.", b.maxUnits))
		return
	}

	session.Options.Count = count
	session.Stage = StageFirstName
	b.sessions.Put(session)
	b.reply(ctx, session.ChatID, "First name: send \"random\" or a fixed value.")
}

func (b *Bot) handleName(ctx context.Context, session *Session, text string, first bool) {
	mode := batch.ModeFixed
	if strings.EqualFold(text, "random") {
		mode = batch.ModeRandom
		text = ""
	}

	if first {
		session.Options.FirstNameMode = mode
		session.Options.FixedFirstName = text
		session.Stage = StageLastName
		b.sessions.Put(session)
		b.reply(ctx, session.ChatID, "Last name: send \"random\" or a fixed value.")
		return
	}

	session.Options.LastNameMode = mode
	session.Options.FixedLastName = text
	session.Stage = StageDate
	b.sessions.Put(session)
	b.reply(ctx, session.ChatID, fmt.Sprintf("Date text: send a value, or \"default\" for %s.", batch.DefaultDateText))
}

func (b *Bot) handleDate(ctx context.Context, session *Session, text string) {
	if strings.EqualFold(text, "default") {
		text = ""
	}
	session.Options.DateText = text
	session.Stage = StageRunning
	b.sessions.Put(session)

	options := session.Options
	b.jobs.Add(1)
	go func() {
		defer b.jobs.Done()
		b.runJob(ctx, session.ChatID, options)
	}()
}

// runJob runs one batch for a chat: post a status message, feed
// progress into it by editing, then upload the archive or surface the
// failure. Either way the session is discarded at the end.
func (b *Bot) runJob(ctx context.Context, chatID int64, options batch.Options) {
	defer b.sessions.Delete(chatID)

	status, err := b.api.SendMessage(ctx, chatID, fmt.Sprintf("Generating %d documents...", options.Count))
	if err != nil {
		b.logger.Warn("sending status message", "chat_id", chatID, "error", err)
	}

	progress := func(ctx context.Context, message string) error {
		if status == nil {
			return nil
		}
		_, err := b.api.EditMessageText(ctx, chatID, status.MessageID, message)
		return err
	}

	output, err := b.runner.Generate(ctx, options, progress)
	if err != nil {
		b.logger.Error("batch failed", "chat_id", chatID, "error", err)
		// The failure message goes to the operator verbatim.
		b.reply(ctx, chatID, err.Error())
		return
	}

	caption := fmt.Sprintf("%d documents", options.Count)
	if _, err := b.api.SendDocument(ctx, chatID, outputFilename, output, caption); err != nil {
		b.logger.Error("uploading batch", "chat_id", chatID, "error", err)
		b.reply(ctx, chatID, "The batch was generated but the upload failed. Try again.")
		return
	}
	b.logger.Info("batch delivered", "chat_id", chatID, "units", options.Count, "bytes", len(output))
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.api.SendMessage(ctx, chatID, text); err != nil {
		b.logger.Warn("sending reply", "chat_id", chatID, "error", err)
	}
}
