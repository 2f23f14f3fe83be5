// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// plateforge-bot is the daemon binary: it runs the chat front-end and
// the VIP list HTTP API under one signal-cancelled context.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/plateforge/plateforge/bot"
	"github.com/plateforge/plateforge/chat"
	"github.com/plateforge/plateforge/httpapi"
	"github.com/plateforge/plateforge/lib/batch"
	"github.com/plateforge/plateforge/lib/config"
	"github.com/plateforge/plateforge/lib/process"
	"github.com/plateforge/plateforge/lib/secret"
	"github.com/plateforge/plateforge/lib/version"
	"github.com/plateforge/plateforge/viplist"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)
	pflag.StringVar(&configPath, "config", "", "path to the configuration file (overrides PLATEFORGE_CONFIG)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		version.Print("plateforge-bot")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Secrets are read before anything binds or connects, so a typo
	// in a path fails fast.
	botToken, err := readSecret(cfg.Bot.TokenFile, "bot token: ")
	if err != nil {
		return fmt.Errorf("reading bot token: %w", err)
	}
	defer botToken.Close()

	adminCode, err := readSecret(cfg.HTTP.AdminCodeFile, "admin code: ")
	if err != nil {
		return fmt.Errorf("reading admin code: %w", err)
	}
	defer adminCode.Close()

	var storeKey *secret.Buffer
	if cfg.Store.Encrypt {
		storeKey, err = viplist.DeriveSnapshotKey(adminCode)
		if err != nil {
			return err
		}
		defer storeKey.Close()
	}

	store, err := viplist.NewFileStore(viplist.FileStoreConfig{
		Path:   cfg.Store.Path,
		Key:    storeKey,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	apiServer := httpapi.NewServer(httpapi.ServerConfig{
		Address: cfg.HTTP.Address,
		Handler: httpapi.NewHandler(httpapi.HandlerConfig{
			Store:     store,
			AdminCode: adminCode,
			Logger:    logger,
		}),
		Logger: logger,
	})

	// The poll client's timeout must outlast the long-poll window.
	chatClient, err := chat.NewClient(chat.ClientConfig{
		BaseURL: cfg.Bot.APIBaseURL,
		Token:   botToken,
		HTTPClient: &http.Client{
			Timeout: time.Duration(cfg.Bot.PollTimeoutSeconds+15) * time.Second,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	batcher := batch.NewBatcher(batch.BatcherConfig{
		TemplateURL:      cfg.Template.URL,
		CompressionLevel: cfg.Template.CompressionLevel,
		Logger:           logger,
	})

	sessions := bot.NewMemorySessionStore(time.Duration(cfg.Bot.SessionTTLMinutes)*time.Minute, nil)
	go sessions.Sweep(ctx)

	frontend := bot.New(bot.Config{
		API:                chatClient,
		Runner:             batcher,
		Sessions:           sessions,
		MaxUnits:           cfg.Template.MaxUnits,
		PollTimeoutSeconds: cfg.Bot.PollTimeoutSeconds,
		Logger:             logger,
	})

	httpDone := make(chan error, 1)
	go func() {
		httpDone <- apiServer.Serve(ctx)
	}()

	select {
	case <-apiServer.Ready():
		logger.Info("vip api ready", "address", apiServer.Addr().String())
	case err := <-httpDone:
		return err
	case <-ctx.Done():
		return nil
	}

	botDone := make(chan error, 1)
	go func() {
		botDone <- frontend.Run(ctx)
	}()

	logger.Info("plateforge-bot running",
		"http_address", cfg.HTTP.Address,
		"max_units", cfg.Template.MaxUnits,
		"store_encrypted", cfg.Store.Encrypt,
	)

	// Either component failing, or a signal, brings the whole daemon
	// down.
	var firstErr error
	select {
	case firstErr = <-botDone:
		stop()
		<-httpDone
	case firstErr = <-httpDone:
		stop()
		<-botDone
	case <-ctx.Done():
		<-httpDone
		<-botDone
	}
	return firstErr
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// readSecret loads a secret from the configured path, falling back to
// a terminal prompt when no path is configured.
func readSecret(path, prompt string) (*secret.Buffer, error) {
	if path != "" {
		return secret.ReadFromPath(path)
	}
	return secret.Prompt(prompt)
}
