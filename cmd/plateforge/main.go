// Copyright 2026 The Plateforge Authors
// SPDX-License-Identifier: Apache-2.0

// plateforge generates one document batch from the command line,
// without the chat front-end, and writes the outer archive to disk.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/plateforge/plateforge/lib/batch"
	"github.com/plateforge/plateforge/lib/config"
	"github.com/plateforge/plateforge/lib/process"
	"github.com/plateforge/plateforge/lib/version"
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
		count       int
		firstName   string
		lastName    string
		dateText    string
		templateURL string
		outputPath  string
	)
	pflag.StringVar(&configPath, "config", "", "path to the configuration file (overrides PLATEFORGE_CONFIG)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.IntVar(&count, "count", 1, "number of documents to generate")
	pflag.StringVar(&firstName, "first", "random", `first name: "random" or a fixed value`)
	pflag.StringVar(&lastName, "last", "random", `last name: "random" or a fixed value`)
	pflag.StringVar(&dateText, "date", "", "date text (empty uses the default "+batch.DefaultDateText+")")
	pflag.StringVar(&templateURL, "template-url", "", "template source URL (overrides configuration)")
	pflag.StringVar(&outputPath, "output", "batch.zip", "output archive path")
	pflag.Parse()

	if showVersion {
		version.Print("plateforge")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if templateURL != "" {
		cfg.Template.URL = templateURL
	}
	if count < 1 || count > cfg.Template.MaxUnits {
		return fmt.Errorf("count %d is outside [1, %d]", count, cfg.Template.MaxUnits)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	options := batch.Options{
		Count:    count,
		DateText: dateText,
	}
	options.FirstNameMode, options.FixedFirstName = nameOption(firstName)
	options.LastNameMode, options.FixedLastName = nameOption(lastName)

	batcher := batch.NewBatcher(batch.BatcherConfig{
		TemplateURL:      cfg.Template.URL,
		CompressionLevel: cfg.Template.CompressionLevel,
		Logger:           logger,
	})

	progress := func(_ context.Context, message string) error {
		logger.Info(message)
		return nil
	}

	output, err := batcher.Generate(ctx, options, progress)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, output, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}
	logger.Info("batch written", "path", outputPath, "units", count, "bytes", len(output))
	return nil
}

func nameOption(value string) (batch.NameMode, string) {
	if strings.EqualFold(value, "random") {
		return batch.ModeRandom, ""
	}
	return batch.ModeFixed, value
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
