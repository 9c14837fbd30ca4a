package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"scribe/internal/config"
	"scribe/internal/logging"
	"scribe/internal/notifications"
	"scribe/internal/queue"
	"scribe/internal/stageexec"
	"scribe/internal/transcriber"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var enqueue bool

	cmd := &cobra.Command{
		Use:   "transcribe <file>",
		Short: "Transcribe an audio file",
		Long: "Transcribe a WAV or other audio file. Non-WAV input is converted " +
			"through ffmpeg first. By default the transcription runs inline and the " +
			"text is printed; --enqueue hands the file to the daemon queue instead.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := config.ExpandPath(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			if enqueue {
				return enqueueRecording(ctx, cmd, source)
			}
			return transcribeInline(ctx, cmd, source)
		},
	}

	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Queue the file for the daemon instead of transcribing inline")
	return cmd
}

func transcribeInline(ctx *commandContext, cmd *cobra.Command, source string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	absPath, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("resolve source path: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	notifier := notifications.NewService(cfg)
	handler, err := transcriber.New(cfg, store, logger, notifier)
	if err != nil {
		return fmt.Errorf("configure transcriber: %w", err)
	}

	job, err := store.NewRecording(cmd.Context(), absPath, cfg.Whisper.Model, cfg.Whisper.Language)
	if err != nil {
		return fmt.Errorf("create transcription job: %w", err)
	}

	if runErr := stageexec.Run(cmd.Context(), stageexec.Options{
		Logger:   logger,
		Store:    store,
		Notifier: notifier,
		Handler:  handler,
		Job:      job,
	}); runErr != nil {
		return runErr
	}

	stdout := cmd.OutOrStdout()
	if job.TranscriptPath != "" {
		fmt.Fprintf(stdout, "Transcript: %s\n", job.TranscriptPath)
	}
	text := strings.TrimSpace(job.TranscriptText)
	if text == "" {
		fmt.Fprintln(stdout, "No speech detected")
		return nil
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, text)
	return nil
}
