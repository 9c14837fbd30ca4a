package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"scribe/internal/audio"
	"scribe/internal/config"
	"scribe/internal/fileutil"
	"scribe/internal/ipc"
	"scribe/internal/notifications"
	"scribe/internal/queue"
)

const defaultRecordingName = "recorded_audio.wav"

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var durationSeconds int
	var deviceIndex int
	var outputPath string
	var enqueue bool
	var transcribeAfter bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record audio from the microphone",
		Long: "Record audio from the configured input device to a WAV file. " +
			"Without --duration the capture runs until Enter is pressed or the process is interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if enqueue && transcribeAfter {
				return fmt.Errorf("specify only one of --enqueue or --transcribe")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			index := cfg.Audio.DeviceIndex
			if cmd.Flags().Changed("device") {
				index = deviceIndex
			}
			devices, err := audio.ListCaptureDevices()
			if err != nil {
				return fmt.Errorf("enumerate capture devices: %w", err)
			}
			device, err := audio.SelectDevice(devices, index)
			if err != nil {
				return err
			}

			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = filepath.Join(cfg.Paths.RecordingsDir, defaultRecordingName)
			} else {
				expanded, expandErr := config.ExpandPath(target)
				if expandErr != nil {
					return fmt.Errorf("resolve output path: %w", expandErr)
				}
				target = expanded
			}

			duration := time.Duration(durationSeconds) * time.Second
			if duration <= 0 && cfg.Audio.MaxRecordSeconds > 0 {
				duration = time.Duration(cfg.Audio.MaxRecordSeconds) * time.Second
			}

			recorder, err := audio.NewRecorder(audio.RecorderOptions{
				Device:     device,
				SampleRate: cfg.Audio.SampleRate,
				Channels:   cfg.Audio.Channels,
			})
			if err != nil {
				return fmt.Errorf("open capture device: %w", err)
			}
			defer recorder.Close()

			stdout := cmd.OutOrStdout()
			deviceName := "default input device"
			if device != nil {
				deviceName = device.Name
			}
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if duration > 0 {
				fmt.Fprintf(stdout, "Recording from %s for %s...\n", deviceName, duration)
			} else {
				fmt.Fprintf(stdout, "Recording from %s; press Enter or Ctrl-C to stop...\n", deviceName)
				stopOnLine(cmd.InOrStdin(), cancel)
				go reportCaptureProgress(signalCtx, stdout, recorder)
			}

			clip, err := recorder.Record(signalCtx, duration)
			if err != nil {
				return fmt.Errorf("record: %w", err)
			}
			if err := audio.WriteWAV(target, clip); err != nil {
				return fmt.Errorf("write recording: %w", err)
			}
			fmt.Fprintf(stdout, "Saved %s (%s)\n", target, clip.Duration().Round(time.Millisecond))

			if cfg.Audio.ArchiveRecordings {
				archivePath := filepath.Join(cfg.Paths.RecordingsDir, uuid.NewString()+".wav")
				if copyErr := fileutil.CopyFile(target, archivePath); copyErr != nil {
					fmt.Fprintf(stdout, "warn: archive recording: %v\n", copyErr)
				} else {
					fmt.Fprintf(stdout, "Archived %s\n", archivePath)
				}
			}

			notifier := notifications.NewService(cfg)
			title := queue.InferTitleFromPath(target)
			if notifyErr := notifier.NotifyRecordingSaved(cmd.Context(), title, clip.Duration()); notifyErr != nil {
				fmt.Fprintf(stdout, "warn: notification: %v\n", notifyErr)
			}

			switch {
			case enqueue:
				return enqueueRecording(ctx, cmd, target)
			case transcribeAfter:
				return transcribeInline(ctx, cmd, target)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&durationSeconds, "duration", "d", 0, "Recording length in seconds (0 records until stopped)")
	cmd.Flags().IntVar(&deviceIndex, "device", -1, "Capture device index (see `scribe devices`)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output WAV path (default recordings dir/"+defaultRecordingName+")")
	cmd.Flags().BoolVar(&enqueue, "enqueue", false, "Add the recording to the transcription queue")
	cmd.Flags().BoolVar(&transcribeAfter, "transcribe", false, "Transcribe the recording immediately and print the text")
	return cmd
}

// captureStatusInterval is how often an open-ended capture reports progress.
const captureStatusInterval = 15 * time.Second

// stopOnLine invokes stop once a full line of input arrives. EOF leaves the
// capture running so a closed or piped stdin still records until a signal.
func stopOnLine(r io.Reader, stop func()) {
	go func() {
		if _, err := bufio.NewReader(r).ReadString('\n'); err == nil {
			stop()
		}
	}()
}

func reportCaptureProgress(ctx context.Context, w io.Writer, recorder *audio.Recorder) {
	ticker := time.NewTicker(captureStatusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprintf(w, "  %s recorded, input level %.0f%%\n",
				recorder.Elapsed().Round(time.Second), recorder.Level()*100)
		}
	}
}

func enqueueRecording(ctx *commandContext, cmd *cobra.Command, path string) error {
	return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
		stdout := cmd.OutOrStdout()
		if client != nil {
			resp, err := client.QueueAdd(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Queued job #%d (%s)\n", resp.Job.ID, resp.Job.Title)
			return nil
		}
		cfg := ctx.configValue()
		job, err := store.NewRecording(cmd.Context(), path, cfg.Whisper.Model, cfg.Whisper.Language)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Queued job #%d (%s); start the daemon with `scribe start` to process it\n", job.ID, job.Title)
		return nil
	})
}
