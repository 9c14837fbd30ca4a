package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scribe/internal/ipc"
	"scribe/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the transcription queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueClearFailedCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				stats := make(map[string]int)
				if client != nil {
					status, err := client.Status()
					if err != nil {
						return err
					}
					for name, count := range status.QueueStats {
						stats[name] = count
					}
				} else {
					storeStats, err := store.Stats(cmd.Context())
					if err != nil {
						return err
					}
					for status, count := range storeStats {
						stats[string(status)] = count
					}
				}

				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Reject bad filters before dispatch so the daemon and the
			// direct store path behave the same.
			var statuses []queue.Status
			for _, raw := range listStatuses {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown queue status %q", raw)
				}
				statuses = append(statuses, status)
			}
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				var jobs []ipc.QueueJob
				if client != nil {
					resp, err := client.QueueList(listStatuses)
					if err != nil {
						return err
					}
					jobs = resp.Jobs
				} else {
					stored, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					for _, job := range stored {
						jobs = append(jobs, ipc.FromJob(job))
					}
				}

				stdout := cmd.OutOrStdout()
				if jsonOutput {
					encoded, err := json.MarshalIndent(jobs, "", "  ")
					if err != nil {
						return err
					}
					fmt.Fprintln(stdout, string(encoded))
					return nil
				}

				if len(jobs) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Status", "Progress", "Created"},
					buildQueueListRows(jobs),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				var removed int64
				var err error
				switch {
				case clearCompleted && client != nil:
					var resp *ipc.QueueClearCompletedResponse
					resp, err = client.QueueClearCompleted()
					if resp != nil {
						removed = resp.Removed
					}
				case clearCompleted:
					removed, err = store.ClearCompleted(cmd.Context())
				case client != nil:
					var resp *ipc.QueueClearResponse
					resp, err = client.QueueClear()
					if resp != nil {
						removed = resp.Removed
					}
				default:
					removed, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				if clearCompleted {
					fmt.Fprintf(out, "Cleared %d completed jobs\n", removed)
				} else {
					fmt.Fprintf(out, "Cleared %d jobs\n", removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed jobs")
	return cmd
}

func newQueueClearFailedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-failed",
		Short: "Remove failed queue jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				var removed int64
				var err error
				if client != nil {
					var resp *ipc.QueueClearFailedResponse
					resp, err = client.QueueClearFailed()
					if resp != nil {
						removed = resp.Removed
					}
				} else {
					removed, err = store.ClearFailed(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d failed jobs\n", removed)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Retry failed queue jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				if client != nil {
					resp, retryErr := client.QueueRetry(ids)
					if retryErr != nil {
						return retryErr
					}
					updated = resp.Updated
				} else {
					var retryErr error
					updated, retryErr = store.RetryFailed(cmd.Context(), ids...)
					if retryErr != nil {
						return retryErr
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d jobs\n", updated)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id...>",
		Short: "Remove specific queue jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseJobIDs(args)
			if err != nil {
				return err
			}
			return ctx.withQueue(func(client *ipc.Client, store *queue.Store) error {
				var removed int64
				if client != nil {
					resp, removeErr := client.QueueRemove(ids)
					if removeErr != nil {
						return removeErr
					}
					removed = resp.Removed
				} else {
					for _, id := range ids {
						ok, removeErr := store.Remove(cmd.Context(), id)
						if removeErr != nil {
							return removeErr
						}
						if ok {
							removed++
						}
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d jobs\n", removed)
				return nil
			})
		},
	}
}

func parseJobIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid job id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func buildQueueStatusRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		if count, ok := stats[string(status)]; ok && count > 0 {
			rows = append(rows, []string{string(status), strconv.Itoa(count)})
		}
	}

	// Preserve anything the daemon reports that is not a known status.
	extras := make([]string, 0)
	for name, count := range stats {
		if _, ok := queue.ParseStatus(name); !ok && count > 0 {
			extras = append(extras, name)
		}
	}
	sort.Strings(extras)
	for _, name := range extras {
		rows = append(rows, []string{name, strconv.Itoa(stats[name])})
	}
	return rows
}

func buildQueueListRows(jobs []ipc.QueueJob) [][]string {
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		created := job.CreatedAt
		if parsed, err := time.Parse(time.RFC3339, job.CreatedAt); err == nil {
			created = parsed.Local().Format("2006-01-02 15:04")
		}
		progress := job.ProgressStage
		if job.Status == string(queue.StatusFailed) && strings.TrimSpace(job.ErrorMessage) != "" {
			progress = job.ErrorMessage
		} else if job.ProgressPercent > 0 {
			progress = fmt.Sprintf("%s (%.0f%%)", job.ProgressStage, job.ProgressPercent)
		}
		rows = append(rows, []string{
			strconv.FormatInt(job.ID, 10),
			job.Title,
			job.Status,
			progress,
			created,
		})
	}
	return rows
}
