package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"scribe/internal/ipc"
	"scribe/internal/queue"
	"scribe/internal/testsupport"
)

func TestQueueStatusAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	alphaSource := filepath.Join(t.TempDir(), "alpha_take.wav")
	testsupport.WriteFile(t, alphaSource, 256)
	if _, err := env.store.NewRecording(ctx, alphaSource, "base", "en"); err != nil {
		t.Fatalf("alpha recording: %v", err)
	}

	betaSource := filepath.Join(t.TempDir(), "beta_take.wav")
	testsupport.WriteFile(t, betaSource, 256)
	beta, err := env.store.NewRecording(ctx, betaSource, "base", "en")
	if err != nil {
		t.Fatalf("beta recording: %v", err)
	}
	beta.SetFailed("transcription failed")
	if err := env.store.Update(ctx, beta); err != nil {
		t.Fatalf("beta failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	requireContains(t, out, "pending")
	requireContains(t, out, "failed")

	out, _, err = runCLI(t, []string{"queue", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	requireContains(t, out, "Alpha Take")
	requireContains(t, out, "Beta Take")

	out, _, err = runCLI(t, []string{"queue", "list", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list --json: %v", err)
	}
	var jobs []ipc.QueueJob
	if err := json.Unmarshal([]byte(out), &jobs); err != nil {
		t.Fatalf("decode JSON output: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs in JSON output, got %d", len(jobs))
	}

	out, _, err = runCLI(t, []string{"queue", "list", "--status", "failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue list --status: %v", err)
	}
	requireContains(t, out, "Beta Take")
	if strings.Contains(out, "Alpha Take") {
		t.Fatalf("failed filter should not include Alpha Take: %s", out)
	}
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"queue", "list", "--status", "bogus"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `unknown queue status "bogus"`) {
		t.Fatalf("expected unknown status error, got %v", err)
	}
}

func TestQueueRetryClearRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	source := filepath.Join(t.TempDir(), "clip.wav")
	testsupport.WriteFile(t, source, 256)
	job, err := env.store.NewRecording(ctx, source, "base", "en")
	if err != nil {
		t.Fatalf("recording: %v", err)
	}
	job.SetFailed("engine exploded")
	if err := env.store.Update(ctx, job); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	out, _, err := runCLI(t, []string{"queue", "retry"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue retry: %v", err)
	}
	requireContains(t, out, "Requeued 1 jobs")

	updated, err := env.store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("lookup job: %v", err)
	}
	if updated.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", updated.Status)
	}

	updated.SetFailed("engine exploded again")
	if err := env.store.Update(ctx, updated); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "clear-failed"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear-failed: %v", err)
	}
	requireContains(t, out, "Cleared 1 failed jobs")

	source2 := filepath.Join(t.TempDir(), "clip2.wav")
	testsupport.WriteFile(t, source2, 256)
	job2, err := env.store.NewRecording(ctx, source2, "base", "en")
	if err != nil {
		t.Fatalf("second recording: %v", err)
	}

	out, _, err = runCLI(t, []string{"queue", "remove", "1000"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Removed 0 jobs")

	out, _, err = runCLI(t, []string{"queue", "remove", strconv.FormatInt(job2.ID, 10)}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	requireContains(t, out, "Removed 1 jobs")

	out, _, err = runCLI(t, []string{"queue", "clear"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	requireContains(t, out, "Cleared 0 jobs")
}
