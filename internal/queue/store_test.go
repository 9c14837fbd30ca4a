package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"scribe/internal/queue"
	"scribe/internal/testsupport"
)

func TestOpenCreatesSchemaAndInserts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewRecording(ctx, "/tmp/standup_notes.wav", "base", "en")
	if err != nil {
		t.Fatalf("NewRecording failed: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("expected pending status, got %s", job.Status)
	}
	if job.Title != "Standup Notes" {
		t.Fatalf("unexpected inferred title: %q", job.Title)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourcePath != "/tmp/standup_notes.wav" {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}
	if fetched.Model != "base" || fetched.Language != "en" {
		t.Fatalf("expected model and language persisted, got %#v", fetched)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewRecording(t, store, "/tmp/interview.wav")

	job.Status = queue.StatusCompleted
	job.TranscriptPath = "/tmp/interview.txt"
	job.TranscriptText = "hello world"
	job.DurationSeconds = 12.5
	job.SetProgressComplete("Transcribed", "Transcript saved")
	heartbeat := time.Now().UTC()
	job.LastHeartbeat = &heartbeat
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	updated, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if updated.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if updated.TranscriptText != "hello world" {
		t.Fatalf("unexpected transcript text: %q", updated.TranscriptText)
	}
	if updated.DurationSeconds != 12.5 {
		t.Fatalf("unexpected duration: %v", updated.DurationSeconds)
	}
	if updated.ProgressPercent != 100 {
		t.Fatalf("expected 100%% progress, got %v", updated.ProgressPercent)
	}
	if updated.LastHeartbeat == nil {
		t.Fatal("expected heartbeat persisted")
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		job := testsupport.NewRecording(t, store, fmt.Sprintf("/tmp/clip-%d.wav", i))
		job.Status = queue.StatusTranscribing
		heartbeat := time.Now().UTC()
		job.LastHeartbeat = &heartbeat
		if err := store.Update(ctx, job); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, job.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 jobs reset, got %d", count)
	}

	for _, id := range ids {
		updated, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if updated.Status != queue.StatusPending {
			t.Fatalf("expected pending after reset, got %s", updated.Status)
		}
		if updated.LastHeartbeat != nil {
			t.Fatal("expected heartbeat cleared")
		}
	}
}

func TestRetryFailedSelectsOnlyFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	failed := testsupport.NewRecording(t, store, "/tmp/failed.wav")
	failed.SetFailed("whisper exited with status 1")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	done := testsupport.NewRecording(t, store, "/tmp/done.wav")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 job retried, got %d", count)
	}

	retried, err := store.GetByID(ctx, failed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retried.Status != queue.StatusPending {
		t.Fatalf("expected pending, got %s", retried.Status)
	}
	if retried.ErrorMessage != "" {
		t.Fatalf("expected error message cleared, got %q", retried.ErrorMessage)
	}

	untouched, err := store.GetByID(ctx, done.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if untouched.Status != queue.StatusCompleted {
		t.Fatalf("expected completed untouched, got %s", untouched.Status)
	}
}

func TestRetryFailedByID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewRecording(t, store, "/tmp/a.wav")
	first.SetFailed("boom")
	if err := store.Update(ctx, first); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	second := testsupport.NewRecording(t, store, "/tmp/b.wav")
	second.SetFailed("boom")
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.RetryFailed(ctx, first.ID)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 job retried, got %d", count)
	}
	still, err := store.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if still.Status != queue.StatusFailed {
		t.Fatalf("expected second job untouched, got %s", still.Status)
	}
}

func TestListAndNextOrdering(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	a := testsupport.NewRecording(t, store, "/tmp/a.wav")
	b := testsupport.NewRecording(t, store, "/tmp/b.wav")
	b.Status = queue.StatusCompleted
	if err := store.Update(ctx, b); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}

	pending, err := store.List(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("List by status failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != a.ID {
		t.Fatalf("unexpected pending jobs: %#v", pending)
	}

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != a.ID {
		t.Fatalf("expected oldest pending job, got %#v", next)
	}
}

func TestClearVariants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewRecording(t, store, "/tmp/pending.wav")
	failed := testsupport.NewRecording(t, store, "/tmp/failed.wav")
	failed.SetFailed("boom")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	removed, err := store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 failed job removed, got %d", removed)
	}

	removed, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 remaining job removed, got %d", removed)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 0 {
		t.Fatalf("expected empty queue, got %+v", health)
	}
}

func TestRemove(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewRecording(t, store, "/tmp/remove.wav")

	ok, err := store.Remove(ctx, job.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !ok {
		t.Fatal("expected job removed")
	}
	ok, err = store.Remove(ctx, job.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if ok {
		t.Fatal("expected no job removed on second call")
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Transcribing "); !ok || status != queue.StatusTranscribing {
		t.Fatalf("unexpected parse result: %s %v", status, ok)
	}
	if _, ok := queue.ParseStatus("imaginary"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestInferTitleFromPath(t *testing.T) {
	cases := map[string]string{
		"/tmp/standup_notes.wav":      "Standup Notes",
		"/tmp/q3-planning-review.wav": "Q3 Planning Review",
		"recorded_audio.wav":          "Recorded Audio",
	}
	for input, want := range cases {
		if got := queue.InferTitleFromPath(input); got != want {
			t.Fatalf("InferTitleFromPath(%q) = %q, want %q", input, got, want)
		}
	}
}
