package workflow_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/stage"
	"scribe/internal/testsupport"
	"scribe/internal/workflow"
)

type stubHandler struct {
	name    string
	execute func(context.Context, *queue.Job) error
}

func (s *stubHandler) Prepare(context.Context, *queue.Job) error { return nil }

func (s *stubHandler) Execute(ctx context.Context, job *queue.Job) error {
	if s.execute != nil {
		return s.execute(ctx, job)
	}
	return nil
}

func (s *stubHandler) HealthCheck(context.Context) stage.Health {
	return stage.Healthy(s.name)
}

func waitForStatus(t *testing.T, store *queue.Store, id int64, want queue.Status) *queue.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("job %d never reached status %s", id, want)
	return nil
}

func TestManagerProcessesPendingJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	handler := &stubHandler{name: "transcriber", execute: func(_ context.Context, job *queue.Job) error {
		job.TranscriptText = "done"
		job.SetProgressComplete("Transcribed", "Transcript saved")
		return nil
	}}

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Transcriber: handler})

	source := filepath.Join(t.TempDir(), "clip.wav")
	testsupport.WriteFile(t, source, 512)
	job := testsupport.NewRecording(t, store, source)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer mgr.Stop()

	processed := waitForStatus(t, store, job.ID, queue.StatusCompleted)
	if processed.TranscriptText != "done" {
		t.Fatalf("unexpected transcript text: %q", processed.TranscriptText)
	}
	if processed.ProgressPercent != 100 {
		t.Fatalf("expected 100%% progress, got %v", processed.ProgressPercent)
	}
}

func TestManagerMarksFailedJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	store := testsupport.MustOpenStore(t, cfg)

	handler := &stubHandler{name: "transcriber", execute: func(context.Context, *queue.Job) error {
		return errors.New("engine exploded")
	}}

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Transcriber: handler})

	source := filepath.Join(t.TempDir(), "clip.wav")
	testsupport.WriteFile(t, source, 512)
	job := testsupport.NewRecording(t, store, source)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer mgr.Stop()

	failed := waitForStatus(t, store, job.ID, queue.StatusFailed)
	if failed.ErrorMessage == "" {
		t.Fatal("expected error message recorded")
	}
}

func TestManagerRequiresConfiguredStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	if err := mgr.Start(context.Background()); err == nil {
		mgr.Stop()
		t.Fatal("expected error when no stages configured")
	}
}

func TestStatusSummaryIncludesStageHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	mgr := workflow.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(workflow.StageSet{Transcriber: &stubHandler{name: "transcriber"}})

	summary := mgr.Status(context.Background())
	if summary.Running {
		t.Fatal("expected manager not running")
	}
	health, ok := summary.StageHealth["transcriber"]
	if !ok || !health.Ready {
		t.Fatalf("expected healthy transcriber stage, got %#v", summary.StageHealth)
	}
}
