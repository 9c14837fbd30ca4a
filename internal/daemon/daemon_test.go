package daemon_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"scribe/internal/daemon"
	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/stage"
	"scribe/internal/testsupport"
	"scribe/internal/workflow"
)

type noopStage struct{}

func (noopStage) Prepare(context.Context, *queue.Job) error { return nil }
func (noopStage) Execute(context.Context, *queue.Job) error { return nil }
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("noop")
}

func newTestDaemon(t *testing.T) (*daemon.Daemon, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()
	mgr := workflow.NewManager(cfg, store, logger)
	mgr.ConfigureStages(workflow.StageSet{Transcriber: noopStage{}})
	d, err := daemon.New(cfg, store, logger, mgr, "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() {
		d.Close()
	})
	return d, store
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := newTestDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.PID <= 0 {
		t.Fatalf("expected a PID, got %d", status.PID)
	}
	if status.QueueDBPath == "" || status.LockFilePath == "" {
		t.Fatalf("expected populated paths, got %+v", status)
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	time.Sleep(50 * time.Millisecond)
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonAddFile(t *testing.T) {
	d, _ := newTestDaemon(t)
	ctx := context.Background()

	source := filepath.Join(t.TempDir(), "meeting.wav")
	testsupport.WriteFile(t, source, 256)

	job, err := d.AddFile(ctx, source)
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("expected pending job, got %s", job.Status)
	}
	if job.Title != "Meeting" {
		t.Fatalf("unexpected title %q", job.Title)
	}

	if _, err := d.AddFile(ctx, filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := d.AddFile(ctx, t.TempDir()); err == nil {
		t.Fatal("expected error for directory path")
	}

	jobs, err := d.ListQueue(ctx, nil)
	if err != nil {
		t.Fatalf("ListQueue failed: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
}

func TestDaemonQueueMaintenance(t *testing.T) {
	d, store := newTestDaemon(t)
	ctx := context.Background()

	source := filepath.Join(t.TempDir(), "clip.wav")
	testsupport.WriteFile(t, source, 256)

	job := testsupport.NewRecording(t, store, source)
	job.Status = queue.StatusFailed
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	updated, err := d.RetryFailed(ctx, nil)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 retried job, got %d", updated)
	}

	health, err := d.QueueHealth(ctx)
	if err != nil {
		t.Fatalf("QueueHealth failed: %v", err)
	}
	if health.Pending != 1 {
		t.Fatalf("expected 1 pending job, got %+v", health)
	}

	removed, err := d.ClearQueue(ctx)
	if err != nil {
		t.Fatalf("ClearQueue failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed job, got %d", removed)
	}
}
