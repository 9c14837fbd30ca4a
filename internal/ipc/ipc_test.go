package ipc_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scribe/internal/daemon"
	"scribe/internal/ipc"
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
	return stage.Healthy("transcriber")
}

func TestIPCServerClient(t *testing.T) {
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

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	socket := filepath.Join(cfg.Paths.LogDir, "scribe.sock")
	srv, err := ipc.NewServer(ctx, socket, d, logger)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping IPC server test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		srv.Close()
	})

	time.Sleep(50 * time.Millisecond)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	ping, err := client.Ping()
	if err != nil {
		t.Fatalf("Ping RPC failed: %v", err)
	}
	if ping.PID <= 0 {
		t.Fatalf("expected a PID, got %d", ping.PID)
	}

	status, err := client.Status()
	if err != nil {
		t.Fatalf("Status RPC failed: %v", err)
	}
	if !status.Running {
		t.Fatal("expected daemon to be running")
	}
	if len(status.StageHealth) != 1 || status.StageHealth[0].Name != "transcriber" {
		t.Fatalf("unexpected stage health: %+v", status.StageHealth)
	}

	source := filepath.Join(t.TempDir(), "standup_notes.wav")
	testsupport.WriteFile(t, source, 256)
	added, err := client.QueueAdd(source)
	if err != nil {
		t.Fatalf("QueueAdd failed: %v", err)
	}
	if added.Job.Title != "Standup Notes" {
		t.Fatalf("unexpected title %q", added.Job.Title)
	}

	described, err := client.QueueDescribe(added.Job.ID)
	if err != nil {
		t.Fatalf("QueueDescribe failed: %v", err)
	}
	if described.Job.SourcePath != source {
		t.Fatalf("unexpected source %q", described.Job.SourcePath)
	}

	// Wait for the noop stage to drain the job so mutations below are stable.
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(ctx, added.Job.ID)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if job != nil && job.Status == queue.StatusCompleted {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	job, err := store.GetByID(ctx, added.Job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	job.SetFailed("transcription failed")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	retried, err := client.QueueRetry(nil)
	if err != nil {
		t.Fatalf("QueueRetry failed: %v", err)
	}
	if retried.Updated != 1 {
		t.Fatalf("expected 1 retried job, got %d", retried.Updated)
	}

	listed, err := client.QueueList([]string{string(queue.StatusPending), string(queue.StatusCompleted)})
	if err != nil {
		t.Fatalf("QueueList failed: %v", err)
	}
	if len(listed.Jobs) == 0 {
		t.Fatal("expected queue listing to include the job")
	}

	health, err := client.QueueHealth()
	if err != nil {
		t.Fatalf("QueueHealth failed: %v", err)
	}
	if health.Total != 1 {
		t.Fatalf("expected 1 total job, got %+v", health)
	}

	cleared, err := client.QueueClear()
	if err != nil {
		t.Fatalf("QueueClear failed: %v", err)
	}
	if cleared.Removed != 1 {
		t.Fatalf("expected 1 removed job, got %d", cleared.Removed)
	}

	stopResp, err := client.Stop()
	if err != nil {
		t.Fatalf("Stop RPC failed: %v", err)
	}
	if !stopResp.Stopped {
		t.Fatal("expected daemon to stop")
	}
}

func TestDialFailsWhenDaemonOffline(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	if _, err := ipc.Dial(socket); err == nil {
		t.Fatal("expected dial failure for missing socket")
	}
}
