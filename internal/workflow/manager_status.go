package workflow

import (
	"context"
	"time"

	"scribe/internal/logging"
	"scribe/internal/queue"
	"scribe/internal/stage"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running     bool
	LastError   string
	LastJob     *queue.Job
	QueueStats  map[queue.Status]int
	StageHealth map[string]stage.Health
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	lastJob := m.lastJob
	stages := make([]pipelineStage, len(m.stages))
	copy(stages, m.stages)
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}

	health := make(map[string]stage.Health, len(stages))
	for _, stg := range stages {
		if stg.handler == nil {
			continue
		}
		health[stg.name] = stg.handler.HealthCheck(ctx)
	}

	summary := StatusSummary{Running: running, QueueStats: stats, StageHealth: health}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	if lastJob != nil {
		jobCopy := *lastJob
		summary.LastJob = &jobCopy
	}
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	if job != nil {
		jobCopy := *job
		m.lastJob = &jobCopy
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}

// onJobStarted marks the start of a processing burst and announces it once.
func (m *Manager) onJobStarted(ctx context.Context) {
	m.mu.Lock()
	alreadyActive := m.queueActive
	if !alreadyActive {
		m.queueActive = true
		m.queueStart = time.Now()
	}
	m.mu.Unlock()
	if alreadyActive || m.notifier == nil {
		return
	}

	health, err := m.store.Health(ctx)
	if err != nil {
		m.logger.Debug("queue health unavailable for start notification", logging.Error(err))
		return
	}
	count := health.Pending + health.Processing
	if err := m.notifier.NotifyQueueStarted(ctx, count); err != nil {
		m.logger.Debug("queue start notification failed", logging.Error(err))
	}
}

// checkQueueCompletion announces the end of a processing burst once the
// queue drains.
func (m *Manager) checkQueueCompletion(ctx context.Context) {
	m.mu.RLock()
	active := m.queueActive
	startedAt := m.queueStart
	m.mu.RUnlock()
	if !active {
		return
	}

	health, err := m.store.Health(ctx)
	if err != nil {
		m.logger.Debug("queue health unavailable for completion check", logging.Error(err))
		return
	}
	if health.Pending > 0 || health.Processing > 0 {
		return
	}

	m.mu.Lock()
	m.queueActive = false
	m.mu.Unlock()

	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyQueueCompleted(ctx, health.Completed, health.Failed, time.Since(startedAt)); err != nil {
		m.logger.Debug("queue completion notification failed", logging.Error(err))
	}
}
