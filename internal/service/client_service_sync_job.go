package service

import (
	"context"
	"sync"
	"time"

	"github.com/packwise/go-pack-sync/internal/logger"
)

type clientSyncJob struct {
	syncer       Syncer
	connectivity ConnectivitySource
	logger       *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClientSyncJob creates a background job that drains all queues on a
// ticker and, additionally, the moment connectivity comes back. The job is
// idle until Start is called.
func NewClientSyncJob(syncer Syncer, connectivity ConnectivitySource, log *logger.Logger) SyncJob {
	return &clientSyncJob{syncer: syncer, connectivity: connectivity, logger: log}
}

// Start stops any previously running job, then launches a background
// goroutine that calls DrainAll every interval and on every offline-to-online
// transition. If interval is zero or negative it defaults to 30 seconds. The
// goroutine exits when ctx is cancelled or Stop is called.
func (j *clientSyncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	log := j.logger.GetChildLogger("service")

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if !j.connectivity.Online() {
					continue
				}
				if err := j.syncer.DrainAll(jobCtx); err != nil {
					log.Warn().Str("func", "Start").Err(err).Msg("scheduled drain finished with error")
				}
			case online := <-j.connectivity.Changes():
				if !online {
					continue
				}
				log.Info().Str("func", "Start").Msg("back online, draining queued operations")
				if err := j.syncer.DrainAll(jobCtx); err != nil {
					log.Warn().Str("func", "Start").Err(err).Msg("reconnect drain finished with error")
				}
			}
		}
	}()
}

// Stop cancels the background goroutine's context and blocks until it has
// fully exited. Safe to call when the job is not running.
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
