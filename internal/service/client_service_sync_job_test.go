package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packwise/go-pack-sync/internal/logger"
)

type fakeSyncer struct {
	drains atomic.Int64
}

func (f *fakeSyncer) DrainAll(context.Context) error {
	f.drains.Add(1)
	return nil
}

func (f *fakeSyncer) DrainEntity(context.Context, string) error { return nil }

type fakeConnectivity struct {
	online  atomic.Bool
	changes chan bool
}

func newFakeConnectivity(online bool) *fakeConnectivity {
	f := &fakeConnectivity{changes: make(chan bool, 1)}
	f.online.Store(online)
	return f
}

func (f *fakeConnectivity) Online() bool         { return f.online.Load() }
func (f *fakeConnectivity) Changes() <-chan bool { return f.changes }

func waitForDrains(t *testing.T, s *fakeSyncer, want int64) {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for s.drains.Load() < want {
		select {
		case <-deadline:
			t.Fatalf("expected at least %d drains, got %d", want, s.drains.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestClientSyncJob_DrainsOnTickWhenOnline(t *testing.T) {
	syncer := &fakeSyncer{}
	connectivity := newFakeConnectivity(true)
	job := NewClientSyncJob(syncer, connectivity, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	defer job.Stop()

	waitForDrains(t, syncer, 2)
}

func TestClientSyncJob_SkipsTicksWhileOffline(t *testing.T) {
	syncer := &fakeSyncer{}
	connectivity := newFakeConnectivity(false)
	job := NewClientSyncJob(syncer, connectivity, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	defer job.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, syncer.drains.Load())
}

func TestClientSyncJob_DrainsOnReconnect(t *testing.T) {
	syncer := &fakeSyncer{}
	connectivity := newFakeConnectivity(false)
	job := NewClientSyncJob(syncer, connectivity, logger.Nop())

	// Long interval so only the reconnect edge can trigger a drain.
	job.Start(context.Background(), time.Hour)
	defer job.Stop()

	connectivity.online.Store(true)
	connectivity.changes <- true

	waitForDrains(t, syncer, 1)
}

func TestClientSyncJob_IgnoresOfflineTransitions(t *testing.T) {
	syncer := &fakeSyncer{}
	connectivity := newFakeConnectivity(true)
	job := NewClientSyncJob(syncer, connectivity, logger.Nop())

	job.Start(context.Background(), time.Hour)
	defer job.Stop()

	connectivity.changes <- false
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, syncer.drains.Load())
}

func TestClientSyncJob_StopTerminates(t *testing.T) {
	syncer := &fakeSyncer{}
	connectivity := newFakeConnectivity(true)
	job := NewClientSyncJob(syncer, connectivity, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	waitForDrains(t, syncer, 1)

	job.Stop()
	settled := syncer.drains.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, syncer.drains.Load())

	// Stop again is a no-op.
	job.Stop()
}

func TestClientSyncJob_RestartReplacesPreviousRun(t *testing.T) {
	syncer := &fakeSyncer{}
	connectivity := newFakeConnectivity(true)
	job := NewClientSyncJob(syncer, connectivity, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	job.Start(context.Background(), 10*time.Millisecond)
	defer job.Stop()

	waitForDrains(t, syncer, 1)
	require.NotNil(t, job)
}
