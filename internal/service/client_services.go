package service

import (
	"github.com/packwise/go-pack-sync/internal/adapter"
	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/store"
)

// ClientServices bundles the client-side services for wiring. Syncer and
// Mediator are the same underlying driver: conflict mediation is part of the
// drain lifecycle.
type ClientServices struct {
	Queue     Queue
	Projector Projector
	Syncer    Syncer
	Mediator  ConflictMediator
	SyncJob   SyncJob
}

func NewClientServices(
	repos *store.ClientRepositories,
	transport adapter.ServerAdapter,
	connectivity ConnectivitySource,
	workers config.ClientWorkers,
	log *logger.Logger,
) *ClientServices {
	notifier := NewLogNotifier(log)
	projector := NewProjectorService(repos.Queue, repos.Snapshots, log)
	driver := NewSyncDriverService(transport, repos.Queue, repos.Snapshots, projector, notifier, workers, log)

	return &ClientServices{
		Queue:     NewClientQueueService(repos.Queue, projector, notifier, log),
		Projector: projector,
		Syncer:    driver,
		Mediator:  driver,
		SyncJob:   NewClientSyncJob(driver, connectivity, log),
	}
}
