package client

import (
	"context"
	"fmt"

	"github.com/packwise/go-pack-sync/internal/adapter"
	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/internal/service"
	"github.com/packwise/go-pack-sync/internal/store"
	"github.com/packwise/go-pack-sync/models"
)

// App owns the client's full dependency graph: the local SQLite storage, the
// server adapter, the connectivity monitor, and the client services built on
// top of them.
type App struct {
	cfg      *config.ClientConfig
	db       *store.ClientDB
	repos    *store.ClientRepositories
	adapter  adapter.ServerAdapter
	monitor  *adapter.ConnectivityMonitor
	services *service.ClientServices
	logger   *logger.Logger
}

func NewApp(cfg *config.ClientConfig, log *logger.Logger) (*App, error) {
	db, err := store.NewConnectSQLite(cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	repos := store.NewClientRepositories(db)
	serverAdapter := adapter.NewHTTPServerAdapter(cfg.Adapter)
	monitor := adapter.NewConnectivityMonitor(serverAdapter, cfg.Adapter.PingInterval, log)
	services := service.NewClientServices(repos, serverAdapter, monitor, cfg.Workers, log)

	return &App{
		cfg:      cfg,
		db:       db,
		repos:    repos,
		adapter:  serverAdapter,
		monitor:  monitor,
		services: services,
		logger:   log,
	}, nil
}

// Register creates an account on the server and keeps the issued token for
// subsequent requests.
func (a *App) Register(ctx context.Context, login, password, name string) (models.Token, error) {
	return a.adapter.Register(ctx, models.User{Login: login, Password: password, Name: name})
}

// Login authenticates against the server and keeps the issued token for
// subsequent requests.
func (a *App) Login(ctx context.Context, login, password string) (models.Token, error) {
	return a.adapter.Login(ctx, models.User{Login: login, Password: password})
}

// SetToken installs a previously issued session token on the transport.
func (a *App) SetToken(token string) {
	a.adapter.SetToken(token)
}

// CreateList registers a new packing list on the server and caches its
// initial snapshot locally.
func (a *App) CreateList(ctx context.Context, entityID, title string) (models.Snapshot, error) {
	snapshot, err := a.adapter.CreateList(ctx, models.CreateListRequest{EntityID: entityID, Title: title})
	if err != nil {
		return models.Snapshot{}, err
	}
	if err = a.repos.Snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		return models.Snapshot{}, err
	}
	return snapshot, nil
}

// ShareList grants another user edit access to an owned list.
func (a *App) ShareList(ctx context.Context, entityID, editorLogin string) error {
	return a.adapter.ShareList(ctx, entityID, editorLogin)
}

// Pull fetches the server's canonical snapshot of a list and replaces the
// local cache. Used when joining a list shared by another user.
func (a *App) Pull(ctx context.Context, entityID string) (models.Snapshot, error) {
	snapshot, err := a.adapter.GetSnapshot(ctx, entityID)
	if err != nil {
		return models.Snapshot{}, err
	}
	if err = a.repos.Snapshots.SaveSnapshot(ctx, snapshot); err != nil {
		return models.Snapshot{}, err
	}
	return snapshot, nil
}

// Submit records a local edit in the durable queue.
func (a *App) Submit(ctx context.Context, entityID string, kind models.OpKind, payload []byte) (models.QueueEntry, error) {
	return a.services.Queue.Submit(ctx, entityID, kind, payload)
}

// Show renders the optimistic local state of one list.
func (a *App) Show(ctx context.Context, entityID string) (models.Snapshot, error) {
	return a.services.Projector.Project(ctx, entityID)
}

// SyncNow drains every queued operation immediately.
func (a *App) SyncNow(ctx context.Context) error {
	return a.services.Syncer.DrainAll(ctx)
}

// Conflicts lists the open conflicts awaiting mediation.
func (a *App) Conflicts() []models.ConflictRecord {
	return a.services.Mediator.Conflicts()
}

// Resolve settles an open conflict with the user's decision.
func (a *App) Resolve(ctx context.Context, entityID string, resolution models.Resolution) error {
	return a.services.Mediator.Resolve(ctx, entityID, resolution)
}

// Run starts the connectivity monitor and the background sync job and blocks
// until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.monitor.Start(ctx)
	defer a.monitor.Stop()

	a.services.SyncJob.Start(ctx, a.cfg.Workers.SyncInterval)
	defer a.services.SyncJob.Stop()

	a.logger.Info().Msg("client running, edits sync in the background")
	<-ctx.Done()
	a.logger.Info().Msg("client shutting down")

	return nil
}

// Close releases the local storage.
func (a *App) Close() error {
	return a.db.Close()
}
