package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/packwise/go-pack-sync/internal/config"
	"github.com/packwise/go-pack-sync/internal/logger"
)

// ClientDB wraps the local SQLite handle shared by the client repositories.
// SQLite is the durability layer of the client: queued operations and the
// cached canonical snapshots survive process restarts.
type ClientDB struct {
	*sql.DB
	logger *logger.Logger
}

func NewConnectSQLite(cfg config.ClientStorage, log *logger.Logger) (*ClientDB, error) {
	conn, err := sql.Open("sqlite3", cfg.Path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error opening local database")
		return nil, fmt.Errorf("error opening local database: %w", err)
	}

	// SQLite serialises writers; a single connection avoids database-locked
	// errors between the sync driver and the queue service.
	conn.SetMaxOpenConns(1)

	if err = conn.Ping(); err != nil {
		log.Err(err).Str("func", "NewConnectSQLite").Msg("error connecting local database (ping)")
		return nil, err
	}

	db := &ClientDB{DB: conn, logger: log}
	if err = db.bootstrap(context.Background()); err != nil {
		return nil, err
	}
	log.Info().Str("func", "NewConnectSQLite").Str("path", cfg.Path).Msg("local database ready")

	return db, nil
}

func (db *ClientDB) bootstrap(ctx context.Context) error {
	for _, query := range []string{
		createOpQueueTable,
		createOpQueueIndex,
		createSnapshotsTable,
	} {
		if _, err := db.ExecContext(ctx, query); err != nil {
			db.logger.Err(err).Str("func", "bootstrap").Msg("error creating local schema")
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
	}

	return nil
}

// ClientRepositories groups the client-side repositories for wiring.
type ClientRepositories struct {
	Queue     *QueueSQLiteRepository
	Snapshots *SnapshotSQLiteRepository
}

func NewClientRepositories(db *ClientDB) *ClientRepositories {
	return &ClientRepositories{
		Queue:     NewQueueRepository(db),
		Snapshots: NewSnapshotRepository(db),
	}
}
