package store

// SQLite queries use positional ? placeholders, so they are kept as plain
// constants; the squirrel builder is configured for PostgreSQL placeholders.
const (
	createOpQueueTable = `
		CREATE TABLE IF NOT EXISTS op_queue (
			op_id       TEXT PRIMARY KEY,
			entity_id   TEXT NOT NULL,
			kind        TEXT NOT NULL,
			payload     BLOB NOT NULL,
			enqueued_at TIMESTAMP NOT NULL,
			attempt     INTEGER NOT NULL DEFAULT 0,
			status      TEXT NOT NULL DEFAULT 'pending',
			seq         INTEGER NOT NULL
		)`

	createOpQueueIndex = `
		CREATE INDEX IF NOT EXISTS idx_op_queue_entity_seq
		ON op_queue (entity_id, seq)`

	createSnapshotsTable = `
		CREATE TABLE IF NOT EXISTS snapshots (
			entity_id TEXT PRIMARY KEY,
			payload   BLOB NOT NULL,
			version   INTEGER NOT NULL
		)`

	selectNextSeqQuery = `
		SELECT COALESCE(MAX(seq), 0) + 1 FROM op_queue WHERE entity_id = ?`

	selectFrontSeqQuery = `
		SELECT COALESCE(MIN(seq), 1) - 1 FROM op_queue WHERE entity_id = ?`

	insertQueueEntryQuery = `
		INSERT INTO op_queue (op_id, entity_id, kind, payload, enqueued_at, attempt, status, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	selectQueueEntryQuery = `
		SELECT op_id, entity_id, kind, payload, enqueued_at, attempt, status, seq
		FROM op_queue WHERE op_id = ?`

	selectOldestEntryQuery = `
		SELECT op_id, entity_id, kind, payload, enqueued_at, attempt, status, seq
		FROM op_queue WHERE entity_id = ?
		ORDER BY seq ASC LIMIT 1`

	selectPendingEntriesQuery = `
		SELECT op_id, entity_id, kind, payload, enqueued_at, attempt, status, seq
		FROM op_queue WHERE entity_id = ?
		ORDER BY seq ASC`

	selectQueueEntitiesQuery = `
		SELECT DISTINCT entity_id FROM op_queue ORDER BY entity_id`

	deleteQueueEntryQuery = `
		DELETE FROM op_queue WHERE op_id = ?`

	deleteQueueFromSeqQuery = `
		DELETE FROM op_queue WHERE entity_id = ? AND seq >= ?`

	updateQueueStatusQuery = `
		UPDATE op_queue SET status = ? WHERE op_id = ?`

	incrementAttemptQuery = `
		UPDATE op_queue SET attempt = attempt + 1 WHERE op_id = ?`

	selectAttemptQuery = `
		SELECT attempt FROM op_queue WHERE op_id = ?`

	upsertSnapshotQuery = `
		INSERT INTO snapshots (entity_id, payload, version)
		VALUES (?, ?, ?)
		ON CONFLICT (entity_id) DO UPDATE SET payload = excluded.payload, version = excluded.version`

	selectSnapshotQuery = `
		SELECT payload FROM snapshots WHERE entity_id = ?`

	selectSnapshotEntitiesQuery = `
		SELECT entity_id FROM snapshots ORDER BY entity_id`
)
