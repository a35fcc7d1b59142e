package service

import (
	"github.com/packwise/go-pack-sync/internal/logger"
	"github.com/packwise/go-pack-sync/models"
)

// LogNotifier is the default [Notifier]: it reports sync events to the
// structured log. The interactive client replaces it with a UI-facing
// implementation.
type LogNotifier struct {
	logger *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) SnapshotUpdated(snapshot models.Snapshot) {
	n.logger.Info().
		Str("entity_id", snapshot.EntityID).
		Int64("version", snapshot.Version).
		Msg("canonical snapshot updated")
}

func (n *LogNotifier) ConflictDetected(record models.ConflictRecord) {
	n.logger.Warn().
		Str("entity_id", record.EntityID).
		Str("op_id", record.OffendingOpID).
		Msg("conflict requires resolution")
}

func (n *LogNotifier) OperationStuck(entityID, opID string, attempts int) {
	n.logger.Warn().
		Str("entity_id", entityID).
		Str("op_id", opID).
		Int("attempts", attempts).
		Msg("local change still not synced")
}

func (n *LogNotifier) OperationDropped(entityID, opID string, reason error) {
	n.logger.Warn().
		Str("entity_id", entityID).
		Str("op_id", opID).
		Err(reason).
		Msg("local change rejected by server and dropped")
}
