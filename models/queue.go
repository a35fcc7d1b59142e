package models

// QueueStatus is the lifecycle state of a locally queued operation.
type QueueStatus string

const (
	// StatusPending marks an operation waiting to be submitted.
	StatusPending QueueStatus = "pending"
	// StatusInFlight marks the single operation of an entity currently
	// being submitted to the server.
	StatusInFlight QueueStatus = "in-flight"
)

// QueueEntry is an Operation plus durable-queue bookkeeping. Entries are
// created on enqueue, mutated only by the sync driver, and removed only
// after a confirmed server acknowledgment or a terminal rejection.
type QueueEntry struct {
	Operation
	Seq    int64       `json:"seq"`
	Status QueueStatus `json:"status"`
}
