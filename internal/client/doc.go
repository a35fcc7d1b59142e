// Package client implements the client application runtime.
//
// It wires the durable operation queue, the optimistic projector, the sync
// driver, and background synchronization into a single process lifecycle.
package client
