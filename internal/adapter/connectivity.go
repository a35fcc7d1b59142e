package adapter

import (
	"context"
	"sync"
	"time"

	"github.com/packwise/go-pack-sync/internal/logger"
)

// Pinger is the part of [ServerAdapter] the connectivity monitor needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivityMonitor probes the server periodically and tracks whether the
// client is online. State transitions are published on Changes so the sync
// job can drain the queue as soon as connectivity returns instead of waiting
// for the next scheduled run.
type ConnectivityMonitor struct {
	pinger   Pinger
	interval time.Duration
	logger   *logger.Logger

	mu     sync.RWMutex
	online bool

	changes chan bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewConnectivityMonitor(pinger Pinger, interval time.Duration, log *logger.Logger) *ConnectivityMonitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}

	return &ConnectivityMonitor{
		pinger:   pinger,
		interval: interval,
		logger:   log,
		changes:  make(chan bool, 1),
	}
}

// Online reports the last observed connectivity state.
func (m *ConnectivityMonitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Changes delivers the new state after every online/offline transition.
// The channel holds one pending transition; when a newer one arrives first,
// the stale value is replaced.
func (m *ConnectivityMonitor) Changes() <-chan bool {
	return m.changes
}

// Start launches the probe loop. The first probe runs immediately.
func (m *ConnectivityMonitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.probe(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.probe(ctx)
			}
		}
	}()

	m.logger.Info().Str("func", "Start").Dur("interval", m.interval).Msg("connectivity monitor started")
}

// Stop terminates the probe loop and waits for it to finish.
func (m *ConnectivityMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info().Str("func", "Stop").Msg("connectivity monitor stopped")
}

func (m *ConnectivityMonitor) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	err := m.pinger.Ping(probeCtx)
	online := err == nil

	m.mu.Lock()
	changed := online != m.online
	m.online = online
	m.mu.Unlock()

	if !changed {
		return
	}

	m.logger.Info().Str("func", "probe").Bool("online", online).Msg("connectivity changed")

	// Replace a stale pending transition with the newest one.
	select {
	case m.changes <- online:
	default:
		select {
		case <-m.changes:
		default:
		}
		m.changes <- online
	}
}
