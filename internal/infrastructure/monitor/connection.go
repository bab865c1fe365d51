package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Probe checks one dependency; a nil error means reachable.
type Probe func(ctx context.Context) error

// Monitor probes the task store and the page cache on a cron schedule.
type Monitor struct {
	probes   map[string]Probe
	schedule string
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger

	mu     sync.RWMutex
	status Status
}

func New(schedule string, logger *zap.Logger) *Monitor {
	if schedule == "" {
		schedule = "@every 30s"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		probes:   make(map[string]Probe),
		schedule: schedule,
		timeout:  3 * time.Second,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Add registers a probe. It must be called before Start.
func (m *Monitor) Add(name string, probe Probe) {
	if probe == nil {
		return
	}
	m.probes[name] = probe
}

// Start runs one refresh immediately and then on the schedule.
func (m *Monitor) Start() error {
	if _, err := m.cron.AddFunc(m.schedule, m.Refresh); err != nil {
		return err
	}
	m.Refresh()
	m.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running refresh.
func (m *Monitor) Stop(ctx context.Context) error {
	done := m.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	components := make(map[string]bool, len(m.status.Components))
	for k, v := range m.status.Components {
		components[k] = v
	}
	return Status{Components: components, LastCheck: m.status.LastCheck}
}

// Refresh probes every component once.
func (m *Monitor) Refresh() {
	names := make([]string, 0, len(m.probes))
	for name := range m.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	status := Status{Components: make(map[string]bool, len(names)), LastCheck: time.Now().UTC()}
	for _, name := range names {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		err := m.probes[name](ctx)
		cancel()
		if err != nil {
			m.logger.Warn("dependency check failed", zap.String("component", name), zap.Error(err))
		}
		status.Components[name] = err == nil
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}
