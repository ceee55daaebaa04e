package leads

import (
	"context"
	"sync"
	"time"

	"github.com/digigrow/agency-site/internal/observability/metrics"
	"github.com/digigrow/agency-site/pkg/logging"
)

// StatusObserver is notified after a status change has been stored.
type StatusObserver interface {
	Name() string
	StatusChanged(ctx context.Context, id string, status Status) error
}

// Stats are derived counts over a loaded lead list.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
}

// ComputeStats counts leads per status. Every enumerated status is present.
func ComputeStats(leads []*Lead) Stats {
	stats := Stats{Total: len(leads), ByStatus: make(map[Status]int, len(Statuses))}
	for _, s := range Statuses {
		stats.ByStatus[s] = 0
	}
	for _, l := range leads {
		stats.ByStatus[l.Status]++
	}
	return stats
}

// FilterLeads returns the leads matching filter ("all" or a status) without
// touching the store.
func FilterLeads(leads []*Lead, filter string) ([]*Lead, error) {
	if filter == "" || filter == FilterAll {
		return leads, nil
	}
	status, err := ParseStatus(filter)
	if err != nil {
		return nil, err
	}
	out := make([]*Lead, 0, len(leads))
	for _, l := range leads {
		if l.Status == status {
			out = append(out, l)
		}
	}
	return out, nil
}

// Manager performs the admin-side lead operations.
type Manager struct {
	store     Store
	logger    *logging.Logger
	metrics   *metrics.LeadMetrics
	observers []StatusObserver
	timeout   time.Duration
}

func NewManager(store Store, logger *logging.Logger) *Manager {
	if store == nil {
		panic("leads: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Manager{store: store, logger: logger, timeout: defaultStoreTimeout}
}

// WithTimeout bounds each store call.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	if timeout > 0 {
		m.timeout = timeout
	}
	return m
}

func (m *Manager) WithMetrics(lm *metrics.LeadMetrics) *Manager {
	m.metrics = lm
	return m
}

func (m *Manager) WithObservers(observers ...StatusObserver) *Manager {
	for _, o := range observers {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
	return m
}

// Load reads every lead into a new Dashboard.
func (m *Manager) Load(ctx context.Context) (*Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	leads, err := m.store.ListAll(ctx)
	m.metrics.ObserveStoreLatency("list", time.Since(start).Seconds())
	if err != nil {
		m.logger.Error("error fetching leads", "error", err)
		return nil, storeErr("list", err)
	}
	if leads == nil {
		leads = []*Lead{}
	}
	d := &Dashboard{manager: m, leads: leads}
	d.recompute()
	return d, nil
}

// SetStatus validates status and writes it. The bool reports whether the lead exists.
func (m *Manager) SetStatus(ctx context.Context, id string, raw string) (Status, bool, error) {
	status, err := ParseStatus(raw)
	if err != nil {
		m.metrics.ObserveStatusUpdate("invalid", false)
		m.logger.Warn("rejected lead status", "lead_id", id, "status", raw)
		return "", false, err
	}

	storeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	found, err := m.store.UpdateStatus(storeCtx, id, status)
	m.metrics.ObserveStoreLatency("update_status", time.Since(start).Seconds())
	if err != nil {
		m.metrics.ObserveStatusUpdate(string(status), false)
		m.logger.Error("error updating lead", "lead_id", id, "error", err)
		return "", false, storeErr("update status", err)
	}
	m.metrics.ObserveStatusUpdate(string(status), found)
	if found {
		m.notify(ctx, id, status)
	}
	return status, found, nil
}

// SetNotes writes notes for the lead. No length limit is applied here.
func (m *Manager) SetNotes(ctx context.Context, id string, notes string) (bool, error) {
	storeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	found, err := m.store.UpdateNotes(storeCtx, id, notes)
	m.metrics.ObserveStoreLatency("update_notes", time.Since(start).Seconds())
	if err != nil {
		m.logger.Error("error updating lead notes", "lead_id", id, "error", err)
		return false, storeErr("update notes", err)
	}
	return found, nil
}

func (m *Manager) notify(ctx context.Context, id string, status Status) {
	for _, o := range m.observers {
		obsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.timeout)
		err := o.StatusChanged(obsCtx, id, status)
		cancel()
		if err != nil {
			m.metrics.ObserveFollowUpFailure(o.Name())
			m.logger.Error("status observer failed", "observer", o.Name(), "lead_id", id, "error", err)
		}
	}
}

// Dashboard is the admin view over a loaded lead list. Mutations go to the
// store first and are mirrored locally only after the store accepts them.
type Dashboard struct {
	manager *Manager

	mu    sync.RWMutex
	leads []*Lead
	stats Stats
}

// Leads returns the loaded leads, most recent first.
func (d *Dashboard) Leads() []*Lead {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Lead, len(d.leads))
	copy(out, d.leads)
	return out
}

// FilterBy narrows the loaded leads to "all" or one status.
func (d *Dashboard) FilterBy(filter string) ([]*Lead, error) {
	return FilterLeads(d.Leads(), filter)
}

// Stats returns the counts derived from the current in-memory list.
func (d *Dashboard) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := Stats{Total: d.stats.Total, ByStatus: make(map[Status]int, len(d.stats.ByStatus))}
	for k, v := range d.stats.ByStatus {
		out.ByStatus[k] = v
	}
	return out
}

// SetStatus updates a lead's status in the store, then in the local copy.
func (d *Dashboard) SetStatus(ctx context.Context, id string, raw string) error {
	status, found, err := d.manager.SetStatus(ctx, id, raw)
	if err != nil {
		return err
	}
	if !found {
		return ErrLeadNotFound
	}
	d.apply(id, func(l *Lead) { l.Status = status })
	return nil
}

// SetNotes updates a lead's notes in the store, then in the local copy.
func (d *Dashboard) SetNotes(ctx context.Context, id string, notes string) error {
	found, err := d.manager.SetNotes(ctx, id, notes)
	if err != nil {
		return err
	}
	if !found {
		return ErrLeadNotFound
	}
	d.apply(id, func(l *Lead) {
		if notes == "" {
			l.Notes = nil
			return
		}
		n := notes
		l.Notes = &n
	})
	return nil
}

func (d *Dashboard) apply(id string, mutate func(*Lead)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, l := range d.leads {
		if l.ID == id {
			cp := l.clone()
			mutate(cp)
			d.leads[i] = cp
			break
		}
	}
	d.recompute()
}

// recompute must be called with d.mu held (or before d is shared).
func (d *Dashboard) recompute() {
	d.stats = ComputeStats(d.leads)
}
