package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence gateway for leads. Implementations do not validate
// content or status values; callers are responsible for that.
type Store interface {
	Insert(ctx context.Context, lead NewLead) (*Lead, error)
	ListAll(ctx context.Context) ([]*Lead, error)
	UpdateStatus(ctx context.Context, id string, status Status) (bool, error)
	UpdateNotes(ctx context.Context, id string, notes string) (bool, error)
}

// InMemoryRepository keeps leads in process memory. Used for local runs and tests.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads []*Lead
	index map[string]*Lead
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		index: make(map[string]*Lead),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Insert stores a new lead with status new.
func (r *InMemoryRepository) Insert(ctx context.Context, in NewLead) (*Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr("insert", err)
	}
	now := r.now()
	lead := &Lead{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Phone:     in.Phone,
		Message:   in.Message,
		Source:    in.Source,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.leads = append(r.leads, lead)
	r.index[lead.ID] = lead
	r.mu.Unlock()

	return lead.clone(), nil
}

// ListAll returns copies of every lead, most recent first.
func (r *InMemoryRepository) ListAll(ctx context.Context) ([]*Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeErr("list", err)
	}
	r.mu.RLock()
	out := make([]*Lead, 0, len(r.leads))
	for i := len(r.leads) - 1; i >= 0; i-- {
		out = append(out, r.leads[i].clone())
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus sets the status of the matching lead.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id string, status Status) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, storeErr("update status", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.index[id]
	if !ok {
		return false, nil
	}
	lead.Status = status
	lead.UpdatedAt = r.now()
	return true, nil
}

// UpdateNotes replaces the notes of the matching lead. Empty notes clear the field.
func (r *InMemoryRepository) UpdateNotes(ctx context.Context, id string, notes string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, storeErr("update notes", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.index[id]
	if !ok {
		return false, nil
	}
	if notes == "" {
		lead.Notes = nil
	} else {
		n := notes
		lead.Notes = &n
	}
	lead.UpdatedAt = r.now()
	return true, nil
}

var _ Store = (*InMemoryRepository)(nil)
