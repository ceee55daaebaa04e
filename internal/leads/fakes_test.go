package leads

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// countingStore wraps the in-memory repository and records calls.
type countingStore struct {
	*InMemoryRepository

	mu        sync.Mutex
	inserts   int
	lists     int
	updates   int
	failWith  error
	insertHit chan struct{}
	block     chan struct{}
}

func newCountingStore() *countingStore {
	return &countingStore{InMemoryRepository: NewInMemoryRepository()}
}

func (s *countingStore) Insert(ctx context.Context, in NewLead) (*Lead, error) {
	s.mu.Lock()
	s.inserts++
	fail := s.failWith
	s.mu.Unlock()
	if s.insertHit != nil {
		s.insertHit <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	if fail != nil {
		return nil, fail
	}
	return s.InMemoryRepository.Insert(ctx, in)
}

func (s *countingStore) ListAll(ctx context.Context) ([]*Lead, error) {
	s.mu.Lock()
	s.lists++
	fail := s.failWith
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return s.InMemoryRepository.ListAll(ctx)
}

func (s *countingStore) UpdateStatus(ctx context.Context, id string, status Status) (bool, error) {
	s.mu.Lock()
	s.updates++
	fail := s.failWith
	s.mu.Unlock()
	if fail != nil {
		return false, fail
	}
	return s.InMemoryRepository.UpdateStatus(ctx, id, status)
}

func (s *countingStore) UpdateNotes(ctx context.Context, id string, notes string) (bool, error) {
	s.mu.Lock()
	s.updates++
	fail := s.failWith
	s.mu.Unlock()
	if fail != nil {
		return false, fail
	}
	return s.InMemoryRepository.UpdateNotes(ctx, id, notes)
}

func (s *countingStore) counts() (inserts, lists, updates int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts, s.lists, s.updates
}

var errStoreDown = errors.New("store unavailable")

type recordingHook struct {
	name  string
	err   error
	calls *[]string
	mu    *sync.Mutex
}

func (h recordingHook) Name() string { return h.name }

func (h recordingHook) LeadCreated(_ context.Context, lead *Lead) error {
	h.mu.Lock()
	*h.calls = append(*h.calls, h.name+":"+lead.ID)
	h.mu.Unlock()
	return h.err
}

func (h recordingHook) StatusChanged(_ context.Context, id string, status Status) error {
	h.mu.Lock()
	*h.calls = append(*h.calls, h.name+":"+id+":"+string(status))
	h.mu.Unlock()
	return h.err
}

type failingGuard struct{}

func (failingGuard) Acquire(context.Context, string) (string, bool, error) {
	return "", false, errors.New("redis down")
}

func (failingGuard) Release(context.Context, string, string) error {
	return errors.New("redis down")
}

// stallingHook holds each follow-up until its context expires.
type stallingHook struct {
	name  string
	calls *atomic.Int32
}

func (h stallingHook) Name() string { return h.name }

func (h stallingHook) LeadCreated(ctx context.Context, _ *Lead) error {
	h.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}
