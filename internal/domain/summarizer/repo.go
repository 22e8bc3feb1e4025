package summarizer

import (
	"errors"
	"sync"
)

var ErrNotFound = errors.New("summarizer not found")

type Repository interface {
	Create(s *Summarizer) error
	Get(id string) (*Summarizer, error)
	Update(s *Summarizer) error
	Delete(id string) error
	List(limit, offset int) ([]*Summarizer, int, error)
}

// MemoryRepository keeps summarizers in insertion order.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Summarizer
	order []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*Summarizer)}
}

func (r *MemoryRepository) Create(s *Summarizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[s.ID]; exists {
		return errors.New("summarizer id already exists")
	}
	cp := *s
	r.items[s.ID] = &cp
	r.order = append(r.order, s.ID)
	return nil
}

func (r *MemoryRepository) Get(id string) (*Summarizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MemoryRepository) Update(s *Summarizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; !ok {
		return ErrNotFound
	}
	cp := *s
	r.items[s.ID] = &cp
	return nil
}

func (r *MemoryRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) List(limit, offset int) ([]*Summarizer, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := len(r.order)
	if offset >= total {
		return []*Summarizer{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]*Summarizer, 0, end-offset)
	for _, id := range r.order[offset:end] {
		cp := *r.items[id]
		out = append(out, &cp)
	}
	return out, total, nil
}
