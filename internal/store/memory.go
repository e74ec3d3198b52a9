package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps pages in a map. It is used by tests and by the memory
// driver for throwaway servers.
type MemoryStore struct {
	mu    sync.RWMutex
	pages map[string]*Page
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pages: make(map[string]*Page)}
}

func (m *MemoryStore) Create(_ context.Context, p *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTaken(p.Slug, p.ID) {
		return ErrSlugTaken
	}
	m.pages[p.ID] = p.Clone()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id, owner string) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[id]
	if !ok || (owner != "" && p.CreatedBy != owner) {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryStore) GetBySlug(_ context.Context, slug string) (*Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.pages {
		if p.Slug == slug {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) Update(_ context.Context, p *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.pages[p.ID]
	if !ok || (p.CreatedBy != "" && cur.CreatedBy != p.CreatedBy) {
		return ErrNotFound
	}
	if m.slugTaken(p.Slug, p.ID) {
		return ErrSlugTaken
	}
	next := p.Clone()
	next.CreatedBy = cur.CreatedBy
	next.CreatedAt = cur.CreatedAt
	m.pages[p.ID] = next
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pages[id]
	if !ok || (owner != "" && p.CreatedBy != owner) {
		return ErrNotFound
	}
	delete(m.pages, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Page, error) {
	m.mu.RLock()
	out := make([]*Page, 0, len(m.pages))
	for _, p := range m.pages {
		if opts.matches(p) {
			out = append(out, p.Clone())
		}
	}
	m.mu.RUnlock()
	sortByUpdated(out)
	return opts.window(out), nil
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) slugTaken(slug, exceptID string) bool {
	for id, p := range m.pages {
		if id != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}

func sortByUpdated(pages []*Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].UpdatedAt.Equal(pages[j].UpdatedAt) {
			return pages[i].ID < pages[j].ID
		}
		return pages[i].UpdatedAt.After(pages[j].UpdatedAt)
	})
}
