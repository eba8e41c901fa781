package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"storefront/pkg/models"
)

type memCollection struct {
	order []string
	docs  map[string][]byte
}

// MemoryStore keeps every collection in process memory.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

func (s *MemoryStore) collectionLocked(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string][]byte)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) IsEmpty(_ context.Context, collection string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	return !ok || len(c.docs) == 0, nil
}

func (s *MemoryStore) GetAll(_ context.Context, collection string) ([]models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return []models.Document{}, nil
	}
	out := make([]models.Document, 0, len(c.order))
	for _, id := range c.order {
		fields, err := decodeFields(c.docs[id])
		if err != nil {
			return nil, wrap("getAll", collection, id, err)
		}
		out = append(out, models.Document{ID: id, Fields: fields})
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, collection, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	b, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	fields, err := decodeFields(b)
	if err != nil {
		return nil, wrap("get", collection, id, err)
	}
	return &models.Document{ID: id, Fields: fields}, nil
}

func (s *MemoryStore) Set(_ context.Context, collection, id string, fields map[string]any, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collectionLocked(collection)

	prev, exists := c.docs[id]
	if merge && exists {
		existing, err := decodeFields(prev)
		if err != nil {
			return wrap("set", collection, id, err)
		}
		fields = mergeFields(existing, fields)
	}
	b, err := encodeFields(fields)
	if err != nil {
		return wrap("set", collection, id, err)
	}
	if !exists {
		c.order = append(c.order, id)
	}
	c.docs[id] = b
	return nil
}

func (s *MemoryStore) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := s.Set(ctx, collection, id, fields, false); err != nil {
		return "", wrap("add", collection, id, err)
	}
	return id, nil
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil
	}
	if _, ok := c.docs[id]; !ok {
		return nil
	}
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Where(ctx context.Context, collection, field string, value any) ([]models.Document, error) {
	docs, err := s.GetAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	return filter(docs, field, value), nil
}
