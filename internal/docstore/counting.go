package docstore

import (
	"context"
	"sync"

	"storefront/pkg/models"
)

// Counting wraps a Store and records how often each method was called.
type Counting struct {
	Store

	mu     sync.Mutex
	counts map[string]int
}

func NewCounting(inner Store) *Counting {
	return &Counting{Store: inner, counts: make(map[string]int)}
}

func (c *Counting) inc(method string) {
	c.mu.Lock()
	c.counts[method]++
	c.mu.Unlock()
}

func (c *Counting) Count(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[method]
}

// Writes is the number of Set, Add and Delete calls.
func (c *Counting) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts["Set"] + c.counts["Add"] + c.counts["Delete"]
}

func (c *Counting) Reset() {
	c.mu.Lock()
	c.counts = make(map[string]int)
	c.mu.Unlock()
}

func (c *Counting) IsEmpty(ctx context.Context, collection string) (bool, error) {
	c.inc("IsEmpty")
	return c.Store.IsEmpty(ctx, collection)
}

func (c *Counting) GetAll(ctx context.Context, collection string) ([]models.Document, error) {
	c.inc("GetAll")
	return c.Store.GetAll(ctx, collection)
}

func (c *Counting) Get(ctx context.Context, collection, id string) (*models.Document, error) {
	c.inc("Get")
	return c.Store.Get(ctx, collection, id)
}

func (c *Counting) Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	c.inc("Set")
	return c.Store.Set(ctx, collection, id, fields, merge)
}

func (c *Counting) Add(ctx context.Context, collection string, fields map[string]any) (string, error) {
	c.inc("Add")
	return c.Store.Add(ctx, collection, fields)
}

func (c *Counting) Delete(ctx context.Context, collection, id string) error {
	c.inc("Delete")
	return c.Store.Delete(ctx, collection, id)
}

func (c *Counting) Where(ctx context.Context, collection, field string, value any) ([]models.Document, error) {
	c.inc("Where")
	return c.Store.Where(ctx, collection, field, value)
}
