// Package docstore is the document store the catalog mirror reads from and
// writes to: named collections of JSON documents keyed by string ids.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/pkg/models"
)

const (
	CollectionCategories = "categories"
	CollectionItems      = "items"
)

// Store is the capability set the catalog consumes. GetAll and Where return
// documents in insertion order.
type Store interface {
	IsEmpty(ctx context.Context, collection string) (bool, error)
	GetAll(ctx context.Context, collection string) ([]models.Document, error)
	// Get returns nil, nil when the document does not exist.
	Get(ctx context.Context, collection, id string) (*models.Document, error)
	// Set writes fields under id. With merge only the given fields change,
	// otherwise the document is replaced.
	Set(ctx context.Context, collection, id string, fields map[string]any, merge bool) error
	// Add stores a new document under a store-assigned id.
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Delete is a no-op for missing documents.
	Delete(ctx context.Context, collection, id string) error
	Where(ctx context.Context, collection, field string, value any) ([]models.Document, error)
}

// StoreError is any failure reading or writing the store.
type StoreError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("docstore %s %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
	}
	return fmt.Sprintf("docstore %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

func wrap(op, collection, id string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Collection: collection, ID: id, Err: err}
}

func encodeFields(fields map[string]any) ([]byte, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	return json.Marshal(fields)
}

func decodeFields(b []byte) (map[string]any, error) {
	out := make(map[string]any)
	if len(b) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func mergeFields(existing, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(existing)+len(incoming))
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

func matches(fields map[string]any, field string, value any) bool {
	got, ok := fields[field]
	if !ok {
		return false
	}
	a, errA := json.Marshal(got)
	b, errB := json.Marshal(value)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func filter(docs []models.Document, field string, value any) []models.Document {
	out := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if matches(d.Fields, field, value) {
			out = append(out, d)
		}
	}
	return out
}
