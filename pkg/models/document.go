package models

import (
	"encoding/json"
	"fmt"
)

// Document is one record of a document store collection.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// DecodeInto copies the document fields into v (a struct pointer) through
// their JSON names and then sets an `id` field when v has one.
func (d Document) DecodeInto(v any) error {
	fields := make(map[string]any, len(d.Fields)+1)
	for k, val := range d.Fields {
		fields[k] = val
	}
	fields["id"] = d.ID

	b, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID, err)
	}
	return nil
}
