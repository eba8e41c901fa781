package catalog

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"storefront/pkg/models"
)

// csvColumns is the header written by ExportCSV. List fields are joined with
// listSep.
var csvColumns = []string{"id", "name", "category", "itemType", "description", "sizes", "colors", "imageUrl", "tags"}

const listSep = "|"

// ExportCSV writes the mirrored products as CSV.
func (m *Mirror) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, it := range m.Products() {
		row := []string{
			it.ID, it.Name, it.Category, it.ItemType, it.Description,
			strings.Join(it.Sizes, listSep),
			strings.Join(it.Colors, listSep),
			it.ImageURL,
			strings.Join(it.Tags, listSep),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Snapshot is the JSON export of the whole mirror.
type Snapshot struct {
	Categories []models.Category `json:"categories"`
	Items      []models.Item     `json:"items"`
}

func (m *Mirror) ExportJSON(w io.Writer) error {
	cats := m.Categories()
	snap := Snapshot{Categories: make([]models.Category, 0, len(cats)), Items: m.Products()}
	for _, c := range DefaultCategories {
		if got, ok := cats[c.ID]; ok {
			snap.Categories = append(snap.Categories, got)
			delete(cats, c.ID)
		}
	}
	for _, c := range cats {
		snap.Categories = append(snap.Categories, c)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// ImportResult counts what ImportCSV did.
type ImportResult struct {
	Created  int
	Updated  int
	Skipped  int
	Warnings []string
}

// ImportCSV reads rows in the ExportCSV layout. Rows whose id is mirrored are
// merge-updated with every non-empty column, others are created. Rows
// without a name are skipped; invalid rows are reported and skipped.
func (m *Mirror) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := readHeader(cr)
	if err != nil {
		return res, fmt.Errorf("read header: %w", err)
	}

	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, err
		}
		line++
		if len(row) == 0 {
			continue
		}

		id := valueAt(header, row, "id")
		patch := rowPatch(header, row)
		if patch.Name == nil && id == "" {
			res.Skipped++
			continue
		}

		if _, ok := m.ProductByID(id); ok && id != "" {
			out, err := m.UpdateProduct(ctx, id, patch)
			if err != nil {
				if !errors.Is(err, ErrInvalidItem) {
					return res, fmt.Errorf("line %d: %w", line, err)
				}
				res.Skipped++
				res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: %v", line, err))
				continue
			}
			for _, w := range out.Warnings {
				res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: %s", line, w))
			}
			res.Updated++
			continue
		}

		if _, err := m.CreateProduct(ctx, patch.Apply(models.Item{})); err != nil {
			if !errors.Is(err, ErrInvalidItem) {
				return res, fmt.Errorf("line %d: %w", line, err)
			}
			res.Skipped++
			res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		res.Created++
	}
	return res, nil
}

func rowPatch(header map[string]int, row []string) models.ItemPatch {
	var p models.ItemPatch
	str := func(key string) *string {
		if v := valueAt(header, row, key); v != "" {
			return &v
		}
		return nil
	}
	list := func(key string) *[]string {
		v := valueAt(header, row, key)
		if v == "" {
			return nil
		}
		parts := strings.Split(v, listSep)
		out := make([]string, 0, len(parts))
		for _, s := range parts {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return &out
	}

	p.Name = str("name")
	p.Category = str("category")
	p.ItemType = str("itemtype")
	p.Description = str("description")
	p.ImageURL = str("imageurl")
	p.Sizes = list("sizes")
	p.Colors = list("colors")
	p.Tags = list("tags")
	return p
}

func readHeader(r *csv.Reader) (map[string]int, error) {
	row, err := r.Read()
	if err != nil {
		return nil, err
	}
	header := make(map[string]int, len(row))
	for idx, name := range row {
		header[strings.TrimSpace(strings.ToLower(name))] = idx
	}
	return header, nil
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
