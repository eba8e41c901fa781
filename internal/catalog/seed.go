package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/docstore"
	"storefront/pkg/models"
)

const placeholderImage = "https://via.placeholder.com/200x200"

// DefaultCategories is written when the categories collection is empty.
var DefaultCategories = []models.Category{
	{
		ID:          "hombres",
		Name:        "Hombres",
		Description: "Catálogo de ropa para hombres",
		ItemTypes:   []string{"camisa", "pantalon", "polera", "chaqueta", "zapatillas"},
	},
	{
		ID:          "ninos",
		Name:        "Niños",
		Description: "Catálogo de ropa para niños",
		ItemTypes:   []string{"camisa", "pantalon", "polera", "zapatillas"},
	},
}

// DefaultItems is written when the items collection is empty. Ids are
// assigned by the store.
var DefaultItems = []models.Item{
	{
		Name:        "Camisa Casual Azul",
		Category:    "hombres",
		ItemType:    "camisa",
		Description: "Camisa casual de algodón",
		Sizes:       []string{"S", "M", "L", "XL"},
		Colors:      []string{"azul", "blanco"},
		ImageURL:    placeholderImage,
		Tags:        []string{"casual", "algodón", "manga larga"},
	},
	{
		Name:        "Pantalón Formal Negro",
		Category:    "hombres",
		ItemType:    "pantalon",
		Description: "Pantalón formal de vestir",
		Sizes:       []string{"30", "32", "34", "36"},
		Colors:      []string{"negro"},
		ImageURL:    placeholderImage,
		Tags:        []string{"formal", "vestir", "oficina"},
	},
	{
		Name:        "Polera Infantil Dinosaurio",
		Category:    "ninos",
		ItemType:    "polera",
		Description: "Polera con estampado de dinosaurio",
		Sizes:       []string{"4", "6", "8", "10"},
		Colors:      []string{"verde", "azul"},
		ImageURL:    placeholderImage,
		Tags:        []string{"casual", "estampado", "manga corta"},
	},
}

func (m *Mirror) seed(ctx context.Context, categories, items bool) error {
	if categories {
		m.log.Info("seeding categories", zap.Int("count", len(DefaultCategories)))
		for _, c := range DefaultCategories {
			if err := m.store.Set(ctx, docstore.CollectionCategories, c.ID, c.Fields(), false); err != nil {
				return fmt.Errorf("seed category %s: %w", c.ID, err)
			}
		}
	}

	if items {
		m.log.Info("seeding items", zap.Int("count", len(DefaultItems)))
		for _, it := range DefaultItems {
			if _, err := m.store.Add(ctx, docstore.CollectionItems, it.Fields()); err != nil {
				return fmt.Errorf("seed item %q: %w", it.Name, err)
			}
		}
	}
	return nil
}
