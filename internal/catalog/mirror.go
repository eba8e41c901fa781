// Package catalog keeps an in-memory mirror of the storefront catalog and
// performs every catalog mutation: store first, then the mirror, then an
// event on the bus.
package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"storefront/internal/docstore"
	"storefront/internal/events"
	"storefront/internal/media"
	"storefront/pkg/logger"
	"storefront/pkg/models"
)

// MediaCleaner removes the hosted image behind a stored URL. Failures come
// back as warnings, never as errors.
type MediaCleaner interface {
	DeleteMedia(ctx context.Context, url string) *media.CleanupWarning
}

// Outcome carries the non-fatal side effects of a mutation.
type Outcome struct {
	Warnings []media.CleanupWarning
}

func (o Outcome) HasWarnings() bool { return len(o.Warnings) > 0 }

func (o *Outcome) warn(w *media.CleanupWarning) {
	if w != nil {
		o.Warnings = append(o.Warnings, *w)
	}
}

// Filter selects products by equality on category and/or item type.
type Filter struct {
	Category string
	ItemType string
}

type Mirror struct {
	store   docstore.Store
	host    media.Host
	cleaner MediaCleaner
	bus     *events.Bus
	log     *zap.Logger

	initGroup singleflight.Group
	locks     *keyedMutex

	mu          sync.RWMutex
	initialized bool
	items       []models.Item
	categories  map[string]models.Category
}

// NewMirror builds an empty, uninitialized mirror. host may be nil when no
// media service is configured; cleanup is then reported as a warning and
// ReplaceImage fails.
func NewMirror(store docstore.Store, host media.Host, bus *events.Bus, log *zap.Logger) *Mirror {
	base := logger.OrNop(log)
	if bus == nil {
		bus = events.NewBus(base)
	}
	return &Mirror{
		store:      store,
		host:       host,
		cleaner:    media.NewCleaner(host, base),
		bus:        bus,
		log:        base.With(zap.String("component", "catalog")),
		locks:      newKeyedMutex(),
		items:      []models.Item{},
		categories: make(map[string]models.Category),
	}
}

// WithCleaner swaps the media cleaner. It must be called before the mirror
// is shared.
func (m *Mirror) WithCleaner(c MediaCleaner) *Mirror {
	m.cleaner = c
	return m
}

// OnCleanupFailure registers fn with the default media cleaner.
func (m *Mirror) OnCleanupFailure(fn func(media.CleanupWarning)) {
	if c, ok := m.cleaner.(*media.Cleaner); ok {
		c.OnFailure(fn)
	}
}

func (m *Mirror) Bus() *events.Bus { return m.bus }

func (m *Mirror) Initialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// Initialize seeds empty collections, loads the mirror and publishes Ready.
// Calls after a successful one are no-ops. Concurrent calls share a single
// run (and the first caller's context).
func (m *Mirror) Initialize(ctx context.Context) error {
	_, err, _ := m.initGroup.Do("initialize", func() (any, error) {
		return nil, m.initialize(ctx)
	})
	return err
}

func (m *Mirror) initialize(ctx context.Context) error {
	if m.Initialized() {
		m.log.Info("catalog already initialized")
		return nil
	}

	categoriesEmpty, err := m.store.IsEmpty(ctx, docstore.CollectionCategories)
	if err != nil {
		m.log.Error("check categories", zap.Error(err))
		return fmt.Errorf("initialize: %w", err)
	}
	itemsEmpty, err := m.store.IsEmpty(ctx, docstore.CollectionItems)
	if err != nil {
		m.log.Error("check items", zap.Error(err))
		return fmt.Errorf("initialize: %w", err)
	}
	m.log.Info("collection status",
		zap.Bool("categories_empty", categoriesEmpty),
		zap.Bool("items_empty", itemsEmpty),
	)

	if categoriesEmpty || itemsEmpty {
		if err := m.seed(ctx, categoriesEmpty, itemsEmpty); err != nil {
			m.log.Error("seeding failed", zap.Error(err))
			return fmt.Errorf("initialize: %w", err)
		}
	}

	if err := m.LoadData(ctx); err != nil {
		m.log.Error("load failed", zap.Error(err))
		return fmt.Errorf("initialize: %w", err)
	}

	m.mu.Lock()
	m.initialized = true
	n := len(m.items)
	m.mu.Unlock()

	m.log.Info("catalog initialized", zap.Int("items", n))
	m.bus.Publish(events.Ready{})
	return nil
}

// LoadData replaces the mirror with a fresh snapshot of both collections.
func (m *Mirror) LoadData(ctx context.Context) error {
	catDocs, err := m.store.GetAll(ctx, docstore.CollectionCategories)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	categories := make(map[string]models.Category, len(catDocs))
	for _, d := range catDocs {
		var c models.Category
		if err := d.DecodeInto(&c); err != nil {
			return &docstore.StoreError{Op: "decode", Collection: docstore.CollectionCategories, ID: d.ID, Err: err}
		}
		categories[c.ID] = c
	}

	itemDocs, err := m.store.GetAll(ctx, docstore.CollectionItems)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}
	items, err := decodeItems(itemDocs)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.categories = categories
	m.items = items
	m.mu.Unlock()
	return nil
}

func decodeItems(docs []models.Document) ([]models.Item, error) {
	items := make([]models.Item, 0, len(docs))
	for _, d := range docs {
		var it models.Item
		if err := d.DecodeInto(&it); err != nil {
			return nil, &docstore.StoreError{Op: "decode", Collection: docstore.CollectionItems, ID: d.ID, Err: err}
		}
		items = append(items, it)
	}
	return items, nil
}

// Ping checks that the store answers.
func (m *Mirror) Ping(ctx context.Context) error {
	_, err := m.store.IsEmpty(ctx, docstore.CollectionCategories)
	return err
}

// Products returns a copy of every mirrored item in store order.
func (m *Mirror) Products() []models.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it.Clone())
	}
	return out
}

func (m *Mirror) ProductByID(id string) (models.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexLocked(id); i >= 0 {
		return m.items[i].Clone(), true
	}
	return models.Item{}, false
}

func (m *Mirror) ProductsByCategory(categoryID string) []models.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Item, 0)
	for _, it := range m.items {
		if it.Category == categoryID {
			out = append(out, it.Clone())
		}
	}
	return out
}

func (m *Mirror) Categories() map[string]models.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]models.Category, len(m.categories))
	for id, c := range m.categories {
		c.ItemTypes = append([]string(nil), c.ItemTypes...)
		out[id] = c
	}
	return out
}

func (m *Mirror) Category(id string) (models.Category, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if ok {
		c.ItemTypes = append([]string(nil), c.ItemTypes...)
	}
	return c, ok
}

// Orphans lists items whose category is not in the mirror.
func (m *Mirror) Orphans() []models.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Item
	for _, it := range m.items {
		if _, ok := m.categories[it.Category]; !ok {
			out = append(out, it.Clone())
		}
	}
	return out
}

// QueryProducts runs an equality query against the store, bypassing the mirror.
func (m *Mirror) QueryProducts(ctx context.Context, f Filter) ([]models.Item, error) {
	var (
		docs []models.Document
		err  error
	)
	switch {
	case f.Category != "":
		docs, err = m.store.Where(ctx, docstore.CollectionItems, "category", f.Category)
	case f.ItemType != "":
		docs, err = m.store.Where(ctx, docstore.CollectionItems, "itemType", f.ItemType)
	default:
		docs, err = m.store.GetAll(ctx, docstore.CollectionItems)
	}
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}

	items, err := decodeItems(docs)
	if err != nil {
		return nil, err
	}
	if f.Category != "" && f.ItemType != "" {
		kept := items[:0]
		for _, it := range items {
			if it.ItemType == f.ItemType {
				kept = append(kept, it)
			}
		}
		items = kept
	}
	return items, nil
}

// ItemTypes reads the item types of a category from the store. Unknown
// categories yield an empty list.
func (m *Mirror) ItemTypes(ctx context.Context, categoryID string) ([]string, error) {
	doc, err := m.store.Get(ctx, docstore.CollectionCategories, categoryID)
	if err != nil {
		return nil, fmt.Errorf("item types: %w", err)
	}
	if doc == nil {
		return []string{}, nil
	}
	var c models.Category
	if err := doc.DecodeInto(&c); err != nil {
		return nil, &docstore.StoreError{Op: "decode", Collection: docstore.CollectionCategories, ID: doc.ID, Err: err}
	}
	if c.ItemTypes == nil {
		return []string{}, nil
	}
	return c.ItemTypes, nil
}

// CreateProduct validates item, stores it under a new id and adds it to the mirror.
func (m *Mirror) CreateProduct(ctx context.Context, item models.Item) (models.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := m.validate(item); err != nil {
		return models.Item{}, err
	}

	id, err := m.store.Add(ctx, docstore.CollectionItems, item.Fields())
	if err != nil {
		m.log.Error("create product", zap.Error(err))
		return models.Item{}, fmt.Errorf("create product: %w", err)
	}
	item.ID = id

	m.mu.Lock()
	m.items = append(m.items, item.Clone())
	m.mu.Unlock()

	m.log.Info("product created", zap.String("id", id))
	m.bus.Publish(events.ItemCreated{Item: item.Clone()})
	return item, nil
}

// UpdateProduct merge-writes patch to the store and then to the mirror.
// Replacing an image deletes the old one from the media host first; that
// cleanup never fails the update. Listeners run after the item lock is
// released and get their own copy of patch.
func (m *Mirror) UpdateProduct(ctx context.Context, id string, patch models.ItemPatch) (Outcome, error) {
	unlock := m.locks.Lock(id)
	out, err := m.updateLocked(ctx, id, patch)
	unlock()
	if err != nil {
		return out, err
	}

	m.bus.Publish(events.ItemUpdated{ID: id, Data: patch.Clone()})
	return out, nil
}

func (m *Mirror) updateLocked(ctx context.Context, id string, patch models.ItemPatch) (Outcome, error) {
	var out Outcome

	current, ok := m.ProductByID(id)
	if !ok {
		return out, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if patch.IsEmpty() {
		return out, fmt.Errorf("%w: no fields to update", ErrInvalidItem)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return out, fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if patch.Category != nil || patch.ItemType != nil {
		if err := m.validate(patch.Apply(current)); err != nil {
			return out, err
		}
	}

	if patch.ImageURL != nil && current.ImageURL != "" && *patch.ImageURL != current.ImageURL {
		out.warn(m.cleaner.DeleteMedia(ctx, current.ImageURL))
	}

	if err := m.store.Set(ctx, docstore.CollectionItems, id, patch.Fields(), true); err != nil {
		m.log.Error("update product", zap.String("id", id), zap.Error(err))
		return out, fmt.Errorf("update product %s: %w", id, err)
	}

	m.mu.Lock()
	if i := m.indexLocked(id); i >= 0 {
		m.items[i] = patch.Apply(m.items[i])
	}
	m.mu.Unlock()

	m.log.Info("product updated", zap.String("id", id), zap.Int("fields", len(patch.Fields())))
	return out, nil
}

// DeleteProduct removes the item's image (best effort), its document and its
// mirror entry. A store failure leaves the mirror untouched.
func (m *Mirror) DeleteProduct(ctx context.Context, id string) (Outcome, error) {
	unlock := m.locks.Lock(id)
	out, err := m.deleteLocked(ctx, id)
	unlock()
	if err != nil {
		return out, err
	}

	m.bus.Publish(events.ItemDeleted{ID: id})
	return out, nil
}

func (m *Mirror) deleteLocked(ctx context.Context, id string) (Outcome, error) {
	var out Outcome

	current, ok := m.ProductByID(id)
	if !ok {
		return out, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if current.ImageURL != "" {
		out.warn(m.cleaner.DeleteMedia(ctx, current.ImageURL))
	}

	if err := m.store.Delete(ctx, docstore.CollectionItems, id); err != nil {
		m.log.Error("delete product", zap.String("id", id), zap.Error(err))
		return out, fmt.Errorf("delete product %s: %w", id, err)
	}

	m.mu.Lock()
	if i := m.indexLocked(id); i >= 0 {
		m.items = append(m.items[:i:i], m.items[i+1:]...)
	}
	m.mu.Unlock()

	m.log.Info("product deleted", zap.String("id", id))
	return out, nil
}

// ReplaceImage uploads a new picture for the product and points imageUrl at it.
// If the product cannot be updated the upload is removed again.
func (m *Mirror) ReplaceImage(ctx context.Context, id, filename string, r io.Reader) (Outcome, error) {
	if _, ok := m.ProductByID(id); !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if m.host == nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrUpload, media.ErrNotConfigured)
	}

	res, err := m.host.Upload(ctx, filename, r)
	if err != nil {
		m.log.Warn("image upload failed", zap.String("id", id), zap.Error(err))
		return Outcome{}, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	m.log.Info("image uploaded", zap.String("id", id), zap.String("reference_id", res.ReferenceID))

	out, err := m.UpdateProduct(ctx, id, models.ItemPatch{ImageURL: &res.URL})
	if err != nil {
		// nothing points at the new upload
		m.log.Warn("discarding uploaded image", zap.String("id", id), zap.String("reference_id", res.ReferenceID))
		out.warn(m.cleaner.DeleteMedia(ctx, res.URL))
		return out, err
	}
	return out, nil
}

func (m *Mirror) validate(it models.Item) error {
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	c, ok := m.Category(it.Category)
	if !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidItem, it.Category)
	}
	if !c.HasItemType(it.ItemType) {
		return fmt.Errorf("%w: category %q has no item type %q", ErrInvalidItem, it.Category, it.ItemType)
	}
	return nil
}

func (m *Mirror) indexLocked(id string) int {
	for i, it := range m.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
