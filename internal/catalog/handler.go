package catalog

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"storefront/internal/docstore"
	"storefront/internal/media"
	"storefront/pkg/models"
)

const defaultMaxUpload = 10 << 20

// MutationRecorder is told about the result of every write request.
type MutationRecorder interface {
	Mutation(op string, err error)
}

type Handler struct {
	Mirror         *Mirror
	Recorder       MutationRecorder
	MaxUploadBytes int64
}

func NewHandler(m *Mirror, rec MutationRecorder) *Handler {
	return &Handler{Mirror: m, Recorder: rec, MaxUploadBytes: defaultMaxUpload}
}

// RegisterRoutes mounts the read routes on public and the write routes on
// admin, which is expected to carry the admin middleware.
func (h *Handler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.GET("/categories", h.listCategories)
	public.GET("/categories/:id/item-types", h.itemTypes)
	public.GET("/products", h.listProducts)   // ?category=&type=
	public.GET("/products/:id", h.getProduct) // mirror lookup

	admin.POST("/products", h.createProduct)
	admin.PATCH("/products/:id", h.updateProduct)
	admin.DELETE("/products/:id", h.deleteProduct)
	admin.POST("/products/:id/image", h.uploadImage)
}

// RegisterHealth mounts /health and /ready.
func (h *Handler) RegisterHealth(r gin.IRoutes) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", h.ready)
}

func (h *Handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if !h.Mirror.Initialized() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "reason": "catalog not initialized"})
		return
	}
	if err := h.Mirror.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "store_error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"products": len(h.Mirror.Products()),
	})
}

func (h *Handler) listCategories(c *gin.Context) {
	cats := h.Mirror.Categories()
	out := make([]models.Category, 0, len(cats))
	for _, cat := range cats {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	c.JSON(http.StatusOK, gin.H{"total": len(out), "items": out})
}

func (h *Handler) itemTypes(c *gin.Context) {
	types, err := h.Mirror.ItemTypes(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": c.Param("id"), "itemTypes": types})
}

func (h *Handler) listProducts(c *gin.Context) {
	f := Filter{Category: c.Query("category"), ItemType: c.Query("type")}

	var (
		items []models.Item
		err   error
	)
	switch {
	case f.ItemType != "":
		items, err = h.Mirror.QueryProducts(c.Request.Context(), f)
	case f.Category != "":
		items = h.Mirror.ProductsByCategory(f.Category)
	default:
		items = h.Mirror.Products()
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
}

func (h *Handler) getProduct(c *gin.Context) {
	it, ok := h.Mirror.ProductByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *Handler) createProduct(c *gin.Context) {
	var req models.Item
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.ID = ""

	it, err := h.Mirror.CreateProduct(c.Request.Context(), req)
	h.record("create", err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, it)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var patch models.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	id := c.Param("id")
	out, err := h.Mirror.UpdateProduct(c.Request.Context(), id, patch)
	h.record("update", err)
	if err != nil {
		writeError(c, err)
		return
	}
	it, _ := h.Mirror.ProductByID(id)
	c.JSON(http.StatusOK, withWarnings(gin.H{"item": it}, out))
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id := c.Param("id")
	out, err := h.Mirror.DeleteProduct(c.Request.Context(), id)
	h.record("delete", err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, withWarnings(gin.H{"status": "deleted", "id": id}, out))
}

func (h *Handler) uploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer f.Close()

	id := c.Param("id")
	out, err := h.Mirror.ReplaceImage(c.Request.Context(), id, fh.Filename, f)
	h.record("upload_image", err)
	if err != nil {
		writeError(c, err)
		return
	}
	it, _ := h.Mirror.ProductByID(id)
	c.JSON(http.StatusOK, withWarnings(gin.H{"item": it}, out))
}

func (h *Handler) record(op string, err error) {
	if h.Recorder != nil {
		h.Recorder.Mutation(op, err)
	}
}

func withWarnings(body gin.H, out Outcome) gin.H {
	if !out.HasWarnings() {
		return body
	}
	ws := make([]gin.H, 0, len(out.Warnings))
	for _, w := range out.Warnings {
		ws = append(ws, warningJSON(w))
	}
	body["warnings"] = ws
	return body
}

func warningJSON(w media.CleanupWarning) gin.H {
	msg := ""
	if w.Err != nil {
		msg = w.Err.Error()
	}
	return gin.H{"url": w.URL, "referenceId": w.ReferenceID, "error": msg}
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidItem):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUpload):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case docstore.IsStoreError(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": "store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
