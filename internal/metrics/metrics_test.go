package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/catalog"
	"storefront/internal/docstore"
	"storefront/internal/events"
	"storefront/internal/media"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("%w: x", catalog.ErrNotFound), "not_found"},
		{catalog.ErrInvalidItem, "invalid"},
		{fmt.Errorf("%w: too big", catalog.ErrUpload), "upload_failed"},
		{fmt.Errorf("update: %w", &docstore.StoreError{Op: "set", Err: errors.New("x")}), "store_error"},
		{errors.New("other"), "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Result(tt.err))
	}
}

func TestCounters(t *testing.T) {
	m := New()

	bus := events.NewBus(nil)
	bus.Subscribe(m)
	bus.Publish(events.Ready{})
	bus.Publish(events.ItemDeleted{ID: "a"})
	bus.Publish(events.ItemDeleted{ID: "b"})

	m.Mutation("delete", nil)
	m.Mutation("delete", catalog.ErrNotFound)
	m.CleanupFailed(media.CleanupWarning{ReferenceID: "abc123"})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Events.WithLabelValues(string(events.KindReady))))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Events.WithLabelValues(string(events.KindItemDeleted))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("delete", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Mutations.WithLabelValues("delete", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CleanupFailures))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/products/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/x1", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/products/:id", "404")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "storefront_http_requests_total")
}
