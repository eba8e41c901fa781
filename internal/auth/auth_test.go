package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testTokens() TokenService {
	return TokenService{Secret: []byte("test-secret"), Issuer: "storefront", Duration: time.Hour}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewHandler(Admin{Username: "admin", PasswordHash: string(hash)}, testTokens(), nil)
	r := gin.New()
	h.RegisterRoutes(r.Group("/auth"))
	r.DELETE("/products/:id", AdminMiddleware(testTokens()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"by": MustGetClaims(c).Username})
	})
	return r
}

func login(t *testing.T, r http.Handler, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(map[string]string{"username": user, "password": pass})
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginAndAdminMiddleware(t *testing.T) {
	r := newTestRouter(t)

	w := login(t, r, "admin", "s3cret-pass")
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)

	req := httptest.NewRequest(http.MethodDelete, "/products/x", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"by":"admin"`)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "bearer "+body.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginRejected(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, http.StatusUnauthorized, login(t, r, "admin", "wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, login(t, r, "root", "s3cret-pass").Code)
	assert.Equal(t, http.StatusBadRequest, login(t, r, "", "").Code)
}

func TestAdminMiddlewareRejects(t *testing.T) {
	r := newTestRouter(t)
	ts := testTokens()

	nonAdmin, _, err := ts.Sign("viewer", "viewer")
	require.NoError(t, err)

	other := TokenService{Secret: []byte("other"), Issuer: "storefront", Duration: time.Hour}
	forged, _, err := other.Sign("admin", RoleAdmin)
	require.NoError(t, err)

	expired := TokenService{Secret: ts.Secret, Issuer: ts.Issuer, Duration: -time.Minute}
	old, _, err := expired.Sign("admin", RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized},
		{"expired", "Bearer " + old, http.StatusUnauthorized},
		{"not admin", "Bearer " + nonAdmin, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/products/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestTokenClaims(t *testing.T) {
	ts := testTokens()
	a, _, err := ts.Sign("admin", RoleAdmin)
	require.NoError(t, err)
	b, _, err := ts.Sign("admin", RoleAdmin)
	require.NoError(t, err)

	ca, err := ts.Parse(a)
	require.NoError(t, err)
	cb, err := ts.Parse(b)
	require.NoError(t, err)
	assert.NotEmpty(t, ca.ID)
	assert.NotEqual(t, ca.ID, cb.ID)
	assert.Equal(t, "admin", ca.Subject)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, ca)
	s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ts.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("pw")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("pw")))
}
