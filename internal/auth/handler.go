package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"storefront/pkg/logger"
)

// Admin is the single operator account allowed to edit the catalog.
type Admin struct {
	Username     string
	PasswordHash string // bcrypt
}

type Handler struct {
	Admin  Admin
	Tokens TokenService
	log    *zap.Logger
}

func NewHandler(admin Admin, tokens TokenService, log *zap.Logger) *Handler {
	return &Handler{
		Admin:  admin,
		Tokens: tokens,
		log:    logger.OrNop(log).With(zap.String("component", "auth")),
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.login)
	rg.GET("/me", AdminMiddleware(h.Tokens), h.me)
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	if h.Admin.PasswordHash == "" {
		h.log.Warn("login attempted but no admin password is configured")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	// don't reveal which part failed
	hashErr := bcrypt.CompareHashAndPassword([]byte(h.Admin.PasswordHash), []byte(req.Password))
	if username != h.Admin.Username || hashErr != nil {
		h.log.Info("login rejected", zap.String("username", username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, exp, err := h.Tokens.Sign(username, RoleAdmin)
	if err != nil {
		h.log.Error("sign token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":       gin.H{"username": username, "role": RoleAdmin},
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) me(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"username": claims.Username,
		"role":     claims.Role,
		"token_id": claims.ID,
	})
}

// HashPassword returns the bcrypt hash to put in STOREFRONT_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
