package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkin/internal/admin"
	"checkin/internal/auth"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": FormatBindingError(err)})
		return
	}

	tok, err := h.admin.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, admin.ErrMissingCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	case errors.Is(err, admin.ErrInvalidCredentials):
		h.metrics.Login(false)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	case err != nil:
		h.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login error"})
		return
	}

	h.metrics.Login(true)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Login successful",
		"token":      tok.Value,
		"expires_at": tok.ExpiresAt.Unix(),
	})
}

func (h *Handler) logout(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if err := h.admin.Logout(c.Request.Context(), claims); err != nil {
		h.logger.Error("logout failed", zap.Error(err), zap.String("jti", claims.ID))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
