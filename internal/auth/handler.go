package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles authentication HTTP requests
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type requestOTPRequest struct {
	Email        string `json:"email" binding:"required,email"`
	CaptchaToken string `json:"captchaToken"`
}

type verifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type setWalletRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
}

// RequestOTP handles POST /api/v1/auth/otp/request
func (h *Handler) RequestOTP(c *gin.Context) {
	var req requestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.RequestOTP(c.Request.Context(), req.Email, req.CaptchaToken); err != nil {
		if errors.Is(err, ErrCaptchaFailed) {
			c.JSON(http.StatusForbidden, gin.H{"error": "captcha verification failed"})
			return
		}
		h.logger.Error("Failed to request OTP", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// VerifyOTP handles POST /api/v1/auth/otp/verify
func (h *Handler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.service.VerifyOTP(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		if errors.Is(err, ErrInvalidOTP) || errors.Is(err, ErrOTPExpired) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to verify OTP", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// Me handles GET /api/v1/auth/me
func (h *Handler) Me(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), UserID(c))
	if err != nil {
		h.logger.Error("Failed to load user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetWallet handles PUT /api/v1/auth/me/wallet
func (h *Handler) SetWallet(c *gin.Context) {
	var req setWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SetWallet(c.Request.Context(), UserID(c), req.WalletAddress); err != nil {
		h.logger.Error("Failed to set wallet", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
