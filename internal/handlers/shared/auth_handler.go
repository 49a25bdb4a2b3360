package handlers

import (
	"oneridetho/internal/middleware"
	"oneridetho/internal/services"
	"oneridetho/internal/utils"
	"oneridetho/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService  services.AuthService
	resetService services.PasswordResetService
	logger       *logger.Logger
}

func NewAuthHandler(authService services.AuthService, resetService services.PasswordResetService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		resetService: resetService,
		logger:       logger,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var request services.RegisterRequest
	if !bindJSON(c, &request) {
		return
	}

	response, err := h.authService.Register(c.Request.Context(), &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Account created successfully", response)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var request services.LoginRequest
	if !bindJSON(c, &request) {
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Logged in successfully", response)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetSessionToken(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Logged out successfully", nil)
}

func (h *AuthHandler) GoogleAuthURL(c *gin.Context) {
	url, err := h.authService.GoogleAuthURL(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Google sign-in URL generated", gin.H{"url": url})
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	response, err := h.authService.GoogleCallback(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Signed in with Google", response)
}

func (h *AuthHandler) CheckEmail(c *gin.Context) {
	exists, err := h.authService.CheckEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Email checked", gin.H{"emailExists": exists})
}

func (h *AuthHandler) CheckPhone(c *gin.Context) {
	exists, err := h.authService.CheckPhone(c.Request.Context(), c.Query("phone"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Phone checked", gin.H{"phoneExists": exists})
}

type startResetRequest struct {
	Contact string `json:"contact"`
}

type verifyResetRequest struct {
	FlowID string `json:"flow_id"`
	Code   string `json:"code"`
}

type completeResetRequest struct {
	FlowID   string `json:"flow_id"`
	Password string `json:"password"`
}

func (h *AuthHandler) StartPasswordReset(c *gin.Context) {
	var request startResetRequest
	if !bindJSON(c, &request) {
		return
	}

	flow, err := h.resetService.Start(c.Request.Context(), request.Contact)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Recovery code sent", flow)
}

func (h *AuthHandler) VerifyPasswordReset(c *gin.Context) {
	var request verifyResetRequest
	if !bindJSON(c, &request) {
		return
	}

	flow, err := h.resetService.Verify(c.Request.Context(), request.FlowID, request.Code)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Code verified", flow)
}

func (h *AuthHandler) CompletePasswordReset(c *gin.Context) {
	var request completeResetRequest
	if !bindJSON(c, &request) {
		return
	}

	if err := h.resetService.Complete(c.Request.Context(), request.FlowID, request.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Password updated", nil)
}
