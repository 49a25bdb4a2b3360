package handlers

import (
	"mime/multipart"

	"oneridetho/internal/services"
	"oneridetho/internal/utils"
	"oneridetho/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	profileService services.ProfileService
	logger         *logger.Logger
}

func NewUserHandler(profileService services.ProfileService, logger *logger.Logger) *UserHandler {
	return &UserHandler{profileService: profileService, logger: logger}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Profile retrieved", user)
}

func (h *UserHandler) UploadPhoto(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	header, file, ok := formImage(c)
	if !ok {
		return
	}
	defer file.Close()

	user, err := h.profileService.UploadPhoto(c.Request.Context(), userID, header.Filename, file, header.Size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Profile photo updated", user)
}

func (h *UserHandler) UploadVerificationPhoto(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	header, file, ok := formImage(c)
	if !ok {
		return
	}
	defer file.Close()

	url, err := h.profileService.UploadVerificationPhoto(c.Request.Context(), userID, header.Filename, file, header.Size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.CreatedResponse(c, "Verification photo uploaded", gin.H{"url": url})
}

func (h *UserHandler) GetVerification(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	details, err := h.profileService.GetVerification(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Verification details retrieved", details)
}

func (h *UserHandler) UpdateVerification(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request services.VerificationRequest
	if !bindJSON(c, &request) {
		return
	}

	details, err := h.profileService.UpdateVerification(c.Request.Context(), userID, &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Verification details saved", details)
}

func formImage(c *gin.Context) (*multipart.FileHeader, multipart.File, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "An image file is required")
		return nil, nil, false
	}
	file, err := header.Open()
	if err != nil {
		utils.BadRequestResponse(c, utils.ErrFileUploadFailed)
		return nil, nil, false
	}
	return header, file, true
}
