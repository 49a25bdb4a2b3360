package handlers

import (
	"oneridetho/internal/services"
	"oneridetho/internal/utils"
	"oneridetho/pkg/logger"

	"github.com/gin-gonic/gin"
)

type DriverHandler struct {
	driverService services.DriverService
	logger        *logger.Logger
}

func NewDriverHandler(driverService services.DriverService, logger *logger.Logger) *DriverHandler {
	return &DriverHandler{driverService: driverService, logger: logger}
}

func (h *DriverHandler) ListDriverIDs(c *gin.Context) {
	ids, err := h.driverService.ListDriverIDs(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Drivers retrieved", ids, &utils.Meta{Count: len(ids)})
}

func (h *DriverHandler) ListDriverEmails(c *gin.Context) {
	emails, err := h.driverService.ListDriverEmails(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Driver emails retrieved", emails, &utils.Meta{Count: len(emails)})
}

func (h *DriverHandler) GetDriver(c *gin.Context) {
	driverID, ok := objectIDParam(c, "id", "driver")
	if !ok {
		return
	}

	driver, err := h.driverService.GetDriver(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Driver retrieved", driver)
}

func (h *DriverHandler) GetLocation(c *gin.Context) {
	driverID, ok := objectIDParam(c, "id", "driver")
	if !ok {
		return
	}

	position, err := h.driverService.GetLocation(c.Request.Context(), driverID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Driver location retrieved", position)
}
