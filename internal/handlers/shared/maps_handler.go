package handlers

import (
	"strconv"

	"oneridetho/internal/services"
	"oneridetho/internal/utils"
	"oneridetho/pkg/logger"

	"github.com/gin-gonic/gin"
)

// MapsHandler serves the booking form: address lookup and fare previews.
type MapsHandler struct {
	routeService services.RouteService
	logger       *logger.Logger
}

func NewMapsHandler(routeService services.RouteService, logger *logger.Logger) *MapsHandler {
	return &MapsHandler{routeService: routeService, logger: logger}
}

func (h *MapsHandler) EstimateFare(c *gin.Context) {
	var request services.FareEstimateRequest
	if !bindJSON(c, &request) {
		return
	}

	estimate, err := h.routeService.EstimateFare(c.Request.Context(), &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Fare estimated", estimate)
}

func (h *MapsHandler) Geocode(c *gin.Context) {
	location, err := h.routeService.Geocode(c.Request.Context(), c.Query("address"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Address resolved", location)
}

func (h *MapsHandler) ReverseGeocode(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		utils.BadRequestResponse(c, "lat and lng must be numbers")
		return
	}

	location, err := h.routeService.ReverseGeocode(c.Request.Context(), lat, lng)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponse(c, "Address resolved", location)
}

func (h *MapsHandler) Autocomplete(c *gin.Context) {
	suggestions, err := h.routeService.Autocomplete(c.Request.Context(), c.Query("input"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	utils.SuccessResponseWithMeta(c, "Suggestions retrieved", suggestions, &utils.Meta{Count: len(suggestions)})
}
