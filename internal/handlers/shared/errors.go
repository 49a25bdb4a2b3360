package handlers

import (
	"errors"
	"net/http"

	"oneridetho/internal/middleware"
	"oneridetho/internal/services"
	"oneridetho/internal/utils"
	"oneridetho/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError maps service errors onto the API envelope. Anything it does
// not recognise is logged and reported as a bare 500.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var inputErr *services.InputError

	switch {
	case errors.As(err, &inputErr):
		utils.ValidationErrorResponse(c, inputErr.Fields)
	case errors.Is(err, services.ErrAlreadyRated):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrTooManyStops),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrResetFlow),
		errors.Is(err, services.ErrInvalidInput):
		utils.BadRequestResponse(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.ErrorResponse(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", utils.ErrInvalidCredentials)
	case errors.Is(err, services.ErrUnauthenticated):
		utils.UnauthorizedResponse(c)
	case errors.Is(err, services.ErrProfileIncomplete):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, services.ErrScheduleConflict),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrAlreadyExists),
		errors.Is(err, services.ErrRequestInFlight):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrRouteUnavailable):
		utils.UnprocessableResponse(c, err.Error())
	case errors.Is(err, services.ErrPaymentGateway):
		utils.BadGatewayResponse(c, utils.ErrPaymentFailed)
	case errors.Is(err, services.ErrUpstreamNotification):
		utils.BadGatewayResponse(c, "Could not deliver the message, please try again")
	default:
		entry := log.WithError(err).WithField("path", c.FullPath())
		if requestID := c.GetString(middleware.ContextRequestID); requestID != "" {
			entry = entry.WithRequestID(requestID)
		}
		entry.Error("Request failed")
		utils.InternalServerErrorResponse(c)
	}
}

func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
	}
	return userID, ok
}

func objectIDParam(c *gin.Context, name, label string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+label+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		utils.BadRequestResponse(c, "Invalid request: "+err.Error())
		return false
	}
	return true
}
