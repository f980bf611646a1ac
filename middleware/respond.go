package middleware

import (
	"pizza-service/apperrors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError writes err as {message} with the status of its kind.
// Internal causes are logged but never sent to the caller.
func RespondError(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	status := appErr.HTTPStatus()
	log := Logger(c)

	switch appErr.Kind {
	case apperrors.KindInternal:
		log.Error("request failed", zap.Error(err))
	case apperrors.KindFulfillment:
		log.Warn("order fulfillment failed", zap.Error(err))
	default:
		log.Debug("request rejected", zap.String("kind", string(appErr.Kind)), zap.Error(err))
	}

	body := gin.H{"message": appErr.Message}
	if appErr.Kind == apperrors.KindFulfillment {
		body["followLinkToEndChaos"] = appErr.ReportURL
	}
	c.JSON(status, body)
}
