package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"raffle-bff/apperrors"
	"raffle-bff/clients"
	"raffle-bff/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusClientClosedRequest is reported when the caller went away mid-request.
const statusClientClosedRequest = 499

// respondError maps err onto a JSON error response. Remote 4xx answers keep
// their status and message; remote 5xx and transport failures become 502.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	_ = c.Error(err)
	ctx := c.Request.Context()
	log = logger.ForRequest(ctx, log)

	if apiErr, ok := clients.AsAPIError(err); ok {
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
			return
		}
		log.Error("Raffle API failed", zap.Int("status", apiErr.Status), zap.String("message", apiErr.Message))
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Message})
		return
	}

	switch {
	case errors.Is(err, context.Canceled):
		c.Status(statusClientClosedRequest)
		return
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out"})
		return
	}

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		if appErr.Code >= 500 {
			log.Error(appErr.Message, zap.Error(err))
		}
		c.JSON(appErr.Code, gin.H{"error": appErr.Message})
		return
	}

	log.Error("Unhandled error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": apperrors.ErrInternal.Message})
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return id, true
}
