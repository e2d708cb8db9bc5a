package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"sport_sessions/internal/booking"
)

// StatusFor maps a rejection kind onto an HTTP status.
func StatusFor(kind booking.Kind) int {
	switch kind {
	case booking.KindValidation:
		return http.StatusBadRequest
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindForbidden:
		return http.StatusForbidden
	case booking.KindNotAvailable, booking.KindAlreadyJoined, booking.KindTimeConflict,
		booking.KindSessionFull, booking.KindAlreadyCancelled:
		return http.StatusConflict
	case booking.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the {"error","code"} body for err and aborts the chain.
func respondError(c *gin.Context, err error) {
	var be *booking.Error
	if !errors.As(err, &be) {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Unhandled error.")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error", "code": "internal"})
		return
	}
	c.AbortWithStatusJSON(StatusFor(be.Kind), gin.H{"error": be.Message, "code": be.Kind})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg, "code": booking.KindValidation})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}
