package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"frost-ledger/internal/device"
	"frost-ledger/internal/dto"
	"frost-ledger/internal/minimize"
	"frost-ledger/internal/session"
	"frost-ledger/internal/wire"

	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	var se *session.StatusError
	var te *session.TransportError
	switch {
	case errors.Is(err, device.ErrUnknownDevice):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.As(err, &se):
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error:      se.Message,
			StatusWord: fmt.Sprintf("0x%04x", se.StatusWord),
		})
	case errors.As(err, &te), errors.Is(err, wire.ErrDecode):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, wire.ErrEncoding), errors.Is(err, minimize.ErrIndexOutOfRange):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
}
