package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"masterful/services/chat-api/internal/domain/chat"
	"masterful/services/chat-api/internal/utils/platformerrors"
)

// Envelope wraps every successful API payload.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// OK writes a 200 response with the standard envelope.
func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response with the standard envelope.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// HandleError maps domain errors onto the error envelope. Sentinel errors
// from the storage layer get their own status before the generic mapping.
func HandleError(c *gin.Context, err error, log zerolog.Logger) {
	if err == nil {
		return
	}
	if errors.Is(err, chat.ErrMessageNotFound) {
		platformerrors.WriteNotFound(c, "message not found")
		return
	}
	platformerrors.WriteError(c, err, log)
}
