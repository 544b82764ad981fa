// Package respond writes the JSON envelope shared by every endpoint.
package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/prodtrack/internal/apperr"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Envelope is the uniform response body.
type Envelope struct {
	Success    bool               `json:"success"`
	Data       any                `json:"data,omitempty"`
	Error      string             `json:"error,omitempty"`
	Message    string             `json:"message,omitempty"`
	Fields     map[string]string  `json:"fields,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
}

// OK writes a successful envelope carrying data.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// Page writes one page of a listing.
func Page(c *gin.Context, data any, pagination models.Pagination) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data, Pagination: &pagination})
}

// Message writes a successful envelope with a message and no data.
func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message})
}

// Abort stops the chain with an error envelope.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Error: message})
}

// Error maps err to its status and writes the error envelope. Internal
// errors are logged and their cause is never sent to the client.
func Error(c *gin.Context, logger *zap.Logger, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.AbortWithStatusJSON(status, Envelope{Error: apperr.Message(err), Fields: apperr.FieldsOf(err)})
}
