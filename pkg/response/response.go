package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key the request id middleware fills.
const RequestIDKey = "request_id"

// APIResponse is the envelope of every JSON reply.
type APIResponse[T any] struct {
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      T         `json:"data,omitempty"`
	Meta      any       `json:"meta,omitempty"`
	Error     any       `json:"error,omitempty"`
}

// ErrorBody is the error member of a failed or partially failed reply.
type ErrorBody struct {
	Kind    string            `json:"kind"`
	Field   string            `json:"field,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func envelope[T any](ctx *gin.Context, status int, ok bool, message string) APIResponse[T] {
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now().UTC(),
		RequestID: ctx.GetString(RequestIDKey),
		Success:   ok,
		Message:   message,
	}
}

func Success[T any](ctx *gin.Context, status int, data T, message string, meta any) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := envelope[T](ctx, status, true, message)
	resp.Data, resp.Meta = data, meta
	ctx.JSON(status, resp)
	return resp
}

// Accepted answers 202 when the main work is done but a follow-up step
// failed. Both data and err reach the client.
func Accepted[T any](ctx *gin.Context, data T, message string, err any) APIResponse[T] {
	resp := envelope[T](ctx, http.StatusAccepted, true, message)
	resp.Data, resp.Error = data, err
	ctx.JSON(http.StatusAccepted, resp)
	return resp
}

// Error aborts the chain with a failure envelope.
func Error[T any](ctx *gin.Context, status int, message string, err any) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := envelope[T](ctx, status, false, message)
	resp.Error = err
	ctx.AbortWithStatusJSON(status, resp)
	return resp
}
