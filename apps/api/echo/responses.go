package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform response body shape; Error is set by the
// HTTPErrorHandler only.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	Count   *int        `json:"count,omitempty"`
}

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, Envelope{Success: true, Data: data})
}

func respondMessage(ctx echo.Context, code int, msg string) error {
	return ctx.JSON(code, Envelope{Success: true, Message: msg})
}

// respondList always reports the item count; a nil slice renders as [].
func respondList(ctx echo.Context, data interface{}, count int) error {
	return ctx.JSON(http.StatusOK, Envelope{Success: true, Data: data, Count: &count})
}
