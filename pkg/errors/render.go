package errors

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
)

// ErrResponse is the JSON body written for every failed request.
type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	Message        string `json:"message"`
}

// Render implements render.Renderer
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ToResponse converts any error into the client-facing response. Structured
// errors keep their message; anything else becomes a generic 500.
func ToResponse(err error) *ErrResponse {
	var e *Error
	if errors.As(err, &e) && e.Kind() != KindInternal {
		return &ErrResponse{
			HTTPStatusCode: e.HTTPStatusCode(),
			Message:        e.Message,
		}
	}
	return &ErrResponse{
		HTTPStatusCode: http.StatusInternalServerError,
		Message:        "Server error",
	}
}

// RenderError writes err as a JSON error response. Internal errors are logged
// with the request path since their cause is not sent to the client.
func RenderError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ToResponse(err)
	if resp.HTTPStatusCode == http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	if rerr := render.Render(w, r, resp); rerr != nil {
		slog.Error("Failed to render error response", "error", rerr)
	}
}
