package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/subgarden/subgarden/internal/pkg/ctxlog"
)

// ErrorMapping pairs a sentinel error with the HTTP status it maps to.
// An empty Message falls back to the error's own text.
type ErrorMapping struct {
	Error   error
	Status  int
	Message string
}

// HandleError resolves err against mappings and writes the mapped
// response. Unmapped errors are logged with the request-scoped logger
// and reported as an opaque 500.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if !errors.Is(err, m.Error) {
			continue
		}
		msg := m.Message
		if msg == "" {
			msg = err.Error()
		}
		Error(w, m.Status, msg)
		return
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, "internal error")
}
