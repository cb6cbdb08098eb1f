package renewals

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: domain.ErrSubscriptionNotFound, Status: http.StatusNotFound, Message: "subscription not found"},
}

// Handler exposes the manual triggers: run a check pass now, send a
// single-subscription test message, relay an arbitrary notification.
type Handler struct {
	checker   *Checker
	validator *validator.Validate
}

// NewHandler creates a renewals handler.
func NewHandler(checker *Checker) *Handler {
	return &Handler{
		checker:   checker,
		validator: validator.New(),
	}
}

// RegisterRoutes registers the trigger routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/check", h.RunCheck)
	r.Post("/notify", h.Notify)
	r.Post("/subscriptions/{id}/test", h.TestSubscription)
}

// RunCheck handles POST /check.
func (h *Handler) RunCheck(w http.ResponseWriter, r *http.Request) {
	summary, err := h.checker.RunPass(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, summary)
}

// TestSubscription handles POST /subscriptions/{id}/test.
func (h *Handler) TestSubscription(w http.ResponseWriter, r *http.Request) {
	results, err := h.checker.TestSubscription(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, results)
}

// NotifyRequest is the body for the relay endpoint.
type NotifyRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" validate:"required"`
}

// Notify handles POST /notify.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if req.Title == "" {
		req.Title = "Notification"
	}

	results, err := h.checker.Notify(r.Context(), req.Title, req.Content)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, results)
}
