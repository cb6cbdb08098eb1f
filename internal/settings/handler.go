package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/pkg/httputil"
)

// Handler handles notification settings HTTP requests.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a new settings handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, validate: validator.New()}
}

// RegisterRoutes registers settings routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/settings/notifications", h.get)
	r.Put("/settings/notifications", h.update)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Get(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}
	httputil.Success(w, http.StatusOK, cfg.Redacted())
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var cfg domain.NotificationSettings
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&cfg); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	if err := h.service.Update(r.Context(), &cfg); err != nil {
		var unknown *ErrUnknownChannel
		if errors.As(err, &unknown) {
			httputil.Error(w, http.StatusBadRequest, unknown.Error())
			return
		}
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}
	httputil.Success(w, http.StatusOK, cfg.Redacted())
}
