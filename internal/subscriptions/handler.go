package subscriptions

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/subgarden/subgarden/internal/domain"
	"github.com/subgarden/subgarden/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: domain.ErrSubscriptionNotFound, Status: http.StatusNotFound, Message: "subscription not found"},
}

// Handler handles HTTP requests for the subscriptions module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a subscriptions handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers subscription CRUD routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
		r.Post("/{id}/toggle", h.ToggleActive)
	})
}

// SubscriptionRequest represents the create/update request body.
type SubscriptionRequest struct {
	Name         string     `json:"name" validate:"required"`
	Category     string     `json:"category"`
	StartDate    *time.Time `json:"start_date"`
	ExpiryDate   time.Time  `json:"expiry_date" validate:"required"`
	PeriodValue  *int       `json:"period_value" validate:"omitempty,min=1"`
	PeriodUnit   *string    `json:"period_unit" validate:"omitempty,oneof=day month year"`
	ReminderDays *int       `json:"reminder_days" validate:"omitempty,min=0"`
	Notes        string     `json:"notes"`
	IsActive     *bool      `json:"is_active"`
	AutoRenew    *bool      `json:"auto_renew"`
}

// ToggleRequest represents the toggle request body.
type ToggleRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (req *SubscriptionRequest) toInput() (CreateInput, bool) {
	input := CreateInput{
		Name:         req.Name,
		Category:     req.Category,
		StartDate:    req.StartDate,
		ExpiryDate:   req.ExpiryDate,
		ReminderDays: req.ReminderDays,
		Notes:        req.Notes,
		IsActive:     req.IsActive,
		AutoRenew:    req.AutoRenew,
	}

	// Period value and unit must be given together.
	switch {
	case req.PeriodValue != nil && req.PeriodUnit != nil:
		input.Period = &domain.Period{
			Value: *req.PeriodValue,
			Unit:  domain.PeriodUnit(*req.PeriodUnit),
		}
	case req.PeriodValue != nil || req.PeriodUnit != nil:
		return input, false
	}
	return input, true
}

// List handles GET /subscriptions.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.List(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, subs)
}

// Create handles POST /subscriptions.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	sub, err := h.service.Create(r.Context(), input)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusCreated, sub)
}

// Get handles GET /subscriptions/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, sub)
}

// Update handles PUT /subscriptions/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	sub, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, sub)
}

// Delete handles DELETE /subscriptions/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]bool{"deleted": true})
}

// ToggleActive handles POST /subscriptions/{id}/toggle.
func (h *Handler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	sub, err := h.service.ToggleActive(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, sub)
}

func (h *Handler) decodeInput(w http.ResponseWriter, r *http.Request) (CreateInput, bool) {
	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return CreateInput{}, false
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return CreateInput{}, false
	}

	input, ok := req.toInput()
	if !ok {
		httputil.Error(w, http.StatusBadRequest, "period value and unit must be set together")
		return CreateInput{}, false
	}
	return input, true
}
