package identity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/subgarden/subgarden/internal/pkg/httputil"
)

// CookieSettings contains settings for the session cookie.
type CookieSettings struct {
	Secure bool
	Domain string
}

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service        *Service
	validate       *validator.Validate
	cookieSettings CookieSettings
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service, cookieSettings CookieSettings) *Handler {
	return &Handler{
		service:        service,
		validate:       validator.New(),
		cookieSettings: cookieSettings,
	}
}

// RegisterRoutes registers identity routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.Me)
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents login response.
type LoginResponse struct {
	Username string `json:"username"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httputil.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}

	h.setSessionCookie(w, token)
	httputil.Success(w, http.StatusOK, LoginResponse{Username: req.Username})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	httputil.Success(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me handles GET /auth/me. It only runs behind the auth middleware, so
// reaching it means the session is valid.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, _ := httputil.SubjectFromContext(r.Context())
	httputil.Success(w, http.StatusOK, LoginResponse{Username: subject})
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     httputil.SessionTokenCookie,
		Value:    token,
		Path:     "/",
		Domain:   h.cookieSettings.Domain,
		MaxAge:   int(h.service.TokenDuration().Seconds()),
		HttpOnly: true,
		Secure:   h.cookieSettings.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     httputil.SessionTokenCookie,
		Value:    "",
		Path:     "/",
		Domain:   h.cookieSettings.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSettings.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
