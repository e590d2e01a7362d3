package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/account-idm/pkg/client"
	"github.com/tendant/account-idm/pkg/errors"
	"github.com/tendant/account-idm/pkg/login"
)

const msgInvalidBody = "Invalid request body"

type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone,omitempty"`
	IsBusiness bool   `json:"isBusiness,omitempty"`
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Handler serves the /auth routes
type Handler struct {
	loginService *login.LoginService
	guard        *client.Guard
	throttle     func(http.Handler) http.Handler
}

// Option configures a Handler
type Option func(*Handler)

// WithThrottle guards register and login with mw, typically a rate limiter
func WithThrottle(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.throttle = mw
	}
}

func NewHandler(loginService *login.LoginService, guard *client.Guard, opts ...Option) *Handler {
	h := &Handler{
		loginService: loginService,
		guard:        guard,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes mounts the public and authenticated auth routes on r
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		if h.throttle != nil {
			r.Use(h.throttle)
		}
		r.Post("/register", h.PostRegister)
		r.Post("/login", h.PostLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.guard.AuthMiddleware)
		r.Post("/logout", h.PostLogout)
		r.Post("/verify-password", h.PostVerifyPassword)
		r.Get("/me", h.GetMe)
	})
}

// PostRegister handles POST /register
func (h *Handler) PostRegister(w http.ResponseWriter, r *http.Request) {
	data := RegisterRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		errors.RenderError(w, r, errors.Validation(msgInvalidBody))
		return
	}

	result, err := h.loginService.Register(r.Context(), login.RegisterParams{
		Name:       data.Name,
		Email:      data.Email,
		Password:   data.Password,
		Phone:      data.Phone,
		IsBusiness: data.IsBusiness,
	})
	if err != nil {
		errors.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// PostLogin handles POST /login
func (h *Handler) PostLogin(w http.ResponseWriter, r *http.Request) {
	data := CredentialsRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		errors.RenderError(w, r, errors.Validation(msgInvalidBody))
		return
	}

	result, err := h.loginService.Login(r.Context(), data.Email, data.Password)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeInvalidCredentials) {
			slog.Info("Login rejected", "remoteAddr", r.RemoteAddr)
		}
		errors.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

// PostLogout handles POST /logout. It always succeeds for an authenticated caller.
func (h *Handler) PostLogout(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		errors.RenderError(w, r, errors.Unauthorized("No token provided"))
		return
	}

	h.loginService.Logout(r.Context(), authUser.UserUuid)
	render.JSON(w, r, map[string]bool{"ok": true})
}

// PostVerifyPassword handles POST /verify-password
func (h *Handler) PostVerifyPassword(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		errors.RenderError(w, r, errors.Unauthorized("No token provided"))
		return
	}

	data := CredentialsRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		errors.RenderError(w, r, errors.Validation(msgInvalidBody))
		return
	}

	verified, err := h.loginService.VerifyPassword(r.Context(), authUser.UserUuid, data.Email, data.Password)
	if err != nil {
		errors.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]bool{"success": verified})
}

// GetMe handles GET /me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		errors.RenderError(w, r, errors.Unauthorized("No token provided"))
		return
	}

	user, err := h.loginService.Me(r.Context(), authUser.UserUuid)
	if err != nil {
		errors.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{"user": user})
}
