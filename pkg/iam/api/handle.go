package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/account-idm/pkg/client"
	"github.com/tendant/account-idm/pkg/errors"
	"github.com/tendant/account-idm/pkg/iam"
)

const (
	msgInvalidBody  = "Invalid request body"
	msgUserNotFound = "User not found"
)

type Handler struct {
	adminService *iam.AdminService
}

func NewHandler(adminService *iam.AdminService) *Handler {
	return &Handler{
		adminService: adminService,
	}
}

type CreateUserRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Phone      string `json:"phone,omitempty"`
	IsAdmin    bool   `json:"isAdmin,omitempty"`
	IsBusiness bool   `json:"isBusiness,omitempty"`
	IsUser     *bool  `json:"isUser,omitempty"`
}

type UpdateUserRequest struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	IsAdmin    *bool   `json:"isAdmin,omitempty"`
	IsBusiness *bool   `json:"isBusiness,omitempty"`
	IsUser     *bool   `json:"isUser,omitempty"`
}

type TempAdminRequest struct {
	Duration string `json:"duration"`
}

// RegisterRoutes registers the user administration routes.
// These routes must be mounted behind the auth and admin middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.ListUsers)
	r.Post("/users", h.CreateUser)
	r.Put("/users/{id}", h.UpdateUser)
	r.Delete("/users/{id}", h.DeleteUser)
	r.Patch("/users/{id}/promote-business", h.PromoteBusiness)
	r.Patch("/users/{id}/temp-admin", h.AssignTempAdmin)
}

// ListUsers handles GET /users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		errors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, users)
}

// CreateUser handles POST /users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	data := CreateUserRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		errors.RenderError(w, r, errors.Validation(msgInvalidBody))
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), iam.CreateUserParams{
		Name:       data.Name,
		Email:      data.Email,
		Password:   data.Password,
		Phone:      data.Phone,
		IsAdmin:    data.IsAdmin,
		IsBusiness: data.IsBusiness,
		IsUser:     data.IsUser,
	})
	if err != nil {
		errors.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, user)
}

// UpdateUser handles PUT /users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	caller, targetID, ok := h.callerAndTarget(w, r)
	if !ok {
		return
	}

	data := UpdateUserRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		errors.RenderError(w, r, errors.Validation(msgInvalidBody))
		return
	}

	user, err := h.adminService.UpdateUser(r.Context(), caller.UserUuid, targetID, iam.UpdateUserParams{
		Name:       data.Name,
		Email:      data.Email,
		Phone:      data.Phone,
		IsAdmin:    data.IsAdmin,
		IsBusiness: data.IsBusiness,
		IsUser:     data.IsUser,
	})
	if err != nil {
		errors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, user)
}

// DeleteUser handles DELETE /users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, targetID, ok := h.callerAndTarget(w, r)
	if !ok {
		return
	}

	if err := h.adminService.DeleteUser(r.Context(), caller.UserUuid, targetID); err != nil {
		errors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"message": "User deleted successfully"})
}

// PromoteBusiness handles PATCH /users/{id}/promote-business
func (h *Handler) PromoteBusiness(w http.ResponseWriter, r *http.Request) {
	targetID, ok := targetFromPath(w, r)
	if !ok {
		return
	}

	user, err := h.adminService.PromoteToBusinessAccount(r.Context(), targetID)
	if err != nil {
		errors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, user)
}

// AssignTempAdmin handles PATCH /users/{id}/temp-admin
func (h *Handler) AssignTempAdmin(w http.ResponseWriter, r *http.Request) {
	targetID, ok := targetFromPath(w, r)
	if !ok {
		return
	}

	data := TempAdminRequest{}
	if err := render.DecodeJSON(r.Body, &data); err != nil {
		errors.RenderError(w, r, errors.Validation(msgInvalidBody))
		return
	}

	user, err := h.adminService.AssignTempAdminPrivileges(r.Context(), targetID, data.Duration)
	if err != nil {
		errors.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, user)
}

func (h *Handler) callerAndTarget(w http.ResponseWriter, r *http.Request) (*client.AuthUser, uuid.UUID, bool) {
	caller, ok := client.GetAuthUser(r)
	if !ok {
		slog.Error("Failed to get authenticated user from context")
		errors.RenderError(w, r, errors.Unauthorized("No token provided"))
		return nil, uuid.Nil, false
	}
	targetID, ok := targetFromPath(w, r)
	return caller, targetID, ok
}

// targetFromPath parses {id}. A malformed id cannot name an account, so it
// is reported as not found.
func targetFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		errors.RenderError(w, r, errors.New(errors.ErrCodeUserNotFound, msgUserNotFound))
		return uuid.Nil, false
	}
	return id, true
}
