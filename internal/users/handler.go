package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/platform/httpx"
	"github.com/orangethewell/orangethewell-web/internal/rbac"
	"github.com/orangethewell/orangethewell-web/internal/roles"
)

// Handler exposes user administration over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
	roles   *roles.Service
	rbac    *rbac.Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, roleService *roles.Service, rbacService *rbac.Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, roles: roleService, rbac: rbacService}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Post("/", h.createUser)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.showUser)
		r.Put("/", h.updateUser)
		r.Delete("/", h.deleteUser)
		r.Get("/roles", h.listUserRoles)
		r.Get("/permissions", h.listUserPermissions)
		r.Put("/roles/{roleID}", h.assignRole)
		r.Delete("/roles/{roleID}", h.revokeRole)
	})
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Create(r.Context(), auth.IdentityFromContext(r.Context()), in)
	if err != nil {
		h.fail(w, "create user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Get(r.Context(), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "show user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(w, r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Update(r.Context(), auth.IdentityFromContext(r.Context()), id, in)
	if err != nil {
		h.fail(w, "update user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Delete(r.Context(), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "delete user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) listUserRoles(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	list, err := h.roles.UserRoles(r.Context(), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "list user roles", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) listUserPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	perms, err := h.rbac.UserPermissions(r.Context(), auth.IdentityFromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "list user permissions", err)
		return
	}
	httpx.JSON(w, http.StatusOK, perms)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, roleID, err := userRoleParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.rbac.AssignRole(r.Context(), auth.IdentityFromContext(r.Context()), userID, roleID); err != nil {
		h.fail(w, "assign role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	userID, roleID, err := userRoleParams(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.rbac.RevokeRole(r.Context(), auth.IdentityFromContext(r.Context()), userID, roleID); err != nil {
		h.fail(w, "revoke role", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func userRoleParams(r *http.Request) (int64, int64, error) {
	userID, err := httpx.IDParam(r, "id")
	if err != nil {
		return 0, 0, err
	}
	roleID, err := httpx.IDParam(r, "roleID")
	if err != nil {
		return 0, 0, err
	}
	return userID, roleID, nil
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	if status := httpx.RespondError(w, err); status >= http.StatusInternalServerError {
		h.logger.Error(msg, slog.Any("error", err))
	}
}
