package notifications

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orangethewell/orangethewell-web/internal/auth"
	"github.com/orangethewell/orangethewell-web/internal/platform/httpx"
)

// Handler serves the acting user's inbox.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers notification routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListMine(r.Context(), auth.IdentityFromContext(r.Context()))
	if err != nil {
		if status := httpx.RespondError(w, err); status >= http.StatusInternalServerError {
			h.logger.Error("list notifications", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}
