package httphandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/cursorswitch/internal/application"
	"github.com/ericfisherdev/cursorswitch/internal/domain/port/driven"
)

// defaultHistoryLimit is used when the history request has no valid limit.
const defaultHistoryLimit = 50

// Handler is the HTTP driving adapter that serves the local REST API.
// Mutating endpoints submit work to the Runner and answer 202 with the
// operation handle; clients poll /operations/{id} or listen on /events.
type Handler struct {
	svc    *application.AccountService
	runner *application.Runner
	bus    *application.EventBus
	logger *slog.Logger

	keepAlive time.Duration
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	svc *application.AccountService,
	runner *application.Runner,
	bus *application.EventBus,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		svc:       svc,
		runner:    runner,
		bus:       bus,
		logger:    logger,
		keepAlive: 15 * time.Second,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging, cross-origin, content-type and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)

	mux.HandleFunc("GET /api/v1/account", h.GetCurrent)
	mux.HandleFunc("GET /api/v1/account/usage", h.GetUsage)
	mux.HandleFunc("POST /api/v1/account/refresh", h.RefreshCurrent)
	mux.HandleFunc("POST /api/v1/account/save", h.SaveCurrent)
	mux.HandleFunc("POST /api/v1/account/logout", h.Logout)
	mux.HandleFunc("POST /api/v1/account/manual", h.ManualLogin)
	mux.HandleFunc("POST /api/v1/account/export", h.Export)

	mux.HandleFunc("GET /api/v1/accounts", h.ListAccounts)
	mux.HandleFunc("POST /api/v1/accounts/refresh", h.RefreshAll)
	mux.HandleFunc("POST /api/v1/accounts/restore", h.Restore)
	mux.HandleFunc("DELETE /api/v1/accounts", h.DeleteAccount)

	mux.HandleFunc("GET /api/v1/operations/{id}", h.GetOperation)
	mux.HandleFunc("GET /api/v1/history", h.History)
	mux.HandleFunc("GET /api/v1/events", h.Events)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = requireJSON(wrapped)
	wrapped = crossOriginMiddleware(logger, wrapped)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// GetOperation returns the current snapshot of a submitted operation.
func (h *Handler) GetOperation(w http.ResponseWriter, r *http.Request) {
	op, ok := h.runner.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "operation not found")
		return
	}
	writeJSON(w, http.StatusOK, op.Snapshot())
}

// History returns recent journal entries, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.svc.History(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to read history", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// writeServiceError maps an application error onto a status code.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, driven.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, driven.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, driven.ErrNoCredential), errors.Is(err, driven.ErrNotConnected):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", "operation", op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
