package httphandler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ericfisherdev/cursorswitch/internal/application"
	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
)

// Operation kinds submitted by the handler.
const (
	kindRefreshCurrent = "refresh_current"
	kindSave           = "save"
	kindLogout         = "logout"
	kindManualLogin    = "manual_login"
	kindExport         = "export"
	kindRefreshAll     = "refresh_all"
	kindRestore        = "restore"
	kindDelete         = "delete"
)

// GetCurrent returns the current account view synchronously.
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Current(r.Context())
	if err != nil {
		h.writeServiceError(w, "current account", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetUsage returns request usage for the current account. 503 means the
// usage endpoint could not be reached.
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.svc.Usage(r.Context())
	if err != nil {
		h.writeServiceError(w, "usage", err)
		return
	}
	if usage == nil {
		writeError(w, http.StatusServiceUnavailable, "usage information unavailable")
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

// RefreshCurrent re-reads the current account and its live status.
func (h *Handler) RefreshCurrent(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, kindRefreshCurrent, func(ctx context.Context) (any, error) {
		return h.svc.Current(ctx)
	})
}

// SaveCurrent snapshots the current account into a saved record.
func (h *Handler) SaveCurrent(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, kindSave, func(ctx context.Context) (any, error) {
		saved, err := h.svc.SaveCurrent(ctx)
		if err != nil {
			return nil, err
		}
		return toSavedAccountResponse(saved, false), nil
	})
}

// Logout erases the stored credentials.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, kindLogout, func(ctx context.Context) (any, error) {
		return nil, h.svc.Logout(ctx)
	})
}

// ManualLogin applies user-entered credentials.
func (h *Handler) ManualLogin(w http.ResponseWriter, r *http.Request) {
	var req ManualLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := model.ManualCredentials{
		Email:        req.Email,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		SignUpType:   req.SignUpType,
	}.Normalize()
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.submit(w, r, kindManualLogin, func(ctx context.Context) (any, error) {
		return nil, h.svc.ManualLogin(ctx, input)
	})
}

// Export writes the current account's export document to the requested path.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	h.submit(w, r, kindExport, func(ctx context.Context) (any, error) {
		export, err := h.svc.Export(ctx, path)
		if err != nil {
			return nil, err
		}
		return toExportResponse(export, path), nil
	})
}

// submit hands work to the runner and answers 202 with the operation handle.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, kind string, work application.Work) {
	op := h.runner.Submit(r.Context(), kind, work)
	w.Header().Set("Location", "/api/v1/operations/"+op.ID())
	writeJSON(w, http.StatusAccepted, OperationResponse{Operation: op.Snapshot()})
}
