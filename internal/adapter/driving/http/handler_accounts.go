package httphandler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// ListAccounts returns every saved account with tokens masked, plus the
// records that could not be parsed.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	listing, err := h.svc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list saved accounts", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := AccountListResponse{
		Accounts: make([]SavedAccountResponse, 0, len(listing.Accounts)),
		Skipped:  make([]SkippedRecordResponse, 0, len(listing.Skipped)),
	}
	for _, a := range listing.Accounts {
		resp.Accounts = append(resp.Accounts, toSavedAccountResponse(a, false))
	}
	for _, sk := range listing.Skipped {
		resp.Skipped = append(resp.Skipped, SkippedRecordResponse{File: sk.File, Error: sk.Err.Error()})
	}

	writeJSON(w, http.StatusOK, resp)
}

// RefreshAll refreshes every saved account.
func (h *Handler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, kindRefreshAll, func(ctx context.Context) (any, error) {
		report, err := h.svc.RefreshAll(ctx)
		if err != nil {
			return nil, err
		}
		return toRefreshReportResponse(report), nil
	})
}

// Restore writes a saved account's credentials back into the editor store.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	var req AccountRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.valid() {
		writeError(w, http.StatusBadRequest, "email and saved_date are required")
		return
	}

	h.submit(w, r, kindRestore, func(ctx context.Context) (any, error) {
		return nil, h.svc.Restore(ctx, req.Email, req.SavedDate)
	})
}

// DeleteAccount removes one saved record identified by the email and
// saved_date query parameters.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ref := AccountRef{
		Email:     r.URL.Query().Get("email"),
		SavedDate: r.URL.Query().Get("saved_date"),
	}
	if !ref.valid() {
		writeError(w, http.StatusBadRequest, "email and saved_date are required")
		return
	}

	h.submit(w, r, kindDelete, func(ctx context.Context) (any, error) {
		return nil, h.svc.Delete(ctx, ref.Email, ref.SavedDate)
	})
}

// valid reports whether both identity fields are present.
func (a AccountRef) valid() bool {
	return strings.TrimSpace(a.Email) != "" && strings.TrimSpace(a.SavedDate) != ""
}
