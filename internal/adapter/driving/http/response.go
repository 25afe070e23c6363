package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/ericfisherdev/cursorswitch/internal/application"
	"github.com/ericfisherdev/cursorswitch/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// OperationResponse wraps the handle returned by every mutating endpoint.
type OperationResponse struct {
	Operation application.OperationSnapshot `json:"operation"`
}

// SavedAccountResponse is the JSON representation of a saved account. Token
// values in raw_data are masked.
type SavedAccountResponse struct {
	Email             string            `json:"email"`
	AccountType       string            `json:"account_type"`
	Membership        string            `json:"membership"`
	TrialStatus       string            `json:"trial_status"`
	ProTrialRemaining string            `json:"pro_trial_remaining"`
	SavedDate         string            `json:"saved_date"`
	File              string            `json:"file"`
	RefreshOutcome    string            `json:"refresh_outcome,omitempty"`
	LastRefreshed     string            `json:"last_refreshed,omitempty"`
	Failed            bool              `json:"failed"`
	RawData           map[string]string `json:"raw_data"`
}

// SkippedRecordResponse names a saved record that could not be parsed.
type SkippedRecordResponse struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// AccountListResponse is the body of GET /api/v1/accounts.
type AccountListResponse struct {
	Accounts []SavedAccountResponse  `json:"accounts"`
	Skipped  []SkippedRecordResponse `json:"skipped"`
}

// RefreshReportResponse is the result of a bulk refresh operation.
type RefreshReportResponse struct {
	Accounts  []SavedAccountResponse `json:"accounts"`
	Skipped   []string               `json:"skipped"`
	Total     int                    `json:"total"`
	Processed int                    `json:"processed"`
	Failed    int                    `json:"failed"`
}

// ExportResponse is the result of an export operation.
type ExportResponse struct {
	Path       string `json:"path"`
	Email      string `json:"email"`
	ExportDate string `json:"export_date"`
}

// ManualLoginRequest is the JSON body for the manual login endpoint.
type ManualLoginRequest struct {
	Email        string `json:"email"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SignUpType   string `json:"signup_type"`
}

// ExportRequest is the JSON body for the export endpoint.
type ExportRequest struct {
	Path string `json:"path"`
}

// AccountRef identifies a saved account by email and saved date.
type AccountRef struct {
	Email     string `json:"email"`
	SavedDate string `json:"saved_date"`
}

// toSavedAccountResponse converts a saved account to its masked JSON representation.
func toSavedAccountResponse(a model.SavedAccount, failed bool) SavedAccountResponse {
	return SavedAccountResponse{
		Email:             a.Email,
		AccountType:       a.AccountType,
		Membership:        a.Membership,
		TrialStatus:       a.TrialStatus,
		ProTrialRemaining: a.ProTrialRemaining,
		SavedDate:         a.SavedDate,
		File:              a.File,
		RefreshOutcome:    string(a.RefreshOutcome),
		LastRefreshed:     a.LastRefreshed,
		Failed:            failed || a.RefreshOutcome.Failed(),
		RawData:           maskCredentials(a.RawData),
	}
}

// toRefreshReportResponse converts a refresh report to its JSON representation.
func toRefreshReportResponse(report model.RefreshReport) RefreshReportResponse {
	resp := RefreshReportResponse{
		Accounts:  make([]SavedAccountResponse, 0, len(report.Accounts)),
		Skipped:   report.Skipped,
		Total:     report.Total,
		Processed: report.Processed,
		Failed:    len(report.Failed),
	}
	if resp.Skipped == nil {
		resp.Skipped = []string{}
	}
	for i, a := range report.Accounts {
		resp.Accounts = append(resp.Accounts, toSavedAccountResponse(a, report.IsFailed(i)))
	}
	return resp
}

func toExportResponse(export model.Export, path string) ExportResponse {
	return ExportResponse{
		Path:       path,
		Email:      export.Email,
		ExportDate: export.ExportDate,
	}
}

// maskCredentials copies set with token values masked.
func maskCredentials(set model.CredentialSet) map[string]string {
	return set.Masked()
}
