package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/contentdesk/admin-gateway/internal/data"
)

// AuditLister lists recent session audit entries.
type AuditLister interface {
	ListRecent(ctx context.Context, limit int) ([]data.AuditEntry, error)
}

// AuditHandlers exposes the session audit trail to administrators.
type AuditHandlers struct {
	Repo AuditLister
}

// List returns recent sign-in/sign-out events, newest first.
// GET /auth/audit?limit=N.
func (h *AuditHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, ErrorParams{
				Code:    http.StatusBadRequest,
				ErrCode: "invalid_limit",
				Err:     err,
			})
			return
		}
		limit = n
	}

	entries, err := h.Repo.ListRecent(r.Context(), limit)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "audit_list_failed",
			Err:     err,
		})
		return
	}
	if entries == nil {
		entries = []data.AuditEntry{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
