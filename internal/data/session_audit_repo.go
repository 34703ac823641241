package data

// Package data provides database repositories for the admin gateway.

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/contentdesk/admin-gateway/internal/errors"
	"github.com/contentdesk/admin-gateway/internal/ports"
)

// AuditEvent distinguishes the two recorded session events.
const (
	AuditEventSignIn  = "sign_in"
	AuditEventSignOut = "sign_out"
)

// AuditEntry is one row of the session audit trail.
type AuditEntry struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Roles      []string  `json:"roles"`
	Fallback   bool      `json:"fallback"`
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurred_at"`
}

// SessionAuditRepo records sign-in and sign-out events.
type SessionAuditRepo struct {
	DB *sql.DB
}

// NewSessionAuditRepo creates a new SessionAuditRepo.
func NewSessionAuditRepo(db *sql.DB) *SessionAuditRepo {
	return &SessionAuditRepo{DB: db}
}

// RecordSignIn inserts a sign-in event.
func (r *SessionAuditRepo) RecordSignIn(ctx context.Context, rec ports.SignInRecord) error {
	if rec.SessionID == "" {
		return apperrors.Validation("session ID is required")
	}
	roles, err := json.Marshal(rec.Roles)
	if err != nil {
		return fmt.Errorf("marshal roles: %w", err)
	}
	occurredAt := rec.SignedIn
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO session_audit (session_id, user_id, email, roles, fallback, event, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.SessionID, rec.UserID, rec.Email, roles, rec.Fallback, AuditEventSignIn, occurredAt)
	if err != nil {
		return apperrors.ClassifyDBError(err, "insert sign-in audit")
	}
	return nil
}

// RecordSignOut inserts a sign-out event.
func (r *SessionAuditRepo) RecordSignOut(ctx context.Context, sessionID, userID string) error {
	if sessionID == "" {
		return apperrors.Validation("session ID is required")
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO session_audit (session_id, user_id, event, occurred_at)
		VALUES ($1, $2, $3, $4)`,
		sessionID, userID, AuditEventSignOut, time.Now().UTC())
	if err != nil {
		return apperrors.ClassifyDBError(err, "insert sign-out audit")
	}
	return nil
}

// ListRecent returns the newest audit entries, newest first.
func (r *SessionAuditRepo) ListRecent(ctx context.Context, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, session_id, user_id, email, roles, fallback, event, occurred_at
		FROM session_audit
		ORDER BY occurred_at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.ClassifyDBError(err, "list session audit")
	}
	defer rows.Close()

	var out []AuditEntry
	for rows.Next() {
		var (
			entry AuditEntry
			roles []byte
		)
		if scanErr := rows.Scan(&entry.ID, &entry.SessionID, &entry.UserID, &entry.Email,
			&roles, &entry.Fallback, &entry.Event, &entry.OccurredAt); scanErr != nil {
			return nil, apperrors.ClassifyDBError(scanErr, "scan session audit row")
		}
		if len(roles) > 0 {
			if jsonErr := json.Unmarshal(roles, &entry.Roles); jsonErr != nil {
				return nil, fmt.Errorf("unmarshal roles: %w", jsonErr)
			}
		}
		out = append(out, entry)
	}
	if rowsErr := rows.Err(); rowsErr != nil && !errors.Is(rowsErr, sql.ErrNoRows) {
		return nil, apperrors.ClassifyDBError(rowsErr, "iterate session audit rows")
	}
	return out, nil
}

var _ ports.SessionAuditRecorder = (*SessionAuditRepo)(nil)
