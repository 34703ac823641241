package auth

// Package auth contains domain-level types for session establishment and
// role-gated authorization. It is pure and free of framework/adapter concerns.

// Identity represents the authenticated principal returned by the identity
// provider. Adapters map provider-specific claims into this shape.
type Identity struct {
	Subject string // stable IdP identifier (OIDC "sub")
	Email   string
	Name    string
	Picture string // avatar URL claim, may be empty
}

// Profile is the backend-side user record the identity provider does not know
// about. Roles come exclusively from here; a missing roles field means zero
// roles, never "unknown/all roles".
type Profile struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	Photo string   `json:"photo,omitempty"`
}

// CurrentUser is the merged authenticated user. It is only ever constructed
// by MergeUser or FallbackUser; no other component may synthesize one.
// Role strings keep their backend-provided casing for display; comparisons
// normalize case at predicate time.
type CurrentUser struct {
	ID     string   `json:"id"`
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
	Avatar string   `json:"avatar,omitempty"`
}

// Clone returns an independent copy so consumers cannot mutate the session's
// authoritative user through a shared roles slice.
func (u *CurrentUser) Clone() *CurrentUser {
	if u == nil {
		return nil
	}
	out := *u
	out.Roles = append([]string(nil), u.Roles...)
	return &out
}
