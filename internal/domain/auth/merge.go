package auth

// MergeUser constructs the authoritative CurrentUser from an identity and a
// successfully fetched backend profile. Field precedence:
//
//	id     = profile.ID    else identity.Subject
//	email  = profile.Email else identity.Email
//	name   = profile.Name  else identity.Name else identity.Email
//	roles  = profile.Roles (empty when absent, never inherited from the IdP)
//	avatar = identity.Picture else profile.Photo
func MergeUser(identity Identity, profile Profile) *CurrentUser {
	return &CurrentUser{
		ID:     firstNonEmpty(profile.ID, identity.Subject),
		Email:  firstNonEmpty(profile.Email, identity.Email),
		Name:   firstNonEmpty(profile.Name, identity.Name, identity.Email),
		Roles:  append([]string(nil), profile.Roles...),
		Avatar: firstNonEmpty(identity.Picture, profile.Photo),
	}
}

// FallbackUser constructs the CurrentUser used when the profile fetch fails.
// The backend is the only source of roles, so a fetch failure means zero
// roles, not stale roles. This fails closed: no roles, no admin access.
func FallbackUser(identity Identity) *CurrentUser {
	return &CurrentUser{
		ID:     identity.Subject,
		Email:  identity.Email,
		Name:   firstNonEmpty(identity.Name, identity.Email),
		Roles:  []string{},
		Avatar: identity.Picture,
	}
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
