package devauth

import (
	"context"

	domainauth "github.com/contentdesk/admin-gateway/internal/domain/auth"
	"github.com/contentdesk/admin-gateway/internal/ports"
)

// StaticProfileFetcher serves a fixed role set for whatever identity signs
// in. Dev-mode stand-in for the backend profile endpoint.
type StaticProfileFetcher struct {
	Roles []string
}

func (f StaticProfileFetcher) FetchProfile(_ context.Context, in ports.FetchProfileInput) (domainauth.Profile, error) {
	return domainauth.Profile{
		ID:    in.Identity.Subject,
		Email: in.Identity.Email,
		Name:  in.Identity.Name,
		Roles: append([]string(nil), f.Roles...),
	}, nil
}

var _ ports.ProfileFetcher = StaticProfileFetcher{}
