package appwrite

import (
	"net/url"
	"strings"

	"github.com/aora/backend/internal/backend"
)

// Avatars builds avatar URLs served by the project.
type Avatars struct {
	client *Client
}

// Initials returns an image URL rendering the initials of name. A blank name
// leaves the choice to the backend, which falls back to the current account.
func (a *Avatars) Initials(name string) (string, error) {
	params := url.Values{}
	if strings.TrimSpace(name) != "" {
		params.Set("name", name)
	}
	return a.client.resourceURL("/avatars/initials", params)
}

var _ backend.Avatars = (*Avatars)(nil)
