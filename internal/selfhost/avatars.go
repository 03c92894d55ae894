package selfhost

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aora/backend/internal/backend"
)

// Avatars builds initials avatar URLs against a ui-avatars compatible service.
type Avatars struct {
	base *url.URL
}

// NewAvatars parses the avatar service base URL.
func NewAvatars(baseURL string) (*Avatars, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("avatars: invalid base url %q", baseURL)
	}
	return &Avatars{base: u}, nil
}

// Initials returns an image URL rendering the initials of name.
func (a *Avatars) Initials(name string) (string, error) {
	u := *a.base
	q := u.Query()
	q.Set("name", name)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

var _ backend.Avatars = (*Avatars)(nil)
