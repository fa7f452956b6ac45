package domain

import "time"

// Shop is a merchant store that installed the app. AccessToken is kept
// encrypted at rest; IntegrationKey authenticates admin API calls.
type Shop struct {
	ID             string     `json:"id"`
	Domain         string     `json:"domain"`
	AccessToken    string     `json:"-"`
	Scopes         []string   `json:"scopes"`
	IntegrationKey string     `json:"-"`
	InstalledAt    time.Time  `json:"installedAt"`
	UninstalledAt  *time.Time `json:"uninstalledAt,omitempty"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Installed reports whether the shop holds a usable access token
func (s *Shop) Installed() bool {
	return s != nil && s.AccessToken != "" && s.UninstalledAt == nil
}

// OAuthState is the pending state of an install started at /auth/shopify
type OAuthState struct {
	Shop      string    `json:"shop"`
	State     string    `json:"state"`
	ReturnURL string    `json:"return_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
