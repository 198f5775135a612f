package auth

// returned by login and federated login; the refresh token travels in an
// HttpOnly cookie, never in the body
type SessionResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	ExpiresIn   int64  `json:"expires_in"`
}

// returned by refresh
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}
