package dto

// ========== Auth DTOs ==========

// TokenRequest exchanges a user identity for a token pair. Identity issuance
// is handled upstream; this service only needs a stable user id and email.
type TokenRequest struct {
	Email    string `json:"email" binding:"required"`
	Nickname string `json:"nickname,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// TokenResponse carries an issued token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// RefreshRequest trades a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}
