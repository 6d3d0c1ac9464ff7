package auth

import "time"

// RegisterRequest is the payload for POST /api/auth/register.
type RegisterRequest struct {
	Username  string `json:"username" binding:"required,min=3,max=100,username"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"firstName" binding:"max=100"`
	LastName  string `json:"lastName" binding:"max=100"`
}

// LoginRequest is the payload for POST /api/auth/login. Login accepts either
// an email address or a username.
type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the payload for POST /api/auth/refresh-token.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenPair carries the issued tokens and the access token's expiry.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// UserInfo is the public shape of an account returned from auth endpoints.
type UserInfo struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Provider       string `json:"provider,omitempty"`
}

// AuthResponse bundles tokens with the authenticated user.
type AuthResponse struct {
	TokenPair
	User UserInfo `json:"user"`
}
