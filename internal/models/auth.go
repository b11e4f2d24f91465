package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims represents the JWT payload identifying a dashboard session.
type SessionClaims struct {
	SessionID string `json:"sid"`
	Operator  string `json:"operator"`
	jwt.RegisteredClaims
}

// SessionInfo describes an opened dashboard session in responses.
type SessionInfo struct {
	ID        string    `json:"id"`
	Operator  string    `json:"operator"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	Screens   []string  `json:"screens"`
}
