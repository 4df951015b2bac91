package domain

import "time"

// Session represents a verified App Bridge or extension session token
type Session struct {
	Shop      string    `json:"shop"`
	Subject   string    `json:"sub,omitempty"`
	SessionID string    `json:"sid,omitempty"`
	Issuer    string    `json:"iss,omitempty"`
	ExpiresAt time.Time `json:"exp"`
}
