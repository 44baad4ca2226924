package models

import "time"

// HumanChallenge is a short-lived arithmetic question used to separate
// humans from scripts. The expected answer never leaves the server.
// A challenge is consumed by the first verification attempt that
// references it, whether or not the answer was correct.
type HumanChallenge struct {
	ID        string    `json:"id"`
	Answer    int       `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired checks if the challenge is past its expiry.
func (c *HumanChallenge) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
