package models

import "time"

// TokenAttempt records a single verification attempt against a token code.
// Rows are append-only: they are written for every attempt regardless of
// outcome and read in aggregate to enforce the failed-attempt limit.
type TokenAttempt struct {
	ID            string    `db:"id"`
	TokenCode     string    `db:"token_code"`
	OriginIP      string    `db:"origin_ip"`
	DeviceID      string    `db:"device_id"`
	Success       bool      `db:"success"`
	FailureReason *string   `db:"failure_reason"`
	AttemptTime   time.Time `db:"attempt_time"`
	ExpiresAt     time.Time `db:"expires_at"`
}
