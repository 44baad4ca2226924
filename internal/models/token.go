package models

import "time"

// Token represents a single-use access token sold to a customer.
// A row is created by an admin after payment is confirmed out of band
// and is retained forever for audit; it is never deleted by the service.
type Token struct {
	ID        string     `json:"id"`
	Phone     string     `json:"phone"`
	Code      string     `json:"-"` // 6-digit secret, never exposed after issuance
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	DeviceID  *string    `json:"device_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsBound reports whether the token has been bound to a device.
func (t *Token) IsBound() bool {
	return t.DeviceID != nil && *t.DeviceID != ""
}

// BoundTo reports whether the token is bound to the given device identifier.
func (t *Token) BoundTo(deviceID string) bool {
	return t.IsBound() && *t.DeviceID == deviceID
}
