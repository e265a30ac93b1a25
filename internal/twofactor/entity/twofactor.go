package entity

import "time"

// Account is the read-only slice of the external user record this module
// needs for delivery and provisioning labels.
type Account struct {
	ID    int64
	Email string
}

// Settings is the per-account two-factor state. One row per user; absent
// means two-factor authentication was never set up.
type Settings struct {
	UserID         int64
	Method         Method
	Secret         []byte // ciphertext, nil while Method is none
	ConfirmedAt    *time.Time
	LastCounter    int64
	FailedAttempts int
	LockedUntil    *time.Time
	UpdatedAt      time.Time
}

// Confirmed reports whether the second factor finished setup verification.
func (s *Settings) Confirmed() bool {
	return s != nil && s.ConfirmedAt != nil
}

// Locked reports whether verification attempts are refused until after now.
func (s *Settings) Locked(now time.Time) bool {
	return s != nil && s.LockedUntil != nil && s.LockedUntil.After(now)
}

// Challenge is a short-lived out-of-band code. Active until consumed or
// expired; a consumed challenge is terminal and immutable.
type Challenge struct {
	ID         int64
	UserID     int64
	CodeHash   string
	Channel    Channel
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// Expired reports whether the challenge may no longer be verified.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// RecoveryCode is a hashed one-time backup credential.
type RecoveryCode struct {
	ID        int64
	UserID    int64
	CodeHash  string
	CreatedAt time.Time
	UsedAt    *time.Time
}
