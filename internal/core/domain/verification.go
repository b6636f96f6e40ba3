package domain

import "time"

// EmailVerification is a pending proof that the caller controls an email
// address. It is short-lived and keyed by the address.
type EmailVerification struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	Verified  bool      `json:"verified"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (v *EmailVerification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
