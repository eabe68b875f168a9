package entity

import "time"

// ChallengeTTL is the fixed validity window of a verification code.
const ChallengeTTL = 3 * time.Minute

// OTPChallenge is the outstanding verification code for one email.
// At most one exists per email; issuing a new one replaces the old.
type OTPChallenge struct {
	Email     string
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func NewOTPChallenge(email, code string, now time.Time) *OTPChallenge {
	return &OTPChallenge{
		Email:     email,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(ChallengeTTL),
	}
}

// Expired reports whether now is strictly past ExpiresAt.
func (c *OTPChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
