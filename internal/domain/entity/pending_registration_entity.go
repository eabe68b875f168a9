package entity

import "time"

// PendingRegistration holds form data until the email address is verified.
// It lives until promoted, superseded by a re-submit, or ExpiresAt passes.
type PendingRegistration struct {
	Profile   Profile
	StagedAt  time.Time
	ExpiresAt time.Time
}

func (p *PendingRegistration) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}
