package application

import (
	"context"

	"github.com/oksasatya/resident-registration/internal/domain/entity"
)

//go:generate mockgen -destination=mocks/ports_mock.go -package=mocks . Notifier,IDImageArchiver

// Notifier delivers registration mail. Implemented by mailer.Notifier.
type Notifier interface {
	SendVerificationCode(ctx context.Context, p entity.Profile, c *entity.OTPChallenge) error
	SendWelcome(ctx context.Context, r *entity.Resident) error
}

// IDImageArchiver copies a resident's ID image to long-term storage and
// returns its URL.
type IDImageArchiver interface {
	Archive(ctx context.Context, r *entity.Resident) (string, error)
}

// registeredMarker is implemented by caching lookups that want to learn
// about freshly committed residents.
type registeredMarker interface {
	MarkRegistered(ctx context.Context, email string)
}
