package mailer

import (
	"context"
	"time"

	"github.com/oksasatya/resident-registration/config"
	"github.com/oksasatya/resident-registration/internal/domain/entity"
	mailtpl "github.com/oksasatya/resident-registration/pkg/mailer/templates"
)

// Notifier turns registration events into email jobs.
type Notifier struct {
	Dispatcher Dispatcher
	Config     *config.Config
}

func NewNotifier(d Dispatcher, cfg *config.Config) *Notifier {
	return &Notifier{Dispatcher: d, Config: cfg}
}

// SendVerificationCode mails the OTP for a staged registration.
func (n *Notifier) SendVerificationCode(ctx context.Context, p entity.Profile, c *entity.OTPChallenge) error {
	data := mailtpl.NewRegistrationOTPData(n.Config, p.DisplayName(), c.Email, c.Code,
		mailtpl.WithTime(c.IssuedAt),
		mailtpl.WithExpiresAt(c.ExpiresAt),
	)
	return n.Dispatcher.Dispatch(ctx, EmailJob{To: c.Email, Template: mailtpl.RegistrationOTP, Data: data})
}

// SendWelcome mails the confirmation for a freshly created resident.
func (n *Notifier) SendWelcome(ctx context.Context, r *entity.Resident) error {
	data := mailtpl.NewWelcomeData(n.Config, r.Profile.DisplayName(), r.Profile.Email,
		mailtpl.WithTime(time.Now()),
		mailtpl.WithResidentID(r.ID),
	)
	return n.Dispatcher.Dispatch(ctx, EmailJob{To: r.Profile.Email, Template: mailtpl.Welcome, Data: data})
}
