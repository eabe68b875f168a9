package templates

import (
	"time"

	"github.com/oksasatya/resident-registration/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
		if !d.TimeAt.IsZero() {
			d.ExpiresInMinutes = int(utc.Sub(d.TimeAt).Round(time.Minute) / time.Minute)
		}
	}
}

func WithResidentID(id string) Option { return func(d *EmailData) { d.ResidentID = id } }

// NewBaseEmailData fills the common fields from config, then applies each Option.
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
	}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.CompanyAddress = cfg.CompanyAddress
		d.AppName = cfg.AppName
		d.LogoURL = cfg.LogoURL
		d.SupportURL = cfg.SupportURL
		d.PrivacyURL = cfg.PrivacyURL
		d.PortalURL = cfg.PortalURL
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewRegistrationOTPData(cfg *config.Config, name, email, code string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, RegistrationOTP, name, email, opts...)
	d.Code = code
	return d.Map()
}

func NewWelcomeData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, Welcome, name, email, opts...)
	return d.Map()
}
