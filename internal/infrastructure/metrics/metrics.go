package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/oksasatya/resident-registration/internal/domain"
)

var (
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_begin_total",
			Help: "Registration submissions by outcome.",
		},
		[]string{"result"},
	)

	ResendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_resend_total",
			Help: "Verification code resends by outcome.",
		},
		[]string{"result"},
	)

	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_verify_total",
			Help: "Verification attempts by outcome.",
		},
		[]string{"result"},
	)

	MailDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registration_mail_dispatch_total",
			Help: "Outbound registration mail by message type and outcome.",
		},
		[]string{"type", "result"},
	)
)

var registerOnce sync.Once

// MustRegister attaches the collectors to the default registry. Safe to call
// more than once.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RegistrationsTotal,
			ResendsTotal,
			VerificationsTotal,
			MailDispatchTotal,
		)
	})
}

// Result collapses an error into a label value: "ok", a domain kind, or
// "error" for anything unclassified.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	if k := domain.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}
