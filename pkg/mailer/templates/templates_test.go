package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/resident-registration/config"
)

func TestRenderRegistrationOTP(t *testing.T) {
	cfg := &config.Config{CompanyName: "Barangay San Isidro", SupportURL: "https://help.example"}
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	data := NewRegistrationOTPData(cfg, "Ana Reyes", "ana@example.com", "048213",
		WithTime(now), WithExpiresAt(now.Add(3*time.Minute)))

	subject, text, html, err := Render(RegistrationOTP, data)
	require.NoError(t, err)
	assert.Equal(t, "048213 is your Barangay San Isidro verification code", subject)
	assert.Contains(t, text, "048213")
	assert.Contains(t, text, "expires in 3 minutes")
	assert.Contains(t, text, "https://help.example")
	assert.Contains(t, html, "048213")
	assert.Equal(t, RegistrationOTP, data["Type"])
}

func TestRenderWelcomeDefaults(t *testing.T) {
	data := NewWelcomeData(nil, "", "ben@example.com")
	subject, text, html, err := Render(Welcome, data)
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Resident Portal", subject)
	assert.Contains(t, text, "Hello there")
	assert.Contains(t, html, "account is ready")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", map[string]any{})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestDefaultFn(t *testing.T) {
	assert.Equal(t, "x", defaultFn("x", ""))
	assert.Equal(t, "x", defaultFn("x", nil))
	assert.Equal(t, 3, defaultFn(3, float64(0)))
	assert.Equal(t, float64(5), defaultFn(3, float64(5)))
	assert.Equal(t, "y", defaultFn("x", "y"))
	assert.Equal(t, "x", defaultFn("x", time.Time{}))
}
