package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/resident-registration/internal/domain"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "error", Result(errors.New("boom")))
	assert.Equal(t, string(domain.KindInvalidCode), Result(domain.ErrInvalidCode))
	assert.Equal(t, string(domain.KindStorage), Result(fmt.Errorf("verify: %w", domain.NewStorageError("consume", errors.New("conn reset")))))
}

func TestMustRegisterTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		MustRegister()
		MustRegister()
	})

	before := testutil.ToFloat64(VerificationsTotal.WithLabelValues("ok"))
	VerificationsTotal.WithLabelValues("ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(VerificationsTotal.WithLabelValues("ok")))
}
