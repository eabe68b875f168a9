package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/resident-registration/internal/interface/http"
)

// RegistrationModule wires the self-registration flow:
// POST /api/registrations, POST /api/registrations/:email/resend,
// POST /api/registrations/:email/verify
type RegistrationModule struct {
	Handler *handlers.RegistrationHandler
}

func NewRegistrationModule(h *handlers.RegistrationHandler) *RegistrationModule {
	return &RegistrationModule{Handler: h}
}

func (m *RegistrationModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/registrations")
	g.POST("", m.Handler.Register)
	g.POST("/:email/resend", m.Handler.Resend)
	g.POST("/:email/verify", m.Handler.Verify)
}
