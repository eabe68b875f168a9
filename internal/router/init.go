package router

import (
	"github.com/oksasatya/resident-registration/internal/container"
	handlers "github.com/oksasatya/resident-registration/internal/interface/http"
	"github.com/oksasatya/resident-registration/internal/router/modules"
)

// InitModules builds handlers from the container and registers their modules.
// This function should be called once during application startup.
func InitModules(r *Registry, c *container.Container) {
	registration := handlers.NewRegistrationHandler(c.Registration, c.Logger)
	r.Add(modules.NewRegistrationModule(registration))

	r.AddRoot(modules.NewHealthModule(handlers.NewHealthHandler(c.Store)))
	if c.Config.MetricsEnabled {
		r.AddRoot(modules.NewMetricsModule())
	}
}
