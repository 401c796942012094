package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kozaktomas/caregiver-faces/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	facesHandler := handlers.NewFacesHandler(s.service)
	rolesHandler := handlers.NewRolesHandler(s.service)
	recognizeHandler := handlers.NewRecognizeHandler(s.service)

	s.router.Get("/api/v1/health", handlers.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		// Registry
		r.Get("/faces", facesHandler.List)
		r.Post("/faces", facesHandler.Register)
		r.Delete("/faces", facesHandler.DeleteAll)
		r.Delete("/faces/{name}", facesHandler.Delete)
		r.Post("/caregivers", facesHandler.RegisterCaregiver)
		r.Post("/patients", facesHandler.RegisterPatient)

		// Roles
		r.Get("/roles/{name}", rolesHandler.Get)
		r.Delete("/roles/{name}", rolesHandler.Remove)

		r.Post("/recognize", recognizeHandler.Recognize)
	})
}
