package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/ankulpolara/face-attend/internal/embedding"
	"github.com/ankulpolara/face-attend/internal/web/handlers"
	"github.com/ankulpolara/face-attend/internal/web/middleware"
)

func (s *Server) setupRoutes(stores Stores, provider embedding.Provider) {
	dim := s.config.Embedding.Dim
	employeesHandler := handlers.NewEmployeesHandler(stores.Employees, provider, stores.Index, dim)
	identifyHandler := handlers.NewIdentifyHandler(stores.Employees, provider, stores.Index, s.config.Attendance.Threshold, s.config.Embedding.Dim)
	attendanceHandler := handlers.NewAttendanceHandler(s.ledger(stores), stores.Sessions, stores.Employees)
	statsHandler := handlers.NewStatsHandler(stores.Employees, stores.Sessions, s.config.Location())
	configHandler := handlers.NewConfigHandler(s.config)

	token := middleware.EnsureToken(s.config.Web.APIToken)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireToken(token))

		// Employees
		r.Get("/employees", employeesHandler.List)
		r.Post("/employees", employeesHandler.Create)
		r.Get("/employees/{id}", employeesHandler.Get)
		r.Put("/employees/{id}", employeesHandler.Update)
		r.Delete("/employees/{id}", employeesHandler.Delete)
		r.Post("/employees/{id}/enroll", employeesHandler.Enroll)

		// Identification
		r.Post("/identify", identifyHandler.Identify)

		// Attendance
		r.Post("/attendance", attendanceHandler.Record)
		r.Get("/attendance", attendanceHandler.List)

		// Stats
		r.Get("/stats", statsHandler.Get)

		// Config
		r.Get("/config", configHandler.Get)
	})
}
