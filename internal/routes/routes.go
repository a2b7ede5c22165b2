package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/hospital-scheduler/internal/config"
	"github.com/BruksfildServices01/hospital-scheduler/internal/handlers"
	"github.com/BruksfildServices01/hospital-scheduler/internal/middleware"
	"github.com/BruksfildServices01/hospital-scheduler/internal/models"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Me           *handlers.MeHandler
	Appointments *handlers.AppointmentHandler
	AuditLogs    *handlers.AuditLogsHandler
	Feedback     *handlers.FeedbackHandler
}

func RegisterRoutes(r *gin.Engine, cfg *config.Config, h Handlers) {

	// ======================================================
	// GLOBAL MIDDLEWARE
	// ======================================================
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		// ------------------------------
		// AUTH
		// ------------------------------
		api.POST("/auth/signup", h.Auth.Signup)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/forgot-password", h.Auth.ForgotPassword)
		api.POST("/auth/reset-password", h.Auth.ResetPassword)

		api.GET("/feedback", h.Feedback.ListRecent)

		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", h.Me.GetMe)
			secured.PUT("/me/profile", h.Me.UpdateProfile)
			secured.PUT("/me/password", h.Me.ChangePassword)

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			patient := middleware.RequireRole(models.RolePatient)

			secured.POST("/appointments", patient, h.Appointments.Create)
			secured.GET("/appointments", patient, h.Appointments.ListMine)
			secured.GET("/appointments/:id", h.Appointments.Get)
			secured.PATCH("/appointments/:id/reschedule", h.Appointments.Reschedule)
			secured.PATCH("/appointments/:id/cancel", h.Appointments.Cancel)
			secured.PATCH("/appointments/:id/confirm", h.Appointments.Confirm)
			secured.PATCH("/appointments/:id/complete", h.Appointments.Complete)
			secured.DELETE("/appointments/:id", h.Appointments.Delete)

			secured.POST("/feedback", patient, h.Feedback.Submit)

			doctor := secured.Group("/doctor")
			doctor.Use(middleware.RequireRole(models.RoleDoctor))
			{
				doctor.GET("/appointments", h.Appointments.ListByDate)
				doctor.GET("/appointments/month", h.Appointments.ListByMonth)
			}

			admin := secured.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/reminders", h.Appointments.Reminders)
				admin.POST("/reminders/reconcile", h.Appointments.ReconcileReminders)
				admin.GET("/audit-logs", h.AuditLogs.List)
			}
		}
	}
}
