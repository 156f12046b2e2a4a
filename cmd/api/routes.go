package main

import (
	"github.com/gin-gonic/gin"

	"telecaller-platform/internal/auth"
	"telecaller-platform/internal/httpapi"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, mgr *auth.Manager) {
	// public
	r.GET("/health", h.Health)
	r.POST("/auth/login", h.Login)

	// Provider webhooks (public). Twilio posts form-encoded callbacks
	// here; the URLs are passed to it when each call is placed.
	// NOTE: protect with Twilio signature validation in production.
	r.POST("/call/webhook", h.VoiceWebhook)
	r.POST("/call/status", h.StatusWebhook)

	// Catalog reads stay open for the dialer UI.
	r.GET("/programs", h.ListPrograms)
	r.GET("/programs/:id/events", h.ListProgramEvents)
	r.GET("/events/upcoming", h.UpcomingEvents)
	r.GET("/partners", h.ListPartners)

	// OTP issue/verify for follow-up contact confirmation.
	r.POST("/notify/otp", h.SendOTP)
	r.POST("/notify/otp/verify", h.VerifyOTP)

	// protected
	authed := r.Group("/")
	authed.Use(auth.RequireAccessToken(mgr))
	{
		authed.POST("/call/start", h.StartCall)
		authed.GET("/call/status/:id", h.GetCallStatus)
		authed.POST("/campaign/execute", h.ExecuteCampaign)
		authed.GET("/reports/calls", h.CallsReport)

		admin := authed.Group("/admin")
		admin.Use(auth.RequireAnyRole(auth.RoleAdmin))
		{
			admin.POST("/partners", h.CreatePartner)
			admin.POST("/programs", h.CreateProgram)
			admin.POST("/events", h.CreateEvent)
		}
	}
}
