package handlers

import (
	"consult_flow_app_go/middleware"
	"consult_flow_app_go/models"

	"github.com/labstack/echo/v4"
)

// RegisterRoutes mounts the JSON API under /api
func RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api", middleware.RequireUser())

	admin := middleware.RequireRole(models.RoleAdmin)
	staff := middleware.RequireRole(models.RoleAdmin, models.RoleConsultant)

	// Stateless classifiers
	triage := api.Group("/triage", middleware.TriageRateLimiter.Middleware())
	triage.POST("/dream", ClassifyDreamHandler)
	triage.POST("/risk", AssessRiskHandler)

	// Tickets
	api.POST("/tickets", CreateTicketHandler, middleware.IntakeRateLimiter.Middleware())
	api.GET("/tickets/:id", GetTicketHandler)
	api.PATCH("/tickets/:id/status", UpdateTicketStatusHandler, staff)
	api.POST("/tickets/:id/messages", PostTicketMessageHandler)
	api.POST("/tickets/:id/assign", AssignTicketHandler, admin)
	api.POST("/tickets/:id/override", OverrideAssignmentHandler, admin)
	api.POST("/tickets/:id/collaborators", InviteCollaboratorHandler, staff)
	api.POST("/tickets/:id/collaborators/:consultantId/approve", ApproveCollaboratorHandler)
	api.POST("/tickets/:id/refer", ReferTicketHandler, staff)

	// Forms
	api.POST("/form-submissions", SubmitFormHandler)
	api.POST("/form-submissions/:id/score", ScoreSubmissionHandler, admin)
	api.GET("/form-templates/default", GetDefaultFormTemplateHandler)
	api.GET("/form-templates/:id", GetFormTemplateHandler)
	api.POST("/form-templates", CreateFormTemplateHandler, admin)
	api.POST("/form-templates/:id/duplicate", DuplicateFormTemplateHandler, admin)
	api.POST("/form-templates/:id/activate", ActivateFormTemplateHandler, admin)
	api.POST("/form-templates/:id/deactivate", DeactivateFormTemplateHandler, admin)
	api.DELETE("/form-templates/:id", DeleteFormTemplateHandler, admin)
	api.DELETE("/form-fields/:id", DeleteFormFieldHandler, admin)

	// Consultants
	api.GET("/consultants/workload", GetWorkloadHandler, admin)
	api.GET("/consultants/workload.xlsx", ExportWorkloadHandler, admin)
	api.POST("/consultants/import", ImportRosterHandler, admin)
	api.GET("/consultants/:id/schedule", GetScheduleHandler, staff)
	api.POST("/consultants/:id/schedule", AddScheduleWindowHandler, admin)
	api.POST("/consultants/:id/schedule/defaults", SeedDefaultScheduleHandler, admin)
	api.PUT("/schedule-windows/:id", UpdateScheduleWindowHandler, admin)
	api.DELETE("/schedule-windows/:id", DeleteScheduleWindowHandler, admin)
	api.POST("/consultants/:id/ratings", CreateRatingHandler)
	api.PUT("/ratings/:id", UpdateRatingHandler)
	api.DELETE("/ratings/:id", DeleteRatingHandler)

	// Audit
	api.GET("/audit-logs", GetAuditLogsHandler, admin)
	api.GET("/audit-logs/:type/:id", GetResourceHistoryHandler, admin)
}
