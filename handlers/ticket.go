package handlers

import (
	"consult_flow_app_go/db"
	"consult_flow_app_go/middleware"
	"consult_flow_app_go/models"
	"consult_flow_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

type createTicketRequest struct {
	Category         string  `json:"category" validate:"max=100"`
	Description      string  `json:"description" validate:"required,max=10000"`
	FormSubmissionID *string `json:"form_submission_id,omitempty" validate:"omitempty,uuid"`
}

// CreateTicketHandler opens a consultation ticket for the calling user and routes it
func CreateTicketHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var req createTicketRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	result, err := services.IntakeTicket(db.DB, services.IntakeRequest{
		UserID:           user.ID,
		Category:         req.Category,
		Description:      req.Description,
		FormSubmissionID: req.FormSubmissionID,
	}, now())
	if err != nil {
		return serviceError(err, "Failed to create ticket")
	}
	return c.JSON(http.StatusCreated, result)
}

// canViewTicket allows admins, the ticket owner, and consultants on the ticket team
func canViewTicket(user *models.User, ticket *models.ConsultationTicket) bool {
	if user.IsAdmin() || ticket.UserID == user.ID {
		return true
	}
	if user.Role != models.RoleConsultant {
		return false
	}
	for _, member := range ticket.Team {
		if member.Consultant != nil && member.Consultant.UserID == user.ID {
			return true
		}
	}
	return false
}

// canManageTicket allows admins and consultants holding an approved seat on the ticket team
func canManageTicket(user *models.User, ticket *models.ConsultationTicket) bool {
	if user.IsAdmin() {
		return true
	}
	if user.Role != models.RoleConsultant {
		return false
	}
	for i := range ticket.Team {
		member := &ticket.Team[i]
		if member.Consultant != nil && member.Consultant.UserID == user.ID && member.IsApproved() {
			return true
		}
	}
	return false
}

// GetTicketHandler returns a ticket with its team
func GetTicketHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	ticket, err := services.GetTicket(db.DB, c.Param("id"))
	if err != nil {
		return serviceError(err, "Failed to fetch ticket")
	}
	if !canViewTicket(user, ticket) {
		return echo.NewHTTPError(http.StatusNotFound, services.ErrTicketNotFound.Error())
	}
	return c.JSON(http.StatusOK, ticket)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=waiting in_progress completed referred rejected"`
}

// UpdateTicketStatusHandler moves a ticket to a new status
func UpdateTicketStatusHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	current, err := services.GetTicket(db.DB, c.Param("id"))
	if err != nil {
		return serviceError(err, "Failed to fetch ticket")
	}
	if !canManageTicket(user, current) {
		return echo.NewHTTPError(http.StatusForbidden, "Only the ticket's consultants can change its status")
	}

	ticket, err := services.UpdateTicketStatus(db.DB, current.ID, req.Status, user.ID)
	if err != nil {
		return serviceError(err, "Failed to update ticket status")
	}
	return c.JSON(http.StatusOK, ticket)
}

type postMessageRequest struct {
	Body     string `json:"body" validate:"required,max=10000"`
	Internal bool   `json:"internal"`
}

// PostTicketMessageHandler adds a message from the calling user
func PostTicketMessageHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var req postMessageRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	msg, err := services.PostTicketMessage(db.DB, c.Param("id"), user.ID, req.Body, req.Internal, now())
	if err != nil {
		return serviceError(err, "Failed to post message")
	}
	return c.JSON(http.StatusCreated, msg)
}
