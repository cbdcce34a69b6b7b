package handlers

import (
	"consult_flow_app_go/db"
	"consult_flow_app_go/middleware"
	"consult_flow_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

type assignRequest struct {
	FormSubmissionID *string `json:"form_submission_id,omitempty" validate:"omitempty,uuid"`
}

// AssignTicketHandler runs the routing engine for a ticket
func AssignTicketHandler(c echo.Context) error {
	var req assignRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	ticketID := c.Param("id")
	consultantID, err := services.AssignConsultant(db.DB, ticketID, req.FormSubmissionID, now())
	if err != nil {
		return serviceError(err, "Failed to assign consultant")
	}

	ticket, err := services.GetTicket(db.DB, ticketID)
	if err != nil {
		return serviceError(err, "Failed to fetch ticket")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"consultant_id": consultantID,
		"ticket":        ticket,
	})
}

type overrideRequest struct {
	ConsultantID string `json:"consultant_id" validate:"required"`
	Reason       string `json:"reason" validate:"required,max=1000"`
}

// OverrideAssignmentHandler assigns the consultant an admin picked
func OverrideAssignmentHandler(c echo.Context) error {
	admin := middleware.GetCurrentUser(c)

	var req overrideRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	ticketID := c.Param("id")
	consultantID, err := services.OverrideAssignment(db.DB, ticketID, req.ConsultantID, admin.ID, req.Reason, now())
	if err != nil {
		return serviceError(err, "Failed to override assignment")
	}

	ticket, err := services.GetTicket(db.DB, ticketID)
	if err != nil {
		return serviceError(err, "Failed to fetch ticket")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"consultant_id": consultantID,
		"ticket":        ticket,
	})
}

type teamMemberRequest struct {
	ConsultantID string `json:"consultant_id" validate:"required"`
}

// InviteCollaboratorHandler adds a collaborator pending the user's approval
func InviteCollaboratorHandler(c echo.Context) error {
	var req teamMemberRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	member, err := services.InviteCollaborator(db.DB, c.Param("id"), req.ConsultantID, now())
	if err != nil {
		return serviceError(err, "Failed to invite collaborator")
	}
	return c.JSON(http.StatusCreated, member)
}

// ApproveCollaboratorHandler records the ticket owner's approval
func ApproveCollaboratorHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	member, err := services.ApproveCollaborator(db.DB, c.Param("id"), c.Param("consultantId"), user.ID, now())
	if err != nil {
		return serviceError(err, "Failed to approve collaborator")
	}
	return c.JSON(http.StatusOK, member)
}

// ReferTicketHandler refers a ticket to another consultant
func ReferTicketHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var req teamMemberRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	member, err := services.ReferTicket(db.DB, c.Param("id"), req.ConsultantID, user.ID, now())
	if err != nil {
		return serviceError(err, "Failed to refer ticket")
	}
	return c.JSON(http.StatusCreated, member)
}
