package services

import (
	"consult_flow_app_go/logger"
	"consult_flow_app_go/models"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrInvalidStatusTransition is returned when a status change is not allowed
	ErrInvalidStatusTransition = errors.New("invalid ticket status transition")
	// ErrDuplicateTeamMember is returned when the (ticket, consultant, role) triple already exists
	ErrDuplicateTeamMember = errors.New("consultant already holds this role on the ticket")
	// ErrCollaboratorNotApproved is returned when an unapproved collaborator acts on a ticket
	ErrCollaboratorNotApproved = errors.New("collaborator has not been approved by the user")
	// ErrNotTeamMember is returned when a consultant is not on the ticket's team
	ErrNotTeamMember = errors.New("consultant is not on the ticket team")
	// ErrNotTicketOwner is returned when someone other than the ticket's user approves a collaborator
	ErrNotTicketOwner = errors.New("only the ticket owner can do this")
	// ErrEmptyNarrative is returned when a ticket has no description
	ErrEmptyNarrative = errors.New("ticket description is required")
)

var narrativePolicy = bluemonday.StrictPolicy()

// SanitizeNarrative strips markup from user-supplied text
func SanitizeNarrative(s string) string {
	return strings.TrimSpace(html.UnescapeString(narrativePolicy.Sanitize(s)))
}

// IntakeRequest is a new consultation request from a user
type IntakeRequest struct {
	UserID           string
	Category         string
	Description      string
	FormSubmissionID *string
}

// IntakeResult reports what intake decided
type IntakeResult struct {
	Ticket       *models.ConsultationTicket `json:"ticket"`
	Assessment   RiskAssessment             `json:"assessment"`
	ConsultantID string                     `json:"consultant_id,omitempty"`
	Routed       bool                       `json:"routed"`
}

// CreateTicket stores a new waiting ticket with a generated ticket number
func CreateTicket(db *gorm.DB, ticket *models.ConsultationTicket, now time.Time) error {
	if ticket.TicketNumber == "" {
		ticket.TicketNumber = models.GenerateTicketNumber(now)
	}
	ticket.Status = models.TicketStatusWaiting
	if err := db.Create(ticket).Error; err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	return nil
}

// IntakeTicket sanitizes and assesses the narrative, creates the ticket and routes it.
// A routing miss is not an error: the ticket stays waiting with Routed=false.
func IntakeTicket(db *gorm.DB, req IntakeRequest, now time.Time) (*IntakeResult, error) {
	description := SanitizeNarrative(req.Description)
	if description == "" {
		return nil, ErrEmptyNarrative
	}

	assessment := AssessConsultationRisk(description)
	level := assessment.RiskLevel

	var submission *models.FormSubmission
	if req.FormSubmissionID != nil && *req.FormSubmissionID != "" {
		submission = &models.FormSubmission{}
		if err := db.First(submission, "id = ? AND user_id = ?", *req.FormSubmissionID, req.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSubmissionNotFound
			}
			return nil, err
		}
		level = models.MaxRiskLevel(level, submission.RiskLevel)
	}

	flags, err := json.Marshal(assessment.RiskFlags)
	if err != nil {
		return nil, err
	}

	ticket := &models.ConsultationTicket{
		UserID:             req.UserID,
		Category:           strings.TrimSpace(req.Category),
		Description:        description,
		RiskLevel:          level,
		RiskScore:          assessment.RiskScore,
		RiskFlags:          datatypes.JSON(flags),
		RequiresEscalation: level == models.RiskLevelCritical || level == models.RiskLevelHigh,
		FormSubmissionID:   req.FormSubmissionID,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := CreateTicket(tx, ticket, now); err != nil {
			return err
		}
		if submission != nil {
			if err := tx.Model(&models.FormSubmission{}).Where("id = ?", submission.ID).
				Update("ticket_id", ticket.ID).Error; err != nil {
				return fmt.Errorf("failed to link submission: %w", err)
			}
		}
		return recordAudit(tx, AuditEntry{
			UserID:       req.UserID,
			UserRole:     models.RoleUser,
			ResourceType: "ConsultationTicket",
			ResourceID:   ticket.ID,
			ResourceName: ticket.TicketNumber,
			Action:       models.AuditActionCreate,
			Description:  fmt.Sprintf("Ticket opened with risk level %s", level),
			NewValues:    map[string]interface{}{"risk_level": level, "risk_flags": assessment.RiskFlags},
		})
	})
	if err != nil {
		return nil, err
	}

	result := &IntakeResult{Ticket: ticket, Assessment: assessment}
	consultantID, err := AssignConsultant(db, ticket.ID, req.FormSubmissionID, now)
	switch {
	case errors.Is(err, ErrNoConsultantFound):
		logger.Log.Warn("Ticket left unassigned for manual triage",
			zap.String("ticket_number", ticket.TicketNumber),
			zap.String("risk_level", string(level)))
	case err != nil:
		return nil, err
	default:
		result.ConsultantID = consultantID
		result.Routed = true
	}

	if err := db.Preload("Team").First(ticket, "id = ?", ticket.ID).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// GetTicket loads a ticket with its consultant and team members
func GetTicket(db *gorm.DB, id string) (*models.ConsultationTicket, error) {
	var ticket models.ConsultationTicket
	if err := db.Preload("Consultant").Preload("Team.Consultant").First(&ticket, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// UpdateTicketStatus moves a ticket along its lifecycle
func UpdateTicketStatus(db *gorm.DB, ticketID, status, actorID string) (*models.ConsultationTicket, error) {
	var ticket models.ConsultationTicket
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ticket, "id = ?", ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if !models.CanTransitionTicket(ticket.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, ticket.Status, status)
		}

		previous := ticket.Status
		if err := tx.Model(&ticket).Update("status", status).Error; err != nil {
			return err
		}
		return recordAudit(tx, AuditEntry{
			UserID:       actorID,
			ResourceType: "ConsultationTicket",
			ResourceID:   ticket.ID,
			ResourceName: ticket.TicketNumber,
			Action:       models.AuditActionUpdate,
			OldValues:    map[string]interface{}{"status": previous},
			NewValues:    map[string]interface{}{"status": status},
		})
	})
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// addTeamMember inserts a (ticket, consultant, role) row, rejecting duplicates
func addTeamMember(tx *gorm.DB, ticketID, consultantID string, role models.TeamRole, now time.Time) (*models.ConsultationTicketConsultant, error) {
	var ticketCount, consultantCount int64
	if err := tx.Model(&models.ConsultationTicket{}).Where("id = ?", ticketID).Count(&ticketCount).Error; err != nil {
		return nil, err
	}
	if ticketCount == 0 {
		return nil, ErrTicketNotFound
	}
	if err := tx.Model(&models.Consultant{}).Where("id = ?", consultantID).Count(&consultantCount).Error; err != nil {
		return nil, err
	}
	if consultantCount == 0 {
		return nil, ErrConsultantNotFound
	}

	var existing int64
	if err := tx.Model(&models.ConsultationTicketConsultant{}).
		Where("ticket_id = ? AND consultant_id = ? AND role = ?", ticketID, consultantID, role).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, ErrDuplicateTeamMember
	}

	member := &models.ConsultationTicketConsultant{
		TicketID:     ticketID,
		ConsultantID: consultantID,
		Role:         role,
		InvitedAt:    now,
	}
	if err := tx.Create(member).Error; err != nil {
		return nil, fmt.Errorf("failed to add team member: %w", err)
	}
	return member, nil
}

// InviteCollaborator adds a collaborator; the user must approve before they gain access
func InviteCollaborator(db *gorm.DB, ticketID, consultantID string, now time.Time) (*models.ConsultationTicketConsultant, error) {
	var member *models.ConsultationTicketConsultant
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		member, err = addTeamMember(tx, ticketID, consultantID, models.TeamRoleCollaborator, now)
		return err
	})
	return member, err
}

// ApproveCollaborator records the ticket owner's approval of a collaborator
func ApproveCollaborator(db *gorm.DB, ticketID, consultantID, userID string, now time.Time) (*models.ConsultationTicketConsultant, error) {
	var member models.ConsultationTicketConsultant
	err := db.Transaction(func(tx *gorm.DB) error {
		var ticket models.ConsultationTicket
		if err := tx.First(&ticket, "id = ?", ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if ticket.UserID != userID {
			return ErrNotTicketOwner
		}

		if err := tx.First(&member, "ticket_id = ? AND consultant_id = ? AND role = ?",
			ticketID, consultantID, models.TeamRoleCollaborator).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotTeamMember
			}
			return err
		}
		if member.UserApprovedAt != nil {
			return nil
		}
		member.UserApprovedAt = &now
		return tx.Model(&member).Update("user_approved_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ReferTicket hands a ticket to another consultant and marks it referred
func ReferTicket(db *gorm.DB, ticketID, consultantID, actorID string, now time.Time) (*models.ConsultationTicketConsultant, error) {
	var member *models.ConsultationTicketConsultant
	err := db.Transaction(func(tx *gorm.DB) error {
		var ticket models.ConsultationTicket
		if err := tx.First(&ticket, "id = ?", ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}
		if !models.CanTransitionTicket(ticket.Status, models.TicketStatusReferred) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, ticket.Status, models.TicketStatusReferred)
		}

		var err error
		member, err = addTeamMember(tx, ticketID, consultantID, models.TeamRoleReferred, now)
		if err != nil {
			return err
		}
		if err := tx.Model(&ticket).Update("status", models.TicketStatusReferred).Error; err != nil {
			return err
		}
		return recordAudit(tx, AuditEntry{
			UserID:       actorID,
			ResourceType: "ConsultationTicket",
			ResourceID:   ticket.ID,
			ResourceName: ticket.TicketNumber,
			Action:       models.AuditActionUpdate,
			Description:  "Referred to consultant " + consultantID,
			OldValues:    map[string]interface{}{"status": ticket.Status},
			NewValues:    map[string]interface{}{"status": models.TicketStatusReferred},
		})
	})
	return member, err
}

// CanAccessInternalNotes reports whether a consultant may read internal notes and message the user
func CanAccessInternalNotes(db *gorm.DB, ticketID, consultantID string) (bool, error) {
	var members []models.ConsultationTicketConsultant
	if err := db.Where("ticket_id = ? AND consultant_id = ?", ticketID, consultantID).Find(&members).Error; err != nil {
		return false, err
	}
	for i := range members {
		if members[i].IsApproved() {
			return true, nil
		}
	}
	return false, nil
}

// PostTicketMessage adds a message. Consultants must be approved team members;
// internal notes are consultant-only.
func PostTicketMessage(db *gorm.DB, ticketID, senderUserID, body string, internal bool, now time.Time) (*models.TicketMessage, error) {
	body = SanitizeNarrative(body)
	if body == "" {
		return nil, ErrEmptyNarrative
	}

	var ticket models.ConsultationTicket
	if err := db.First(&ticket, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	if senderUserID == ticket.UserID {
		if internal {
			return nil, ErrNotTeamMember
		}
	} else {
		var consultant models.Consultant
		if err := db.First(&consultant, "user_id = ?", senderUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotTeamMember
			}
			return nil, err
		}
		var memberships int64
		if err := db.Model(&models.ConsultationTicketConsultant{}).
			Where("ticket_id = ? AND consultant_id = ?", ticketID, consultant.ID).
			Count(&memberships).Error; err != nil {
			return nil, err
		}
		if memberships == 0 {
			return nil, ErrNotTeamMember
		}
		allowed, err := CanAccessInternalNotes(db, ticketID, consultant.ID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrCollaboratorNotApproved
		}
	}

	message := &models.TicketMessage{
		TicketID:   ticketID,
		SenderID:   senderUserID,
		Body:       body,
		IsInternal: internal,
		CreatedAt:  now,
	}
	if err := db.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to post message: %w", err)
	}
	return message, nil
}
