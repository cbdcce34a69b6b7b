package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamRole is the role a consultant holds on a ticket's care team
type TeamRole string

const (
	TeamRolePrimary      TeamRole = "primary"
	TeamRoleCollaborator TeamRole = "collaborator"
	TeamRoleReferred     TeamRole = "referred"
)

// IsValidTeamRole checks if the role is valid
func IsValidTeamRole(role string) bool {
	switch TeamRole(role) {
	case TeamRolePrimary, TeamRoleCollaborator, TeamRoleReferred:
		return true
	}
	return false
}

// RequiresUserApproval reports whether the end user must approve the role
func (r TeamRole) RequiresUserApproval() bool {
	switch r {
	case TeamRolePrimary, TeamRoleReferred:
		return false
	case TeamRoleCollaborator:
		return true
	}
	return true
}

// ConsultationTicketConsultant links a consultant to a ticket with a role
type ConsultationTicketConsultant struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TicketID     string      `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_consultant_role" json:"ticket_id"`
	ConsultantID string      `gorm:"type:uuid;not null;uniqueIndex:idx_ticket_consultant_role" json:"consultant_id"`
	Consultant   *Consultant `gorm:"foreignKey:ConsultantID" json:"consultant,omitempty"`
	Role         TeamRole    `gorm:"not null;uniqueIndex:idx_ticket_consultant_role" json:"role"`

	InvitedAt      time.Time  `gorm:"not null" json:"invited_at"`
	UserApprovedAt *time.Time `json:"user_approved_at,omitempty"`
}

// BeforeCreate hook to generate UUID
func (m *ConsultationTicketConsultant) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ConsultationTicketConsultant model
func (ConsultationTicketConsultant) TableName() string {
	return "consultation_ticket_consultants"
}

// IsApproved checks if the member may view internal notes and message the user
func (m *ConsultationTicketConsultant) IsApproved() bool {
	if !m.Role.RequiresUserApproval() {
		return true
	}
	return m.UserApprovedAt != nil
}
