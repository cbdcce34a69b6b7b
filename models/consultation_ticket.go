package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ticket status constants
const (
	TicketStatusWaiting    = "waiting"
	TicketStatusInProgress = "in_progress"
	TicketStatusCompleted  = "completed"
	TicketStatusReferred   = "referred"
	TicketStatusRejected   = "rejected"
)

// ActiveTicketStatuses count against a consultant's workload
var ActiveTicketStatuses = []string{TicketStatusWaiting, TicketStatusInProgress}

// Assignment source constants
const (
	AssignedBySystem = "system"
	AssignedByAdmin  = "admin"
)

// TicketNumberPrefix starts every generated ticket number
const TicketNumberPrefix = "CNS"

// ConsultationTicket is a consultation case opened by a user
type ConsultationTicket struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Write-once: gorm never includes this column in updates
	TicketNumber string `gorm:"<-:create;not null;uniqueIndex" json:"ticket_number"`

	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Category    string `gorm:"index" json:"category"`
	Description string `gorm:"type:text" json:"description"`

	// Triage
	RiskLevel          RiskLevel      `gorm:"not null;default:low" json:"risk_level"`
	RiskScore          float64        `gorm:"not null;default:0" json:"risk_score"`
	RiskFlags          datatypes.JSON `json:"risk_flags,omitempty"`
	RequiresEscalation bool           `gorm:"not null;default:false" json:"requires_escalation"`

	Status string `gorm:"not null;default:waiting;index:idx_ticket_consultant_status" json:"status"`

	FormSubmissionID *string `gorm:"type:uuid;index" json:"form_submission_id,omitempty"`

	// Assignment
	ConsultantID    *string        `gorm:"type:uuid;index:idx_ticket_consultant_status" json:"consultant_id,omitempty"`
	Consultant      *Consultant    `gorm:"foreignKey:ConsultantID" json:"consultant,omitempty"`
	RoutingScore    *int           `json:"routing_score"`
	RoutingMetadata datatypes.JSON `json:"routing_metadata,omitempty"`
	AssignedByType  *string        `gorm:"size:10" json:"assigned_by_type,omitempty"`
	AssignedByID    *string        `gorm:"type:uuid" json:"assigned_by_id,omitempty"`
	OverrideReason  *string        `gorm:"type:text" json:"override_reason,omitempty"`
	AssignedAt      *time.Time     `gorm:"index" json:"assigned_at,omitempty"`

	Team []ConsultationTicketConsultant `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"team,omitempty"`
}

// BeforeCreate hook to generate UUID and the ticket number
func (t *ConsultationTicket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.TicketNumber == "" {
		t.TicketNumber = GenerateTicketNumber(time.Now())
	}
	if t.Status == "" {
		t.Status = TicketStatusWaiting
	}
	if t.RiskLevel == "" {
		t.RiskLevel = RiskLevelLow
	}
	return nil
}

// TableName specifies the table name for ConsultationTicket model
func (ConsultationTicket) TableName() string {
	return "consultation_tickets"
}

// GenerateTicketNumber builds PREFIX-YYYYMMDDHHMMSS-XXXXXX
func GenerateTicketNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", TicketNumberPrefix, now.Format("20060102150405"), suffix)
}

// IsAssigned checks if the ticket has a primary consultant
func (t *ConsultationTicket) IsAssigned() bool {
	return t.ConsultantID != nil && *t.ConsultantID != ""
}

// IsActive checks if the ticket still counts against a consultant's workload
func (t *ConsultationTicket) IsActive() bool {
	return t.Status == TicketStatusWaiting || t.Status == TicketStatusInProgress
}

// IsValidTicketStatus checks if the status is valid
func IsValidTicketStatus(status string) bool {
	switch status {
	case TicketStatusWaiting, TicketStatusInProgress, TicketStatusCompleted,
		TicketStatusReferred, TicketStatusRejected:
		return true
	}
	return false
}

// ticketTransitions lists the statuses reachable from each status
var ticketTransitions = map[string][]string{
	TicketStatusWaiting:    {TicketStatusInProgress, TicketStatusReferred, TicketStatusRejected},
	TicketStatusInProgress: {TicketStatusCompleted, TicketStatusReferred},
}

// CanTransitionTicket checks if a ticket may move from one status to another
func CanTransitionTicket(from, to string) bool {
	for _, s := range ticketTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// TicketMessage is a message posted on a ticket
type TicketMessage struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_ticket_message_sender" json:"created_at"`

	TicketID   string `gorm:"type:uuid;not null;index:idx_ticket_message_sender" json:"ticket_id"`
	SenderID   string `gorm:"type:uuid;not null;index:idx_ticket_message_sender" json:"sender_id"`
	Body       string `gorm:"type:text;not null" json:"body"`
	IsInternal bool   `gorm:"not null;default:false" json:"is_internal"`
}

// BeforeCreate hook to generate UUID
func (m *TicketMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for TicketMessage model
func (TicketMessage) TableName() string {
	return "ticket_messages"
}
