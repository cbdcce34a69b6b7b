package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FormSubmission is one user's completed instance of a template
type FormSubmission struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TemplateID string       `gorm:"type:uuid;not null;index" json:"template_id"`
	Template   FormTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`

	UserID   string  `gorm:"type:uuid;not null;index" json:"user_id"`
	TicketID *string `gorm:"type:uuid;index" json:"ticket_id,omitempty"`

	// Derived; refreshed only by an explicit recompute
	TotalRiskScore int        `gorm:"not null;default:0" json:"total_risk_score"`
	RiskLevel      RiskLevel  `gorm:"not null;default:low" json:"risk_level"`
	ScoredAt       *time.Time `json:"scored_at,omitempty"`

	Answers []FormSubmissionAnswer `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE" json:"answers,omitempty"`
}

// BeforeCreate hook to generate UUID
func (s *FormSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.RiskLevel == "" {
		s.RiskLevel = RiskLevelLow
	}
	return nil
}

// TableName specifies the table name for FormSubmission model
func (FormSubmission) TableName() string {
	return "form_submissions"
}

// IsCritical checks if the submission is in the critical bucket
func (s *FormSubmission) IsCritical() bool {
	return s.RiskLevel == RiskLevelCritical
}

// NeedsExpert checks if the submission should be handled by a senior clinician
func (s *FormSubmission) NeedsExpert() bool {
	return s.RiskLevel == RiskLevelCritical || s.RiskLevel == RiskLevelHigh
}

// FormSubmissionAnswer is the answer to one field within a submission
type FormSubmissionAnswer struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SubmissionID string    `gorm:"type:uuid;not null;uniqueIndex:idx_answer_submission_field" json:"submission_id"`
	FieldID      string    `gorm:"type:uuid;not null;uniqueIndex:idx_answer_submission_field" json:"field_id"`
	Field        FormField `gorm:"foreignKey:FieldID" json:"field,omitempty"`

	// Raw answer: a JSON scalar or list
	Value       datatypes.JSON `json:"value"`
	RiskScore   int            `gorm:"not null;default:0" json:"risk_score"`
	Explanation *string        `gorm:"type:text" json:"explanation,omitempty"`
}

// BeforeCreate hook to generate UUID
func (a *FormSubmissionAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for FormSubmissionAnswer model
func (FormSubmissionAnswer) TableName() string {
	return "form_submission_answers"
}

// Decoded returns the answer as a Go value (string, float64, bool, []interface{} or nil)
func (a *FormSubmissionAnswer) Decoded() interface{} {
	if len(a.Value) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(a.Value, &v); err != nil {
		return string(a.Value)
	}
	return v
}

// ScalarString renders a scalar answer for comparison with option values.
// ok is false for lists, objects and empty answers.
func (a *FormSubmissionAnswer) ScalarString() (string, bool) {
	return ScalarString(a.Decoded())
}

// ScalarString renders a decoded JSON scalar as a string
func ScalarString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	case json.Number:
		return val.String(), true
	case int:
		return strconv.Itoa(val), true
	case nil:
		return "", false
	default:
		return "", false
	}
}

// AnswerValue encodes any Go value as an answer payload
func AnswerValue(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON(fmt.Sprintf("%q", fmt.Sprint(v)))
	}
	return datatypes.JSON(b)
}
