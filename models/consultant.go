package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConsultantLevel is the seniority tier of a consultant
type ConsultantLevel string

const (
	ConsultantLevelJunior ConsultantLevel = "junior"
	ConsultantLevelSenior ConsultantLevel = "senior"
	ConsultantLevelExpert ConsultantLevel = "expert"
)

// DefaultActiveTicketCap applies to levels without an explicit cap
const DefaultActiveTicketCap = 5

// ExperiencePoints is the routing score contributed by the level
func (l ConsultantLevel) ExperiencePoints() int {
	switch l {
	case ConsultantLevelExpert:
		return 30
	case ConsultantLevelSenior:
		return 20
	case ConsultantLevelJunior:
		return 10
	}
	return 0
}

// ActiveTicketCap is the number of waiting/in-progress tickets a consultant can carry
func (l ConsultantLevel) ActiveTicketCap() int {
	switch l {
	case ConsultantLevelExpert:
		return 15
	case ConsultantLevelSenior:
		return 10
	case ConsultantLevelJunior:
		return 5
	}
	return DefaultActiveTicketCap
}

// IsValidConsultantLevel checks if the level is valid
func IsValidConsultantLevel(level string) bool {
	switch ConsultantLevel(level) {
	case ConsultantLevelJunior, ConsultantLevelSenior, ConsultantLevelExpert:
		return true
	}
	return false
}

// Consultant is a provider profile that can be routed tickets
type Consultant struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID string `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User   *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Name               string          `gorm:"not null" json:"name"`
	Level              ConsultantLevel `gorm:"not null;default:junior;index:idx_consultant_routing" json:"level"`
	SpecialistCategory string          `gorm:"index:idx_consultant_routing" json:"specialist_category"`
	City               string          `json:"city"`
	Province           string          `gorm:"index" json:"province"`

	IsActive   bool `gorm:"not null;index:idx_consultant_routing" json:"is_active"`
	IsVerified bool `gorm:"not null;default:false;index:idx_consultant_routing" json:"is_verified"`

	// Maintained by RecomputeConsultantRating
	RatingAverage float64 `gorm:"not null;default:0" json:"rating_average"`
	TotalRatings  int     `gorm:"not null;default:0" json:"total_ratings"`

	Schedules []ConsultantSchedule `gorm:"foreignKey:ConsultantID;constraint:OnDelete:CASCADE" json:"schedules,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Consultant) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Level == "" {
		c.Level = ConsultantLevelJunior
	}
	return nil
}

// TableName specifies the table name for Consultant model
func (Consultant) TableName() string {
	return "consultants"
}

// IsRoutable checks if the consultant may receive system-routed tickets
func (c *Consultant) IsRoutable() bool {
	return c.IsActive && c.IsVerified
}

// ConsultantSchedule is one weekly availability window
type ConsultantSchedule struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ConsultantID string `gorm:"type:uuid;index;not null" json:"consultant_id"`
	DayOfWeek    int    `gorm:"not null" json:"day_of_week"` // 0=Sunday...6=Saturday
	StartTime    string `gorm:"not null" json:"start_time"`  // "09:00"
	EndTime      string `gorm:"not null" json:"end_time"`    // "17:00"
	IsAvailable  bool   `gorm:"not null" json:"is_available"`
}

// BeforeCreate hook to generate UUID
func (s *ConsultantSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ConsultantSchedule model
func (ConsultantSchedule) TableName() string {
	return "consultant_schedules"
}

// DayName returns the name of the day
func (s *ConsultantSchedule) DayName() string {
	if s.DayOfWeek >= 0 && s.DayOfWeek < 7 {
		return time.Weekday(s.DayOfWeek).String()
	}
	return ""
}

// Covers checks if t falls on this window's weekday between start (inclusive) and end (exclusive)
func (s *ConsultantSchedule) Covers(t time.Time) bool {
	if !s.IsAvailable || int(t.Weekday()) != s.DayOfWeek {
		return false
	}
	clock := t.Format("15:04")
	return clock >= s.StartTime && clock < s.EndTime
}

// ConsultantRating is an end-user rating of a consultant after a ticket
type ConsultantRating struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ConsultantID string  `gorm:"type:uuid;not null;index" json:"consultant_id"`
	TicketID     *string `gorm:"type:uuid;index" json:"ticket_id,omitempty"`
	UserID       string  `gorm:"type:uuid;not null" json:"user_id"`
	Score        int     `gorm:"not null" json:"score"` // 1-5
	Comment      *string `gorm:"type:text" json:"comment,omitempty"`
}

// BeforeCreate hook to generate UUID
func (r *ConsultantRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for ConsultantRating model
func (ConsultantRating) TableName() string {
	return "consultant_ratings"
}
