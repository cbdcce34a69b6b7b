package services

import (
	"consult_flow_app_go/models"
	"time"

	"gorm.io/gorm"
)

const (
	// DefaultResponseHours is assumed when a consultant has no reply history
	DefaultResponseHours = 24.0
	responseWindow       = 30 * 24 * time.Hour
)

// scheduleLocation is the timezone ConsultantSchedule windows are written in
var scheduleLocation = time.UTC

// SetScheduleLocation sets the timezone used to read consultant schedule windows
func SetScheduleLocation(loc *time.Location) {
	if loc != nil {
		scheduleLocation = loc
	}
}

// ScheduleLocation returns the timezone used to read consultant schedule windows
func ScheduleLocation() *time.Location {
	return scheduleLocation
}

// CountActiveTickets counts the consultant's waiting and in-progress tickets
func CountActiveTickets(db *gorm.DB, consultantID string) (int, error) {
	var count int64
	err := db.Model(&models.ConsultationTicket{}).
		Where("consultant_id = ? AND status IN ?", consultantID, models.ActiveTicketStatuses).
		Count(&count).Error
	return int(count), err
}

// AverageResponseHours is the mean delay between assignment and the consultant's
// first message over tickets assigned in the last 30 days
func AverageResponseHours(db *gorm.DB, consultant *models.Consultant, now time.Time) (float64, error) {
	var tickets []models.ConsultationTicket
	err := db.Select("id", "assigned_at").
		Where("consultant_id = ? AND assigned_at IS NOT NULL AND assigned_at >= ?", consultant.ID, now.UTC().Add(-responseWindow)).
		Find(&tickets).Error
	if err != nil {
		return 0, err
	}

	var totalHours float64
	responded := 0
	for _, ticket := range tickets {
		var first models.TicketMessage
		result := db.Where("ticket_id = ? AND sender_id = ?", ticket.ID, consultant.UserID).
			Order("created_at ASC").
			Limit(1).
			Find(&first)
		if result.Error != nil {
			return 0, result.Error
		}
		if result.RowsAffected == 0 {
			continue
		}
		delay := first.CreatedAt.Sub(*ticket.AssignedAt).Hours()
		if delay < 0 {
			delay = 0
		}
		totalHours += delay
		responded++
	}

	if responded == 0 {
		return DefaultResponseHours, nil
	}
	return totalHours / float64(responded), nil
}

// IsConsultantAvailable checks the level's active-ticket cap, then the weekly schedule
// read in ScheduleLocation. A consultant without schedule rows is available around the clock.
func IsConsultantAvailable(consultant *models.Consultant, activeTickets int, now time.Time) bool {
	if activeTickets >= consultant.Level.ActiveTicketCap() {
		return false
	}
	if len(consultant.Schedules) == 0 {
		return true
	}
	local := now.In(scheduleLocation)
	for i := range consultant.Schedules {
		if consultant.Schedules[i].Covers(local) {
			return true
		}
	}
	return false
}

// ConsultantWorkload summarizes one consultant for reporting
type ConsultantWorkload struct {
	Consultant    models.Consultant `json:"consultant"`
	ActiveTickets int               `json:"active_tickets"`
	Capacity      int               `json:"capacity"`
	ResponseHours float64           `json:"response_hours"`
	Available     bool              `json:"available"`
}

// ListConsultantWorkloads reports load and availability for every active consultant
func ListConsultantWorkloads(db *gorm.DB, now time.Time) ([]ConsultantWorkload, error) {
	var consultants []models.Consultant
	if err := db.Preload("Schedules").
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&consultants).Error; err != nil {
		return nil, err
	}

	workloads := make([]ConsultantWorkload, 0, len(consultants))
	for i := range consultants {
		c := &consultants[i]
		active, err := CountActiveTickets(db, c.ID)
		if err != nil {
			return nil, err
		}
		hours, err := AverageResponseHours(db, c, now)
		if err != nil {
			return nil, err
		}
		workloads = append(workloads, ConsultantWorkload{
			Consultant:    *c,
			ActiveTickets: active,
			Capacity:      c.Level.ActiveTicketCap(),
			ResponseHours: hours,
			Available:     IsConsultantAvailable(c, active, now),
		})
	}
	return workloads, nil
}
