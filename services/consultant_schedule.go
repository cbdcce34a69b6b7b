package services

import (
	"consult_flow_app_go/models"
	"errors"
	"regexp"

	"gorm.io/gorm"
)

var (
	// ErrInvalidScheduleWindow is returned for malformed or empty time windows
	ErrInvalidScheduleWindow = errors.New("schedule window must be HH:MM with start before end")
	// ErrScheduleOverlap is returned when a window overlaps another window on the same day
	ErrScheduleOverlap = errors.New("schedule window overlaps an existing window")
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Default consulting hours: Mon-Sat, 08:00-12:00 and 13:00-17:00
var defaultScheduleWindows = []struct {
	DayOfWeek int
	StartTime string
	EndTime   string
}{
	{1, "08:00", "12:00"}, {1, "13:00", "17:00"},
	{2, "08:00", "12:00"}, {2, "13:00", "17:00"},
	{3, "08:00", "12:00"}, {3, "13:00", "17:00"},
	{4, "08:00", "12:00"}, {4, "13:00", "17:00"},
	{5, "08:00", "12:00"}, {5, "13:00", "17:00"},
	{6, "08:00", "12:00"},
}

// CreateDefaultSchedule seeds the default weekly windows for a consultant
func CreateDefaultSchedule(db *gorm.DB, consultantID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, w := range defaultScheduleWindows {
			schedule := &models.ConsultantSchedule{
				ConsultantID: consultantID,
				DayOfWeek:    w.DayOfWeek,
				StartTime:    w.StartTime,
				EndTime:      w.EndTime,
				IsAvailable:  true,
			}
			if err := tx.Create(schedule).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetConsultantSchedule fetches all windows for a consultant
func GetConsultantSchedule(db *gorm.DB, consultantID string) ([]models.ConsultantSchedule, error) {
	var windows []models.ConsultantSchedule
	err := db.Where("consultant_id = ?", consultantID).
		Order("day_of_week, start_time").
		Find(&windows).Error
	return windows, err
}

// GetScheduleWindow fetches one window by id
func GetScheduleWindow(db *gorm.DB, id string) (*models.ConsultantSchedule, error) {
	var window models.ConsultantSchedule
	if err := db.First(&window, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &window, nil
}

// AddScheduleWindow validates and stores a window
func AddScheduleWindow(db *gorm.DB, window *models.ConsultantSchedule) error {
	if !validWindow(window) {
		return ErrInvalidScheduleWindow
	}
	overlap, err := CheckScheduleOverlap(db, window.ConsultantID, window.DayOfWeek, window.StartTime, window.EndTime, "")
	if err != nil {
		return err
	}
	if overlap {
		return ErrScheduleOverlap
	}
	return db.Create(window).Error
}

// UpdateScheduleWindow validates and saves changes to an existing window
func UpdateScheduleWindow(db *gorm.DB, window *models.ConsultantSchedule) error {
	if !validWindow(window) {
		return ErrInvalidScheduleWindow
	}
	overlap, err := CheckScheduleOverlap(db, window.ConsultantID, window.DayOfWeek, window.StartTime, window.EndTime, window.ID)
	if err != nil {
		return err
	}
	if overlap {
		return ErrScheduleOverlap
	}
	return db.Save(window).Error
}

// DeleteScheduleWindow removes a window
func DeleteScheduleWindow(db *gorm.DB, id string) error {
	return db.Delete(&models.ConsultantSchedule{}, "id = ?", id).Error
}

// CheckScheduleOverlap checks if a window overlaps the consultant's other available windows that day
func CheckScheduleOverlap(db *gorm.DB, consultantID string, dayOfWeek int, startTime, endTime string, excludeID string) (bool, error) {
	var count int64
	query := db.Model(&models.ConsultantSchedule{}).
		Where("consultant_id = ? AND day_of_week = ? AND is_available = ?", consultantID, dayOfWeek, true).
		Where("start_time < ? AND end_time > ?", endTime, startTime)

	if excludeID != "" {
		query = query.Where("id != ?", excludeID)
	}

	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func validWindow(w *models.ConsultantSchedule) bool {
	return w.DayOfWeek >= 0 && w.DayOfWeek <= 6 &&
		clockPattern.MatchString(w.StartTime) &&
		clockPattern.MatchString(w.EndTime) &&
		w.StartTime < w.EndTime
}
