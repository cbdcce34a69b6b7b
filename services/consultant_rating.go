package services

import (
	"consult_flow_app_go/models"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"
)

var (
	// ErrInvalidRatingScore is returned for scores outside 1-5
	ErrInvalidRatingScore = errors.New("rating score must be between 1 and 5")
	// ErrRatingNotFound is returned when a rating id does not resolve
	ErrRatingNotFound = errors.New("rating not found")
)

const (
	minRatingScore = 1
	maxRatingScore = 5
)

// CreateRating stores a rating and refreshes the consultant's running average
func CreateRating(db *gorm.DB, rating *models.ConsultantRating) error {
	if rating.Score < minRatingScore || rating.Score > maxRatingScore {
		return ErrInvalidRatingScore
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rating).Error; err != nil {
			return fmt.Errorf("failed to create rating: %w", err)
		}
		return RecomputeConsultantRating(tx, rating.ConsultantID)
	})
}

// UpdateRating changes a rating's score and comment
func UpdateRating(db *gorm.DB, id string, score int, comment *string) (*models.ConsultantRating, error) {
	if score < minRatingScore || score > maxRatingScore {
		return nil, ErrInvalidRatingScore
	}

	var rating models.ConsultantRating
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rating, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRatingNotFound
			}
			return err
		}
		rating.Score = score
		rating.Comment = comment
		if err := tx.Save(&rating).Error; err != nil {
			return fmt.Errorf("failed to update rating: %w", err)
		}
		return RecomputeConsultantRating(tx, rating.ConsultantID)
	})
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// DeleteRating soft-deletes a rating and refreshes the average
func DeleteRating(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var rating models.ConsultantRating
		if err := tx.First(&rating, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRatingNotFound
			}
			return err
		}
		if err := tx.Delete(&rating).Error; err != nil {
			return fmt.Errorf("failed to delete rating: %w", err)
		}
		return RecomputeConsultantRating(tx, rating.ConsultantID)
	})
}

// RecomputeConsultantRating rewrites rating_average and total_ratings from the live ratings
func RecomputeConsultantRating(db *gorm.DB, consultantID string) error {
	var stats struct {
		Average float64
		Total   int
	}
	err := db.Model(&models.ConsultantRating{}).
		Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS total").
		Where("consultant_id = ?", consultantID).
		Scan(&stats).Error
	if err != nil {
		return fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	return db.Model(&models.Consultant{}).
		Where("id = ?", consultantID).
		Updates(map[string]interface{}{
			"rating_average": math.Round(stats.Average*100) / 100,
			"total_ratings":  stats.Total,
		}).Error
}
