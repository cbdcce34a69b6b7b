package services

import (
	"consult_flow_app_go/logger"
	"consult_flow_app_go/models"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNoConsultantFound means no candidate passed the filters; the ticket is left untouched
	ErrNoConsultantFound = errors.New("no consultant found")
	// ErrTicketNotFound is returned when a ticket id does not resolve
	ErrTicketNotFound = errors.New("consultation ticket not found")
	// ErrConsultantNotFound is returned when a consultant id does not resolve
	ErrConsultantNotFound = errors.New("consultant not found")
	// ErrOverrideReasonRequired is returned when an admin override has no reason
	ErrOverrideReasonRequired = errors.New("override reason is required")
)

// RoutingAlgorithmVersion is stored with every system routing decision
const RoutingAlgorithmVersion = "weighted-v1"

const (
	maxWorkloadPoints     = 25
	workloadPenalty       = 2
	ratingMultiplier      = 5
	maxResponsePoints     = 20
	sameRegionBonus       = 10
	criticalExpertBonus   = 15
	topCandidatesRecorded = 3
	routingTypeOverride   = "manual_override"
)

// ScoreBreakdown holds each factor of a candidate's routing score
type ScoreBreakdown struct {
	Experience    int `json:"experience"`
	Workload      int `json:"workload"`
	Rating        int `json:"rating"`
	ResponseTime  int `json:"response_time"`
	RegionBonus   int `json:"region_bonus"`
	CriticalBonus int `json:"critical_bonus"`
}

// Total sums every factor
func (b ScoreBreakdown) Total() int {
	return b.Experience + b.Workload + b.Rating + b.ResponseTime + b.RegionBonus + b.CriticalBonus
}

// RankedCandidate is one scored consultant
type RankedCandidate struct {
	Consultant    models.Consultant
	Score         int
	Breakdown     ScoreBreakdown
	SameRegion    bool
	ActiveTickets int
	Available     bool
}

// RoutingRequest carries everything candidate ranking depends on
type RoutingRequest struct {
	Category     string
	UserProvince string
	Critical     bool
}

type candidateSummary struct {
	ID    string                 `json:"id"`
	Name  string                 `json:"name"`
	Score int                    `json:"score"`
	Level models.ConsultantLevel `json:"level"`
}

// RoutingMetadata is the snapshot stored on the ticket for a system decision
type RoutingMetadata struct {
	Type                 string             `json:"type"`
	AlgorithmVersion     string             `json:"algorithm_version"`
	SelectedConsultantID string             `json:"selected_consultant_id"`
	SelectedScore        int                `json:"selected_score"`
	SelectedAvailable    bool               `json:"selected_available"`
	CandidateCount       int                `json:"candidate_count"`
	TopCandidates        []candidateSummary `json:"top_candidates"`
	Critical             bool               `json:"critical"`
	Timestamp            time.Time          `json:"timestamp"`
}

// OverrideMetadata is the snapshot stored on the ticket for an admin assignment
type OverrideMetadata struct {
	Type      string    `json:"type"`
	AdminID   string    `json:"admin_id"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// FindCandidates loads verified, active consultants matching the request.
// Critical requests only see experts.
func FindCandidates(db *gorm.DB, req RoutingRequest) ([]models.Consultant, error) {
	query := db.Preload("Schedules").
		Where("is_verified = ? AND is_active = ?", true, true)

	if req.Category != "" {
		query = query.Where("specialist_category = ?", req.Category)
	}
	if req.Critical {
		query = query.Where("level = ?", models.ConsultantLevelExpert)
	}

	var consultants []models.Consultant
	if err := query.Order("id ASC").Find(&consultants).Error; err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	return consultants, nil
}

// ScoreCandidate computes a consultant's routing score from stats read at decision time
func ScoreCandidate(consultant *models.Consultant, req RoutingRequest, activeTickets int, responseHours float64) ScoreBreakdown {
	b := ScoreBreakdown{
		Experience:   consultant.Level.ExperiencePoints(),
		Workload:     max(0, maxWorkloadPoints-activeTickets*workloadPenalty),
		Rating:       int(math.Round(consultant.RatingAverage * ratingMultiplier)),
		ResponseTime: max(0, int(math.Round(maxResponsePoints-responseHours/2))),
	}
	if models.SameProvince(req.UserProvince, consultant.Province) {
		b.RegionBonus = sameRegionBonus
	}
	if req.Critical && consultant.Level == models.ConsultantLevelExpert {
		b.CriticalBonus = criticalExpertBonus
	}
	return b
}

// RankCandidates scores every candidate and sorts by score descending, then id ascending
func RankCandidates(db *gorm.DB, req RoutingRequest, now time.Time) ([]RankedCandidate, error) {
	consultants, err := FindCandidates(db, req)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedCandidate, 0, len(consultants))
	for i := range consultants {
		c := &consultants[i]
		active, err := CountActiveTickets(db, c.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count active tickets: %w", err)
		}
		hours, err := AverageResponseHours(db, c, now)
		if err != nil {
			return nil, fmt.Errorf("failed to compute response time: %w", err)
		}

		breakdown := ScoreCandidate(c, req, active, hours)
		ranked = append(ranked, RankedCandidate{
			Consultant:    *c,
			Score:         breakdown.Total(),
			Breakdown:     breakdown,
			SameRegion:    breakdown.RegionBonus > 0,
			ActiveTickets: active,
			Available:     IsConsultantAvailable(c, active, now),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Consultant.ID < ranked[j].Consultant.ID
	})
	return ranked, nil
}

// SelectCandidate takes the best available candidate, or the top-scored one when
// nobody is available
func SelectCandidate(ranked []RankedCandidate) (*RankedCandidate, bool) {
	if len(ranked) == 0 {
		return nil, false
	}
	for i := range ranked {
		if ranked[i].Available {
			return &ranked[i], true
		}
	}
	return &ranked[0], false
}

// routingRequestFor derives the request from a ticket and its optional submission
func routingRequestFor(tx *gorm.DB, ticket *models.ConsultationTicket, submissionID *string) (RoutingRequest, error) {
	req := RoutingRequest{Category: strings.TrimSpace(ticket.Category)}
	if ticket.User != nil {
		req.UserProvince = ticket.User.Province
	}

	if submissionID == nil || *submissionID == "" {
		submissionID = ticket.FormSubmissionID
	}
	if submissionID != nil && *submissionID != "" {
		var submission models.FormSubmission
		if err := tx.First(&submission, "id = ?", *submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return req, ErrSubmissionNotFound
			}
			return req, err
		}
		req.Critical = submission.IsCritical()
	}
	return req, nil
}

// AssignConsultant routes a ticket to the best consultant and records the decision.
// Re-running on an assigned ticket reassigns it. With no candidates it returns
// ErrNoConsultantFound and changes nothing.
func AssignConsultant(db *gorm.DB, ticketID string, submissionID *string, now time.Time) (string, error) {
	// stored timestamps are UTC; schedules convert to ScheduleLocation themselves
	now = now.UTC()
	var selected *RankedCandidate

	err := db.Transaction(func(tx *gorm.DB) error {
		var ticket models.ConsultationTicket
		if err := tx.Preload("User").First(&ticket, "id = ?", ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}

		req, err := routingRequestFor(tx, &ticket, submissionID)
		if err != nil {
			return err
		}

		ranked, err := RankCandidates(tx, req, now)
		if err != nil {
			return err
		}

		choice, available := SelectCandidate(ranked)
		if choice == nil {
			return ErrNoConsultantFound
		}
		selected = choice

		top := make([]candidateSummary, 0, topCandidatesRecorded)
		for i := 0; i < len(ranked) && i < topCandidatesRecorded; i++ {
			top = append(top, candidateSummary{
				ID:    ranked[i].Consultant.ID,
				Name:  ranked[i].Consultant.Name,
				Score: ranked[i].Score,
				Level: ranked[i].Consultant.Level,
			})
		}
		metadata, err := json.Marshal(RoutingMetadata{
			Type:                 models.AssignedBySystem,
			AlgorithmVersion:     RoutingAlgorithmVersion,
			SelectedConsultantID: choice.Consultant.ID,
			SelectedScore:        choice.Score,
			SelectedAvailable:    available,
			CandidateCount:       len(ranked),
			TopCandidates:        top,
			Critical:             req.Critical,
			Timestamp:            now,
		})
		if err != nil {
			return err
		}

		if err := persistAssignment(tx, &ticket, choice.Consultant.ID, now, map[string]interface{}{
			"assigned_by_type": models.AssignedBySystem,
			"assigned_by_id":   nil,
			"override_reason":  nil,
			"routing_score":    choice.Score,
			"routing_metadata": datatypes.JSON(metadata),
		}); err != nil {
			return err
		}

		return recordAudit(tx, AuditEntry{
			ResourceType: "ConsultationTicket",
			ResourceID:   ticket.ID,
			ResourceName: ticket.TicketNumber,
			Action:       models.AuditActionAssign,
			Description:  fmt.Sprintf("Routed to %s with score %d", choice.Consultant.Name, choice.Score),
			OldValues:    map[string]interface{}{"consultant_id": ticket.ConsultantID},
			NewValues:    map[string]interface{}{"consultant_id": choice.Consultant.ID, "routing_score": choice.Score},
		})
	})
	if err != nil {
		if errors.Is(err, ErrNoConsultantFound) {
			logger.Log.Warn("No consultant available for ticket", zap.String("ticket_id", ticketID))
		}
		return "", err
	}

	logger.Log.Info("Ticket routed",
		zap.String("ticket_id", ticketID),
		zap.String("consultant_id", selected.Consultant.ID),
		zap.Int("routing_score", selected.Score),
		zap.Bool("available", selected.Available))
	return selected.Consultant.ID, nil
}

// OverrideAssignment assigns a consultant chosen by an admin, bypassing scoring
func OverrideAssignment(db *gorm.DB, ticketID, consultantID, adminID, reason string, now time.Time) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", ErrOverrideReasonRequired
	}
	now = now.UTC()

	err := db.Transaction(func(tx *gorm.DB) error {
		var ticket models.ConsultationTicket
		if err := tx.First(&ticket, "id = ?", ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return err
		}

		var consultant models.Consultant
		if err := tx.First(&consultant, "id = ?", consultantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConsultantNotFound
			}
			return err
		}

		metadata, err := json.Marshal(OverrideMetadata{
			Type:      routingTypeOverride,
			AdminID:   adminID,
			Reason:    reason,
			Timestamp: now,
		})
		if err != nil {
			return err
		}

		if err := persistAssignment(tx, &ticket, consultant.ID, now, map[string]interface{}{
			"assigned_by_type": models.AssignedByAdmin,
			"assigned_by_id":   adminID,
			"override_reason":  reason,
			"routing_score":    nil,
			"routing_metadata": datatypes.JSON(metadata),
		}); err != nil {
			return err
		}

		return recordAudit(tx, AuditEntry{
			UserID:       adminID,
			UserRole:     models.RoleAdmin,
			ResourceType: "ConsultationTicket",
			ResourceID:   ticket.ID,
			ResourceName: ticket.TicketNumber,
			Action:       models.AuditActionOverride,
			Description:  reason,
			OldValues:    map[string]interface{}{"consultant_id": ticket.ConsultantID, "routing_score": ticket.RoutingScore},
			NewValues:    map[string]interface{}{"consultant_id": consultant.ID},
		})
	})
	if err != nil {
		return "", err
	}

	logger.Log.Info("Ticket assignment overridden",
		zap.String("ticket_id", ticketID),
		zap.String("consultant_id", consultantID),
		zap.String("admin_id", adminID))
	return consultantID, nil
}

// persistAssignment writes the assignment columns and makes the consultant the
// ticket's only primary team member
func persistAssignment(tx *gorm.DB, ticket *models.ConsultationTicket, consultantID string, now time.Time, fields map[string]interface{}) error {
	fields["consultant_id"] = consultantID
	fields["assigned_at"] = now.UTC()
	if err := tx.Model(&models.ConsultationTicket{}).Where("id = ?", ticket.ID).Updates(fields).Error; err != nil {
		return fmt.Errorf("failed to update ticket assignment: %w", err)
	}

	if err := tx.Where("ticket_id = ? AND role = ? AND consultant_id <> ?", ticket.ID, models.TeamRolePrimary, consultantID).
		Delete(&models.ConsultationTicketConsultant{}).Error; err != nil {
		return fmt.Errorf("failed to clear previous primary: %w", err)
	}

	member := models.ConsultationTicketConsultant{
		TicketID:     ticket.ID,
		ConsultantID: consultantID,
		Role:         models.TeamRolePrimary,
		InvitedAt:    now,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticket_id"}, {Name: "consultant_id"}, {Name: "role"}},
		DoUpdates: clause.AssignmentColumns([]string{"invited_at", "updated_at"}),
	}).Create(&member).Error
	if err != nil {
		return fmt.Errorf("failed to upsert primary team member: %w", err)
	}
	return nil
}
