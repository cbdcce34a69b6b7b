package services

import (
	"consult_flow_app_go/logger"
	"consult_flow_app_go/models"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrSubmissionNotFound is returned when a submission id does not resolve
var ErrSubmissionNotFound = errors.New("form submission not found")

// ResolveAnswerRiskScore returns the risk score of one answer.
// Choice fields use the option whose value equals the answer; anything else
// keeps the answer's stored score, which supports manually-scored free text.
func ResolveAnswerRiskScore(field *models.FormField, answer *models.FormSubmissionAnswer) int {
	if field.IsChoice() {
		if value, ok := answer.ScalarString(); ok {
			for _, opt := range field.Options {
				if opt.Value == value {
					return opt.RiskScore
				}
			}
		}
	}
	return answer.RiskScore
}

// SubmissionRiskTotal sums field weight plus resolved answer score over all answers
func SubmissionRiskTotal(answers []models.FormSubmissionAnswer) int {
	total := 0
	for i := range answers {
		total += answers[i].Field.RiskWeight + ResolveAnswerRiskScore(&answers[i].Field, &answers[i])
	}
	return total
}

// IsFieldVisible evaluates a field's conditional rule against answers keyed by field_key.
// A missing dependent answer or an unreadable rule hides the field.
func IsFieldVisible(field *models.FormField, answers map[string]interface{}) bool {
	rule, err := field.Rule()
	if err != nil {
		return false
	}
	if rule == nil {
		return true
	}

	dependent, ok := answers[rule.FieldKey]
	if !ok || dependent == nil {
		return false
	}

	switch rule.Operator {
	case models.ConditionEquals:
		return valuesEqual(dependent, rule.Value)
	case models.ConditionNotEquals:
		return !valuesEqual(dependent, rule.Value)
	case models.ConditionContains:
		return valueContains(dependent, rule.Value)
	}
	return false
}

func valuesEqual(answer, expected interface{}) bool {
	a, okA := models.ScalarString(answer)
	e, okE := models.ScalarString(expected)
	return okA && okE && a == e
}

func valueContains(answer, expected interface{}) bool {
	e, ok := models.ScalarString(expected)
	if !ok {
		return false
	}
	if list, isList := answer.([]interface{}); isList {
		for _, item := range list {
			if s, ok := models.ScalarString(item); ok && s == e {
				return true
			}
		}
		return false
	}
	a, ok := models.ScalarString(answer)
	return ok && strings.Contains(a, e)
}

// ScoreFormSubmission recomputes and persists a submission's total risk score and level.
// Running it twice without data changes yields the same result.
func ScoreFormSubmission(db *gorm.DB, submissionID string, now time.Time) (*models.FormSubmission, error) {
	var submission models.FormSubmission

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Answers.Field.Options").First(&submission, "id = ?", submissionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to load submission: %w", err)
		}

		total := 0
		for i := range submission.Answers {
			answer := &submission.Answers[i]
			resolved := ResolveAnswerRiskScore(&answer.Field, answer)
			if resolved != answer.RiskScore {
				if err := tx.Model(&models.FormSubmissionAnswer{}).
					Where("id = ?", answer.ID).
					Update("risk_score", resolved).Error; err != nil {
					return fmt.Errorf("failed to update answer score: %w", err)
				}
				answer.RiskScore = resolved
			}
			total += answer.Field.RiskWeight + resolved
		}

		previous := submission.TotalRiskScore
		submission.TotalRiskScore = total
		submission.RiskLevel = models.RiskLevelFromScore(total)
		submission.ScoredAt = &now

		if err := tx.Model(&models.FormSubmission{}).
			Where("id = ?", submission.ID).
			Updates(map[string]interface{}{
				"total_risk_score": submission.TotalRiskScore,
				"risk_level":       submission.RiskLevel,
				"scored_at":        now,
			}).Error; err != nil {
			return fmt.Errorf("failed to persist submission score: %w", err)
		}

		return recordAudit(tx, AuditEntry{
			Action:       models.AuditActionScore,
			ResourceType: "FormSubmission",
			ResourceID:   submission.ID,
			Description:  fmt.Sprintf("Risk score recomputed: %d (%s)", total, submission.RiskLevel),
			OldValues:    map[string]interface{}{"total_risk_score": previous},
			NewValues:    map[string]interface{}{"total_risk_score": total, "risk_level": submission.RiskLevel},
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Form submission scored",
		zap.String("submission_id", submission.ID),
		zap.Int("total_risk_score", submission.TotalRiskScore),
		zap.String("risk_level", string(submission.RiskLevel)))
	return &submission, nil
}

// AnswerInput is one answer posted with a form submission
type AnswerInput struct {
	FieldKey    string      `json:"field_key" validate:"required"`
	Value       interface{} `json:"value"`
	RiskScore   int         `json:"risk_score" validate:"gte=0,lte=10"`
	Explanation *string     `json:"explanation,omitempty"`
}

// FieldError describes why one answer was rejected
type FieldError struct {
	FieldKey string `json:"field_key"`
	Message  string `json:"message"`
}

// SubmissionValidationError collects every rejected answer of a submission
type SubmissionValidationError struct {
	Errors []FieldError
}

func (e *SubmissionValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.FieldKey+": "+fe.Message)
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// ValidateSubmissionAnswers checks required visible fields, unknown keys and
// options that demand a written explanation
func ValidateSubmissionAnswers(template *models.FormTemplate, answers []AnswerInput) []FieldError {
	byKey := make(map[string]AnswerInput, len(answers))
	values := make(map[string]interface{}, len(answers))
	for _, a := range answers {
		byKey[a.FieldKey] = a
		values[a.FieldKey] = a.Value
	}

	fieldKeys := make(map[string]bool, len(template.Fields))
	var errs []FieldError
	for i := range template.Fields {
		field := &template.Fields[i]
		fieldKeys[field.FieldKey] = true

		answer, answered := byKey[field.FieldKey]
		if answered && isBlank(answer.Value) {
			answered = false
		}

		if !answered {
			if field.IsRequired && IsFieldVisible(field, values) {
				errs = append(errs, FieldError{FieldKey: field.FieldKey, Message: "answer is required"})
			}
			continue
		}

		if !field.IsChoice() {
			continue
		}
		value, _ := models.ScalarString(answer.Value)
		matched := false
		for _, opt := range field.Options {
			if opt.Value != value {
				continue
			}
			matched = true
			if opt.RequiresExplanation && (answer.Explanation == nil || strings.TrimSpace(*answer.Explanation) == "") {
				errs = append(errs, FieldError{FieldKey: field.FieldKey, Message: "explanation is required for this option"})
			}
		}
		if !matched && field.FieldType != models.FieldTypeCheckbox {
			errs = append(errs, FieldError{FieldKey: field.FieldKey, Message: "answer does not match any option"})
		}
	}

	for _, a := range answers {
		if !fieldKeys[a.FieldKey] {
			errs = append(errs, FieldError{FieldKey: a.FieldKey, Message: "unknown field"})
		}
	}
	return errs
}

func isBlank(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []interface{}:
		return len(val) == 0
	}
	return false
}

// SubmitForm stores a user's answers to a template and scores the submission
func SubmitForm(db *gorm.DB, templateID, userID string, ticketID *string, answers []AnswerInput, now time.Time) (*models.FormSubmission, error) {
	var template models.FormTemplate
	if err := db.Preload("Fields.Options").First(&template, "id = ? AND is_active = ?", templateID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	if errs := ValidateSubmissionAnswers(&template, answers); len(errs) > 0 {
		return nil, &SubmissionValidationError{Errors: errs}
	}

	fieldIDs := make(map[string]string, len(template.Fields))
	for _, f := range template.Fields {
		fieldIDs[f.FieldKey] = f.ID
	}

	submission := models.FormSubmission{
		TemplateID: template.ID,
		UserID:     userID,
		TicketID:   ticketID,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&submission).Error; err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		for _, a := range answers {
			if isBlank(a.Value) {
				continue
			}
			answer := models.FormSubmissionAnswer{
				SubmissionID: submission.ID,
				FieldID:      fieldIDs[a.FieldKey],
				Value:        models.AnswerValue(a.Value),
				RiskScore:    a.RiskScore,
				Explanation:  a.Explanation,
			}
			if err := tx.Create(&answer).Error; err != nil {
				return fmt.Errorf("failed to store answer %s: %w", a.FieldKey, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ScoreFormSubmission(db, submission.ID, now)
}
