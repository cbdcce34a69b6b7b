package services

import (
	"consult_flow_app_go/logger"
	"consult_flow_app_go/models"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuditEntry describes one triage decision to be recorded
type AuditEntry struct {
	UserID       string
	UserRole     string
	ResourceType string
	ResourceID   string
	ResourceName string
	Action       models.AuditAction
	Description  string
	OldValues    interface{}
	NewValues    interface{}
}

// recordAudit writes an audit row on the given handle, usually the caller's transaction,
// so a rolled-back decision leaves no trace
func recordAudit(tx *gorm.DB, entry AuditEntry) error {
	role := entry.UserRole
	if role == "" {
		role = "system"
	}

	auditLog := models.AuditLog{
		UserID:       ptrIfNotEmpty(entry.UserID),
		UserRole:     role,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		ResourceName: entry.ResourceName,
		Action:       entry.Action,
		Description:  entry.Description,
		OldValues:    encodeAuditValues(entry.OldValues),
		NewValues:    encodeAuditValues(entry.NewValues),
	}

	if err := tx.Create(&auditLog).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

// LogAuditEvent records an entry outside a transaction; failures are logged, not returned
func LogAuditEvent(db *gorm.DB, entry AuditEntry) {
	if err := recordAudit(db, entry); err != nil {
		logger.Log.Error("Audit write failed",
			zap.String("resource_type", entry.ResourceType),
			zap.String("resource_id", entry.ResourceID),
			zap.Error(err))
	}
}

func encodeAuditValues(v interface{}) string {
	if v == nil {
		return ""
	}
	bytes, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(bytes)
}

// ptrIfNotEmpty returns a pointer to the string if not empty, nil otherwise
func ptrIfNotEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// GetResourceAuditHistory retrieves the audit history for a specific resource
func GetResourceAuditHistory(db *gorm.DB, resourceType, resourceID string) ([]models.AuditLog, error) {
	var logs []models.AuditLog
	err := db.Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}

// AuditLogFilters contains filter options for audit log queries
type AuditLogFilters struct {
	UserID       string
	ResourceType string
	Action       string
	DateFrom     time.Time
	DateTo       time.Time
}

// ListAuditLogs retrieves paginated triage audit logs
func ListAuditLogs(db *gorm.DB, filters AuditLogFilters, page, pageSize int) ([]models.AuditLog, int64, error) {
	query := db.Model(&models.AuditLog{})

	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.ResourceType != "" {
		query = query.Where("resource_type = ?", filters.ResourceType)
	}
	if filters.Action != "" {
		query = query.Where("action = ?", filters.Action)
	}
	if !filters.DateFrom.IsZero() {
		query = query.Where("created_at >= ?", filters.DateFrom)
	}
	if !filters.DateTo.IsZero() {
		query = query.Where("created_at <= ?", filters.DateTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	var logs []models.AuditLog
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&logs).Error

	return logs, total, err
}
