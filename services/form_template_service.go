package services

import (
	"consult_flow_app_go/logger"
	"consult_flow_app_go/models"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrTemplateNotFound is returned when a template id does not resolve
	ErrTemplateNotFound = errors.New("form template not found")
	// ErrCoreFieldProtected is returned when deleting a field marked as core
	ErrCoreFieldProtected = errors.New("core form fields cannot be deleted")
	// ErrDuplicateFieldKey is returned when two fields of a template share a key
	ErrDuplicateFieldKey = errors.New("field_key must be unique within a template")
)

// CreateFormTemplate stores a template together with its fields and options.
// New templates start inactive; activation is a separate step.
func CreateFormTemplate(db *gorm.DB, template *models.FormTemplate, actorID string) error {
	seen := make(map[string]bool, len(template.Fields))
	for _, f := range template.Fields {
		if seen[f.FieldKey] {
			return fmt.Errorf("%w: %s", ErrDuplicateFieldKey, f.FieldKey)
		}
		seen[f.FieldKey] = true
	}

	template.IsActive = false
	template.IsDefault = false
	if actorID != "" {
		template.CreatedByID = &actorID
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(template).Error; err != nil {
			return fmt.Errorf("failed to create form template: %w", err)
		}
		return recordAudit(tx, AuditEntry{
			UserID:       actorID,
			UserRole:     models.RoleAdmin,
			ResourceType: "FormTemplate",
			ResourceID:   template.ID,
			ResourceName: template.Name,
			Action:       models.AuditActionCreate,
			Description:  fmt.Sprintf("Form template created with %d fields", len(template.Fields)),
		})
	})
}

// GetFormTemplate loads a template with ordered fields and options
func GetFormTemplate(db *gorm.DB, id string) (*models.FormTemplate, error) {
	var template models.FormTemplate
	err := db.
		Preload("Fields", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_fields.\"order\" ASC")
		}).
		Preload("Fields.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("form_field_options.\"order\" ASC")
		}).
		First(&template, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return &template, nil
}

// GetDefaultFormTemplate returns the active default template of a category
func GetDefaultFormTemplate(db *gorm.DB, category string) (*models.FormTemplate, error) {
	var template models.FormTemplate
	err := db.Where("category = ? AND is_default = ? AND is_active = ?", category, true, true).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}
	return GetFormTemplate(db, template.ID)
}

// DuplicateFormTemplate deep-copies a template, its fields and their options.
// The copy is inactive, non-default and restarts at version 1.
func DuplicateFormTemplate(db *gorm.DB, id, actorID string) (*models.FormTemplate, error) {
	original, err := GetFormTemplate(db, id)
	if err != nil {
		return nil, err
	}

	clone := models.FormTemplate{
		Name:        original.Name + " (Copy)",
		Category:    original.Category,
		Description: original.Description,
		Version:     1,
		IsActive:    false,
		IsDefault:   false,
	}
	if actorID != "" {
		clone.CreatedByID = &actorID
	}

	for _, f := range original.Fields {
		field := models.FormField{
			FieldKey:         f.FieldKey,
			Label:            f.Label,
			FieldType:        f.FieldType,
			IsRequired:       f.IsRequired,
			IsCoreField:      f.IsCoreField,
			Order:            f.Order,
			RiskWeight:       f.RiskWeight,
			ConditionalLogic: f.ConditionalLogic,
		}
		for _, o := range f.Options {
			field.Options = append(field.Options, models.FormFieldOption{
				Label:               o.Label,
				Value:               o.Value,
				RiskScore:           o.RiskScore,
				RequiresExplanation: o.RequiresExplanation,
				Order:               o.Order,
			})
		}
		clone.Fields = append(clone.Fields, field)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&clone).Error; err != nil {
			return fmt.Errorf("failed to duplicate form template: %w", err)
		}
		return recordAudit(tx, AuditEntry{
			UserID:       actorID,
			UserRole:     models.RoleAdmin,
			ResourceType: "FormTemplate",
			ResourceID:   clone.ID,
			ResourceName: clone.Name,
			Action:       models.AuditActionCreate,
			Description:  fmt.Sprintf("Duplicated from %s", original.ID),
		})
	})
	if err != nil {
		return nil, err
	}

	return &clone, nil
}

// ActivateFormTemplate activates a template. With makeDefault it first clears
// is_default on every other template of the same category, in one transaction.
func ActivateFormTemplate(db *gorm.DB, id string, makeDefault bool, actorID string) (*models.FormTemplate, error) {
	var template models.FormTemplate

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&template, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTemplateNotFound
			}
			return err
		}

		if makeDefault {
			if err := tx.Model(&models.FormTemplate{}).
				Where("category = ? AND id <> ? AND is_default = ?", template.Category, template.ID, true).
				Update("is_default", false).Error; err != nil {
				return fmt.Errorf("failed to clear category default: %w", err)
			}
		}

		updates := map[string]interface{}{"is_active": true}
		if makeDefault {
			updates["is_default"] = true
		}
		if err := tx.Model(&template).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to activate form template: %w", err)
		}
		template.IsActive = true
		template.IsDefault = template.IsDefault || makeDefault

		return recordAudit(tx, AuditEntry{
			UserID:       actorID,
			UserRole:     models.RoleAdmin,
			ResourceType: "FormTemplate",
			ResourceID:   template.ID,
			ResourceName: template.Name,
			Action:       models.AuditActionActivate,
			Description:  fmt.Sprintf("Activated (default=%t) in category %s", makeDefault, template.Category),
			NewValues:    updates,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Form template activated",
		zap.String("template_id", template.ID),
		zap.String("category", template.Category),
		zap.Bool("default", template.IsDefault))
	return &template, nil
}

// DeactivateFormTemplate turns a template off and drops its default flag
func DeactivateFormTemplate(db *gorm.DB, id, actorID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.FormTemplate{}).Where("id = ?", id).
			Updates(map[string]interface{}{"is_active": false, "is_default": false})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTemplateNotFound
		}
		return recordAudit(tx, AuditEntry{
			UserID:       actorID,
			UserRole:     models.RoleAdmin,
			ResourceType: "FormTemplate",
			ResourceID:   id,
			Action:       models.AuditActionUpdate,
			Description:  "Deactivated",
		})
	})
}

// DeleteFormTemplate soft-deletes a template; submissions keep referencing it
func DeleteFormTemplate(db *gorm.DB, id, actorID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.FormTemplate{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrTemplateNotFound
		}
		return recordAudit(tx, AuditEntry{
			UserID:       actorID,
			UserRole:     models.RoleAdmin,
			ResourceType: "FormTemplate",
			ResourceID:   id,
			Action:       models.AuditActionDelete,
		})
	})
}

// DeleteFormField removes a non-core field and its options
func DeleteFormField(db *gorm.DB, fieldID string) error {
	var field models.FormField
	if err := db.First(&field, "id = ?", fieldID).Error; err != nil {
		return err
	}
	if field.IsCoreField {
		return ErrCoreFieldProtected
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("field_id = ?", field.ID).Delete(&models.FormFieldOption{}).Error; err != nil {
			return err
		}
		return tx.Delete(&field).Error
	})
}
