package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Field type constants
const (
	FieldTypeText     = "text"
	FieldTypeTextarea = "textarea"
	FieldTypeSelect   = "select"
	FieldTypeRadio    = "radio"
	FieldTypeCheckbox = "checkbox"
	FieldTypeNumber   = "number"
	FieldTypeDate     = "date"
)

// ConditionOperator compares a dependent field's answer against a rule value
type ConditionOperator string

const (
	ConditionEquals    ConditionOperator = "equals"
	ConditionNotEquals ConditionOperator = "not_equals"
	ConditionContains  ConditionOperator = "contains"
)

// MaxOptionRiskScore is the upper bound of FormFieldOption.RiskScore
const MaxOptionRiskScore = 10

// ErrInvalidConditionalLogic is returned when a field's show/hide rule is malformed
var ErrInvalidConditionalLogic = errors.New("invalid conditional logic")

const conditionalRuleSchema = `{
	"type": "object",
	"properties": {
		"field_key": {"type": "string", "minLength": 1},
		"operator": {"type": "string", "enum": ["equals", "not_equals", "contains"]},
		"value": {"type": ["string", "number", "boolean"]}
	},
	"required": ["field_key", "operator", "value"],
	"additionalProperties": false
}`

var (
	nonSlugChars    = regexp.MustCompile(`[^a-z0-9-]+`)
	repeatedHyphens = regexp.MustCompile(`-+`)
)

var conditionalRuleLoader = gojsonschema.NewStringLoader(conditionalRuleSchema)

// ConditionalRule shows a field only when another field's answer satisfies Operator
type ConditionalRule struct {
	FieldKey string            `json:"field_key"`
	Operator ConditionOperator `json:"operator"`
	Value    interface{}       `json:"value"`
}

// ParseConditionalRule validates raw rule JSON against the rule schema and decodes it.
// Empty input (or JSON null) means the field has no rule.
func ParseConditionalRule(raw []byte) (*ConditionalRule, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	result, err := gojsonschema.Validate(conditionalRuleLoader, gojsonschema.NewStringLoader(trimmed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConditionalLogic, err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidConditionalLogic, strings.Join(msgs, "; "))
	}

	var rule ConditionalRule
	if err := json.Unmarshal([]byte(trimmed), &rule); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConditionalLogic, err)
	}
	return &rule, nil
}

// FormTemplate is a named, versioned screening questionnaire
type FormTemplate struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string  `gorm:"not null" json:"name"`
	Slug        string  `gorm:"not null;uniqueIndex" json:"slug"`
	Category    string  `gorm:"not null;index:idx_form_template_category" json:"category"`
	Description *string `gorm:"type:text" json:"description,omitempty"`
	Version     int     `gorm:"not null;default:1" json:"version"`
	IsActive    bool    `gorm:"not null;default:false" json:"is_active"`
	IsDefault   bool    `gorm:"not null;default:false;index:idx_form_template_category" json:"is_default"`

	CreatedByID *string `gorm:"type:uuid" json:"created_by_id,omitempty"`

	Fields []FormField `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"fields,omitempty"`
}

// BeforeCreate hook to generate UUID and slug
func (t *FormTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Slug == "" {
		t.Slug = generateTemplateSlug(tx, t.Name)
	}
	if t.Version == 0 {
		t.Version = 1
	}
	return nil
}

// generateTemplateSlug creates a URL-friendly slug from the template name
func generateTemplateSlug(tx *gorm.DB, name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")

	// Keep only alphanumeric and hyphens
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = repeatedHyphens.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if len(slug) > 50 {
		slug = strings.TrimRight(slug[:50], "-")
	}
	if slug == "" {
		slug = "form"
	}

	// Ensure uniqueness, including soft-deleted templates
	query := tx.Session(&gorm.Session{NewDB: true}).Unscoped()
	originalSlug := slug
	counter := 1
	for {
		var count int64
		query.Model(&FormTemplate{}).Where("slug = ?", slug).Count(&count)
		if count == 0 {
			break
		}
		slug = originalSlug + "-" + strconv.Itoa(counter)
		counter++
	}

	return slug
}

// TableName specifies the table name for FormTemplate model
func (FormTemplate) TableName() string {
	return "form_templates"
}

// FormField is one question of a template
type FormField struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TemplateID string `gorm:"type:uuid;not null;uniqueIndex:idx_form_field_template_key" json:"template_id"`
	FieldKey   string `gorm:"not null;uniqueIndex:idx_form_field_template_key" json:"field_key"`
	Label      string `gorm:"not null" json:"label"`
	FieldType  string `gorm:"not null" json:"field_type"`
	IsRequired bool   `gorm:"not null;default:false" json:"is_required"`
	// Core fields cannot be deleted from a template
	IsCoreField bool `gorm:"not null;default:false" json:"is_core_field"`
	Order       int  `gorm:"not null;default:0" json:"order"`
	// Base score added whenever this field is answered
	RiskWeight int `gorm:"not null;default:0" json:"risk_weight"`

	ConditionalLogic datatypes.JSON `json:"conditional_logic,omitempty"`

	Options []FormFieldOption `gorm:"foreignKey:FieldID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

// BeforeCreate hook to generate UUID
func (f *FormField) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return nil
}

// BeforeSave rejects malformed conditional logic before it reaches the database
func (f *FormField) BeforeSave(tx *gorm.DB) error {
	if !IsValidFieldType(f.FieldType) {
		return fmt.Errorf("invalid field type %q", f.FieldType)
	}
	_, err := ParseConditionalRule(f.ConditionalLogic)
	return err
}

// TableName specifies the table name for FormField model
func (FormField) TableName() string {
	return "form_fields"
}

// Rule returns the parsed conditional rule, or nil when the field is always shown
func (f *FormField) Rule() (*ConditionalRule, error) {
	return ParseConditionalRule(f.ConditionalLogic)
}

// IsChoice reports whether answers resolve their score from an option
func (f *FormField) IsChoice() bool {
	return f.FieldType == FieldTypeSelect || f.FieldType == FieldTypeRadio || f.FieldType == FieldTypeCheckbox
}

// IsValidFieldType checks if the field type is supported
func IsValidFieldType(fieldType string) bool {
	switch fieldType {
	case FieldTypeText, FieldTypeTextarea, FieldTypeSelect, FieldTypeRadio,
		FieldTypeCheckbox, FieldTypeNumber, FieldTypeDate:
		return true
	}
	return false
}

// FormFieldOption is a selectable answer carrying its own risk score
type FormFieldOption struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FieldID             string `gorm:"type:uuid;not null;index" json:"field_id"`
	Label               string `gorm:"not null" json:"label"`
	Value               string `gorm:"not null" json:"value"`
	RiskScore           int    `gorm:"not null;default:0" json:"risk_score"`
	RequiresExplanation bool   `gorm:"not null;default:false" json:"requires_explanation"`
	Order               int    `gorm:"not null;default:0" json:"order"`
}

// BeforeCreate hook to generate UUID
func (o *FormFieldOption) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}

// BeforeSave keeps option scores within 0-10
func (o *FormFieldOption) BeforeSave(tx *gorm.DB) error {
	if o.RiskScore < 0 || o.RiskScore > MaxOptionRiskScore {
		return fmt.Errorf("option risk score %d out of range 0-%d", o.RiskScore, MaxOptionRiskScore)
	}
	return nil
}

// TableName specifies the table name for FormFieldOption model
func (FormFieldOption) TableName() string {
	return "form_field_options"
}
