package handlers

import (
	"consult_flow_app_go/db"
	"consult_flow_app_go/middleware"
	"consult_flow_app_go/models"
	"consult_flow_app_go/services"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

type submitFormRequest struct {
	TemplateID string                 `json:"template_id" validate:"required"`
	TicketID   *string                `json:"ticket_id,omitempty"`
	Answers    []services.AnswerInput `json:"answers" validate:"dive"`
}

// SubmitFormHandler stores and scores the calling user's answers to a template
func SubmitFormHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var req submitFormRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	submission, err := services.SubmitForm(db.DB, req.TemplateID, user.ID, req.TicketID, req.Answers, now())
	if err != nil {
		return serviceError(err, "Failed to submit form")
	}
	return c.JSON(http.StatusCreated, submission)
}

// ScoreSubmissionHandler recomputes a submission's risk score and level
func ScoreSubmissionHandler(c echo.Context) error {
	submission, err := services.ScoreFormSubmission(db.DB, c.Param("id"), now())
	if err != nil {
		return serviceError(err, "Failed to score submission")
	}
	return c.JSON(http.StatusOK, submission)
}

type optionRequest struct {
	Label               string `json:"label" validate:"required"`
	Value               string `json:"value" validate:"required"`
	RiskScore           int    `json:"risk_score" validate:"gte=0,lte=10"`
	RequiresExplanation bool   `json:"requires_explanation"`
}

type fieldRequest struct {
	FieldKey         string          `json:"field_key" validate:"required,max=100"`
	Label            string          `json:"label" validate:"required"`
	FieldType        string          `json:"field_type" validate:"required,oneof=text textarea select radio checkbox number date"`
	IsRequired       bool            `json:"is_required"`
	IsCoreField      bool            `json:"is_core_field"`
	RiskWeight       int             `json:"risk_weight" validate:"gte=0,lte=10"`
	ConditionalLogic json.RawMessage `json:"conditional_logic,omitempty"`
	Options          []optionRequest `json:"options" validate:"dive"`
}

type templateRequest struct {
	Name        string         `json:"name" validate:"required,max=200"`
	Category    string         `json:"category" validate:"required,max=100"`
	Description *string        `json:"description,omitempty"`
	Fields      []fieldRequest `json:"fields" validate:"required,min=1,dive"`
}

// toModel keeps the request order as the display order
func (r *templateRequest) toModel() *models.FormTemplate {
	template := &models.FormTemplate{
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		Fields:      make([]models.FormField, 0, len(r.Fields)),
	}
	for i, f := range r.Fields {
		field := models.FormField{
			FieldKey:    f.FieldKey,
			Label:       f.Label,
			FieldType:   f.FieldType,
			IsRequired:  f.IsRequired,
			IsCoreField: f.IsCoreField,
			Order:       i,
			RiskWeight:  f.RiskWeight,
		}
		if len(f.ConditionalLogic) > 0 && string(f.ConditionalLogic) != "null" {
			field.ConditionalLogic = datatypes.JSON(f.ConditionalLogic)
		}
		for j, o := range f.Options {
			field.Options = append(field.Options, models.FormFieldOption{
				Label:               o.Label,
				Value:               o.Value,
				RiskScore:           o.RiskScore,
				RequiresExplanation: o.RequiresExplanation,
				Order:               j,
			})
		}
		template.Fields = append(template.Fields, field)
	}
	return template
}

// CreateFormTemplateHandler stores a new, inactive template
func CreateFormTemplateHandler(c echo.Context) error {
	admin := middleware.GetCurrentUser(c)

	var req templateRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	template := req.toModel()
	for i := range template.Fields {
		if _, err := template.Fields[i].Rule(); err != nil {
			return serviceError(err, "Failed to create template")
		}
	}

	if err := services.CreateFormTemplate(db.DB, template, admin.ID); err != nil {
		return serviceError(err, "Failed to create template")
	}
	return c.JSON(http.StatusCreated, template)
}

// GetFormTemplateHandler returns a template with ordered fields and options
func GetFormTemplateHandler(c echo.Context) error {
	template, err := services.GetFormTemplate(db.DB, c.Param("id"))
	if err != nil {
		return serviceError(err, "Failed to fetch template")
	}
	return c.JSON(http.StatusOK, template)
}

// GetDefaultFormTemplateHandler returns the default template of a category
func GetDefaultFormTemplateHandler(c echo.Context) error {
	category := c.QueryParam("category")
	if category == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "category is required")
	}

	template, err := services.GetDefaultFormTemplate(db.DB, category)
	if err != nil {
		return serviceError(err, "Failed to fetch template")
	}
	return c.JSON(http.StatusOK, template)
}

// DuplicateFormTemplateHandler copies a template as a new inactive draft
func DuplicateFormTemplateHandler(c echo.Context) error {
	admin := middleware.GetCurrentUser(c)

	copied, err := services.DuplicateFormTemplate(db.DB, c.Param("id"), admin.ID)
	if err != nil {
		return serviceError(err, "Failed to duplicate template")
	}
	return c.JSON(http.StatusCreated, copied)
}

type activateRequest struct {
	MakeDefault bool `json:"make_default"`
}

// ActivateFormTemplateHandler activates a template, optionally as its category default
func ActivateFormTemplateHandler(c echo.Context) error {
	admin := middleware.GetCurrentUser(c)

	var req activateRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	template, err := services.ActivateFormTemplate(db.DB, c.Param("id"), req.MakeDefault, admin.ID)
	if err != nil {
		return serviceError(err, "Failed to activate template")
	}
	return c.JSON(http.StatusOK, template)
}

// DeactivateFormTemplateHandler takes a template out of use
func DeactivateFormTemplateHandler(c echo.Context) error {
	admin := middleware.GetCurrentUser(c)

	if err := services.DeactivateFormTemplate(db.DB, c.Param("id"), admin.ID); err != nil {
		return serviceError(err, "Failed to deactivate template")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteFormTemplateHandler soft-deletes a template
func DeleteFormTemplateHandler(c echo.Context) error {
	admin := middleware.GetCurrentUser(c)

	if err := services.DeleteFormTemplate(db.DB, c.Param("id"), admin.ID); err != nil {
		return serviceError(err, "Failed to delete template")
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteFormFieldHandler removes a non-core field
func DeleteFormFieldHandler(c echo.Context) error {
	if err := services.DeleteFormField(db.DB, c.Param("id")); err != nil {
		return serviceError(err, "Failed to delete field")
	}
	return c.NoContent(http.StatusNoContent)
}
