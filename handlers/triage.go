package handlers

import (
	"consult_flow_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

type classifyDreamRequest struct {
	Content string                `json:"content" validate:"required"`
	Context services.DreamContext `json:"context"`
}

// ClassifyDreamHandler classifies a dream narrative
func ClassifyDreamHandler(c echo.Context) error {
	var req classifyDreamRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	result := services.ClassifyDreamContent(services.SanitizeNarrative(req.Content), req.Context)
	return c.JSON(http.StatusOK, result)
}

type assessRiskRequest struct {
	Content string `json:"content" validate:"required"`
}

// AssessRiskHandler scores a consultation narrative for risk families
func AssessRiskHandler(c echo.Context) error {
	var req assessRiskRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	result := services.AssessConsultationRisk(services.SanitizeNarrative(req.Content))
	return c.JSON(http.StatusOK, result)
}
