package handlers

import (
	"consult_flow_app_go/logger"
	"consult_flow_app_go/models"
	"consult_flow_app_go/services"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var validate = validator.New()

// now is the clock used by handlers, replaced in tests
var now = func() time.Time { return time.Now().UTC() }

// bindAndValidate decodes the request body into req and runs its validate tags
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error":  "Validation failed",
				"fields": fields,
			})
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// isResponded reports whether bindAndValidate already wrote a response
func isResponded(c echo.Context) bool {
	return c.Response().Committed
}

// serviceError maps service sentinels to HTTP errors
func serviceError(err error, fallback string) error {
	var subErr *services.SubmissionValidationError
	switch {
	case errors.As(err, &subErr):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]interface{}{
			"error":  "Invalid submission",
			"fields": subErr.Errors,
		})
	case errors.Is(err, services.ErrTicketNotFound),
		errors.Is(err, services.ErrConsultantNotFound),
		errors.Is(err, services.ErrSubmissionNotFound),
		errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrRatingNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNoConsultantFound):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrDuplicateTeamMember),
		errors.Is(err, services.ErrDuplicateFieldKey),
		errors.Is(err, services.ErrScheduleOverlap),
		errors.Is(err, services.ErrInvalidStatusTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNotTicketOwner),
		errors.Is(err, services.ErrNotTeamMember),
		errors.Is(err, services.ErrCollaboratorNotApproved),
		errors.Is(err, services.ErrCoreFieldProtected):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrOverrideReasonRequired),
		errors.Is(err, services.ErrEmptyNarrative),
		errors.Is(err, services.ErrInvalidRatingScore),
		errors.Is(err, services.ErrInvalidScheduleWindow),
		errors.Is(err, models.ErrInvalidConditionalLogic):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	logger.Log.Error(fallback, zap.Error(err))
	return echo.NewHTTPError(http.StatusInternalServerError, fallback)
}
