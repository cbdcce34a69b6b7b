package handlers

import (
	"consult_flow_app_go/db"
	"consult_flow_app_go/middleware"
	"consult_flow_app_go/models"
	"consult_flow_app_go/services"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GetWorkloadHandler lists every active consultant's load and availability
func GetWorkloadHandler(c echo.Context) error {
	workloads, err := services.ListConsultantWorkloads(db.DB, now())
	if err != nil {
		return serviceError(err, "Failed to load workloads")
	}
	return c.JSON(http.StatusOK, workloads)
}

// ExportWorkloadHandler serves the workload report as an xlsx download
func ExportWorkloadHandler(c echo.Context) error {
	at := now()
	buf, err := services.GenerateWorkloadReport(db.DB, at)
	if err != nil {
		return serviceError(err, "Failed to generate workload report")
	}

	filename := fmt.Sprintf("consultant_workload_%s.xlsx", at.Format("20060102"))
	c.Response().Header().Set("Content-Disposition", "attachment; filename="+filename)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportRosterHandler creates or updates consultants from an uploaded roster workbook
func ImportRosterHandler(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to open file")
	}
	defer src.Close()

	result, err := services.ImportConsultantRoster(db.DB, src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// GetScheduleHandler returns a consultant's weekly windows
func GetScheduleHandler(c echo.Context) error {
	windows, err := services.GetConsultantSchedule(db.DB, c.Param("id"))
	if err != nil {
		return serviceError(err, "Failed to fetch schedule")
	}
	return c.JSON(http.StatusOK, windows)
}

type scheduleWindowRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"gte=0,lte=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	// Omitted means available
	IsAvailable *bool `json:"is_available"`
}

func (r *scheduleWindowRequest) available() bool {
	return r.IsAvailable == nil || *r.IsAvailable
}

// AddScheduleWindowHandler adds a weekly window for a consultant
func AddScheduleWindowHandler(c echo.Context) error {
	var req scheduleWindowRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	window := &models.ConsultantSchedule{
		ConsultantID: c.Param("id"),
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		IsAvailable:  req.available(),
	}
	if err := services.AddScheduleWindow(db.DB, window); err != nil {
		return serviceError(err, "Failed to add schedule window")
	}
	return c.JSON(http.StatusCreated, window)
}

// UpdateScheduleWindowHandler replaces a window's day, hours and availability
func UpdateScheduleWindowHandler(c echo.Context) error {
	var req scheduleWindowRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	window, err := services.GetScheduleWindow(db.DB, c.Param("id"))
	if err != nil {
		return serviceError(err, "Failed to fetch schedule window")
	}
	window.DayOfWeek = req.DayOfWeek
	window.StartTime = req.StartTime
	window.EndTime = req.EndTime
	window.IsAvailable = req.available()

	if err := services.UpdateScheduleWindow(db.DB, window); err != nil {
		return serviceError(err, "Failed to update schedule window")
	}
	return c.JSON(http.StatusOK, window)
}

// SeedDefaultScheduleHandler gives a consultant the default weekly schedule
func SeedDefaultScheduleHandler(c echo.Context) error {
	consultantID := c.Param("id")
	if err := services.CreateDefaultSchedule(db.DB, consultantID); err != nil {
		return serviceError(err, "Failed to create default schedule")
	}
	return GetScheduleHandler(c)
}

// DeleteScheduleWindowHandler removes a window
func DeleteScheduleWindowHandler(c echo.Context) error {
	if err := services.DeleteScheduleWindow(db.DB, c.Param("id")); err != nil {
		return serviceError(err, "Failed to delete schedule window")
	}
	return c.NoContent(http.StatusNoContent)
}

type ratingRequest struct {
	TicketID *string `json:"ticket_id,omitempty"`
	Score    int     `json:"score" validate:"required,gte=1,lte=5"`
	Comment  *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// CreateRatingHandler records the calling user's rating of a consultant
func CreateRatingHandler(c echo.Context) error {
	user := middleware.GetCurrentUser(c)

	var req ratingRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	var consultant models.Consultant
	if err := db.DB.First(&consultant, "id = ?", c.Param("id")).Error; err != nil {
		return serviceError(services.ErrConsultantNotFound, "Failed to fetch consultant")
	}

	rating := &models.ConsultantRating{
		ConsultantID: consultant.ID,
		TicketID:     req.TicketID,
		UserID:       user.ID,
		Score:        req.Score,
		Comment:      req.Comment,
	}
	if err := services.CreateRating(db.DB, rating); err != nil {
		return serviceError(err, "Failed to create rating")
	}
	return c.JSON(http.StatusCreated, rating)
}

// ownRating loads a rating the calling user may change
func ownRating(c echo.Context) (*models.ConsultantRating, error) {
	user := middleware.GetCurrentUser(c)

	var rating models.ConsultantRating
	if err := db.DB.First(&rating, "id = ?", c.Param("id")).Error; err != nil {
		return nil, serviceError(services.ErrRatingNotFound, "Failed to fetch rating")
	}
	if rating.UserID != user.ID && !user.IsAdmin() {
		return nil, echo.NewHTTPError(http.StatusForbidden, "Not your rating")
	}
	return &rating, nil
}

// UpdateRatingHandler changes a rating's score and comment
func UpdateRatingHandler(c echo.Context) error {
	rating, err := ownRating(c)
	if err != nil {
		return err
	}

	var req ratingRequest
	if err := bindAndValidate(c, &req); err != nil || isResponded(c) {
		return err
	}

	updated, err := services.UpdateRating(db.DB, rating.ID, req.Score, req.Comment)
	if err != nil {
		return serviceError(err, "Failed to update rating")
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteRatingHandler removes a rating
func DeleteRatingHandler(c echo.Context) error {
	rating, err := ownRating(c)
	if err != nil {
		return err
	}

	if err := services.DeleteRating(db.DB, rating.ID); err != nil {
		return serviceError(err, "Failed to delete rating")
	}
	return c.NoContent(http.StatusNoContent)
}
