package handlers

import (
	"consult_flow_app_go/db"
	"consult_flow_app_go/services"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const auditPageSize = 20

// GetAuditLogsHandler returns filtered and paginated audit logs
func GetAuditLogsHandler(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	filters := services.AuditLogFilters{
		UserID:       c.QueryParam("user_id"),
		ResourceType: c.QueryParam("resource_type"),
		Action:       c.QueryParam("action"),
	}
	if dateFrom := c.QueryParam("date_from"); dateFrom != "" {
		t, err := services.ParseDate(dateFrom)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date_from must be YYYY-MM-DD")
		}
		filters.DateFrom = t
	}
	if dateTo := c.QueryParam("date_to"); dateTo != "" {
		t, err := services.ParseDate(dateTo)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date_to must be YYYY-MM-DD")
		}
		filters.DateTo = services.EndOfDay(t)
	}

	logs, total, err := services.ListAuditLogs(db.DB, filters, page, auditPageSize)
	if err != nil {
		return serviceError(err, "Failed to fetch audit logs")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":      logs,
		"total":     total,
		"page":      page,
		"page_size": auditPageSize,
	})
}

// GetResourceHistoryHandler returns the audit history for a specific resource
func GetResourceHistoryHandler(c echo.Context) error {
	logs, err := services.GetResourceAuditHistory(db.DB, c.Param("type"), c.Param("id"))
	if err != nil {
		return serviceError(err, "Failed to fetch history")
	}
	return c.JSON(http.StatusOK, logs)
}
