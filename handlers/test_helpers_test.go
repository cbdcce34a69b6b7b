package handlers

import (
	"bytes"
	"consult_flow_app_go/db"
	"consult_flow_app_go/middleware"
	"consult_flow_app_go/models"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Monday 2026-03-02 10:00 UTC
var testNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique memory name isolates tests
	dbName := "mem_" + uuid.New().String()
	testDB, err := gorm.Open(sqlite.Open("file:"+dbName+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, testDB.AutoMigrate(models.All()...))

	// Set global DB and a fixed clock
	db.DB = testDB
	now = func() time.Time { return testNow }
	t.Cleanup(func() { sqlDB.Close() })

	return testDB
}

func setupEcho() *echo.Echo {
	e := echo.New()
	RegisterRoutes(e)
	return e
}

// doRequest sends a JSON request through the router as the given user
func doRequest(t *testing.T, e *echo.Echo, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func createUser(t *testing.T, database *gorm.DB, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    uuid.New().String() + "@example.com",
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, database.Create(user).Error)
	return user
}

func createConsultant(t *testing.T, database *gorm.DB, name string, level models.ConsultantLevel, category string) *models.Consultant {
	t.Helper()
	user := createUser(t, database, name, models.RoleConsultant)
	consultant := &models.Consultant{
		UserID:             user.ID,
		Name:               name,
		Level:              level,
		SpecialistCategory: category,
		IsActive:           true,
		IsVerified:         true,
	}
	require.NoError(t, database.Create(consultant).Error)
	return consultant
}

func stringToPtr(s string) *string {
	return &s
}
