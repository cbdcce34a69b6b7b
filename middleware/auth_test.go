package middleware

import (
	"consult_flow_app_go/db"
	"consult_flow_app_go/models"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&models.User{}))

	// Set the global DB variable used by middleware
	db.DB = testDB
	return testDB
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "success")
}

func assertHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	assert.Equal(t, code, he.Code)
}

func TestRequireUser(t *testing.T) {
	testDB := setupTestDB(t)
	e := echo.New()

	user := models.User{ID: uuid.New().String(), Name: "Client", Email: "client@example.com", Role: models.RoleUser, IsActive: true}
	require.NoError(t, testDB.Create(&user).Error)

	inactive := models.User{ID: uuid.New().String(), Name: "Gone", Email: "gone@example.com", Role: models.RoleUser, IsActive: false}
	require.NoError(t, testDB.Create(&inactive).Error)

	run := func(userID string) (echo.Context, *httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if userID != "" {
			req.Header.Set(UserIDHeader, userID)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		return c, rec, RequireUser()(okHandler)(c)
	}

	t.Run("KnownUser", func(t *testing.T) {
		c, rec, err := run(user.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.ID, GetCurrentUser(c).ID)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		_, _, err := run("")
		assertHTTPStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		_, _, err := run("nobody")
		assertHTTPStatus(t, err, http.StatusUnauthorized)
	})

	t.Run("InactiveUser", func(t *testing.T) {
		_, _, err := run(inactive.ID)
		assertHTTPStatus(t, err, http.StatusForbidden)
	})
}

func TestRequireRole(t *testing.T) {
	e := echo.New()

	t.Run("AllowedRole", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set(ContextKeyUser, &models.User{Role: models.RoleAdmin})
		assert.NoError(t, RequireRole(models.RoleAdmin)(okHandler)(c))
	})

	t.Run("WrongRole", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.Set(ContextKeyUser, &models.User{Role: models.RoleUser})
		assertHTTPStatus(t, RequireRole(models.RoleAdmin, models.RoleConsultant)(okHandler)(c), http.StatusForbidden)
	})

	t.Run("NoUser", func(t *testing.T) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		assertHTTPStatus(t, RequireRole(models.RoleAdmin)(okHandler)(c), http.StatusUnauthorized)
	})
}
