package services

import (
	"consult_flow_app_go/models"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Monday 2026-03-02 10:00 UTC
var testNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name, province string) *models.User {
	t.Helper()
	user := &models.User{
		Name:     name,
		Email:    uuid.New().String() + "@example.com",
		Role:     models.RoleUser,
		IsActive: true,
		Province: province,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type consultantOpts struct {
	level    models.ConsultantLevel
	category string
	province string
	rating   float64
	verified bool
	inactive bool
}

func createTestConsultant(t *testing.T, db *gorm.DB, id, name string, opts consultantOpts) *models.Consultant {
	t.Helper()
	user := createTestUser(t, db, name, opts.province)
	c := &models.Consultant{
		ID:                 id,
		UserID:             user.ID,
		Name:               name,
		Level:              opts.level,
		SpecialistCategory: opts.category,
		Province:           opts.province,
		IsActive:           !opts.inactive,
		IsVerified:         opts.verified,
		RatingAverage:      opts.rating,
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

func createTestTicket(t *testing.T, db *gorm.DB, userID, category string) *models.ConsultationTicket {
	t.Helper()
	ticket := &models.ConsultationTicket{
		UserID:      userID,
		Category:    category,
		Description: "test narrative",
	}
	require.NoError(t, db.Create(ticket).Error)
	return ticket
}

// giveActiveTickets creates n waiting tickets assigned to the consultant
func giveActiveTickets(t *testing.T, db *gorm.DB, consultantID string, n int) {
	t.Helper()
	owner := createTestUser(t, db, "load-"+consultantID, "")
	for i := 0; i < n; i++ {
		ticket := &models.ConsultationTicket{
			UserID:       owner.ID,
			ConsultantID: &consultantID,
		}
		require.NoError(t, db.Create(ticket).Error)
	}
}
