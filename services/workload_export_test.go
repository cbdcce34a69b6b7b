package services

import (
	"consult_flow_app_go/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateWorkloadReport(t *testing.T) {
	db := newTestDB(t)
	busy := createTestConsultant(t, db, "c-1", "Busy Junior", consultantOpts{level: models.ConsultantLevelJunior, category: "family", verified: true})
	giveActiveTickets(t, db, busy.ID, 5)
	createTestConsultant(t, db, "c-2", "Calm Expert", consultantOpts{level: models.ConsultantLevelExpert, rating: 4.5, verified: true})
	createTestConsultant(t, db, "c-3", "Gone", consultantOpts{level: models.ConsultantLevelSenior, inactive: true})

	buf, err := GenerateWorkloadReport(db, testNow)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Workload")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Generated at", rows[0][11])

	assert.Equal(t, []string{"Busy Junior", "junior", "family", "", "TRUE", "5", "5", "24", "0", "FALSE"}, rows[1])
	assert.Equal(t, "Calm Expert", rows[2][0])
	assert.Equal(t, "15", rows[2][6])
	assert.Equal(t, "TRUE", rows[2][9])
}

func TestImportConsultantRoster(t *testing.T) {
	db := newTestDB(t)

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Consultants")
	rows := [][]interface{}{
		{"Email", "Name", "Level", "Specialization", "City", "Province", "Verified"},
		{"siti@example.com", "Siti", "Expert", "psychology", "Bandung", "Jawa Barat", "true"},
		{"budi@example.com", "Budi", "junior", "religious", "Denpasar", "Bali"},
		{"bad@example.com", "Bad", "guru", "", "", "", ""},
		{"", "", "", "", "", "", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Consultants", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	f.Close()

	result, err := ImportConsultantRoster(db, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalProcessed)
	assert.Equal(t, 2, result.Created)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 4")

	var siti models.Consultant
	require.NoError(t, db.Preload("User").Where("name = ?", "Siti").First(&siti).Error)
	assert.Equal(t, models.ConsultantLevelExpert, siti.Level)
	assert.True(t, siti.IsVerified)
	assert.Equal(t, "Jawa Barat", siti.Province)
	assert.Equal(t, models.RoleConsultant, siti.User.Role)

	var budi models.Consultant
	require.NoError(t, db.Where("name = ?", "Budi").First(&budi).Error)
	assert.False(t, budi.IsVerified)

	// importing again updates in place
	f2 := excelize.NewFile()
	f2.SetSheetName("Sheet1", "Consultants")
	require.NoError(t, f2.SetSheetRow("Consultants", "A1", &[]interface{}{"Email", "Name", "Level"}))
	require.NoError(t, f2.SetSheetRow("Consultants", "A2", &[]interface{}{"SITI@example.com", "Siti", "senior"}))
	buf2, err := f2.WriteToBuffer()
	require.NoError(t, err)
	f2.Close()

	result, err = ImportConsultantRoster(db, buf2)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	require.NoError(t, db.First(&siti, "id = ?", siti.ID).Error)
	assert.Equal(t, models.ConsultantLevelSenior, siti.Level)
	assert.False(t, siti.IsVerified)

	var count int64
	db.Model(&models.Consultant{}).Count(&count)
	assert.Equal(t, int64(2), count)
}
