package services

import (
	"bytes"
	"consult_flow_app_go/models"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	sheetWorkload = "Workload"
	sheetRoster   = "Consultants"
)

var workloadHeaders = []string{
	"Name", "Level", "Specialization", "Province", "Verified",
	"Active Tickets", "Capacity", "Avg Response (h)", "Rating", "Available Now",
}

// GenerateWorkloadReport writes every active consultant's load and availability to an xlsx workbook
func GenerateWorkloadReport(db *gorm.DB, now time.Time) (*bytes.Buffer, error) {
	workloads, err := ListConsultantWorkloads(db, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load workloads: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", sheetWorkload)
	for i, header := range workloadHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetWorkload, cell, header)
	}

	for i, w := range workloads {
		row := i + 2
		values := []interface{}{
			w.Consultant.Name,
			string(w.Consultant.Level),
			w.Consultant.SpecialistCategory,
			w.Consultant.Province,
			w.Consultant.IsVerified,
			w.ActiveTickets,
			w.Capacity,
			roundTo(w.ResponseHours, 1),
			w.Consultant.RatingAverage,
			w.Available,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheetWorkload, cell, v)
		}
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheetWorkload, "A1", "J1", headerStyle)
	f.SetColWidth(sheetWorkload, "A", "J", 18)
	f.SetCellValue(sheetWorkload, "L1", "Generated at")
	f.SetCellValue(sheetWorkload, "M1", now.Format(time.RFC3339))

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel buffer: %w", err)
	}
	return buf, nil
}

// RosterImportResult summarizes a roster import
type RosterImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Errors         []string
}

// ImportConsultantRoster reads a "Consultants" sheet with columns
// Email, Name, Level, Specialization, City, Province, Verified and creates or
// updates the matching consultant profiles
func ImportConsultantRoster(db *gorm.DB, file io.Reader) (*RosterImportResult, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetRoster)
	if err != nil {
		return nil, fmt.Errorf("missing %s sheet: %w", sheetRoster, err)
	}

	result := &RosterImportResult{}
	for i, row := range rows {
		if i == 0 || len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		result.TotalProcessed++

		created, err := importRosterRow(db, padRow(row, 7))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

func importRosterRow(db *gorm.DB, row []string) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(row[0]))
	name := strings.TrimSpace(row[1])
	level := strings.ToLower(strings.TrimSpace(row[2]))
	if name == "" {
		return false, errors.New("name is required")
	}
	if !models.IsValidConsultantLevel(level) {
		return false, fmt.Errorf("invalid level %q", row[2])
	}
	verified, _ := strconv.ParseBool(strings.TrimSpace(row[6]))

	created := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{
				Name:     name,
				Email:    email,
				Role:     models.RoleConsultant,
				IsActive: true,
				City:     strings.TrimSpace(row[4]),
				Province: strings.TrimSpace(row[5]),
			}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var consultant models.Consultant
		err = tx.Where("user_id = ?", user.ID).First(&consultant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			consultant = models.Consultant{UserID: user.ID}
		} else if err != nil {
			return err
		}

		consultant.Name = name
		consultant.Level = models.ConsultantLevel(level)
		consultant.SpecialistCategory = strings.TrimSpace(row[3])
		consultant.City = strings.TrimSpace(row[4])
		consultant.Province = strings.TrimSpace(row[5])
		consultant.IsVerified = verified
		consultant.IsActive = true
		return tx.Save(&consultant).Error
	})
	return created, err
}

func padRow(row []string, n int) []string {
	for len(row) < n {
		row = append(row, "")
	}
	return row
}
