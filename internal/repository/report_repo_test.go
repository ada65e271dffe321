package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bernardogazola/taskcheck/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Course{},
		&models.Category{},
		&models.Student{},
		&models.Instructor{},
		&models.ActivityReport{},
		&models.Feedback{},
		&models.FeedbackVersion{},
		&models.ReportHistory{},
		&models.ValidationReversal{},
		&models.ActivityLog{},
	))
	return db
}

// seedSeq keeps unique-indexed columns distinct across tests sharing the
// cache=shared in-memory database.
var seedSeq atomic.Uint64

func seedReport(t *testing.T, db *gorm.DB) models.ActivityReport {
	t.Helper()
	seq := seedSeq.Add(1)

	course := models.Course{Name: "Computer Science"}
	require.NoError(t, db.Create(&course).Error)

	category := models.Category{Name: "Volunteering", RequiredHours: 20, CourseID: course.ID}
	require.NoError(t, db.Create(&category).Error)

	student := models.Student{UserID: uint(1000 + seq), Name: "Ana Lima", Enrollment: fmt.Sprintf("2023-%04d", seq), CourseID: course.ID}
	require.NoError(t, db.Create(&student).Error)

	report := models.ActivityReport{
		Name:            "Blood drive support",
		Reflection:      "Spent a weekend helping the local blood drive.",
		RealizationDate: time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		SubmissionDate:  time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC),
		Status:          models.ReportStatusAwaitingValidation,
		Certificate:     []byte("%PDF-1.4 proof"),
		StudentID:       student.ID,
		CategoryID:      category.ID,
	}
	require.NoError(t, db.Create(&report).Error)
	return report
}

func seedInstructor(t *testing.T, db *gorm.DB) models.Instructor {
	t.Helper()
	seq := seedSeq.Add(1)

	instructor := models.Instructor{
		UserID: uint(5000 + seq),
		Name:   "Dr. Souza",
		Email:  fmt.Sprintf("souza-%d@example.com", seq),
	}
	require.NoError(t, db.Create(&instructor).Error)
	return instructor
}

func TestReportRepositoryApplyTransitionCommitsWriteSet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db)
	report := seedReport(t, db)

	instructor := seedInstructor(t, db)

	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	snapshot := models.NewReportSnapshot(report, models.ReportFieldSet{Status: true}, at)
	report.Status = models.ReportStatusValid
	report.ValidatedHours = 15

	err := repo.ApplyTransition(context.Background(), ReportTransition{
		Report:   &report,
		Snapshot: &snapshot,
		Reversal: &models.ValidationReversal{
			ReportID:      report.ID,
			InstructorID:  instructor.ID,
			Justification: "granted after appeal",
			ReversedAt:    at,
		},
	})
	require.NoError(t, err)

	stored, err := repo.GetByID(context.Background(), report.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusValid, stored.Status)
	require.Equal(t, 15, stored.ValidatedHours)

	var historyCount, reversalCount int64
	require.NoError(t, db.Model(&models.ReportHistory{}).Where("report_id = ?", report.ID).Count(&historyCount).Error)
	require.NoError(t, db.Model(&models.ValidationReversal{}).Where("report_id = ?", report.ID).Count(&reversalCount).Error)
	require.Equal(t, int64(1), historyCount)
	require.Equal(t, int64(1), reversalCount)
}

func TestReportRepositoryApplyTransitionRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db)
	report := seedReport(t, db)

	at := time.Now().UTC()
	existing := models.ValidationReversal{ReportID: report.ID, InstructorID: 1, Justification: "seed", ReversedAt: at}
	require.NoError(t, db.Create(&existing).Error)

	snapshot := models.NewReportSnapshot(report, models.ReportFieldSet{Status: true}, at)
	report.Status = models.ReportStatusValid

	// Reusing the primary key of the seeded reversal makes the last insert of
	// the write set fail, which must drag the status change and snapshot down
	// with it.
	err := repo.ApplyTransition(context.Background(), ReportTransition{
		Report:   &report,
		Snapshot: &snapshot,
		Reversal: &models.ValidationReversal{ID: existing.ID, ReportID: report.ID, InstructorID: 1, Justification: "dup", ReversedAt: at},
	})
	require.Error(t, err)

	stored, getErr := repo.GetByID(context.Background(), report.ID)
	require.NoError(t, getErr)
	require.Equal(t, models.ReportStatusAwaitingValidation, stored.Status)

	var historyCount int64
	require.NoError(t, db.Model(&models.ReportHistory{}).Where("report_id = ?", report.ID).Count(&historyCount).Error)
	require.Zero(t, historyCount)
}

func TestHistoryRepositoryOrdersByChangeInstant(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHistoryRepository(db)
	report := seedReport(t, db)

	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	first := models.ReportStatusAwaitingValidation
	second := models.ReportStatusValid
	third := models.ReportStatusAwaitingValidation

	// Inserted out of order on purpose; the second and third rows share a
	// timestamp so insertion sequence breaks the tie.
	require.NoError(t, db.Create(&models.ReportHistory{ReportID: report.ID, PrevStatus: &second, ChangedAt: base.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&models.ReportHistory{ReportID: report.ID, PrevStatus: &third, ChangedAt: base.Add(time.Hour)}).Error)
	require.NoError(t, db.Create(&models.ReportHistory{ReportID: report.ID, PrevStatus: &first, ChangedAt: base}).Error)

	entries, err := repo.ListByReport(context.Background(), report.ID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, first, *entries[0].PrevStatus)
	require.Equal(t, second, *entries[1].PrevStatus)
	require.Equal(t, third, *entries[2].PrevStatus)
	require.True(t, entries[1].ID < entries[2].ID)

	total, err := repo.CountByReport(context.Background(), report.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
}
