package service

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bernardogazola/taskcheck/internal/dto"
	"github.com/bernardogazola/taskcheck/internal/events"
	"github.com/bernardogazola/taskcheck/internal/models"
	"github.com/bernardogazola/taskcheck/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func setupServiceDB(t *testing.T) *gorm.DB {
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

// fixtureSeq keeps unique-indexed columns distinct across tests sharing the
// cache=shared in-memory database.
var fixtureSeq atomic.Uint64

// fixture is a complete reference-data scenario: one course, one 20-hour
// category in it, one enrolled student and one instructor assigned to the
// course.
type fixture struct {
	course     models.Course
	category   models.Category
	student    models.Student
	instructor models.Instructor
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	seq := fixtureSeq.Add(1)

	course := models.Course{Name: "Software Engineering"}
	require.NoError(t, db.Create(&course).Error)

	category := models.Category{Name: "Community Outreach", RequiredHours: 20, CourseID: course.ID}
	require.NoError(t, db.Create(&category).Error)

	student := models.Student{UserID: uint(10000 + seq), Name: "Joana Prado", Enrollment: fmt.Sprintf("2024-%05d", seq), CourseID: course.ID}
	require.NoError(t, db.Create(&student).Error)

	instructor := models.Instructor{UserID: uint(50000 + seq), Name: "Prof. Ribeiro", Email: fmt.Sprintf("ribeiro-%d@example.com", seq)}
	require.NoError(t, db.Create(&instructor).Error)
	require.NoError(t, db.Exec("INSERT INTO instructor_courses (instructor_id, course_id) VALUES (?, ?)", instructor.ID, course.ID).Error)

	return fixture{course: course, category: category, student: student, instructor: instructor}
}

// seedOutsiderInstructor creates an instructor with no course assignments.
func seedOutsiderInstructor(t *testing.T, db *gorm.DB) models.Instructor {
	t.Helper()
	seq := fixtureSeq.Add(1)

	instructor := models.Instructor{UserID: uint(70000 + seq), Name: "Prof. Externo", Email: fmt.Sprintf("externo-%d@example.com", seq)}
	require.NoError(t, db.Create(&instructor).Error)
	return instructor
}

func newLifecycleService(t *testing.T, db *gorm.DB) LifecycleService {
	t.Helper()
	return NewLifecycleService(
		repository.NewReportRepository(db),
		repository.NewHistoryRepository(db),
		repository.NewReversalRepository(db),
		repository.NewReferenceRepository(db),
		nil,
		events.NoopPublisher{},
		validator.New(),
		testLogger(),
	)
}

func newFeedbackService(t *testing.T, db *gorm.DB) FeedbackService {
	t.Helper()
	return NewFeedbackService(
		repository.NewFeedbackRepository(db),
		repository.NewReportRepository(db),
		repository.NewReferenceRepository(db),
		NewActivityService(repository.NewActivityLogRepository(db), validator.New(), testLogger()),
		events.NoopPublisher{},
		validator.New(),
		testLogger(),
	)
}

var pdfCertificate = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")

func submitPayload(fix fixture) dto.SubmitReportRequest {
	return dto.SubmitReportRequest{
		StudentID:       fix.student.ID,
		CategoryID:      fix.category.ID,
		Name:            "Food bank weekend shift",
		Reflection:      "Sorted and packed donations across two full days.",
		RealizationDate: time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC),
		Certificate:     pdfCertificate,
	}
}

func submitReport(t *testing.T, svc LifecycleService, fix fixture) uint {
	t.Helper()
	response, err := svc.Submit(context.Background(), submitPayload(fix))
	require.NoError(t, err)
	return response.ID
}
