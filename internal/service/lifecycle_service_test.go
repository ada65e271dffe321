package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bernardogazola/taskcheck/internal/dto"
	"github.com/bernardogazola/taskcheck/internal/models"
)

func TestSubmitCreatesReportAwaitingValidation(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)

	payload := submitPayload(fix)
	payload.Name = "Food bank <script>alert(1)</script>weekend shift"

	response, err := svc.Submit(context.Background(), payload)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusAwaitingValidation, response.Status)
	require.Equal(t, fix.student.ID, response.StudentID)
	require.Equal(t, fix.category.ID, response.CategoryID)
	require.Zero(t, response.ValidatedHours)
	require.NotContains(t, response.Name, "<script>")

	var historyCount int64
	require.NoError(t, db.Model(&models.ReportHistory{}).Where("report_id = ?", response.ID).Count(&historyCount).Error)
	require.Zero(t, historyCount)
}

func TestSubmitRejectsCategoryFromAnotherCourse(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	other := seedFixture(t, db)

	payload := submitPayload(fix)
	payload.CategoryID = other.category.ID

	_, err := svc.Submit(context.Background(), payload)
	require.ErrorIs(t, err, ErrInvalidCategoryAssignment)
}

func TestSubmitRejectsUnsupportedCertificate(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)

	payload := submitPayload(fix)
	payload.Certificate = []byte("plain words are not a proof document")

	_, err := svc.Submit(context.Background(), payload)
	require.ErrorIs(t, err, ErrUnsupportedCertificate)
}

func TestSubmitRejectsNameThatSanitizesTooShort(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)

	// Markup is stripped before the length rules run, so tags cannot pad a
	// name over the minimum.
	payload := submitPayload(fix)
	payload.Name = "<b></b><i></i>ab"

	_, err := svc.Submit(context.Background(), payload)
	require.Error(t, err)

	var reports []models.ActivityReport
	require.NoError(t, db.Where("student_id = ?", fix.student.ID).Find(&reports).Error)
	require.Empty(t, reports)
}

func TestValidateCreditsHoursWithinBound(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)

	response, err := svc.Validate(context.Background(), reportID, dto.ValidateReportRequest{
		InstructorID:   fix.instructor.ID,
		ValidatedHours: 15,
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusValid, response.Status)
	require.Equal(t, 15, response.ValidatedHours)

	history, err := svc.ListHistory(context.Background(), reportID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ReportStatusAwaitingValidation, *history[0].PrevStatus)
	require.Nil(t, history[0].PrevName)

	var auditCount int64
	require.NoError(t, db.Model(&models.ActivityLog{}).
		Where("action = ? AND entity_id = ?", "report.validated", reportID).
		Count(&auditCount).Error)
	require.Equal(t, int64(1), auditCount)
}

func TestValidateRejectsHoursAboveCategoryBound(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)

	_, err := svc.Validate(context.Background(), reportID, dto.ValidateReportRequest{
		InstructorID:   fix.instructor.ID,
		ValidatedHours: fix.category.RequiredHours + 1,
	})
	require.ErrorIs(t, err, ErrOutOfRangeHours)

	_, err = svc.Validate(context.Background(), reportID, dto.ValidateReportRequest{
		InstructorID:   fix.instructor.ID,
		ValidatedHours: -1,
	})
	require.ErrorIs(t, err, ErrOutOfRangeHours)

	current, err := svc.GetReport(context.Background(), reportID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusAwaitingValidation, current.Status)
}

func TestValidateRejectsUnassignedInstructor(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	outsider := seedOutsiderInstructor(t, db)
	reportID := submitReport(t, svc, fix)

	_, err := svc.Validate(context.Background(), reportID, dto.ValidateReportRequest{
		InstructorID:   outsider.ID,
		ValidatedHours: 10,
	})
	require.ErrorIs(t, err, ErrUnauthorizedInstructor)
}

func TestValidateTwiceIsIllegal(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)

	payload := dto.ValidateReportRequest{InstructorID: fix.instructor.ID, ValidatedHours: 10}
	_, err := svc.Validate(context.Background(), reportID, payload)
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), reportID, payload)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestInvalidateRejectsReport(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)
	ctx := context.Background()

	response, err := svc.Invalidate(ctx, reportID, dto.InvalidateReportRequest{InstructorID: fix.instructor.ID})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusInvalid, response.Status)
	require.Zero(t, response.ValidatedHours)

	history, err := svc.ListHistory(ctx, reportID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ReportStatusAwaitingValidation, *history[0].PrevStatus)
}

func TestReverseReopensInvalidatedReport(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)
	ctx := context.Background()

	_, err := svc.Invalidate(ctx, reportID, dto.InvalidateReportRequest{InstructorID: fix.instructor.ID})
	require.NoError(t, err)

	response, err := svc.Reverse(ctx, reportID, dto.ReverseReportRequest{
		InstructorID:  fix.instructor.ID,
		Justification: "rejected the wrong submission",
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusAwaitingValidation, response.Status)
	require.Zero(t, response.ValidatedHours)

	reversals, err := svc.ListReversals(ctx, reportID)
	require.NoError(t, err)
	require.Len(t, reversals, 1)
	require.Equal(t, "rejected the wrong submission", reversals[0].Justification)

	history, err := svc.ListHistory(ctx, reportID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, models.ReportStatusInvalid, *history[1].PrevStatus)
}

func TestReverseRequiresJustification(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)

	_, err := svc.Validate(context.Background(), reportID, dto.ValidateReportRequest{InstructorID: fix.instructor.ID, ValidatedHours: 12})
	require.NoError(t, err)

	_, err = svc.Reverse(context.Background(), reportID, dto.ReverseReportRequest{
		InstructorID:  fix.instructor.ID,
		Justification: "   ",
	})
	require.ErrorIs(t, err, ErrMissingJustification)

	// The rejected reversal must leave no trace.
	reversals, err := svc.ListReversals(context.Background(), reportID)
	require.NoError(t, err)
	require.Empty(t, reversals)

	current, err := svc.GetReport(context.Background(), reportID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusValid, current.Status)
	require.Equal(t, 12, current.ValidatedHours)
}

func TestReverseRestoresReview(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)

	_, err := svc.Validate(context.Background(), reportID, dto.ValidateReportRequest{InstructorID: fix.instructor.ID, ValidatedHours: 12})
	require.NoError(t, err)

	response, err := svc.Reverse(context.Background(), reportID, dto.ReverseReportRequest{
		InstructorID:  fix.instructor.ID,
		Justification: "decision entered for the wrong report",
	})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusAwaitingValidation, response.Status)
	require.Zero(t, response.ValidatedHours)

	reversals, err := svc.ListReversals(context.Background(), reportID)
	require.NoError(t, err)
	require.Len(t, reversals, 1)
	require.Equal(t, fix.instructor.ID, reversals[0].InstructorID)
	require.Equal(t, "decision entered for the wrong report", reversals[0].Justification)
}

func TestRevalidationAfterReversal(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)
	ctx := context.Background()

	_, err := svc.Validate(ctx, reportID, dto.ValidateReportRequest{InstructorID: fix.instructor.ID, ValidatedHours: 15})
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, reportID, dto.ReverseReportRequest{InstructorID: fix.instructor.ID, Justification: "hours were miscounted"})
	require.NoError(t, err)

	final, err := svc.Validate(ctx, reportID, dto.ValidateReportRequest{InstructorID: fix.instructor.ID, ValidatedHours: 20})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusValid, final.Status)
	require.Equal(t, 20, final.ValidatedHours)

	// Three transitions, three snapshots; replaying their prior statuses
	// reconstructs the full path the report took.
	history, err := svc.ListHistory(ctx, reportID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, models.ReportStatusAwaitingValidation, *history[0].PrevStatus)
	require.Equal(t, models.ReportStatusValid, *history[1].PrevStatus)
	require.Equal(t, models.ReportStatusAwaitingValidation, *history[2].PrevStatus)

	reversals, err := svc.ListReversals(ctx, reportID)
	require.NoError(t, err)
	require.Len(t, reversals, 1)
}

func TestRecategorizationRoundTrip(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)
	ctx := context.Background()

	sibling := models.Category{Name: "Research Support", RequiredHours: 40, CourseID: fix.course.ID}
	require.NoError(t, db.Create(&sibling).Error)

	response, err := svc.RequestRecategorization(ctx, reportID, dto.RequestRecategorizationRequest{InstructorID: fix.instructor.ID})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusNeedsRecategorization, response.Status)

	response, err = svc.Recategorize(ctx, reportID, dto.RecategorizeReportRequest{CategoryID: sibling.ID})
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusAwaitingValidation, response.Status)
	require.Equal(t, sibling.ID, response.CategoryID)

	history, err := svc.ListHistory(ctx, reportID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestRecategorizeRejectsCategoryFromAnotherCourse(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	other := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)
	ctx := context.Background()

	_, err := svc.RequestRecategorization(ctx, reportID, dto.RequestRecategorizationRequest{InstructorID: fix.instructor.ID})
	require.NoError(t, err)

	_, err = svc.Recategorize(ctx, reportID, dto.RecategorizeReportRequest{CategoryID: other.category.ID})
	require.ErrorIs(t, err, ErrInvalidCategoryAssignment)
}

func TestAmendSnapshotsOnlyChangedFields(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)
	ctx := context.Background()

	newName := "Food bank weekend shift, day two"
	response, err := svc.Amend(ctx, reportID, dto.AmendReportRequest{Name: &newName})
	require.NoError(t, err)
	require.Equal(t, newName, response.Name)
	require.Equal(t, models.ReportStatusAwaitingValidation, response.Status)

	history, err := svc.ListHistory(ctx, reportID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "Food bank weekend shift", *history[0].PrevName)
	require.Nil(t, history[0].PrevReflection)
	require.Nil(t, history[0].PrevStatus)
}

func TestAmendWithoutChangesWritesNoSnapshot(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)
	ctx := context.Background()

	sameName := "Food bank weekend shift"
	_, err := svc.Amend(ctx, reportID, dto.AmendReportRequest{Name: &sameName})
	require.NoError(t, err)

	history, err := svc.ListHistory(ctx, reportID)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestAmendAfterDecisionIsIllegal(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	reportID := submitReport(t, svc, fix)
	ctx := context.Background()

	_, err := svc.Validate(ctx, reportID, dto.ValidateReportRequest{InstructorID: fix.instructor.ID, ValidatedHours: 10})
	require.NoError(t, err)

	newName := "Renamed after the fact"
	_, err = svc.Amend(ctx, reportID, dto.AmendReportRequest{Name: &newName})
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestGetReportMissing(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)

	_, err := svc.GetReport(context.Background(), 987654)
	require.ErrorIs(t, err, ErrReportNotFound)
}

func TestListReportsFiltersByStatus(t *testing.T) {
	db := setupServiceDB(t)
	svc := newLifecycleService(t, db)
	fix := seedFixture(t, db)
	ctx := context.Background()

	first := submitReport(t, svc, fix)
	second := submitReport(t, svc, fix)

	_, err := svc.Validate(ctx, first, dto.ValidateReportRequest{InstructorID: fix.instructor.ID, ValidatedHours: 8})
	require.NoError(t, err)

	status := models.ReportStatusAwaitingValidation
	pending, err := svc.ListReports(ctx, dto.ReportFilter{StudentID: &fix.student.ID, Status: &status})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second, pending[0].ID)
}
