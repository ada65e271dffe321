package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/bernardogazola/taskcheck/internal/dto"
	"github.com/bernardogazola/taskcheck/internal/events"
	"github.com/bernardogazola/taskcheck/internal/models"
	"github.com/bernardogazola/taskcheck/internal/observability"
	"github.com/bernardogazola/taskcheck/internal/repository"
)

// ErrReportNotFound indicates the report was not located.
var ErrReportNotFound = errors.New("report not found")

// ErrStudentNotFound indicates the submitting student is unknown.
var ErrStudentNotFound = errors.New("student not found")

// ErrCategoryNotFound indicates the requested category is unknown.
var ErrCategoryNotFound = errors.New("category not found")

// ErrInvalidCategoryAssignment indicates the category does not belong to the
// student's course.
var ErrInvalidCategoryAssignment = errors.New("category does not belong to the student's course")

// ErrOutOfRangeHours indicates validated hours fall outside the category's
// required-hour bound.
var ErrOutOfRangeHours = errors.New("validated hours out of range")

// ErrUnauthorizedInstructor indicates the instructor is not assigned to the
// student's course.
var ErrUnauthorizedInstructor = errors.New("instructor not assigned to the student's course")

// ErrIllegalTransition indicates the operation is not permitted from the
// report's current status.
var ErrIllegalTransition = errors.New("operation not permitted in current report status")

// ErrMissingJustification indicates a reversal without a reason.
var ErrMissingJustification = errors.New("reversal justification must not be empty")

// ErrUnsupportedCertificate indicates a certificate payload of a type the
// platform does not accept as proof.
var ErrUnsupportedCertificate = errors.New("unsupported certificate type")

// allowed proof document types
var allowedCertificateTypes = []string{"application/pdf", "image/png", "image/jpeg"}

// CertificateArchive mirrors certificate proofs to external storage and
// returns a display URL. The report row keeps the payload itself.
type CertificateArchive interface {
	Store(ctx context.Context, name string, payload []byte) (string, error)
}

// LifecycleService owns the report state machine and its audit trail.
type LifecycleService interface {
	Submit(ctx context.Context, payload dto.SubmitReportRequest) (dto.ReportResponse, error)
	Validate(ctx context.Context, reportID uint, payload dto.ValidateReportRequest) (dto.ReportResponse, error)
	Invalidate(ctx context.Context, reportID uint, payload dto.InvalidateReportRequest) (dto.ReportResponse, error)
	RequestRecategorization(ctx context.Context, reportID uint, payload dto.RequestRecategorizationRequest) (dto.ReportResponse, error)
	Recategorize(ctx context.Context, reportID uint, payload dto.RecategorizeReportRequest) (dto.ReportResponse, error)
	Reverse(ctx context.Context, reportID uint, payload dto.ReverseReportRequest) (dto.ReportResponse, error)
	Amend(ctx context.Context, reportID uint, payload dto.AmendReportRequest) (dto.ReportResponse, error)
	GetReport(ctx context.Context, reportID uint) (dto.ReportResponse, error)
	ListReports(ctx context.Context, filter dto.ReportFilter) ([]dto.ReportResponse, error)
	ListHistory(ctx context.Context, reportID uint) ([]dto.HistoryEntryResponse, error)
	ListReversals(ctx context.Context, reportID uint) ([]dto.ReversalResponse, error)
}

type lifecycleService struct {
	reports   repository.ReportRepository
	history   repository.HistoryRepository
	reversals repository.ReversalRepository
	gateway   ReferenceGateway
	archive   CertificateArchive
	publisher events.Publisher
	validator *validator.Validate
	strict    *bluemonday.Policy
	ugc       *bluemonday.Policy
	locks     *keyedMutex
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewLifecycleService constructs the report lifecycle engine. archive may be
// nil when no external certificate storage is configured; publisher may be
// events.NoopPublisher{}.
func NewLifecycleService(
	reports repository.ReportRepository,
	history repository.HistoryRepository,
	reversals repository.ReversalRepository,
	gateway ReferenceGateway,
	archive CertificateArchive,
	publisher events.Publisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) LifecycleService {
	return &lifecycleService{
		reports:   reports,
		history:   history,
		reversals: reversals,
		gateway:   gateway,
		archive:   archive,
		publisher: publisher,
		validator: validate,
		strict:    bluemonday.StrictPolicy(),
		ugc:       bluemonday.UGCPolicy(),
		locks:     newKeyedMutex(),
		logger:    logger.With().Str("component", "lifecycle_service").Logger(),
		tracer:    otel.Tracer("github.com/bernardogazola/taskcheck/internal/service/lifecycle"),
		now:       time.Now,
	}
}

func (s *lifecycleService) Submit(ctx context.Context, payload dto.SubmitReportRequest) (dto.ReportResponse, error) {
	// Length rules run on the sanitized values, so markup cannot smuggle a
	// too-short field past validation.
	payload.Name = strings.TrimSpace(s.strict.Sanitize(payload.Name))
	payload.Reflection = strings.TrimSpace(s.ugc.Sanitize(payload.Reflection))

	if err := s.validator.Struct(payload); err != nil {
		return dto.ReportResponse{}, err
	}

	if err := s.checkCertificate(payload.Certificate); err != nil {
		return dto.ReportResponse{}, err
	}

	studentCourse, err := s.gateway.StudentCourseID(ctx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportResponse{}, ErrStudentNotFound
		}
		return dto.ReportResponse{}, fmt.Errorf("failed to resolve student course: %w", err)
	}

	categoryCourse, err := s.gateway.CategoryCourseID(ctx, payload.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportResponse{}, ErrCategoryNotFound
		}
		return dto.ReportResponse{}, fmt.Errorf("failed to resolve category course: %w", err)
	}

	if studentCourse != categoryCourse {
		return dto.ReportResponse{}, ErrInvalidCategoryAssignment
	}

	now := s.now()
	report := models.ActivityReport{
		Name:            payload.Name,
		Reflection:      payload.Reflection,
		RealizationDate: payload.RealizationDate,
		SubmissionDate:  now,
		Status:          models.ReportStatusAwaitingValidation,
		Certificate:     payload.Certificate,
		StudentID:       payload.StudentID,
		CategoryID:      payload.CategoryID,
	}

	report.CertificateURL = s.archiveCertificate(ctx, report.Name, payload.Certificate)

	if err := s.reports.Create(ctx, &report); err != nil {
		return dto.ReportResponse{}, fmt.Errorf("failed to persist report: %w", err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.TypeReportSubmitted,
		ReportID:   report.ID,
		ActorID:    payload.StudentID,
		OccurredAt: now,
	})

	s.logger.Info().Uint("report_id", report.ID).Uint("student_id", payload.StudentID).Msg("report submitted")

	created, err := s.reports.GetByID(ctx, report.ID)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	return dto.NewReportResponse(created), nil
}

func (s *lifecycleService) Validate(ctx context.Context, reportID uint, payload dto.ValidateReportRequest) (dto.ReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "report.validate", trace.WithAttributes(
		attribute.Int64("report.id", int64(reportID)),
		attribute.Int64("report.instructor_id", int64(payload.InstructorID)),
		attribute.Int("report.validated_hours", payload.ValidatedHours),
	))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ReportResponse{}, err
	}

	unlock := s.locks.Lock(reportID)
	defer unlock()

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report_lookup_failed")
		return dto.ReportResponse{}, err
	}

	next, ok := models.NextReportStatus(report.Status, models.ReportActionValidate)
	if !ok {
		s.rejected(models.ReportActionValidate, "illegal_transition")
		span.SetStatus(codes.Error, "illegal_transition")
		return dto.ReportResponse{}, ErrIllegalTransition
	}

	if err := s.authorizeInstructor(ctx, report.StudentID, payload.InstructorID); err != nil {
		s.rejected(models.ReportActionValidate, "unauthorized")
		span.RecordError(err)
		span.SetStatus(codes.Error, "unauthorized_instructor")
		return dto.ReportResponse{}, err
	}

	required, err := s.gateway.CategoryRequiredHours(ctx, report.CategoryID)
	if err != nil {
		return dto.ReportResponse{}, fmt.Errorf("failed to resolve category hours: %w", err)
	}

	if payload.ValidatedHours < 0 || payload.ValidatedHours > required {
		s.rejected(models.ReportActionValidate, "out_of_range_hours")
		span.SetStatus(codes.Error, "out_of_range_hours")
		return dto.ReportResponse{}, ErrOutOfRangeHours
	}

	now := s.now()
	snapshot := models.NewReportSnapshot(report, models.ReportFieldSet{Status: true}, now)
	report.Status = next
	report.ValidatedHours = payload.ValidatedHours

	transition := repository.ReportTransition{
		Report:   &report,
		Snapshot: &snapshot,
		Activity: s.activityRow(Actor{ID: payload.InstructorID, Role: RoleInstructor}, "report.validated", report.ID, map[string]interface{}{
			"validated_hours": payload.ValidatedHours,
			"required_hours":  required,
		}),
	}

	if err := s.commit(ctx, models.ReportActionValidate, now, transition); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition_commit_failed")
		return dto.ReportResponse{}, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.TypeReportValidated,
		ReportID:   report.ID,
		ActorID:    payload.InstructorID,
		OccurredAt: now,
		Detail:     map[string]any{"validated_hours": payload.ValidatedHours},
	})

	span.SetAttributes(attribute.String("report.status", string(report.Status)))
	s.logger.Info().Uint("report_id", report.ID).Int("validated_hours", payload.ValidatedHours).Msg("report validated")

	return dto.NewReportResponse(report), nil
}

func (s *lifecycleService) Invalidate(ctx context.Context, reportID uint, payload dto.InvalidateReportRequest) (dto.ReportResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReportResponse{}, err
	}

	unlock := s.locks.Lock(reportID)
	defer unlock()

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	next, ok := models.NextReportStatus(report.Status, models.ReportActionInvalidate)
	if !ok {
		s.rejected(models.ReportActionInvalidate, "illegal_transition")
		return dto.ReportResponse{}, ErrIllegalTransition
	}

	if err := s.authorizeInstructor(ctx, report.StudentID, payload.InstructorID); err != nil {
		s.rejected(models.ReportActionInvalidate, "unauthorized")
		return dto.ReportResponse{}, err
	}

	now := s.now()
	snapshot := models.NewReportSnapshot(report, models.ReportFieldSet{Status: true}, now)
	report.Status = next
	report.ValidatedHours = 0

	transition := repository.ReportTransition{
		Report:   &report,
		Snapshot: &snapshot,
		Activity: s.activityRow(Actor{ID: payload.InstructorID, Role: RoleInstructor}, "report.invalidated", report.ID, nil),
	}

	if err := s.commit(ctx, models.ReportActionInvalidate, now, transition); err != nil {
		return dto.ReportResponse{}, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.TypeReportInvalidated,
		ReportID:   report.ID,
		ActorID:    payload.InstructorID,
		OccurredAt: now,
	})

	s.logger.Info().Uint("report_id", report.ID).Msg("report invalidated")

	return dto.NewReportResponse(report), nil
}

func (s *lifecycleService) RequestRecategorization(ctx context.Context, reportID uint, payload dto.RequestRecategorizationRequest) (dto.ReportResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReportResponse{}, err
	}

	unlock := s.locks.Lock(reportID)
	defer unlock()

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	next, ok := models.NextReportStatus(report.Status, models.ReportActionRequestRecategorization)
	if !ok {
		s.rejected(models.ReportActionRequestRecategorization, "illegal_transition")
		return dto.ReportResponse{}, ErrIllegalTransition
	}

	if err := s.authorizeInstructor(ctx, report.StudentID, payload.InstructorID); err != nil {
		s.rejected(models.ReportActionRequestRecategorization, "unauthorized")
		return dto.ReportResponse{}, err
	}

	now := s.now()
	snapshot := models.NewReportSnapshot(report, models.ReportFieldSet{Status: true}, now)
	report.Status = next

	transition := repository.ReportTransition{
		Report:   &report,
		Snapshot: &snapshot,
		Activity: s.activityRow(Actor{ID: payload.InstructorID, Role: RoleInstructor}, "report.recategorization_requested", report.ID, nil),
	}

	if err := s.commit(ctx, models.ReportActionRequestRecategorization, now, transition); err != nil {
		return dto.ReportResponse{}, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.TypeRecategorizationRequested,
		ReportID:   report.ID,
		ActorID:    payload.InstructorID,
		OccurredAt: now,
	})

	return dto.NewReportResponse(report), nil
}

func (s *lifecycleService) Recategorize(ctx context.Context, reportID uint, payload dto.RecategorizeReportRequest) (dto.ReportResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReportResponse{}, err
	}

	unlock := s.locks.Lock(reportID)
	defer unlock()

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	next, ok := models.NextReportStatus(report.Status, models.ReportActionRecategorize)
	if !ok {
		s.rejected(models.ReportActionRecategorize, "illegal_transition")
		return dto.ReportResponse{}, ErrIllegalTransition
	}

	replaceCertificate := len(payload.Certificate) > 0
	if replaceCertificate {
		if err := s.checkCertificate(payload.Certificate); err != nil {
			s.rejected(models.ReportActionRecategorize, "unsupported_certificate")
			return dto.ReportResponse{}, err
		}
	}

	studentCourse, err := s.gateway.StudentCourseID(ctx, report.StudentID)
	if err != nil {
		return dto.ReportResponse{}, fmt.Errorf("failed to resolve student course: %w", err)
	}

	categoryCourse, err := s.gateway.CategoryCourseID(ctx, payload.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReportResponse{}, ErrCategoryNotFound
		}
		return dto.ReportResponse{}, fmt.Errorf("failed to resolve category course: %w", err)
	}

	if studentCourse != categoryCourse {
		s.rejected(models.ReportActionRecategorize, "invalid_category")
		return dto.ReportResponse{}, ErrInvalidCategoryAssignment
	}

	now := s.now()
	changed := models.ReportFieldSet{Status: true, Certificate: replaceCertificate}
	snapshot := models.NewReportSnapshot(report, changed, now)

	report.Status = next
	report.CategoryID = payload.CategoryID
	if replaceCertificate {
		report.Certificate = payload.Certificate
		report.CertificateURL = s.archiveCertificate(ctx, report.Name, payload.Certificate)
	}

	transition := repository.ReportTransition{
		Report:   &report,
		Snapshot: &snapshot,
		Activity: s.activityRow(Actor{ID: report.StudentID, Role: RoleStudent}, "report.recategorized", report.ID, map[string]interface{}{
			"category_id":          payload.CategoryID,
			"certificate_replaced": replaceCertificate,
		}),
	}

	if err := s.commit(ctx, models.ReportActionRecategorize, now, transition); err != nil {
		return dto.ReportResponse{}, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.TypeReportRecategorized,
		ReportID:   report.ID,
		ActorID:    report.StudentID,
		OccurredAt: now,
	})

	// Reload so the response carries the new category association.
	updated, err := s.reports.GetByID(ctx, report.ID)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	return dto.NewReportResponse(updated), nil
}

func (s *lifecycleService) Reverse(ctx context.Context, reportID uint, payload dto.ReverseReportRequest) (dto.ReportResponse, error) {
	ctx, span := s.tracer.Start(ctx, "report.reverse", trace.WithAttributes(
		attribute.Int64("report.id", int64(reportID)),
		attribute.Int64("report.instructor_id", int64(payload.InstructorID)),
	))
	defer span.End()

	justification := strings.TrimSpace(s.strict.Sanitize(payload.Justification))
	if justification == "" {
		s.rejected(models.ReportActionReverse, "missing_justification")
		span.SetStatus(codes.Error, "missing_justification")
		return dto.ReportResponse{}, ErrMissingJustification
	}

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.ReportResponse{}, err
	}

	unlock := s.locks.Lock(reportID)
	defer unlock()

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report_lookup_failed")
		return dto.ReportResponse{}, err
	}

	next, ok := models.NextReportStatus(report.Status, models.ReportActionReverse)
	if !ok {
		s.rejected(models.ReportActionReverse, "illegal_transition")
		span.SetStatus(codes.Error, "illegal_transition")
		return dto.ReportResponse{}, ErrIllegalTransition
	}

	if err := s.authorizeInstructor(ctx, report.StudentID, payload.InstructorID); err != nil {
		s.rejected(models.ReportActionReverse, "unauthorized")
		span.RecordError(err)
		span.SetStatus(codes.Error, "unauthorized_instructor")
		return dto.ReportResponse{}, err
	}

	now := s.now()
	snapshot := models.NewReportSnapshot(report, models.ReportFieldSet{Status: true}, now)
	reversed := report.Status
	report.Status = next
	report.ValidatedHours = 0

	transition := repository.ReportTransition{
		Report:   &report,
		Snapshot: &snapshot,
		Reversal: &models.ValidationReversal{
			ReportID:      report.ID,
			InstructorID:  payload.InstructorID,
			Justification: justification,
			ReversedAt:    now,
		},
		Activity: s.activityRow(Actor{ID: payload.InstructorID, Role: RoleInstructor}, "report.reversed", report.ID, map[string]interface{}{
			"reversed_status": string(reversed),
		}),
	}

	if err := s.commit(ctx, models.ReportActionReverse, now, transition); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition_commit_failed")
		return dto.ReportResponse{}, err
	}

	observability.ValidationReversals().Inc()

	s.publishEvent(ctx, events.Event{
		Type:       events.TypeReportReversed,
		ReportID:   report.ID,
		ActorID:    payload.InstructorID,
		OccurredAt: now,
		Detail:     map[string]any{"reversed_status": string(reversed)},
	})

	span.SetAttributes(attribute.String("report.reversed_status", string(reversed)))
	s.logger.Info().Uint("report_id", report.ID).Str("reversed_status", string(reversed)).Msg("validation decision reversed")

	return dto.NewReportResponse(report), nil
}

func (s *lifecycleService) Amend(ctx context.Context, reportID uint, payload dto.AmendReportRequest) (dto.ReportResponse, error) {
	if payload.Name != nil {
		clean := strings.TrimSpace(s.strict.Sanitize(*payload.Name))
		payload.Name = &clean
	}

	if payload.Reflection != nil {
		clean := strings.TrimSpace(s.ugc.Sanitize(*payload.Reflection))
		payload.Reflection = &clean
	}

	if err := s.validator.Struct(payload); err != nil {
		return dto.ReportResponse{}, err
	}

	unlock := s.locks.Lock(reportID)
	defer unlock()

	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	if _, ok := models.NextReportStatus(report.Status, models.ReportActionAmend); !ok {
		s.rejected(models.ReportActionAmend, "illegal_transition")
		return dto.ReportResponse{}, ErrIllegalTransition
	}

	var changed models.ReportFieldSet
	name := report.Name
	reflection := report.Reflection
	realization := report.RealizationDate

	if payload.Name != nil && *payload.Name != report.Name {
		changed.Name = true
		name = *payload.Name
	}

	if payload.Reflection != nil && *payload.Reflection != report.Reflection {
		changed.Reflection = true
		reflection = *payload.Reflection
	}

	if payload.RealizationDate != nil && !payload.RealizationDate.Equal(report.RealizationDate) {
		changed.RealizationDate = true
		realization = *payload.RealizationDate
	}

	if !changed.Name && !changed.Reflection && !changed.RealizationDate {
		return dto.NewReportResponse(report), nil
	}

	now := s.now()
	snapshot := models.NewReportSnapshot(report, changed, now)
	report.Name = name
	report.Reflection = reflection
	report.RealizationDate = realization

	transition := repository.ReportTransition{
		Report:   &report,
		Snapshot: &snapshot,
		Activity: s.activityRow(Actor{ID: report.StudentID, Role: RoleStudent}, "report.amended", report.ID, nil),
	}

	if err := s.commit(ctx, models.ReportActionAmend, now, transition); err != nil {
		return dto.ReportResponse{}, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.TypeReportAmended,
		ReportID:   report.ID,
		ActorID:    report.StudentID,
		OccurredAt: now,
	})

	return dto.NewReportResponse(report), nil
}

func (s *lifecycleService) GetReport(ctx context.Context, reportID uint) (dto.ReportResponse, error) {
	report, err := s.getReport(ctx, reportID)
	if err != nil {
		return dto.ReportResponse{}, err
	}

	return dto.NewReportResponse(report), nil
}

func (s *lifecycleService) ListReports(ctx context.Context, filter dto.ReportFilter) ([]dto.ReportResponse, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, err
	}

	reports, err := s.reports.List(ctx, repository.ReportFilter{
		StudentID:  filter.StudentID,
		CategoryID: filter.CategoryID,
		Status:     filter.Status,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ReportResponse, 0, len(reports))
	for _, report := range reports {
		responses = append(responses, dto.NewReportResponse(report))
	}

	return responses, nil
}

func (s *lifecycleService) ListHistory(ctx context.Context, reportID uint) ([]dto.HistoryEntryResponse, error) {
	if _, err := s.getReport(ctx, reportID); err != nil {
		return nil, err
	}

	entries, err := s.history.ListByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	return dto.NewHistoryEntryResponseSlice(entries), nil
}

func (s *lifecycleService) ListReversals(ctx context.Context, reportID uint) ([]dto.ReversalResponse, error) {
	if _, err := s.getReport(ctx, reportID); err != nil {
		return nil, err
	}

	reversals, err := s.reversals.ListByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	return dto.NewReversalResponseSlice(reversals), nil
}

func (s *lifecycleService) getReport(ctx context.Context, reportID uint) (models.ActivityReport, error) {
	report, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ActivityReport{}, ErrReportNotFound
		}
		return models.ActivityReport{}, fmt.Errorf("failed to load report: %w", err)
	}

	return report, nil
}

func (s *lifecycleService) authorizeInstructor(ctx context.Context, studentID, instructorID uint) error {
	courseID, err := s.gateway.StudentCourseID(ctx, studentID)
	if err != nil {
		return fmt.Errorf("failed to resolve student course: %w", err)
	}

	teaches, err := s.gateway.InstructorTeachesCourse(ctx, instructorID, courseID)
	if err != nil {
		return fmt.Errorf("failed to check course membership: %w", err)
	}

	if !teaches {
		return ErrUnauthorizedInstructor
	}

	return nil
}

func (s *lifecycleService) checkCertificate(payload []byte) error {
	mime := mimetype.Detect(payload)
	for _, allowed := range allowedCertificateTypes {
		if mime.Is(allowed) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedCertificate, mime.String())
}

func (s *lifecycleService) archiveCertificate(ctx context.Context, name string, payload []byte) string {
	if s.archive == nil || len(payload) == 0 {
		return ""
	}

	url, err := s.archive.Store(ctx, name, payload)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to archive certificate")
		return ""
	}

	return url
}

func (s *lifecycleService) activityRow(actor Actor, action string, reportID uint, metadata map[string]interface{}) *models.ActivityLog {
	entityID := reportID

	return &models.ActivityLog{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "report",
		EntityID:   &entityID,
		Metadata:   metadata,
	}
}

func (s *lifecycleService) commit(ctx context.Context, action models.ReportAction, started time.Time, transition repository.ReportTransition) error {
	if err := s.reports.ApplyTransition(ctx, transition); err != nil {
		return fmt.Errorf("failed to commit transition: %w", err)
	}

	observability.ReportTransitions().WithLabelValues(string(action)).Inc()
	observability.TransitionLatency().WithLabelValues(string(action)).Observe(s.now().Sub(started).Seconds())

	return nil
}

func (s *lifecycleService) rejected(action models.ReportAction, reason string) {
	observability.RejectedTransitions().WithLabelValues(string(action), reason).Inc()
}

func (s *lifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", string(event.Type)).Msg("failed to publish lifecycle event")
	}
}
