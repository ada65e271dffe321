package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bernardogazola/taskcheck/internal/dto"
	"github.com/bernardogazola/taskcheck/internal/events"
	"github.com/bernardogazola/taskcheck/internal/models"
	"github.com/bernardogazola/taskcheck/internal/observability"
	"github.com/bernardogazola/taskcheck/internal/repository"
)

// ErrFeedbackNotFound indicates the feedback entry was not located.
var ErrFeedbackNotFound = errors.New("feedback not found")

// FeedbackService manages instructor feedback and its version ledger.
type FeedbackService interface {
	Create(ctx context.Context, payload dto.FeedbackCreateRequest) (dto.FeedbackResponse, error)
	Edit(ctx context.Context, feedbackID uint, payload dto.FeedbackUpdateRequest) (dto.FeedbackResponse, error)
	Delete(ctx context.Context, feedbackID uint) error
	ListByReport(ctx context.Context, reportID uint) ([]dto.FeedbackResponse, error)
	ListVersions(ctx context.Context, feedbackID uint) ([]dto.FeedbackVersionResponse, error)
	ListVersionsByReport(ctx context.Context, reportID uint) ([]dto.FeedbackVersionResponse, error)
}

type feedbackService struct {
	feedbacks repository.FeedbackRepository
	reports   repository.ReportRepository
	gateway   ReferenceGateway
	recorder  ActivityRecorder
	publisher events.Publisher
	validator *validator.Validate
	ugc       *bluemonday.Policy
	locks     *keyedMutex
	logger    zerolog.Logger
	now       func() time.Time
}

// NewFeedbackService constructs the feedback service. recorder and publisher
// may be nil when the surrounding platform does not consume the feeds.
func NewFeedbackService(
	feedbacks repository.FeedbackRepository,
	reports repository.ReportRepository,
	gateway ReferenceGateway,
	recorder ActivityRecorder,
	publisher events.Publisher,
	validate *validator.Validate,
	logger zerolog.Logger,
) FeedbackService {
	return &feedbackService{
		feedbacks: feedbacks,
		reports:   reports,
		gateway:   gateway,
		recorder:  recorder,
		publisher: publisher,
		validator: validate,
		ugc:       bluemonday.UGCPolicy(),
		locks:     newKeyedMutex(),
		logger:    logger.With().Str("component", "feedback_service").Logger(),
		now:       time.Now,
	}
}

func (s *feedbackService) Create(ctx context.Context, payload dto.FeedbackCreateRequest) (dto.FeedbackResponse, error) {
	payload.Text = strings.TrimSpace(s.ugc.Sanitize(payload.Text))

	if err := s.validator.Struct(payload); err != nil {
		return dto.FeedbackResponse{}, err
	}

	report, err := s.reports.GetByID(ctx, payload.ReportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FeedbackResponse{}, ErrReportNotFound
		}
		return dto.FeedbackResponse{}, fmt.Errorf("failed to load report: %w", err)
	}

	if err := s.authorizeInstructor(ctx, report.StudentID, payload.InstructorID); err != nil {
		return dto.FeedbackResponse{}, err
	}

	now := s.now()
	text := payload.Text
	instructorID := payload.InstructorID
	version := 1

	feedback := models.Feedback{
		ReportID:     payload.ReportID,
		InstructorID: payload.InstructorID,
		Text:         text,
		SubmittedAt:  now,
	}
	ledger := models.FeedbackVersion{
		ReportID:     payload.ReportID,
		InstructorID: &instructorID,
		Text:         text,
		RecordedAt:   now,
		Version:      &version,
	}

	if err := s.feedbacks.CreateWithVersion(ctx, &feedback, &ledger); err != nil {
		return dto.FeedbackResponse{}, fmt.Errorf("failed to persist feedback: %w", err)
	}

	observability.FeedbackVersions().Inc()

	s.record(ctx, Actor{ID: payload.InstructorID, Role: RoleInstructor}, "feedback.created", feedback.ID, nil)
	s.publishEvent(ctx, events.Event{
		Type:       events.TypeFeedbackCreated,
		ReportID:   payload.ReportID,
		ActorID:    payload.InstructorID,
		OccurredAt: now,
	})

	s.logger.Info().Uint("feedback_id", feedback.ID).Uint("report_id", payload.ReportID).Msg("feedback created")

	created, err := s.feedbacks.GetByID(ctx, feedback.ID)
	if err != nil {
		return dto.FeedbackResponse{}, err
	}

	return dto.NewFeedbackResponse(created), nil
}

func (s *feedbackService) Edit(ctx context.Context, feedbackID uint, payload dto.FeedbackUpdateRequest) (dto.FeedbackResponse, error) {
	payload.Text = strings.TrimSpace(s.ugc.Sanitize(payload.Text))

	if err := s.validator.Struct(payload); err != nil {
		return dto.FeedbackResponse{}, err
	}

	unlock := s.locks.Lock(feedbackID)
	defer unlock()

	feedback, err := s.getFeedback(ctx, feedbackID)
	if err != nil {
		return dto.FeedbackResponse{}, err
	}

	latest, err := s.feedbacks.LatestVersion(ctx, feedbackID)
	if err != nil {
		return dto.FeedbackResponse{}, fmt.Errorf("failed to resolve latest version: %w", err)
	}

	now := s.now()
	text := payload.Text
	instructorID := feedback.InstructorID
	next := latest + 1

	feedback.Text = text
	ledger := models.FeedbackVersion{
		FeedbackID:   &feedback.ID,
		ReportID:     feedback.ReportID,
		InstructorID: &instructorID,
		Text:         text,
		RecordedAt:   now,
		Version:      &next,
	}

	if err := s.feedbacks.UpdateWithVersion(ctx, &feedback, &ledger); err != nil {
		return dto.FeedbackResponse{}, fmt.Errorf("failed to persist feedback edit: %w", err)
	}

	observability.FeedbackVersions().Inc()

	s.record(ctx, Actor{ID: feedback.InstructorID, Role: RoleInstructor}, "feedback.edited", feedback.ID, map[string]interface{}{
		"version": next,
	})
	s.publishEvent(ctx, events.Event{
		Type:       events.TypeFeedbackEdited,
		ReportID:   feedback.ReportID,
		ActorID:    feedback.InstructorID,
		OccurredAt: now,
		Detail:     map[string]any{"version": next},
	})

	s.logger.Info().Uint("feedback_id", feedback.ID).Int("version", next).Msg("feedback edited")

	return dto.NewFeedbackResponse(feedback), nil
}

func (s *feedbackService) Delete(ctx context.Context, feedbackID uint) error {
	unlock := s.locks.Lock(feedbackID)
	defer unlock()

	feedback, err := s.getFeedback(ctx, feedbackID)
	if err != nil {
		return err
	}

	if err := s.feedbacks.DeleteWithTombstone(ctx, feedbackID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFeedbackNotFound
		}
		return fmt.Errorf("failed to delete feedback: %w", err)
	}

	s.record(ctx, Actor{ID: feedback.InstructorID, Role: RoleInstructor}, "feedback.deleted", feedbackID, nil)
	s.publishEvent(ctx, events.Event{
		Type:       events.TypeFeedbackDeleted,
		ReportID:   feedback.ReportID,
		ActorID:    feedback.InstructorID,
		OccurredAt: s.now(),
	})

	s.logger.Info().Uint("feedback_id", feedbackID).Uint("report_id", feedback.ReportID).Msg("feedback deleted, versions retained")

	return nil
}

func (s *feedbackService) ListByReport(ctx context.Context, reportID uint) ([]dto.FeedbackResponse, error) {
	feedbacks, err := s.feedbacks.ListByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	return dto.NewFeedbackResponseSlice(feedbacks), nil
}

func (s *feedbackService) ListVersions(ctx context.Context, feedbackID uint) ([]dto.FeedbackVersionResponse, error) {
	versions, err := s.feedbacks.ListVersions(ctx, feedbackID)
	if err != nil {
		return nil, err
	}

	return dto.NewFeedbackVersionResponseSlice(versions), nil
}

func (s *feedbackService) ListVersionsByReport(ctx context.Context, reportID uint) ([]dto.FeedbackVersionResponse, error) {
	versions, err := s.feedbacks.ListVersionsByReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	return dto.NewFeedbackVersionResponseSlice(versions), nil
}

func (s *feedbackService) getFeedback(ctx context.Context, feedbackID uint) (models.Feedback, error) {
	feedback, err := s.feedbacks.GetByID(ctx, feedbackID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Feedback{}, ErrFeedbackNotFound
		}
		return models.Feedback{}, fmt.Errorf("failed to load feedback: %w", err)
	}

	return feedback, nil
}

func (s *feedbackService) authorizeInstructor(ctx context.Context, studentID, instructorID uint) error {
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

func (s *feedbackService) record(ctx context.Context, actor Actor, action string, feedbackID uint, metadata map[string]interface{}) {
	if s.recorder == nil {
		return
	}

	entityID := feedbackID
	entry := ActivityEntry{
		Actor:      actor,
		Action:     action,
		EntityType: "feedback",
		EntityID:   &entityID,
		Metadata:   metadata,
	}

	if err := s.recorder.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record activity entry")
	}
}

func (s *feedbackService) publishEvent(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("type", string(event.Type)).Msg("failed to publish feedback event")
	}
}
