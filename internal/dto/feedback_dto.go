package dto

import (
	"time"

	"github.com/bernardogazola/taskcheck/internal/models"
)

// FeedbackCreateRequest attaches a new instructor comment to a report.
type FeedbackCreateRequest struct {
	ReportID     uint   `json:"report_id" validate:"required,gt=0"`
	InstructorID uint   `json:"instructor_id" validate:"required,gt=0"`
	Text         string `json:"text" validate:"required,min=3"`
}

// FeedbackUpdateRequest replaces the live feedback text, appending a version.
type FeedbackUpdateRequest struct {
	Text string `json:"text" validate:"required,min=3"`
}

// FeedbackResponse serializes a live feedback entry.
type FeedbackResponse struct {
	ID           uint      `json:"id"`
	ReportID     uint      `json:"report_id"`
	InstructorID uint      `json:"instructor_id"`
	Instructor   string    `json:"instructor"`
	Text         string    `json:"text"`
	SubmittedAt  time.Time `json:"submitted_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FeedbackVersionResponse serializes one ledger entry. FeedbackID is nil and
// Deleted true once the live feedback was removed.
type FeedbackVersionResponse struct {
	ID           uint      `json:"id"`
	FeedbackID   *uint     `json:"feedback_id"`
	Deleted      bool      `json:"deleted"`
	ReportID     uint      `json:"report_id"`
	InstructorID *uint     `json:"instructor_id"`
	Text         string    `json:"text"`
	RecordedAt   time.Time `json:"recorded_at"`
	Version      *int      `json:"version"`
}

// NewFeedbackResponse converts a Feedback model into a DTO.
func NewFeedbackResponse(model models.Feedback) FeedbackResponse {
	return FeedbackResponse{
		ID:           model.ID,
		ReportID:     model.ReportID,
		InstructorID: model.InstructorID,
		Instructor:   model.Instructor.Name,
		Text:         model.Text,
		SubmittedAt:  model.SubmittedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

// NewFeedbackResponseSlice converts feedback models into DTOs.
func NewFeedbackResponseSlice(feedbacks []models.Feedback) []FeedbackResponse {
	responses := make([]FeedbackResponse, 0, len(feedbacks))
	for _, feedback := range feedbacks {
		responses = append(responses, NewFeedbackResponse(feedback))
	}

	return responses
}

// NewFeedbackVersionResponse converts a FeedbackVersion model into a DTO.
func NewFeedbackVersionResponse(model models.FeedbackVersion) FeedbackVersionResponse {
	ref := model.Ref()

	return FeedbackVersionResponse{
		ID:           model.ID,
		FeedbackID:   model.FeedbackID,
		Deleted:      ref.Deleted,
		ReportID:     model.ReportID,
		InstructorID: model.InstructorID,
		Text:         model.Text,
		RecordedAt:   model.RecordedAt,
		Version:      model.Version,
	}
}

// NewFeedbackVersionResponseSlice converts version models into DTOs.
func NewFeedbackVersionResponseSlice(versions []models.FeedbackVersion) []FeedbackVersionResponse {
	responses := make([]FeedbackVersionResponse, 0, len(versions))
	for _, version := range versions {
		responses = append(responses, NewFeedbackVersionResponse(version))
	}

	return responses
}
