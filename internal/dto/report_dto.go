package dto

import (
	"time"

	"github.com/bernardogazola/taskcheck/internal/models"
)

// SubmitReportRequest is the payload for creating an activity report.
type SubmitReportRequest struct {
	StudentID       uint      `json:"student_id" validate:"required,gt=0"`
	CategoryID      uint      `json:"category_id" validate:"required,gt=0"`
	Name            string    `json:"name" validate:"required,min=3,max=255"`
	Reflection      string    `json:"reflection" validate:"required,min=10"`
	RealizationDate time.Time `json:"realization_date" validate:"required"`
	Certificate     []byte    `json:"certificate" validate:"required"`
}

// ValidateReportRequest accepts an instructor decision crediting hours. The
// hour bound depends on the report's category, so the service checks it.
type ValidateReportRequest struct {
	InstructorID   uint `json:"instructor_id" validate:"required,gt=0"`
	ValidatedHours int  `json:"validated_hours"`
}

// InvalidateReportRequest rejects a report under review.
type InvalidateReportRequest struct {
	InstructorID uint `json:"instructor_id" validate:"required,gt=0"`
}

// RequestRecategorizationRequest sends a report back to the student for a
// category correction.
type RequestRecategorizationRequest struct {
	InstructorID uint `json:"instructor_id" validate:"required,gt=0"`
}

// RecategorizeReportRequest moves a report back under review with a new
// category and, optionally, a replacement certificate.
type RecategorizeReportRequest struct {
	CategoryID  uint   `json:"category_id" validate:"required,gt=0"`
	Certificate []byte `json:"certificate"`
}

// ReverseReportRequest undoes a validation decision with a justification.
type ReverseReportRequest struct {
	InstructorID  uint   `json:"instructor_id" validate:"required,gt=0"`
	Justification string `json:"justification"`
}

// AmendReportRequest edits descriptive fields of a report still under
// review. Nil fields stay untouched.
type AmendReportRequest struct {
	Name            *string    `json:"name" validate:"omitempty,min=3,max=255"`
	Reflection      *string    `json:"reflection" validate:"omitempty,min=10"`
	RealizationDate *time.Time `json:"realization_date"`
}

// ReportFilter narrows report listings for the display layer.
type ReportFilter struct {
	StudentID  *uint                `json:"student_id"`
	CategoryID *uint                `json:"category_id"`
	Status     *models.ReportStatus `json:"status" validate:"omitempty,oneof=awaiting_validation valid invalid needs_recategorization"`
}

// StudentLite summarizes a student inside report responses.
type StudentLite struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Enrollment string `json:"enrollment"`
}

// CategoryLite summarizes a category inside report responses.
type CategoryLite struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	RequiredHours int    `json:"required_hours"`
}

// ReportResponse is the record handed to the surrounding service layer.
type ReportResponse struct {
	ID              uint                `json:"id"`
	Name            string              `json:"name"`
	Reflection      string              `json:"reflection"`
	RealizationDate time.Time           `json:"realization_date"`
	SubmissionDate  time.Time           `json:"submission_date"`
	Status          models.ReportStatus `json:"status"`
	ValidatedHours  int                 `json:"validated_hours"`
	CertificateURL  string              `json:"certificate_url"`
	StudentID       uint                `json:"student_id"`
	CategoryID      uint                `json:"category_id"`
	Student         StudentLite         `json:"student"`
	Category        CategoryLite        `json:"category"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// HistoryEntryResponse serializes one snapshot row.
type HistoryEntryResponse struct {
	ID                  uint                 `json:"id"`
	ReportID            uint                 `json:"report_id"`
	PrevName            *string              `json:"prev_name"`
	PrevReflection      *string              `json:"prev_reflection"`
	PrevRealizationDate *time.Time           `json:"prev_realization_date"`
	PrevStatus          *models.ReportStatus `json:"prev_status"`
	CertificateChanged  bool                 `json:"certificate_changed"`
	ChangedAt           time.Time            `json:"changed_at"`
}

// ReversalResponse serializes one reversal audit row.
type ReversalResponse struct {
	ID            uint      `json:"id"`
	ReportID      uint      `json:"report_id"`
	InstructorID  uint      `json:"instructor_id"`
	Instructor    string    `json:"instructor"`
	Justification string    `json:"justification"`
	ReversedAt    time.Time `json:"reversed_at"`
}

// NewReportResponse converts an ActivityReport model into a DTO.
func NewReportResponse(model models.ActivityReport) ReportResponse {
	response := ReportResponse{
		ID:              model.ID,
		Name:            model.Name,
		Reflection:      model.Reflection,
		RealizationDate: model.RealizationDate,
		SubmissionDate:  model.SubmissionDate,
		Status:          model.Status,
		ValidatedHours:  model.ValidatedHours,
		CertificateURL:  model.CertificateURL,
		StudentID:       model.StudentID,
		CategoryID:      model.CategoryID,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}

	if model.Student.ID != 0 {
		response.Student = StudentLite{
			ID:         model.Student.ID,
			Name:       model.Student.Name,
			Enrollment: model.Student.Enrollment,
		}
	}

	if model.Category.ID != 0 {
		response.Category = CategoryLite{
			ID:            model.Category.ID,
			Name:          model.Category.Name,
			RequiredHours: model.Category.RequiredHours,
		}
	}

	return response
}

// NewHistoryEntryResponse converts a ReportHistory model into a DTO. The raw
// previous certificate payload is not exposed, only the fact it changed.
func NewHistoryEntryResponse(model models.ReportHistory) HistoryEntryResponse {
	return HistoryEntryResponse{
		ID:                  model.ID,
		ReportID:            model.ReportID,
		PrevName:            model.PrevName,
		PrevReflection:      model.PrevReflection,
		PrevRealizationDate: model.PrevRealizationDate,
		PrevStatus:          model.PrevStatus,
		CertificateChanged:  len(model.PrevCertificate) > 0,
		ChangedAt:           model.ChangedAt,
	}
}

// NewHistoryEntryResponseSlice converts history models into DTOs.
func NewHistoryEntryResponseSlice(entries []models.ReportHistory) []HistoryEntryResponse {
	responses := make([]HistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, NewHistoryEntryResponse(entry))
	}

	return responses
}

// NewReversalResponse converts a ValidationReversal model into a DTO.
func NewReversalResponse(model models.ValidationReversal) ReversalResponse {
	return ReversalResponse{
		ID:            model.ID,
		ReportID:      model.ReportID,
		InstructorID:  model.InstructorID,
		Instructor:    model.Instructor.Name,
		Justification: model.Justification,
		ReversedAt:    model.ReversedAt,
	}
}

// NewReversalResponseSlice converts reversal models into DTOs.
func NewReversalResponseSlice(reversals []models.ValidationReversal) []ReversalResponse {
	responses := make([]ReversalResponse, 0, len(reversals))
	for _, reversal := range reversals {
		responses = append(responses, NewReversalResponse(reversal))
	}

	return responses
}
