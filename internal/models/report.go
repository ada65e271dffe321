package models

import "time"

// ReportStatus is the lifecycle state of an activity report.
type ReportStatus string

const (
	// ReportStatusAwaitingValidation is the initial state of every report and
	// the state a report returns to after recategorization or reversal.
	ReportStatusAwaitingValidation ReportStatus = "awaiting_validation"
	// ReportStatusValid indicates an instructor accepted the report and
	// credited validated hours.
	ReportStatusValid ReportStatus = "valid"
	// ReportStatusInvalid indicates an instructor rejected the report.
	ReportStatusInvalid ReportStatus = "invalid"
	// ReportStatusNeedsRecategorization indicates the report was filed under
	// the wrong category and awaits a student correction.
	ReportStatusNeedsRecategorization ReportStatus = "needs_recategorization"
)

// ReportAction names a lifecycle mutation applied to a report.
type ReportAction string

const (
	ReportActionValidate                ReportAction = "validate"
	ReportActionInvalidate              ReportAction = "invalidate"
	ReportActionRequestRecategorization ReportAction = "request_recategorization"
	ReportActionRecategorize            ReportAction = "recategorize"
	ReportActionReverse                 ReportAction = "reverse"
	ReportActionAmend                   ReportAction = "amend"
)

// reportTransitions is the single source of truth for transition legality.
// Amend is intentionally a self-loop: it edits fields without moving state.
var reportTransitions = map[ReportStatus]map[ReportAction]ReportStatus{
	ReportStatusAwaitingValidation: {
		ReportActionValidate:                ReportStatusValid,
		ReportActionInvalidate:              ReportStatusInvalid,
		ReportActionRequestRecategorization: ReportStatusNeedsRecategorization,
		ReportActionAmend:                   ReportStatusAwaitingValidation,
	},
	ReportStatusValid: {
		ReportActionReverse: ReportStatusAwaitingValidation,
	},
	ReportStatusInvalid: {
		ReportActionReverse: ReportStatusAwaitingValidation,
	},
	ReportStatusNeedsRecategorization: {
		ReportActionRecategorize: ReportStatusAwaitingValidation,
	},
}

// NextReportStatus resolves the status a report moves to when action is
// applied in the current status. The second return value reports legality.
func NextReportStatus(current ReportStatus, action ReportAction) (ReportStatus, bool) {
	next, ok := reportTransitions[current][action]
	return next, ok
}

// ActivityReport is a student's submission of a completed extracurricular
// activity for hour-credit review. Reports are never deleted: their history,
// feedback versions and reversals form a permanent audit trail.
type ActivityReport struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	Name            string       `gorm:"size:255;not null" json:"name"`
	Reflection      string       `gorm:"type:text;not null" json:"reflection"`
	RealizationDate time.Time    `gorm:"not null" json:"realization_date"`
	SubmissionDate  time.Time    `gorm:"not null" json:"submission_date"`
	Status          ReportStatus `gorm:"size:32;not null;default:awaiting_validation;index" json:"status"`
	ValidatedHours  int          `gorm:"not null;default:0" json:"validated_hours"`
	Certificate     []byte       `gorm:"type:bytea" json:"-"`
	CertificateURL  string       `gorm:"size:512" json:"certificate_url"`
	StudentID       uint         `gorm:"not null;index" json:"student_id"`
	CategoryID      uint         `gorm:"not null;index" json:"category_id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`

	Student   Student              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Category  Category             `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"category"`
	Feedbacks []Feedback           `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"feedbacks,omitempty"`
	History   []ReportHistory      `gorm:"foreignKey:ReportID" json:"history,omitempty"`
	Reversals []ValidationReversal `gorm:"foreignKey:ReportID" json:"reversals,omitempty"`
}

// UnderReview reports whether the report still awaits an instructor decision.
func (r ActivityReport) UnderReview() bool {
	return r.Status == ReportStatusAwaitingValidation
}

// Decided reports whether an instructor decision is currently in effect.
func (r ActivityReport) Decided() bool {
	return r.Status == ReportStatusValid || r.Status == ReportStatusInvalid
}
