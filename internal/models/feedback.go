package models

import "time"

// Feedback is a live instructor comment attached to a report. An instructor
// may attach several feedback entries to one report across review rounds.
type Feedback struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ReportID     uint      `gorm:"not null;index" json:"report_id"`
	InstructorID uint      `gorm:"not null;index" json:"instructor_id"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	SubmittedAt  time.Time `gorm:"not null" json:"submitted_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Instructor Instructor        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"instructor"`
	Versions   []FeedbackVersion `gorm:"foreignKey:FeedbackID" json:"versions,omitempty"`
}

// FeedbackVersion is one immutable edition of a feedback text. Rows survive
// deletion of the live feedback (FeedbackID nulled) and removal of the
// authoring instructor (InstructorID nulled). Version is a pointer only to
// accommodate legacy rows; every write path sets it.
type FeedbackVersion struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	FeedbackID   *uint     `gorm:"index" json:"feedback_id"`
	ReportID     uint      `gorm:"not null;index" json:"report_id"`
	InstructorID *uint     `json:"instructor_id"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	RecordedAt   time.Time `gorm:"not null" json:"recorded_at"`
	Version      *int      `gorm:"index" json:"version"`
	CreatedAt    time.Time `json:"created_at"`
}

// FeedbackRef distinguishes a version still linked to live feedback from one
// whose referent was deleted.
type FeedbackRef struct {
	ID      uint
	Deleted bool
}

// Ref resolves the version's feedback reference as an explicit value instead
// of a raw nullable pointer.
func (v FeedbackVersion) Ref() FeedbackRef {
	if v.FeedbackID == nil {
		return FeedbackRef{Deleted: true}
	}

	return FeedbackRef{ID: *v.FeedbackID}
}
