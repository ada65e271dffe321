package models

import "time"

// ValidationReversal records a justified undo of a prior validation or
// invalidation decision. Rows are append-only and kept independently of the
// snapshot history.
type ValidationReversal struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ReportID      uint      `gorm:"not null;index" json:"report_id"`
	InstructorID  uint      `gorm:"not null" json:"instructor_id"`
	Justification string    `gorm:"type:text;not null" json:"justification"`
	ReversedAt    time.Time `gorm:"not null;index" json:"reversed_at"`
	CreatedAt     time.Time `json:"created_at"`

	Instructor Instructor `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"instructor"`
}
