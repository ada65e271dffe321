package models

import "time"

// Student represents a learner enrolled in exactly one course. UserID points
// at the external identity record owning this profile.
type Student struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Enrollment string    `gorm:"size:32;uniqueIndex;not null" json:"enrollment"`
	CourseID   uint      `gorm:"not null;index" json:"course_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Course     Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}
