package models

import "time"

// Instructor reviews activity reports for the courses it is assigned to.
// UserID points at the external identity record owning this profile.
type Instructor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Courses   []Course  `gorm:"many2many:instructor_courses" json:"courses,omitempty"`
}
