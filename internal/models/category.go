package models

import "time"

// Category classifies activity types and carries the hour target a validated
// report may credit against.
type Category struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	RequiredHours int       `gorm:"not null" json:"required_hours"`
	CourseID      uint      `gorm:"not null;index" json:"course_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Course        Course    `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"course"`
}
