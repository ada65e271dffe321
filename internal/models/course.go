package models

import "time"

// Course groups students, categories and the instructors assigned to review
// their activity reports.
type Course struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	CoordinatorID *uint     `json:"coordinator_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Students      []Student  `json:"students,omitempty"`
	Categories    []Category `json:"categories,omitempty"`
}
