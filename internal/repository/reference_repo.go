package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/bernardogazola/taskcheck/internal/models"
)

// ReferenceRepository answers identity and membership lookups against the
// reference tables. The lifecycle engine only ever reads through it.
type ReferenceRepository interface {
	StudentCourseID(ctx context.Context, studentID uint) (uint, error)
	InstructorTeachesCourse(ctx context.Context, instructorID, courseID uint) (bool, error)
	CategoryRequiredHours(ctx context.Context, categoryID uint) (int, error)
	CategoryCourseID(ctx context.Context, categoryID uint) (uint, error)
}

type referenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository constructs the reference data repository.
func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) StudentCourseID(ctx context.Context, studentID uint) (uint, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).
		Select("id", "course_id").
		First(&student, studentID).Error; err != nil {
		return 0, err
	}

	return student.CourseID, nil
}

func (r *referenceRepository) InstructorTeachesCourse(ctx context.Context, instructorID, courseID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("instructor_courses").
		Where("instructor_id = ? AND course_id = ?", instructorID, courseID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *referenceRepository) CategoryRequiredHours(ctx context.Context, categoryID uint) (int, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Select("id", "required_hours").
		First(&category, categoryID).Error; err != nil {
		return 0, err
	}

	return category.RequiredHours, nil
}

func (r *referenceRepository) CategoryCourseID(ctx context.Context, categoryID uint) (uint, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Select("id", "course_id").
		First(&category, categoryID).Error; err != nil {
		return 0, err
	}

	return category.CourseID, nil
}
