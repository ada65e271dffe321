package service

import "context"

// ReferenceGateway is the read-only boundary to the platform's reference
// data. The lifecycle engine consumes only stable identifiers and the
// course-membership capability check through it; it never trusts
// caller-supplied ids without asking.
type ReferenceGateway interface {
	StudentCourseID(ctx context.Context, studentID uint) (uint, error)
	InstructorTeachesCourse(ctx context.Context, instructorID, courseID uint) (bool, error)
	CategoryRequiredHours(ctx context.Context, categoryID uint) (int, error)
	CategoryCourseID(ctx context.Context, categoryID uint) (uint, error)
}
