package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bernardogazola/taskcheck/internal/models"
)

// ReportFilter narrows report queries.
type ReportFilter struct {
	StudentID  *uint
	CategoryID *uint
	Status     *models.ReportStatus
}

// ReportTransition is the write set of a single lifecycle mutation. Report
// and Snapshot are mandatory; Reversal is present only for reversals and
// Activity only when the caller records an operational audit entry. All rows
// commit in one transaction or not at all.
type ReportTransition struct {
	Report   *models.ActivityReport
	Snapshot *models.ReportHistory
	Reversal *models.ValidationReversal
	Activity *models.ActivityLog
}

// ReportRepository defines data operations for activity reports.
type ReportRepository interface {
	List(ctx context.Context, filter ReportFilter) ([]models.ActivityReport, error)
	GetByID(ctx context.Context, id uint) (models.ActivityReport, error)
	Create(ctx context.Context, report *models.ActivityReport) error
	ApplyTransition(ctx context.Context, transition ReportTransition) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository instantiates the repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ActivityReport{}).
		Preload("Student").
		Preload("Category")
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]models.ActivityReport, error) {
	query := r.baseQuery(ctx)

	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}

	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var reports []models.ActivityReport
	if err := query.Order("submission_date DESC").Find(&reports).Error; err != nil {
		return nil, err
	}

	return reports, nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (models.ActivityReport, error) {
	var report models.ActivityReport
	if err := r.baseQuery(ctx).First(&report, id).Error; err != nil {
		return models.ActivityReport{}, err
	}

	return report, nil
}

func (r *reportRepository) Create(ctx context.Context, report *models.ActivityReport) error {
	return r.db.WithContext(ctx).Create(report).Error
}

// ApplyTransition persists the report mutation together with its audit rows.
// A status change must never become visible without its snapshot, so the
// whole write set shares one transaction boundary.
func (r *reportRepository) ApplyTransition(ctx context.Context, transition ReportTransition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Preloaded associations must not be re-saved here; a recategorized
		// report would otherwise have its new category id overwritten by the
		// stale association.
		if err := tx.Omit(clause.Associations).Save(transition.Report).Error; err != nil {
			return err
		}

		if err := tx.Create(transition.Snapshot).Error; err != nil {
			return err
		}

		if transition.Reversal != nil {
			if err := tx.Create(transition.Reversal).Error; err != nil {
				return err
			}
		}

		if transition.Activity != nil {
			if err := tx.Create(transition.Activity).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
