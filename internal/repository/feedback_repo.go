package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bernardogazola/taskcheck/internal/models"
)

// FeedbackRepository persists live feedback rows and their append-only
// version ledger. Writes that touch both always share one transaction so the
// ledger can never drift from the live row.
type FeedbackRepository interface {
	GetByID(ctx context.Context, id uint) (models.Feedback, error)
	ListByReport(ctx context.Context, reportID uint) ([]models.Feedback, error)
	CreateWithVersion(ctx context.Context, feedback *models.Feedback, version *models.FeedbackVersion) error
	UpdateWithVersion(ctx context.Context, feedback *models.Feedback, version *models.FeedbackVersion) error
	DeleteWithTombstone(ctx context.Context, id uint) error
	LatestVersion(ctx context.Context, feedbackID uint) (int, error)
	ListVersions(ctx context.Context, feedbackID uint) ([]models.FeedbackVersion, error)
	ListVersionsByReport(ctx context.Context, reportID uint) ([]models.FeedbackVersion, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository instantiates the repository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

func (r *feedbackRepository) GetByID(ctx context.Context, id uint) (models.Feedback, error) {
	var feedback models.Feedback
	if err := r.db.WithContext(ctx).
		Preload("Instructor").
		First(&feedback, id).Error; err != nil {
		return models.Feedback{}, err
	}

	return feedback, nil
}

func (r *feedbackRepository) ListByReport(ctx context.Context, reportID uint) ([]models.Feedback, error) {
	var feedbacks []models.Feedback
	if err := r.db.WithContext(ctx).
		Preload("Instructor").
		Where("report_id = ?", reportID).
		Order("submitted_at ASC").
		Find(&feedbacks).Error; err != nil {
		return nil, err
	}

	return feedbacks, nil
}

func (r *feedbackRepository) CreateWithVersion(ctx context.Context, feedback *models.Feedback, version *models.FeedbackVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(feedback).Error; err != nil {
			return err
		}

		version.FeedbackID = &feedback.ID
		return tx.Create(version).Error
	})
}

func (r *feedbackRepository) UpdateWithVersion(ctx context.Context, feedback *models.Feedback, version *models.FeedbackVersion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(feedback).Error; err != nil {
			return err
		}

		return tx.Create(version).Error
	})
}

// DeleteWithTombstone removes the live row and clears the feedback reference
// on its versions. Text, timestamps and version numbers stay untouched so
// the edit history remains queryable by report.
func (r *feedbackRepository) DeleteWithTombstone(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Feedback{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return tx.Model(&models.FeedbackVersion{}).
			Where("feedback_id = ?", id).
			Update("feedback_id", nil).Error
	})
}

func (r *feedbackRepository) LatestVersion(ctx context.Context, feedbackID uint) (int, error) {
	var latest sql.NullInt64
	if err := r.db.WithContext(ctx).
		Model(&models.FeedbackVersion{}).
		Where("feedback_id = ?", feedbackID).
		Select("MAX(version)").
		Scan(&latest).Error; err != nil {
		return 0, err
	}

	if !latest.Valid {
		return 0, nil
	}

	return int(latest.Int64), nil
}

func (r *feedbackRepository) ListVersions(ctx context.Context, feedbackID uint) ([]models.FeedbackVersion, error) {
	var versions []models.FeedbackVersion
	if err := r.db.WithContext(ctx).
		Where("feedback_id = ?", feedbackID).
		Order("version ASC").
		Find(&versions).Error; err != nil {
		return nil, err
	}

	return versions, nil
}

func (r *feedbackRepository) ListVersionsByReport(ctx context.Context, reportID uint) ([]models.FeedbackVersion, error) {
	var versions []models.FeedbackVersion
	if err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("recorded_at ASC").
		Order("id ASC").
		Find(&versions).Error; err != nil {
		return nil, err
	}

	return versions, nil
}
