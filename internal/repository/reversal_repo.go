package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/bernardogazola/taskcheck/internal/models"
)

// ReversalRepository reads the append-only reversal audit log. Rows are
// written only as part of a reverse transition.
type ReversalRepository interface {
	ListByReport(ctx context.Context, reportID uint) ([]models.ValidationReversal, error)
	CountByReport(ctx context.Context, reportID uint) (int64, error)
}

type reversalRepository struct {
	db *gorm.DB
}

// NewReversalRepository constructs the reversal repository.
func NewReversalRepository(db *gorm.DB) ReversalRepository {
	return &reversalRepository{db: db}
}

func (r *reversalRepository) ListByReport(ctx context.Context, reportID uint) ([]models.ValidationReversal, error) {
	var reversals []models.ValidationReversal
	if err := r.db.WithContext(ctx).
		Preload("Instructor").
		Where("report_id = ?", reportID).
		Order("reversed_at ASC").
		Order("id ASC").
		Find(&reversals).Error; err != nil {
		return nil, err
	}

	return reversals, nil
}

func (r *reversalRepository) CountByReport(ctx context.Context, reportID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.ValidationReversal{}).
		Where("report_id = ?", reportID).
		Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}
