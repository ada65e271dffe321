package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/bernardogazola/taskcheck/internal/models"
)

// HistoryRepository reads the append-only report snapshot trail. Rows are
// written through ReportRepository.ApplyTransition; there is no update or
// delete path.
type HistoryRepository interface {
	ListByReport(ctx context.Context, reportID uint) ([]models.ReportHistory, error)
	CountByReport(ctx context.Context, reportID uint) (int64, error)
}

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository constructs the history repository.
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) ListByReport(ctx context.Context, reportID uint) ([]models.ReportHistory, error) {
	var entries []models.ReportHistory
	if err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("changed_at ASC").
		Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *historyRepository) CountByReport(ctx context.Context, reportID uint) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.ReportHistory{}).
		Where("report_id = ?", reportID).
		Count(&total).Error; err != nil {
		return 0, err
	}

	return total, nil
}
