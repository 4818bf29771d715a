package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/moodtracker/internal/models"
	"github.com/charlesng35/moodtracker/internal/push"
	apperrors "github.com/charlesng35/moodtracker/pkg/errors"
)

const (
	defaultReportLimit = 20
	maxReportLimit     = 100
)

// ReportService persists push delivery summaries.
type ReportService struct {
	db *gorm.DB
}

// NewReportService constructs a ReportService.
func NewReportService(db *gorm.DB) (*ReportService, error) {
	if db == nil {
		return nil, errors.New("report service: db is required")
	}
	return &ReportService{db: db}, nil
}

// RecordDelivery stores the summary of one fan-out.
func (s *ReportService) RecordDelivery(ctx context.Context, report push.Report) error {
	ctx = ensureContext(ctx)

	failures := report.Result.Errors
	if failures == nil {
		failures = []push.Failure{}
	}
	encoded, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("report service: marshal failures: %w", err)
	}

	row := models.DeliveryReport{
		Trigger:      defaultIfEmpty(report.Tag, "unknown"),
		Title:        report.Title,
		Total:        report.Total,
		SuccessCount: report.Result.SuccessCount,
		FailureCount: report.Result.FailureCount,
		PrunedCount:  report.Result.Pruned,
		DurationMs:   report.Duration.Milliseconds(),
		Failures:     datatypes.JSON(encoded),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("report service: create report: %w", err)
	}
	return nil
}

// List returns the most recent reports, newest first.
func (s *ReportService) List(ctx context.Context, limit int) ([]models.DeliveryReport, error) {
	ctx = ensureContext(ctx)
	limit = clampLimit(limit, defaultReportLimit, maxReportLimit)

	var rows []models.DeliveryReport
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, apperrors.NewStorage("failed to list delivery reports", fmt.Errorf("report service: list: %w", err))
	}
	return rows, nil
}

// PurgeOlderThan removes reports created before cutoff and returns how many were deleted.
func (s *ReportService) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.DeliveryReport{})
	if result.Error != nil {
		return 0, fmt.Errorf("report service: purge: %w", result.Error)
	}
	return result.RowsAffected, nil
}
