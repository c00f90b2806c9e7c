// Package repository persists analysis runs when the optional database is
// enabled.
package repository

import (
	"context"

	"github.com/AIchemizt/dance-analysis-server/internal/database"
	"github.com/AIchemizt/dance-analysis-server/internal/models"
)

// SaveRun stores a finished analysis run and warms the cache.
func SaveRun(ctx context.Context, run *models.AnalysisRun) error {
	if err := database.DB.WithContext(ctx).Create(run).Error; err != nil {
		return err
	}
	if Cache != nil {
		Cache.SetRun(ctx, run)
	}
	return nil
}

// GetRun fetches one run by id, cache-aside when redis is enabled.
func GetRun(ctx context.Context, id string) (*models.AnalysisRun, error) {
	if Cache != nil {
		if run := Cache.GetRun(ctx, id); run != nil {
			return run, nil
		}
	}

	var run models.AnalysisRun
	if err := database.DB.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}

	if Cache != nil {
		Cache.SetRun(ctx, &run)
	}
	return &run, nil
}

// ListRuns returns recent run summaries, newest first. The report blob is
// omitted; the summary columns carry everything a listing needs.
func ListRuns(ctx context.Context, limit int) ([]models.AnalysisRun, error) {
	var runs []models.AnalysisRun
	err := database.DB.WithContext(ctx).
		Select("id", "created_at", "source", "total_frames", "duration_seconds", "symmetry_score").
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
