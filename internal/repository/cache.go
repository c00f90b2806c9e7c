package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AIchemizt/dance-analysis-server/internal/models"
)

// Cache is the optional report read cache. Nil when redis is disabled;
// all accessors tolerate that.
var Cache *ReportCache

// ReportCache keeps finished analysis runs in redis so repeated report
// fetches skip the database.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache wraps an existing redis client.
func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

func (c *ReportCache) key(id string) string {
	return "analysis_run:" + id
}

// GetRun returns a cached run, or nil on miss or decode failure.
func (c *ReportCache) GetRun(ctx context.Context, id string) *models.AnalysisRun {
	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		return nil
	}
	var run models.AnalysisRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil
	}
	return &run
}

// SetRun stores a run; cache failures are ignored, the database remains
// the source of truth.
func (c *ReportCache) SetRun(ctx context.Context, run *models.AnalysisRun) {
	data, err := json.Marshal(run)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(run.ID), data, c.ttl)
}
