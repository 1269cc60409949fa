package persistence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/floodfill-go/internal/domain/shared"
)

// JobLogRepository manages batch log persistence
type JobLogRepository interface {
	// Log writes a log entry to the database with deduplication
	Log(ctx context.Context, runID, jobID, message, level string, metadata map[string]interface{}) error

	// GetLogs retrieves a run's logs, newest first, with optional filtering.
	// An empty jobID returns the logs of every job in the run.
	GetLogs(ctx context.Context, runID, jobID string, limit, offset int, level *string, since *time.Time) ([]JobLogEntry, error)
}

// JobLogEntry represents a log entry
type JobLogEntry struct {
	ID        int
	RunID     string
	JobID     string
	Timestamp time.Time
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// GormJobLogRepository is a GORM-based implementation
type GormJobLogRepository struct {
	db    *gorm.DB
	clock shared.Clock

	// Deduplication cache: identical messages for one job within the window are dropped
	dedupCache   map[string]time.Time
	dedupMu      sync.Mutex
	dedupWindow  time.Duration
	dedupMaxSize int
}

// NewGormJobLogRepository creates a new job log repository
// If clock is nil, uses RealClock (production behavior)
func NewGormJobLogRepository(db *gorm.DB, clock shared.Clock) *GormJobLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormJobLogRepository{
		db:           db,
		clock:        clock,
		dedupCache:   make(map[string]time.Time),
		dedupWindow:  60 * time.Second,
		dedupMaxSize: 10000,
	}
}

// Log writes a log entry with time-windowed deduplication
func (r *GormJobLogRepository) Log(ctx context.Context, runID, jobID, message, level string, metadata map[string]interface{}) error {
	now := r.clock.Now()
	cacheKey := runID + "|" + jobID + "|" + message

	r.dedupMu.Lock()
	if lastLogged, exists := r.dedupCache[cacheKey]; exists && now.Sub(lastLogged) < r.dedupWindow {
		r.dedupMu.Unlock()
		return nil
	}
	if len(r.dedupCache) >= r.dedupMaxSize {
		r.cleanupDedupCache(now)
	}
	r.dedupCache[cacheKey] = now
	r.dedupMu.Unlock()

	var metadataJSON string
	if len(metadata) > 0 {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	entry := &JobLogModel{
		RunID:     runID,
		JobID:     jobID,
		Timestamp: now,
		Level:     level,
		Message:   message,
		Metadata:  metadataJSON,
	}

	return r.db.WithContext(ctx).Create(entry).Error
}

// cleanupDedupCache removes entries older than the window
// Must be called while holding dedupMu lock
func (r *GormJobLogRepository) cleanupDedupCache(now time.Time) {
	cutoff := now.Add(-r.dedupWindow)
	for key, timestamp := range r.dedupCache {
		if timestamp.Before(cutoff) {
			delete(r.dedupCache, key)
		}
	}
}

// GetLogs retrieves logs for a run with optional job, level and time filters
func (r *GormJobLogRepository) GetLogs(ctx context.Context, runID, jobID string, limit, offset int, level *string, since *time.Time) ([]JobLogEntry, error) {
	var models []JobLogModel

	query := r.db.WithContext(ctx).Where("run_id = ?", runID)
	if jobID != "" {
		query = query.Where("job_id = ?", jobID)
	}
	if level != nil {
		query = query.Where("level = ?", *level)
	}
	if since != nil {
		query = query.Where("timestamp > ?", *since)
	}

	query = query.Order("timestamp DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]JobLogEntry, len(models))
	for i, model := range models {
		var metadata map[string]interface{}
		if model.Metadata != "" {
			if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
				metadata = nil
			}
		}

		entries[i] = JobLogEntry{
			ID:        model.ID,
			RunID:     model.RunID,
			JobID:     model.JobID,
			Timestamp: model.Timestamp,
			Level:     model.Level,
			Message:   model.Message,
			Metadata:  metadata,
		}
	}

	return entries, nil
}
