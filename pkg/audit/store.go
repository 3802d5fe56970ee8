package audit

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB opens (creating if needed) the SQLite audit database at path.
// Use ":memory:" for an ephemeral database.
func OpenDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open audit database %s: %w", path, err)
	}
	return db, nil
}

// Store provides append-only operations for audit event records.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the audit tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&EventRecord{}); err != nil {
		return fmt.Errorf("migrate audit tables: %w", err)
	}
	return nil
}

// Append creates a new immutable audit event record.
func (s *Store) Append(event *EventRecord) error {
	if err := s.db.Create(event).Error; err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// List returns paginated audit events ordered by created_at DESC (newest
// first). Optionally filters by action. pageToken is an RFC3339 timestamp;
// events with created_at < pageToken are returned.
func (s *Store) List(pageSize int, pageToken string, filterAction string) ([]EventRecord, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	baseQuery := s.db.Model(&EventRecord{})
	if filterAction != "" {
		baseQuery = baseQuery.Where("action = ?", filterAction)
	}

	var totalSize int64
	if err := baseQuery.Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count audit events: %w", err)
	}

	query := s.db.Order("created_at DESC").Limit(pageSize + 1)
	if filterAction != "" {
		query = query.Where("action = ?", filterAction)
	}
	if pageToken != "" {
		t, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("created_at < ?", t)
	}

	var records []EventRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list audit events: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].CreatedAt.Format(time.RFC3339Nano)
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}

// ListByVersion returns all audit events for a version, newest first.
func (s *Store) ListByVersion(versionID string) ([]EventRecord, error) {
	var records []EventRecord
	if err := s.db.Where("version_id = ?", versionID).Order("created_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list audit events by version: %w", err)
	}
	return records, nil
}

// DeleteOlderThan deletes audit events created before the given cutoff time.
// Returns the number of deleted records.
func (s *Store) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&EventRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete old audit events: %w", result.Error)
	}
	return result.RowsAffected, nil
}
