package repository

import (
	"casetrack/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *DefaultActivityRepository {
	return &DefaultActivityRepository{db: db}
}

func (r *DefaultActivityRepository) Save(entry *entity.ActivityLog) error {
	return r.db.Create(entry).Error
}

// Find lists entries newest first. Empty entityType and zero entityID match everything.
func (r *DefaultActivityRepository) Find(entityType string, entityID int64, limit int) ([]*entity.ActivityLog, error) {
	var entries []*entity.ActivityLog
	query := r.db.Order("created_at DESC, id DESC").Limit(limit)
	if entityType != "" {
		query = query.Where("entity_type = ?", entityType)
	}
	if entityID != 0 {
		query = query.Where("entity_id = ?", entityID)
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
