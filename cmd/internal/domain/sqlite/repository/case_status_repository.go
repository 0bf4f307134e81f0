package repository

import (
	"errors"

	"casetrack/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultCaseStatusRepository struct {
	db *gorm.DB
}

func NewCaseStatusRepository(db *gorm.DB) *DefaultCaseStatusRepository {
	return &DefaultCaseStatusRepository{db: db}
}

func (r *DefaultCaseStatusRepository) FindAll(includeInactive bool) ([]*entity.CaseStatus, error) {
	var statuses []*entity.CaseStatus
	query := r.db.Order("sort_order ASC, id ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *DefaultCaseStatusRepository) FindByCategory(category string) ([]*entity.CaseStatus, error) {
	var statuses []*entity.CaseStatus
	err := r.db.
		Where("category = ? AND is_active = ?", category, true).
		Order("sort_order ASC, id ASC").
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *DefaultCaseStatusRepository) FindByID(id int64) (*entity.CaseStatus, error) {
	return r.first(r.db.Where("id = ?", id))
}

func (r *DefaultCaseStatusRepository) FindByCode(code string) (*entity.CaseStatus, error) {
	return r.first(r.db.Where("code = ?", code))
}

func (r *DefaultCaseStatusRepository) FindByOrderNumber(orderNumber int) (*entity.CaseStatus, error) {
	return r.first(r.db.Where("order_number = ?", orderNumber))
}

// FindNextActiveByOrderNumber returns the active entry holding the smallest
// order number strictly greater than orderNumber.
func (r *DefaultCaseStatusRepository) FindNextActiveByOrderNumber(orderNumber int) (*entity.CaseStatus, error) {
	return r.first(r.db.
		Where("is_active = ? AND order_number IS NOT NULL AND order_number > ?", true, orderNumber).
		Order("order_number ASC"))
}

func (r *DefaultCaseStatusRepository) Save(status *entity.CaseStatus) error {
	return r.db.Save(status).Error
}

// CountProcessesByStatus counts the cases currently sitting in the given status.
func (r *DefaultCaseStatusRepository) CountProcessesByStatus(statusID int64) (int64, error) {
	var count int64
	err := r.db.Model(&entity.IndividualProcess{}).
		Where("case_status_id = ?", statusID).
		Count(&count).Error
	return count, err
}

func (r *DefaultCaseStatusRepository) first(query *gorm.DB) (*entity.CaseStatus, error) {
	var status entity.CaseStatus
	err := query.First(&status).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &status, nil
}
