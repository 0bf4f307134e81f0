package repository

import (
	"errors"

	"casetrack/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultStatusHistoryRepository struct {
	db *gorm.DB
}

func NewStatusHistoryRepository(db *gorm.DB) *DefaultStatusHistoryRepository {
	return &DefaultStatusHistoryRepository{db: db}
}

// FindByProcess lists the history of a case, newest first.
func (r *DefaultStatusHistoryRepository) FindByProcess(processID int64) ([]*entity.IndividualProcessStatus, error) {
	var rows []*entity.IndividualProcessStatus
	err := r.db.
		Where("individual_process_id = ?", processID).
		Order("changed_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindActiveByProcess returns every active row of a case, newest first.
// More than one means the case needs repair.
func (r *DefaultStatusHistoryRepository) FindActiveByProcess(processID int64) ([]*entity.IndividualProcessStatus, error) {
	var rows []*entity.IndividualProcessStatus
	err := r.db.
		Where("individual_process_id = ? AND is_active = ?", processID, true).
		Order("changed_at DESC, id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *DefaultStatusHistoryRepository) FindByID(id int64) (*entity.IndividualProcessStatus, error) {
	var row entity.IndividualProcessStatus
	err := r.db.First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindProcessesWithMultipleActive returns the ids of the cases holding more than one active row.
func (r *DefaultStatusHistoryRepository) FindProcessesWithMultipleActive() ([]int64, error) {
	var ids []int64
	err := r.db.Model(&entity.IndividualProcessStatus{}).
		Where("is_active = ?", true).
		Group("individual_process_id").
		Having("COUNT(*) > 1").
		Pluck("individual_process_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *DefaultStatusHistoryRepository) Save(row *entity.IndividualProcessStatus) error {
	return r.db.Save(row).Error
}

func (r *DefaultStatusHistoryRepository) Delete(row *entity.IndividualProcessStatus) error {
	return r.db.Delete(row).Error
}
