package repository

import (
	"casetrack/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

// StatusStore groups the writes of a status change. It is meant to be built
// over a transaction handle so they commit or roll back together.
type StatusStore struct {
	tx *gorm.DB
}

func NewStatusStore(tx *gorm.DB) *StatusStore {
	return &StatusStore{tx: tx}
}

func (s *StatusStore) FindProcessByID(id int64) (*entity.IndividualProcess, error) {
	return NewIndividualProcessRepository(s.tx).FindByID(id)
}

func (s *StatusStore) FindActiveStatuses(processID int64) ([]*entity.IndividualProcessStatus, error) {
	return NewStatusHistoryRepository(s.tx).FindActiveByProcess(processID)
}

// DeactivateStatuses flips every active row of the case except keepID to inactive.
func (s *StatusStore) DeactivateStatuses(processID, keepID int64) (int64, error) {
	result := s.tx.Model(&entity.IndividualProcessStatus{}).
		Where("individual_process_id = ? AND is_active = ? AND id <> ?", processID, true, keepID).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

func (s *StatusStore) SaveProcess(process *entity.IndividualProcess) error {
	return NewIndividualProcessRepository(s.tx).Save(process)
}

func (s *StatusStore) SaveStatus(row *entity.IndividualProcessStatus) error {
	return s.tx.Save(row).Error
}

// SwapProcessStatus points the case at statusID only if its version is still
// the expected one. It reports false when another writer got there first.
func (s *StatusStore) SwapProcessStatus(processID, version int64, statusID *int64, now int64) (bool, error) {
	result := s.tx.Model(&entity.IndividualProcess{}).
		Where("id = ? AND version = ?", processID, version).
		Updates(map[string]any{
			"case_status_id": statusID,
			"version":        version + 1,
			"updated_at":     now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
