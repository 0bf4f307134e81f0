package repository

import (
	"errors"

	"casetrack/cmd/internal/domain/entity"

	"gorm.io/gorm"
)

type DefaultIndividualProcessRepository struct {
	db *gorm.DB
}

func NewIndividualProcessRepository(db *gorm.DB) *DefaultIndividualProcessRepository {
	return &DefaultIndividualProcessRepository{db: db}
}

func (r *DefaultIndividualProcessRepository) FindByID(id int64) (*entity.IndividualProcess, error) {
	var process entity.IndividualProcess
	err := r.db.First(&process, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &process, nil
}

// FindAll lists cases newest first. A non nil statusID narrows the result
// to the cases currently in that status.
func (r *DefaultIndividualProcessRepository) FindAll(statusID *int64) ([]*entity.IndividualProcess, error) {
	var processes []*entity.IndividualProcess
	query := r.db.Order("created_at DESC, id DESC")
	if statusID != nil {
		query = query.Where("case_status_id = ?", *statusID)
	}

	if err := query.Find(&processes).Error; err != nil {
		return nil, err
	}
	return processes, nil
}

func (r *DefaultIndividualProcessRepository) Save(process *entity.IndividualProcess) error {
	return r.db.Save(process).Error
}

type DefaultPersonRepository struct {
	db *gorm.DB
}

func NewPersonRepository(db *gorm.DB) *DefaultPersonRepository {
	return &DefaultPersonRepository{db: db}
}

func (r *DefaultPersonRepository) FindByID(id int64) (*entity.Person, error) {
	var person entity.Person
	err := r.db.First(&person, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &person, nil
}

func (r *DefaultPersonRepository) FindAll() ([]*entity.Person, error) {
	var people []*entity.Person
	err := r.db.Order("full_name ASC").Find(&people).Error
	if err != nil {
		return nil, err
	}
	return people, nil
}

func (r *DefaultPersonRepository) Save(person *entity.Person) error {
	return r.db.Save(person).Error
}

type DefaultCollectiveProcessRepository struct {
	db *gorm.DB
}

func NewCollectiveProcessRepository(db *gorm.DB) *DefaultCollectiveProcessRepository {
	return &DefaultCollectiveProcessRepository{db: db}
}

func (r *DefaultCollectiveProcessRepository) FindByID(id int64) (*entity.CollectiveProcess, error) {
	var process entity.CollectiveProcess
	err := r.db.First(&process, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}
	return &process, nil
}

func (r *DefaultCollectiveProcessRepository) ExistsByReference(reference string) (bool, error) {
	var exists int
	err := r.db.
		Raw("SELECT EXISTS(SELECT 1 FROM collective_processes WHERE reference = ?)", reference).
		Scan(&exists).Error
	if err != nil {
		return false, err
	}
	return exists == 1, nil
}

func (r *DefaultCollectiveProcessRepository) Save(process *entity.CollectiveProcess) error {
	return r.db.Save(process).Error
}
