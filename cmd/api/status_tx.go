package main

import (
	"casetrack/cmd/internal/domain/sqlite/repository"
	"casetrack/cmd/internal/service"

	"gorm.io/gorm"
)

type statusSQLiteTx struct {
	db *gorm.DB
}

func newStatusTx(db *gorm.DB) *statusSQLiteTx {
	return &statusSQLiteTx{db: db}
}

func (t *statusSQLiteTx) RunInTx(fn func(store service.StatusStore) error) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		return fn(repository.NewStatusStore(tx))
	})
}
