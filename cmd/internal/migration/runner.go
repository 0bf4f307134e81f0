package migration

import (
	"errors"
	"fmt"
	"sync"

	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/metrics"
	"casetrack/cmd/internal/utils"

	"github.com/labstack/gommon/log"
	"gorm.io/gorm"
)

// Migration is a one-shot data change. Up runs inside its own transaction
// and reports how many rows it touched.
type Migration struct {
	ID          string
	Description string
	Up          func(tx *gorm.DB) (int64, error)

	// AfterCommit runs once Up is committed and recorded, outside any
	// transaction. A failure is logged, the migration stays applied.
	AfterCommit func() error
}

type Report struct {
	Applied []*entity.MigrationRecord
	Skipped []string
}

// Runner applies migrations in order and records each one in the
// schema_migrations ledger. Recorded migrations never run again.
type Runner struct {
	db         *gorm.DB
	metrics    *metrics.Metrics
	migrations []Migration

	mu sync.Mutex
}

func NewRunner(db *gorm.DB, m *metrics.Metrics, migrations ...Migration) *Runner {
	return &Runner{
		db:         db,
		metrics:    m,
		migrations: migrations,
	}
}

// Run applies every pending migration. It stops at the first failure; the
// failed migration is rolled back and left unrecorded.
func (r *Runner) Run() (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	done, err := r.appliedIDs()
	if err != nil {
		return nil, err
	}

	report := &Report{
		Applied: []*entity.MigrationRecord{},
		Skipped: []string{},
	}

	for _, m := range r.migrations {
		if _, ok := done[m.ID]; ok {
			report.Skipped = append(report.Skipped, m.ID)
			continue
		}

		record, err := r.apply(m)
		if err != nil {
			return report, fmt.Errorf("migration %s: %w", m.ID, err)
		}

		r.metrics.ObserveMigration(m.ID, record.RowsAffected)
		log.Infof("Applied migration %s (%d rows)", m.ID, record.RowsAffected)
		report.Applied = append(report.Applied, record)

		if m.AfterCommit != nil {
			if err := m.AfterCommit(); err != nil {
				log.Warnf("Migration %s was applied but its follow-up failed: %v", m.ID, err)
			}
		}
	}
	return report, nil
}

// Applied lists the ledger, oldest first.
func (r *Runner) Applied() ([]*entity.MigrationRecord, error) {
	var records []*entity.MigrationRecord
	if err := r.db.Order("applied_at ASC, id ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *Runner) apply(m Migration) (*entity.MigrationRecord, error) {
	if m.Up == nil {
		return nil, errors.New("missing Up function")
	}

	record := &entity.MigrationRecord{
		ID:          m.ID,
		Description: m.Description,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		rows, err := m.Up(tx)
		if err != nil {
			return err
		}

		record.RowsAffected = rows
		record.AppliedAt = utils.NowUTC()
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *Runner) appliedIDs() (map[string]struct{}, error) {
	var ids []string
	if err := r.db.Model(&entity.MigrationRecord{}).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	done := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		done[id] = struct{}{}
	}
	return done, nil
}
