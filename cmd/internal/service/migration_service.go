package service

import (
	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/policy"
	"casetrack/cmd/internal/migration"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

type MigrationRunner interface {
	Run() (*migration.Report, error)
	Applied() ([]*entity.MigrationRecord, error)
}

type MigrationService struct {
	Runner  MigrationRunner
	Catalog *DefaultCaseStatusService
	Policy  *policy.WorkflowPolicy
}

func NewMigrationService(runner MigrationRunner, catalog *DefaultCaseStatusService, workflowPolicy *policy.WorkflowPolicy) *MigrationService {
	return &MigrationService{
		Runner:  runner,
		Catalog: catalog,
		Policy:  workflowPolicy,
	}
}

func (m *MigrationService) List(actor *entity.User) ([]*contract.MigrationResponse, apierror.ErrorResponse) {
	if perr := m.Policy.RequireAdmin(actor); perr != nil {
		return nil, perr
	}

	records, err := m.Runner.Applied()
	if err != nil {
		log.Errorf("failed to read migration ledger: %v", err)
		return nil, apierror.InternalServerError
	}
	return toMigrationResponses(records), nil
}

// Run applies the pending migrations. They may rewrite the catalog, so the
// workflow is rebuilt afterwards even when one of them failed.
func (m *MigrationService) Run(actor *entity.User) (*contract.MigrationRunResponse, apierror.ErrorResponse) {
	if perr := m.Policy.RequireAdmin(actor); perr != nil {
		return nil, perr
	}

	report, err := m.Runner.Run()
	if rerr := m.Catalog.ReloadMachine(); rerr != nil {
		log.Errorf("failed to rebuild workflow after migrations: %v", rerr)
	}

	if err != nil {
		log.Errorf("actor %d failed to run migrations: %v", actor.ID, err)
		return nil, apierror.InternalServerError
	}

	return &contract.MigrationRunResponse{
		Applied: toMigrationResponses(report.Applied),
		Skipped: report.Skipped,
	}, nil
}

func toMigrationResponses(records []*entity.MigrationRecord) []*contract.MigrationResponse {
	resp := make([]*contract.MigrationResponse, len(records))
	for i, r := range records {
		resp[i] = &contract.MigrationResponse{
			ID:           r.ID,
			Description:  r.Description,
			RowsAffected: r.RowsAffected,
			AppliedAt:    utils.FormatEpoch(r.AppliedAt),
		}
	}
	return resp
}
