package jobs

import (
	"context"
	"errors"

	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/metrics"
	"casetrack/cmd/internal/service"
	"casetrack/cmd/internal/utils"

	"github.com/labstack/gommon/log"
	"github.com/robfig/cron/v3"
)

// systemActorID marks activity entries written by background jobs.
const systemActorID int64 = 0

var errCaseMoved = errors.New("case changed during repair")

type ActiveStatusFinder interface {
	FindProcessesWithMultipleActive() ([]int64, error)
}

// ActiveStatusAuditor repairs cases left with more than one active history
// row by legacy data: the newest active row wins and the case follows it.
type ActiveStatusAuditor struct {
	finder   ActiveStatusFinder
	tx       service.StatusTx
	activity service.ActivityScheduler
	metrics  *metrics.Metrics
	schedule string
}

func NewActiveStatusAuditor(
	finder ActiveStatusFinder,
	tx service.StatusTx,
	activity service.ActivityScheduler,
	m *metrics.Metrics,
	schedule string,
) *ActiveStatusAuditor {
	return &ActiveStatusAuditor{
		finder:   finder,
		tx:       tx,
		activity: activity,
		metrics:  m,
		schedule: schedule,
	}
}

// Start runs the sweep on the configured cron schedule until ctx is done.
func (a *ActiveStatusAuditor) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(a.schedule, func() { a.Run() }); err != nil {
		return err
	}

	c.Start()
	log.Infof("Active status auditor scheduled (%s)", a.schedule)

	<-ctx.Done()
	log.Info("Stopping active status auditor...")
	<-c.Stop().Done()
	return nil
}

// Run sweeps once and returns how many cases were repaired.
func (a *ActiveStatusAuditor) Run() int {
	ids, err := a.finder.FindProcessesWithMultipleActive()
	if err != nil {
		log.Errorf("Auditor: failed to look up cases with multiple active statuses: %v", err)
		return 0
	}

	repaired := 0
	for _, id := range ids {
		if a.repair(id) {
			repaired++
		}
	}

	if repaired > 0 {
		log.Warnf("Auditor: repaired %d cases with multiple active statuses", repaired)
	}
	return repaired
}

func (a *ActiveStatusAuditor) repair(processID int64) bool {
	var kept *entity.IndividualProcessStatus
	var deactivated int64

	err := a.tx.RunInTx(func(store service.StatusStore) error {
		process, err := store.FindProcessByID(processID)
		if err != nil {
			return err
		}

		if process == nil {
			return errCaseMoved
		}

		actives, err := store.FindActiveStatuses(processID)
		if err != nil {
			return err
		}

		if len(actives) < 2 {
			return errCaseMoved
		}
		kept = actives[0]

		deactivated, err = store.DeactivateStatuses(processID, kept.ID)
		if err != nil {
			return err
		}

		swapped, err := store.SwapProcessStatus(processID, process.Version, kept.CaseStatusID, utils.NowUTC())
		if err != nil {
			return err
		}

		if !swapped {
			return errCaseMoved
		}
		return nil
	})

	if errors.Is(err, errCaseMoved) {
		log.Debugf("Auditor: case %d changed while repairing, leaving it to the next sweep", processID)
		return false
	}

	if err != nil {
		log.Errorf("Auditor: failed to repair case %d: %v", processID, err)
		return false
	}

	a.metrics.IncIntegrityRepair()
	a.activity.Schedule(systemActorID, service.ActionActiveStatusesRepaired, entity.EntityIndividualProcess, processID, map[string]any{
		"kept_history_id": kept.ID,
		"deactivated":     deactivated,
	})
	return true
}
