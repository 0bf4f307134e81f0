package service

import (
	"context"
	"errors"
	"time"

	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/events"
	"casetrack/cmd/internal/domain/workflow"
	"casetrack/cmd/internal/metrics"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"
	"casetrack/cmd/internal/utils/uid"

	"github.com/labstack/gommon/log"
)

// Origins of a status change, reported in metrics and activity details.
const (
	OriginManual      = "manual"
	OriginBulk        = "bulk"
	OriginInitial     = "initial"
	OriginHistoryEdit = "history_edit"
)

var errVersionConflict = errors.New("case version changed concurrently")

// StatusStore is the transactional view of the tables a status change touches.
type StatusStore interface {
	FindProcessByID(id int64) (*entity.IndividualProcess, error)
	FindActiveStatuses(processID int64) ([]*entity.IndividualProcessStatus, error)
	DeactivateStatuses(processID, keepID int64) (int64, error)
	SaveProcess(process *entity.IndividualProcess) error
	SaveStatus(row *entity.IndividualProcessStatus) error
	SwapProcessStatus(processID, version int64, statusID *int64, now int64) (bool, error)
}

// StatusTx runs fn inside a database transaction. Returning an error rolls it back.
type StatusTx interface {
	RunInTx(fn func(store StatusStore) error) error
}

// StatusChanger is the single write path of a case's status: manual edits,
// bulk updates and initial assignments all go through it.
type StatusChanger struct {
	Tx         StatusTx
	StatusRepo CaseStatusRepository
	Machine    *workflow.Holder
	Activity   ActivityScheduler
	Events     Broadcaster
	Metrics    *metrics.Metrics
}

func NewStatusChanger(
	tx StatusTx,
	statusRepo CaseStatusRepository,
	machine *workflow.Holder,
	activity ActivityScheduler,
	broadcaster Broadcaster,
	m *metrics.Metrics,
) *StatusChanger {
	return &StatusChanger{
		Tx:         tx,
		StatusRepo: statusRepo,
		Machine:    machine,
		Activity:   activity,
		Events:     broadcaster,
		Metrics:    m,
	}
}

// Resolve finds a catalog entry by code, falling back to its display name
// (case and accent insensitive).
func (c *StatusChanger) Resolve(input string) (*entity.CaseStatus, apierror.ErrorResponse) {
	status, err := c.StatusRepo.FindByCode(input)
	if err != nil {
		log.Errorf("failed to fetch case status by code %s: %v", input, err)
		return nil, apierror.InternalServerError
	}

	if status != nil {
		return status, nil
	}

	catalog, err := c.StatusRepo.FindAll(true)
	if err != nil {
		log.Errorf("failed to fetch catalog: %v", err)
		return nil, apierror.InternalServerError
	}

	folded := utils.FoldName(input)
	for _, candidate := range catalog {
		if utils.FoldName(candidate.Name) == folded ||
			(candidate.NameEn != "" && utils.FoldName(candidate.NameEn) == folded) {
			return candidate, nil
		}
	}
	return nil, apierror.NewNotFoundError("Case status", input)
}

// CurrentStatus returns the catalog entry the case is in, nil when it has none.
func (c *StatusChanger) CurrentStatus(process *entity.IndividualProcess) (*entity.CaseStatus, apierror.ErrorResponse) {
	if process.CaseStatusID == nil {
		return nil, nil
	}

	status, err := c.StatusRepo.FindByID(*process.CaseStatusID)
	if err != nil {
		log.Errorf("failed to fetch status of case %d: %v", process.ID, err)
		return nil, apierror.InternalServerError
	}

	if status == nil {
		log.Warnf("case %d points at missing case status %d", process.ID, *process.CaseStatusID)
	}
	return status, nil
}

// CheckTransition consults the workflow. A nil from means the case has no status yet.
func (c *StatusChanger) CheckTransition(from, to *entity.CaseStatus) apierror.ErrorResponse {
	fromCode := ""
	if from != nil {
		fromCode = from.Code
	}

	if !c.Machine.Current().CanTransition(fromCode, to.Code) {
		c.Metrics.IncRejected(string(apierror.KindInvalidTransition))
		return apierror.NewInvalidTransitionError(fromCode, to.Code)
	}
	return nil
}

// Assign moves the case into target, recording a new active history row.
func (c *StatusChanger) Assign(actor *entity.User, process *entity.IndividualProcess, target *entity.CaseStatus, notes, origin string) (*entity.IndividualProcessStatus, apierror.ErrorResponse) {
	from, apierr := c.CurrentStatus(process)
	if apierr != nil {
		return nil, apierr
	}

	if apierr = c.CheckTransition(from, target); apierr != nil {
		return nil, apierr
	}

	now := utils.NowUTC()
	row := newActiveRow(actor, process.ID, target, notes, now)

	if apierr = c.Commit(process, row, now); apierr != nil {
		return nil, apierr
	}

	c.Announce(actor, process.ID, from, target, row, origin)
	return row, nil
}

// Open saves a new case already in target. The case and its first history
// row are written in the same transaction, a failure leaves neither behind.
func (c *StatusChanger) Open(actor *entity.User, process *entity.IndividualProcess, target *entity.CaseStatus, notes, origin string) (*entity.IndividualProcessStatus, apierror.ErrorResponse) {
	if apierr := c.CheckTransition(nil, target); apierr != nil {
		return nil, apierr
	}

	start := time.Now()
	defer c.Metrics.ObserveStatusChange(start)

	now := utils.NowUTC()
	row := newActiveRow(actor, process.ID, target, notes, now)

	opened := *process
	opened.CaseStatusID = row.CaseStatusID
	opened.Version = 1
	opened.UpdatedAt = now

	err := c.Tx.RunInTx(func(store StatusStore) error {
		if err := store.SaveProcess(&opened); err != nil {
			return err
		}
		return store.SaveStatus(row)
	})
	if err != nil {
		log.Errorf("failed to open case %d in status %s: %v", process.ID, target.Code, err)
		return nil, apierror.InternalServerError
	}

	*process = opened
	c.Announce(actor, process.ID, nil, target, row, origin)
	return row, nil
}

// Commit saves row and realigns the case in one transaction. An active row
// deactivates every other active row of the case and becomes its status.
// A demoted row hands the case over to the newest active row left, if any.
// The case version must still be the one loaded by the caller, otherwise
// nothing is written.
func (c *StatusChanger) Commit(process *entity.IndividualProcess, row *entity.IndividualProcessStatus, now int64) apierror.ErrorResponse {
	start := time.Now()
	defer c.Metrics.ObserveStatusChange(start)

	var statusID *int64
	if row.IsActive {
		statusID = row.CaseStatusID
	}

	err := c.Tx.RunInTx(func(store StatusStore) error {
		if row.IsActive {
			if _, err := store.DeactivateStatuses(process.ID, row.ID); err != nil {
				return err
			}
		}

		if err := store.SaveStatus(row); err != nil {
			return err
		}

		if !row.IsActive {
			remaining, err := store.FindActiveStatuses(process.ID)
			if err != nil {
				return err
			}
			if len(remaining) > 0 {
				statusID = remaining[0].CaseStatusID
			}
		}

		swapped, err := store.SwapProcessStatus(process.ID, process.Version, statusID, now)
		if err != nil {
			return err
		}

		if !swapped {
			return errVersionConflict
		}
		return nil
	})

	if errors.Is(err, errVersionConflict) {
		c.Metrics.IncConflict()
		return apierror.ConcurrentUpdateError
	}

	if err != nil {
		log.Errorf("failed to commit status change of case %d: %v", process.ID, err)
		return apierror.InternalServerError
	}

	process.Version++
	process.CaseStatusID = statusID
	process.UpdatedAt = now
	return nil
}

// Announce runs the post-commit side effects of a status change.
func (c *StatusChanger) Announce(actor *entity.User, processID int64, from, to *entity.CaseStatus, row *entity.IndividualProcessStatus, origin string) {
	toLabel := "none"
	if to != nil {
		toLabel = to.Code
	}
	c.Metrics.IncTransition(toLabel, origin)

	evt := &events.CaseStatusChanged{
		CaseID:     processID,
		FromCode:   codePtr(from),
		ToCode:     codePtr(to),
		HistoryID:  row.ID,
		ChangedBy:  actor.ID,
		ChangedAt:  utils.FormatEpoch(row.ChangedAt),
		BulkUpdate: origin == OriginBulk,
	}
	go c.Events.Broadcast(context.Background(), evt)

	c.Activity.Schedule(actor.ID, ActionStatusChanged, entity.EntityIndividualProcess, processID, map[string]any{
		"from":       evt.FromCode,
		"to":         evt.ToCode,
		"history_id": row.ID,
		"origin":     origin,
	})
}

func newActiveRow(actor *entity.User, processID int64, target *entity.CaseStatus, notes string, now int64) *entity.IndividualProcessStatus {
	targetID := target.ID
	return &entity.IndividualProcessStatus{
		ID:                  uid.Generate(),
		IndividualProcessID: processID,
		CaseStatusID:        &targetID,
		StatusName:          target.Name,
		IsActive:            true,
		ChangedByID:         actor.ID,
		ChangedAt:           now,
		Notes:               notes,
		CreatedAt:           now,
	}
}
