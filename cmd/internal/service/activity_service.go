package service

import (
	"encoding/json"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/policy"
	"casetrack/cmd/internal/metrics"
	"casetrack/cmd/internal/utils"
	"casetrack/cmd/internal/utils/apierror"
	"casetrack/cmd/internal/utils/uid"

	"github.com/labstack/gommon/log"
)

const (
	ActionCaseStatusCreated      = "case_status_created"
	ActionCaseStatusUpdated      = "case_status_updated"
	ActionCaseStatusRemoved      = "case_status_removed"
	ActionCaseStatusToggled      = "case_status_toggled"
	ActionCaseStatusReordered    = "case_status_reordered"
	ActionStatusChanged          = "status_changed"
	ActionStatusHistoryAdded     = "status_history_added"
	ActionStatusHistoryUpdated   = "status_history_updated"
	ActionStatusHistoryDeleted   = "status_history_deleted"
	ActionBulkStatusUpdated      = "bulk_status_updated"
	ActionPersonCreated          = "person_created"
	ActionProcessCreated         = "individual_process_created"
	ActionCollectiveCreated      = "collective_process_created"
	ActionActiveStatusesRepaired = "active_statuses_repaired"

	maxActivityPage = 500
)

type ActivityRepository interface {
	Save(entry *entity.ActivityLog) error
	Find(entityType string, entityID int64, limit int) ([]*entity.ActivityLog, error)
}

// ActivityScheduler is the producer side of the activity log.
type ActivityScheduler interface {
	Schedule(userID int64, action, entityType string, entityID int64, details map[string]any)
}

// ActivityService buffers activity entries for the background writer.
// Scheduling never blocks the caller: when the buffer is full the entry is dropped.
type ActivityService struct {
	Repo    ActivityRepository
	Policy  *policy.WorkflowPolicy
	Metrics *metrics.Metrics

	queue chan *entity.ActivityLog
}

func NewActivityService(repo ActivityRepository, workflowPolicy *policy.WorkflowPolicy, m *metrics.Metrics, buffer int) *ActivityService {
	return &ActivityService{
		Repo:    repo,
		Policy:  workflowPolicy,
		Metrics: m,
		queue:   make(chan *entity.ActivityLog, buffer),
	}
}

func (a *ActivityService) Schedule(userID int64, action, entityType string, entityID int64, details map[string]any) {
	raw := []byte("{}")
	if len(details) > 0 {
		encoded, err := json.Marshal(details)
		if err != nil {
			log.Warnf("failed to encode activity details for %s %d: %v", entityType, entityID, err)
		} else {
			raw = encoded
		}
	}

	entry := &entity.ActivityLog{
		ID:         uid.Generate(),
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    string(raw),
		CreatedAt:  utils.NowUTC(),
	}

	select {
	case a.queue <- entry:
	default:
		a.Metrics.IncActivityDropped()
		log.Warnf("activity buffer full, dropping %s on %s %d", action, entityType, entityID)
	}
}

// Queue is consumed by the activity worker.
func (a *ActivityService) Queue() <-chan *entity.ActivityLog {
	return a.queue
}

// Persist writes a single entry. Failures are logged and swallowed.
func (a *ActivityService) Persist(entry *entity.ActivityLog) {
	if err := a.Repo.Save(entry); err != nil {
		log.Errorf("failed to persist activity %s on %s %d: %v", entry.Action, entry.EntityType, entry.EntityID, err)
		return
	}
	a.Metrics.IncActivityPersisted()
}

func (a *ActivityService) List(actor *entity.User, entityType string, entityID int64, limit int) ([]*contract.ActivityResponse, apierror.ErrorResponse) {
	if perr := a.Policy.CanViewActivity(actor); perr != nil {
		return nil, perr
	}

	if limit <= 0 || limit > maxActivityPage {
		limit = maxActivityPage
	}

	entries, err := a.Repo.Find(entityType, entityID, limit)
	if err != nil {
		log.Errorf("failed to fetch activity logs: %v", err)
		return nil, apierror.InternalServerError
	}

	resp := make([]*contract.ActivityResponse, len(entries))
	for i, e := range entries {
		resp[i] = toActivityResponse(e)
	}
	return resp, nil
}
