package service

import (
	"encoding/json"
	"testing"

	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/policy"
	"casetrack/cmd/internal/metrics"
	"casetrack/cmd/internal/utils/apierror"
	"casetrack/cmd/internal/utils/uid"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryActivityRepo struct {
	saved []*entity.ActivityLog
	limit int
}

func (r *memoryActivityRepo) Save(entry *entity.ActivityLog) error {
	r.saved = append(r.saved, entry)
	return nil
}

func (r *memoryActivityRepo) Find(entityType string, entityID int64, limit int) ([]*entity.ActivityLog, error) {
	r.limit = limit
	var out []*entity.ActivityLog
	for _, e := range r.saved {
		if (entityType == "" || e.EntityType == entityType) && (entityID == 0 || e.EntityID == entityID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestActivity_ScheduleNeverBlocks(t *testing.T) {
	uid.Init(1)
	m := metrics.New(prometheus.NewRegistry())
	svc := NewActivityService(&memoryActivityRepo{}, policy.NewWorkflowPolicy(), m, 1)

	svc.Schedule(1, ActionPersonCreated, entity.EntityPerson, 10, nil)
	svc.Schedule(1, ActionPersonCreated, entity.EntityPerson, 11, nil)

	assert.Len(t, svc.Queue(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActivityDropped))

	entry := <-svc.Queue()
	assert.EqualValues(t, 10, entry.EntityID)
	assert.Equal(t, "{}", entry.Details)
}

func TestActivity_PersistAndList(t *testing.T) {
	uid.Init(1)
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, policy.NewWorkflowPolicy(), nil, 8)

	svc.Schedule(1, ActionStatusChanged, entity.EntityIndividualProcess, 42, map[string]any{"to": "protocolado"})
	svc.Schedule(1, ActionPersonCreated, entity.EntityPerson, 7, nil)
	svc.Persist(<-svc.Queue())
	svc.Persist(<-svc.Queue())

	auditor := &entity.User{ID: 2, Permissions: entity.PermissionViewActivity}
	entries, apierr := svc.List(auditor, entity.EntityIndividualProcess, 42, 0)
	require.Nil(t, apierr)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionStatusChanged, entries[0].Action)
	assert.Equal(t, maxActivityPage, repo.limit)

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(repo.saved[0].Details), &details))
	assert.Equal(t, "protocolado", details["to"])

	_, apierr = svc.List(&entity.User{ID: 3, Permissions: entity.PermissionViewCases}, "", 0, 10)
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindForbidden, apierror.KindOf(apierr))
}
