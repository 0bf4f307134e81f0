package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/sqlite"
	"casetrack/cmd/internal/domain/sqlite/repository"
	"casetrack/cmd/internal/metrics"
	"casetrack/cmd/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) RunInTx(fn func(store service.StatusStore) error) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		return fn(repository.NewStatusStore(tx))
	})
}

type scheduled struct {
	action   string
	entityID int64
}

type recordingScheduler struct {
	mu      sync.Mutex
	entries []scheduled
}

func (r *recordingScheduler) Schedule(_ int64, action, _ string, entityID int64, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, scheduled{action: action, entityID: entityID})
}

type memorySource struct {
	mu        sync.Mutex
	queue     chan *entity.ActivityLog
	persisted []int64
}

func (m *memorySource) Queue() <-chan *entity.ActivityLog {
	return m.queue
}

func (m *memorySource) Persist(entry *entity.ActivityLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persisted = append(m.persisted, entry.ID)
}

func (m *memorySource) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.persisted)
}

type fakeExpirer struct {
	calls int
}

func (f *fakeExpirer) ExpireConnections(_ context.Context, now int64) int {
	f.calls++
	if now <= 0 {
		return 0
	}
	return 2
}

func statusID(n int64) *int64 { return &n }

func TestAuditor_KeepsNewestActiveRow(t *testing.T) {
	db, err := sqlite.Init(":memory:")
	require.NoError(t, err)

	require.NoError(t, db.Create(&entity.IndividualProcess{ID: 100, PersonID: 1, ProcessType: "work_visa", CaseStatusID: statusID(1), Version: 4}).Error)
	require.NoError(t, db.Create(&entity.IndividualProcess{ID: 200, PersonID: 1, ProcessType: "work_visa", CaseStatusID: statusID(1), Version: 1}).Error)

	rows := []*entity.IndividualProcessStatus{
		{ID: 1, IndividualProcessID: 100, CaseStatusID: statusID(1), StatusName: "Em preparação", IsActive: true, ChangedAt: 10},
		{ID: 2, IndividualProcessID: 100, CaseStatusID: statusID(2), StatusName: "Protocolado", IsActive: true, ChangedAt: 20},
		{ID: 3, IndividualProcessID: 100, CaseStatusID: statusID(3), StatusName: "Em análise", IsActive: true, ChangedAt: 15},
		{ID: 4, IndividualProcessID: 200, CaseStatusID: statusID(1), StatusName: "Em preparação", IsActive: true, ChangedAt: 10},
	}
	require.NoError(t, db.Create(&rows).Error)

	activity := &recordingScheduler{}
	m := metrics.New(prometheus.NewRegistry())
	auditor := NewActiveStatusAuditor(repository.NewStatusHistoryRepository(db), &gormTx{db: db}, activity, m, "@every 1h")

	assert.Equal(t, 1, auditor.Run())

	var active []*entity.IndividualProcessStatus
	require.NoError(t, db.Where("individual_process_id = ? AND is_active = ?", 100, true).Find(&active).Error)
	require.Len(t, active, 1)
	assert.EqualValues(t, 2, active[0].ID)

	var process entity.IndividualProcess
	require.NoError(t, db.First(&process, 100).Error)
	require.NotNil(t, process.CaseStatusID)
	assert.EqualValues(t, 2, *process.CaseStatusID)
	assert.EqualValues(t, 5, process.Version)

	require.Len(t, activity.entries, 1)
	assert.Equal(t, service.ActionActiveStatusesRepaired, activity.entries[0].action)
	assert.EqualValues(t, 100, activity.entries[0].entityID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntegrityRepairs))

	assert.Zero(t, auditor.Run())
}

func TestAuditor_StopsWithContext(t *testing.T) {
	db, err := sqlite.Init(":memory:")
	require.NoError(t, err)

	auditor := NewActiveStatusAuditor(repository.NewStatusHistoryRepository(db), &gormTx{db: db}, &recordingScheduler{}, nil, "@every 1h")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- auditor.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("auditor did not stop")
	}
}

func TestAuditor_RejectsBadSchedule(t *testing.T) {
	auditor := NewActiveStatusAuditor(nil, nil, nil, nil, "every now and then")
	assert.Error(t, auditor.Start(context.Background()))
}

func TestActivityWorker_DrainsOnShutdown(t *testing.T) {
	source := &memorySource{queue: make(chan *entity.ActivityLog, 10)}
	worker := NewActivityWorker(source)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	source.queue <- &entity.ActivityLog{ID: 1}
	assert.Eventually(t, func() bool { return source.count() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	source.queue <- &entity.ActivityLog{ID: 2}
	source.queue <- &entity.ActivityLog{ID: 3}
	worker.drain(source.queue)
	assert.Equal(t, 3, source.count())
}

func TestConnectionCleaner_Sweep(t *testing.T) {
	expirer := &fakeExpirer{}
	NewConnectionCleaner(expirer).cleanup()
	assert.Equal(t, 1, expirer.calls)
}
