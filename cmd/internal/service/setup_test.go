package service

import (
	"context"
	"sync"
	"testing"

	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/events"
	"casetrack/cmd/internal/domain/policy"
	"casetrack/cmd/internal/domain/sqlite"
	"casetrack/cmd/internal/domain/sqlite/repository"
	"casetrack/cmd/internal/domain/workflow"
	"casetrack/cmd/internal/metrics"
	"casetrack/cmd/internal/migration"
	"casetrack/cmd/internal/utils/uid"
	"casetrack/cmd/internal/utils/validators"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) RunInTx(fn func(store StatusStore) error) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		return fn(repository.NewStatusStore(tx))
	})
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []events.SocketEvent
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, evt events.SocketEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingBroadcaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type testEnv struct {
	db       *gorm.DB
	machine  *workflow.Holder
	events   *recordingBroadcaster
	activity *ActivityService
	metrics  *metrics.Metrics

	statusRepo  *repository.DefaultCaseStatusRepository
	historyRepo *repository.DefaultStatusHistoryRepository
	processRepo *repository.DefaultIndividualProcessRepository
	personRepo  *repository.DefaultPersonRepository

	changer *StatusChanger
	catalog *DefaultCaseStatusService
	history *DefaultStatusHistoryService
	cases   *DefaultCaseService
	bulk    *DefaultBulkService

	admin   *entity.User
	manager *entity.User
}

// newTestEnv builds the services over an in-memory database holding the default catalog.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	uid.Init(1)

	db, err := sqlite.Init(":memory:")
	require.NoError(t, err)

	_, err = migration.NewRunner(db, nil, migration.Default(nil)...).Run()
	require.NoError(t, err)

	env := &testEnv{
		db:          db,
		machine:     workflow.NewHolder(nil),
		events:      &recordingBroadcaster{},
		metrics:     metrics.New(prometheus.NewRegistry()),
		statusRepo:  repository.NewCaseStatusRepository(db),
		historyRepo: repository.NewStatusHistoryRepository(db),
		processRepo: repository.NewIndividualProcessRepository(db),
		personRepo:  repository.NewPersonRepository(db),
	}

	workflowPolicy := policy.NewWorkflowPolicy()
	validate := validators.New()
	userRepo := repository.NewUserRepository(db)

	env.activity = NewActivityService(repository.NewActivityRepository(db), workflowPolicy, env.metrics, 1024)
	env.changer = NewStatusChanger(&gormTx{db: db}, env.statusRepo, env.machine, env.activity, env.events, env.metrics)
	env.catalog = NewCaseStatusService(env.statusRepo, env.machine, env.activity, env.events, workflowPolicy, validate)
	env.history = NewStatusHistoryService(env.historyRepo, env.processRepo, userRepo, env.changer, workflowPolicy, validate)
	env.cases = NewCaseService(env.personRepo, env.processRepo, repository.NewCollectiveProcessRepository(db), env.changer, workflowPolicy, validate)
	env.bulk = NewBulkService(env.processRepo, env.cases, env.changer, workflowPolicy, env.metrics, validate)
	require.NoError(t, env.catalog.ReloadMachine())

	env.admin = env.user(t, "admin", entity.PermissionAdministrator)
	env.manager = env.user(t, "manager", entity.PermissionViewCases|entity.PermissionManageCases)
	return env
}

func (e *testEnv) user(t *testing.T, name string, perms entity.Permission) *entity.User {
	t.Helper()
	u := &entity.User{
		ID:          uid.Generate(),
		SubUUID:     name + "-sub",
		DisplayName: name,
		Email:       name + "@agency.test",
		Permissions: perms,
		Active:      true,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

// newCase registers a person and an empty case for them.
func (e *testEnv) newCase(t *testing.T) *entity.IndividualProcess {
	t.Helper()
	person := &entity.Person{ID: uid.Generate(), FullName: "Maria Silva"}
	require.NoError(t, e.personRepo.Save(person))

	process := &entity.IndividualProcess{ID: uid.Generate(), PersonID: person.ID, ProcessType: "work_visa"}
	require.NoError(t, e.processRepo.Save(process))
	return process
}

func (e *testEnv) status(t *testing.T, code string) *entity.CaseStatus {
	t.Helper()
	s, err := e.statusRepo.FindByCode(code)
	require.NoError(t, err)
	require.NotNil(t, s, "status %s missing from catalog", code)
	return s
}

func (e *testEnv) reload(t *testing.T, id int64) *entity.IndividualProcess {
	t.Helper()
	p, err := e.processRepo.FindByID(id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (e *testEnv) activeRows(t *testing.T, caseID int64) []*entity.IndividualProcessStatus {
	t.Helper()
	rows, err := e.historyRepo.FindActiveByProcess(caseID)
	require.NoError(t, err)
	return rows
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }
