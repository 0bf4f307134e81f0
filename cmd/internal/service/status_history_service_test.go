package service

import (
	"sync"
	"testing"
	"time"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/workflow"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHistory_AddSupersedesActiveRow(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	first, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.Nil(t, apierr)

	second, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeFiled, Notes: "protocolo 123"})
	require.Nil(t, apierr)

	active := env.activeRows(t, process.ID)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	old, err := env.historyRepo.FindByID(first.ID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)

	stored := env.reload(t, process.ID)
	require.NotNil(t, stored.CaseStatusID)
	assert.Equal(t, env.status(t, workflow.CodeFiled).ID, *stored.CaseStatusID)
	assert.EqualValues(t, 2, stored.Version)
}

func TestStatusHistory_AddResolvesDisplayName(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	row, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: "EM PREPARACAO"})
	require.Nil(t, apierr)
	require.NotNil(t, row.CaseStatus)
	assert.Equal(t, workflow.CodeInPreparation, row.CaseStatus.Code)
	assert.Equal(t, "Em preparação", row.StatusName)
}

func TestStatusHistory_AddRejectsInvalidTransition(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	_, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeCancelled})
	require.Nil(t, apierr)

	_, apierr = env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeFiled})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindInvalidTransition, apierror.KindOf(apierr))

	rows, err := env.historyRepo.FindByProcess(process.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestStatusHistory_AddRejectsSameStatus(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	_, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.Nil(t, apierr)

	_, apierr = env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindInvalidTransition, apierror.KindOf(apierr))
}

func TestStatusHistory_AddUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	_, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: "aguardando_visto"})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(apierr))
}

func TestStatusHistory_AddRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	_, apierr := env.history.Add(env.manager, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindUnauthorized, apierror.KindOf(apierr))
	assert.Empty(t, env.activeRows(t, process.ID))
}

func TestStatusHistory_InactiveAddLeavesCaseAlone(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	row, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{
		Status:   workflow.CodeFiled,
		IsActive: boolPtr(false),
	})
	require.Nil(t, apierr)
	assert.False(t, row.IsActive)

	stored := env.reload(t, process.ID)
	assert.Nil(t, stored.CaseStatusID)
	assert.Zero(t, stored.Version)
}

func TestStatusHistory_DeleteRules(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	first, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.Nil(t, apierr)
	second, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeFiled})
	require.Nil(t, apierr)

	apierr = env.history.Delete(env.admin, second.ID)
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindIllegalStateDeletion, apierror.KindOf(apierr))

	require.Nil(t, env.history.Delete(env.admin, first.ID))

	gone, err := env.historyRepo.FindByID(first.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	apierr = env.history.Delete(env.admin, first.ID)
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(apierr))
}

func TestStatusHistory_DemoteClearsCase(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	row, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.Nil(t, apierr)

	updated, apierr := env.history.Update(env.admin, row.ID, &contract.UpdateStatusRequest{IsActive: boolPtr(false)})
	require.Nil(t, apierr)
	assert.False(t, updated.IsActive)

	stored := env.reload(t, process.ID)
	assert.Nil(t, stored.CaseStatusID)
	assert.Empty(t, env.activeRows(t, process.ID))
}

func TestStatusHistory_DemoteFallsBackToRemainingActiveRow(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	first, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.Nil(t, apierr)
	second, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeFiled})
	require.Nil(t, apierr)

	// Legacy data may carry more than one active row
	require.NoError(t, env.db.Model(&entity.IndividualProcessStatus{}).
		Where("id = ?", first.ID).
		Update("is_active", true).Error)
	require.Len(t, env.activeRows(t, process.ID), 2)

	_, apierr = env.history.Update(env.admin, second.ID, &contract.UpdateStatusRequest{IsActive: boolPtr(false)})
	require.Nil(t, apierr)

	active := env.activeRows(t, process.ID)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	stored := env.reload(t, process.ID)
	require.NotNil(t, stored.CaseStatusID)
	assert.Equal(t, env.status(t, workflow.CodeInPreparation).ID, *stored.CaseStatusID)
}

func TestStatusHistory_PromoteValidatesTransition(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	backdated, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{
		Status:   workflow.CodeApproved,
		IsActive: boolPtr(false),
	})
	require.Nil(t, apierr)

	_, apierr = env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.Nil(t, apierr)

	_, apierr = env.history.Update(env.admin, backdated.ID, &contract.UpdateStatusRequest{IsActive: boolPtr(true)})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindInvalidTransition, apierror.KindOf(apierr))

	_, apierr = env.history.Update(env.admin, backdated.ID, &contract.UpdateStatusRequest{
		StatusName: strPtr(workflow.CodeFiled),
		IsActive:   boolPtr(true),
	})
	require.Nil(t, apierr)

	active := env.activeRows(t, process.ID)
	require.Len(t, active, 1)
	assert.Equal(t, backdated.ID, active[0].ID)
	assert.Equal(t, env.status(t, workflow.CodeFiled).ID, *env.reload(t, process.ID).CaseStatusID)
}

func TestStatusHistory_UpdateNotesOnly(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	row, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.Nil(t, apierr)

	updated, apierr := env.history.Update(env.admin, row.ID, &contract.UpdateStatusRequest{Notes: strPtr("documentos recebidos")})
	require.Nil(t, apierr)
	assert.Equal(t, "documentos recebidos", updated.Notes)
	assert.True(t, updated.IsActive)
	assert.EqualValues(t, 1, env.reload(t, process.ID).Version)
}

func TestStatusHistory_StaleVersionConflicts(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)
	stale := env.reload(t, process.ID)

	_, apierr := env.changer.Assign(env.admin, process, env.status(t, workflow.CodeInPreparation), "", OriginManual)
	require.Nil(t, apierr)

	_, apierr = env.changer.Assign(env.admin, stale, env.status(t, workflow.CodeFiled), "", OriginManual)
	require.NotNil(t, apierr)
	assert.Same(t, apierror.ConcurrentUpdateError, apierr)

	rows, err := env.historyRepo.FindByProcess(process.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Len(t, env.activeRows(t, process.ID), 1)
}

func TestStatusHistory_ConcurrentAddsKeepOneActive(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	_, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.Nil(t, apierr)

	targets := []string{workflow.CodeFiled, workflow.CodeCancelled, workflow.CodeFiled, workflow.CodeCancelled}
	errs := make([]apierror.ErrorResponse, len(targets))

	var wg sync.WaitGroup
	for i, code := range targets {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			_, errs[i] = env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: code})
		}(i, code)
	}
	wg.Wait()

	succeeded := 0
	for _, e := range errs {
		if e == nil {
			succeeded++
			continue
		}
		kind := apierror.KindOf(e)
		assert.Contains(t, []apierror.Kind{apierror.KindConflict, apierror.KindInvalidTransition}, kind)
	}
	assert.GreaterOrEqual(t, succeeded, 1)

	active := env.activeRows(t, process.ID)
	require.Len(t, active, 1)

	stored := env.reload(t, process.ID)
	require.NotNil(t, stored.CaseStatusID)
	assert.Equal(t, *active[0].CaseStatusID, *stored.CaseStatusID)
}

func TestStatusHistory_ListAndHistoryOrder(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	for _, code := range []string{workflow.CodeInPreparation, workflow.CodeFiled, workflow.CodeUnderAnalysis} {
		_, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: code})
		require.Nil(t, apierr)
	}

	newest, apierr := env.history.List(env.manager, process.ID)
	require.Nil(t, apierr)
	require.Len(t, newest, 3)
	require.NotNil(t, newest[0].ChangedBy)
	assert.Equal(t, env.admin.DisplayName, newest[0].ChangedBy.DisplayName)

	history, apierr := env.history.GetHistory(env.manager, process.ID)
	require.Nil(t, apierr)
	require.Len(t, history, 3)
	assert.Equal(t, workflow.CodeInPreparation, history[0].CaseStatus.Code)
	assert.Equal(t, workflow.CodeUnderAnalysis, history[2].CaseStatus.Code)

	active, apierr := env.history.GetActive(env.manager, process.ID)
	require.Nil(t, apierr)
	require.NotNil(t, active)
	assert.Equal(t, history[2].ID, active.ID)
}

func TestStatusHistory_GetActiveWithoutStatus(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	active, apierr := env.history.GetActive(env.manager, process.ID)
	assert.Nil(t, apierr)
	assert.Nil(t, active)

	_, apierr = env.history.List(env.manager, 12345)
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(apierr))
}

func TestStatusHistory_BroadcastsStatusChanges(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)

	_, apierr := env.history.Add(env.admin, process.ID, &contract.AddStatusRequest{Status: workflow.CodeInPreparation})
	require.Nil(t, apierr)

	assert.Eventually(t, func() bool { return env.events.count() == 1 }, time.Second, 10*time.Millisecond)

	select {
	case entry := <-env.activity.Queue():
		assert.Equal(t, ActionStatusChanged, entry.Action)
		assert.Equal(t, entity.EntityIndividualProcess, entry.EntityType)
		assert.Equal(t, process.ID, entry.EntityID)
	default:
		t.Fatal("expected a scheduled activity entry")
	}
}
