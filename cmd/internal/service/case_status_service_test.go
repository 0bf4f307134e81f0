package service

import (
	"testing"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/workflow"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseStatus_CreateRejectsDuplicateCode(t *testing.T) {
	env := newTestEnv(t)

	_, apierr := env.catalog.Create(env.admin, &contract.CreateCaseStatusRequest{
		Code: workflow.CodeFiled,
		Name: "Protocolado outra vez",
	})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(apierr))
}

func TestCaseStatus_CreateRejectsDuplicateOrderNumber(t *testing.T) {
	env := newTestEnv(t)

	_, apierr := env.catalog.Create(env.admin, &contract.CreateCaseStatusRequest{
		Code:        "recurso",
		Name:        "Recurso",
		OrderNumber: intPtr(2),
	})
	require.NotNil(t, apierr)
	assert.Same(t, apierror.DuplicateOrderNumberError, apierr)
}

func TestCaseStatus_CreateDefaultsAndRebuildsWorkflow(t *testing.T) {
	env := newTestEnv(t)

	created, apierr := env.catalog.Create(env.admin, &contract.CreateCaseStatusRequest{
		Code:        "recurso",
		Name:        "Recurso",
		Color:       "#112233",
		AllowedNext: []string{workflow.CodeUnderAnalysis},
	})
	require.Nil(t, apierr)

	assert.True(t, created.IsActive)
	assert.Equal(t, len(workflow.DefaultCatalog)+1, created.SortOrder)
	assert.Nil(t, created.OrderNumber)
	assert.True(t, env.machine.Current().CanTransition("recurso", workflow.CodeUnderAnalysis))
}

func TestCaseStatus_CreateRejectsUnknownTargets(t *testing.T) {
	env := newTestEnv(t)

	_, apierr := env.catalog.Create(env.admin, &contract.CreateCaseStatusRequest{
		Code:        "recurso",
		Name:        "Recurso",
		AllowedNext: []string{"nao_existe"},
	})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(apierr))
}

func TestCaseStatus_RejectsSelfTransition(t *testing.T) {
	env := newTestEnv(t)

	_, apierr := env.catalog.Create(env.admin, &contract.CreateCaseStatusRequest{
		Code:        "recurso",
		Name:        "Recurso",
		AllowedNext: []string{"recurso", workflow.CodeUnderAnalysis},
	})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(apierr))

	filed := env.status(t, workflow.CodeFiled)
	_, apierr = env.catalog.Update(env.admin, filed.ID, &contract.UpdateCaseStatusRequest{
		AllowedNext: []string{workflow.CodeFiled, workflow.CodeUnderAnalysis},
	})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(apierr))
	assert.Contains(t, apierror.MessageOf(apierr), "allowed_next")

	stored := env.status(t, workflow.CodeFiled)
	assert.Equal(t, filed.AllowedNext, stored.AllowedNext)
}

func TestCaseStatus_CreateRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)

	_, apierr := env.catalog.Create(env.manager, &contract.CreateCaseStatusRequest{Code: "recurso", Name: "Recurso"})
	require.NotNil(t, apierr)
	assert.Equal(t, apierror.KindUnauthorized, apierror.KindOf(apierr))
}

func TestCaseStatus_GetNextByOrderNumber(t *testing.T) {
	env := newTestEnv(t)

	next, apierr := env.catalog.GetNextByOrderNumber(env.manager, intPtr(1))
	require.Nil(t, apierr)
	require.NotNil(t, next)
	assert.Equal(t, workflow.CodeFiled, next.Code)

	none, apierr := env.catalog.GetNextByOrderNumber(env.manager, nil)
	assert.Nil(t, apierr)
	assert.Nil(t, none)

	last, apierr := env.catalog.GetNextByOrderNumber(env.manager, intPtr(len(workflow.SequentialCodes)))
	assert.Nil(t, apierr)
	assert.Nil(t, last)
}

func TestCaseStatus_GetNextSkipsInactive(t *testing.T) {
	env := newTestEnv(t)
	filed := env.status(t, workflow.CodeFiled)

	_, apierr := env.catalog.ToggleActive(env.admin, filed.ID, &contract.ToggleCaseStatusRequest{Active: boolPtr(false)})
	require.Nil(t, apierr)

	next, apierr := env.catalog.GetNextByOrderNumber(env.manager, intPtr(1))
	require.Nil(t, apierr)
	require.NotNil(t, next)
	assert.Equal(t, workflow.CodeUnderAnalysis, next.Code)
}

func TestCaseStatus_InUseGuards(t *testing.T) {
	env := newTestEnv(t)
	process := env.newCase(t)
	prep := env.status(t, workflow.CodeInPreparation)

	_, apierr := env.changer.Assign(env.admin, process, prep, "", OriginManual)
	require.Nil(t, apierr)

	t.Run("remove", func(t *testing.T) {
		apierr := env.catalog.Remove(env.admin, prep.ID)
		require.NotNil(t, apierr)
		assert.Equal(t, apierror.KindInUse, apierror.KindOf(apierr))
	})

	t.Run("deactivate", func(t *testing.T) {
		_, apierr := env.catalog.ToggleActive(env.admin, prep.ID, &contract.ToggleCaseStatusRequest{Active: boolPtr(false)})
		require.NotNil(t, apierr)
		assert.Equal(t, apierror.KindInUse, apierror.KindOf(apierr))
	})

	t.Run("code change rejects the whole patch", func(t *testing.T) {
		_, apierr := env.catalog.Update(env.admin, prep.ID, &contract.UpdateCaseStatusRequest{
			Code: strPtr("preparacao"),
			Name: strPtr("Preparação"),
		})
		require.NotNil(t, apierr)
		assert.Equal(t, apierror.KindInUse, apierror.KindOf(apierr))

		stored := env.status(t, workflow.CodeInPreparation)
		assert.Equal(t, prep.Name, stored.Name)
	})

	t.Run("other fields stay editable", func(t *testing.T) {
		updated, apierr := env.catalog.Update(env.admin, prep.ID, &contract.UpdateCaseStatusRequest{Color: strPtr("#000000")})
		require.Nil(t, apierr)
		assert.Equal(t, "#000000", updated.Color)
	})
}

func TestCaseStatus_RemoveIsSoft(t *testing.T) {
	env := newTestEnv(t)
	denied := env.status(t, workflow.CodeDenied)

	require.Nil(t, env.catalog.Remove(env.admin, denied.ID))

	stored := env.status(t, workflow.CodeDenied)
	assert.False(t, stored.IsActive)
	assert.False(t, env.machine.Current().CanTransition(workflow.CodeUnderAnalysis, workflow.CodeDenied))
}

func TestCaseStatus_UpdateRenamesTransitionTargets(t *testing.T) {
	env := newTestEnv(t)
	addendum := env.status(t, workflow.CodeDocumentAddendum)

	_, apierr := env.catalog.Update(env.admin, addendum.ID, &contract.UpdateCaseStatusRequest{Code: strPtr("juntada")})
	require.Nil(t, apierr)

	filed := env.status(t, workflow.CodeFiled)
	assert.Contains(t, filed.AllowedNextCodes(), "juntada")
	assert.NotContains(t, filed.AllowedNextCodes(), workflow.CodeDocumentAddendum)
	assert.True(t, env.machine.Current().CanTransition(workflow.CodeFiled, "juntada"))
}

func TestCaseStatus_UpdateOrderNumber(t *testing.T) {
	env := newTestEnv(t)
	requirement := env.status(t, workflow.CodeRequirement)

	_, apierr := env.catalog.Update(env.admin, requirement.ID, &contract.UpdateCaseStatusRequest{OrderNumber: intPtr(1)})
	require.NotNil(t, apierr)
	assert.Same(t, apierror.DuplicateOrderNumberError, apierr)

	updated, apierr := env.catalog.Update(env.admin, requirement.ID, &contract.UpdateCaseStatusRequest{OrderNumber: intPtr(9)})
	require.Nil(t, apierr)
	require.NotNil(t, updated.OrderNumber)
	assert.Equal(t, 9, *updated.OrderNumber)

	cleared, apierr := env.catalog.Update(env.admin, requirement.ID, &contract.UpdateCaseStatusRequest{ClearOrderNumber: true})
	require.Nil(t, apierr)
	assert.Nil(t, cleared.OrderNumber)
}

func TestCaseStatus_ReorderReportsEachItem(t *testing.T) {
	env := newTestEnv(t)
	prep := env.status(t, workflow.CodeInPreparation)
	filed := env.status(t, workflow.CodeFiled)

	result, apierr := env.catalog.Reorder(env.admin, &contract.ReorderRequest{Items: []*contract.ReorderItem{
		{ID: prep.ID, SortOrder: 20},
		{ID: 42, SortOrder: 1},
		{ID: filed.ID, SortOrder: 10},
	}})
	require.Nil(t, apierr)

	assert.Equal(t, []int64{prep.ID, filed.ID}, result.Successful)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, int64(42), result.Failed[0].ID)
	assert.Equal(t, string(apierror.KindNotFound), result.Failed[0].Reason)

	statuses, apierr := env.catalog.ListActive(env.manager)
	require.Nil(t, apierr)
	assert.Equal(t, workflow.CodeFiled, statuses[len(statuses)-2].Code)
	assert.Equal(t, workflow.CodeInPreparation, statuses[len(statuses)-1].Code)
}

func TestCaseStatus_Transitions(t *testing.T) {
	env := newTestEnv(t)

	resp, apierr := env.catalog.Transitions(env.manager)
	require.Nil(t, apierr)

	assert.ElementsMatch(t, workflow.DefaultTransitions()[workflow.CodeFiled], resp.Edges[workflow.CodeFiled])
	assert.Contains(t, resp.Terminal, workflow.CodeCancelled)
	assert.NotContains(t, resp.Terminal, workflow.CodeInPreparation)
}
