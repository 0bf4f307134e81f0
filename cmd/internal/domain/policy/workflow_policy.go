package policy

import (
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/utils/apierror"
)

const (
	admin        = entity.PermissionAdministrator
	viewCases    = entity.PermissionViewCases
	manageCases  = entity.PermissionManageCases
	viewActivity = entity.PermissionViewActivity
)

// WorkflowPolicy encapsulates who may read and who may drive the status workflow.
// It returns apierror.ErrorResponse directly for seamless integration with handlers.
type WorkflowPolicy struct{}

func NewWorkflowPolicy() *WorkflowPolicy {
	return &WorkflowPolicy{}
}

// RequireAdmin guards every mutation of the catalog and of status histories.
func (p *WorkflowPolicy) RequireAdmin(actor *entity.User) apierror.ErrorResponse {
	if actor == nil {
		return apierror.UnauthorizedError
	}

	if !actor.Permissions.Has(admin) {
		return apierror.AdminRequiredError
	}
	return nil
}

func (p *WorkflowPolicy) CanView(actor *entity.User) apierror.ErrorResponse {
	return require(actor, viewCases)
}

// CanManageCases allows registering people and processes. Status changes
// still go through RequireAdmin.
func (p *WorkflowPolicy) CanManageCases(actor *entity.User) apierror.ErrorResponse {
	return require(actor, manageCases)
}

func (p *WorkflowPolicy) CanViewActivity(actor *entity.User) apierror.ErrorResponse {
	return require(actor, viewActivity)
}

func require(actor *entity.User, perm entity.Permission) apierror.ErrorResponse {
	if actor == nil {
		return apierror.UnauthorizedError
	}

	if !actor.Permissions.HasEffective(perm) {
		return permError(perm)
	}
	return nil
}

func permError(perm entity.Permission) *apierror.APIError {
	return apierror.NewPermissionError(int64(perm))
}
