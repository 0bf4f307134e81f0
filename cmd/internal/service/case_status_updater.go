package service

import (
	"slices"

	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/workflow"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

// caseStatusUpdater acts as a "Change Set" context.
// It accumulates errors and tracks if a save is actually needed.
type caseStatusUpdater struct {
	repo   CaseStatusRepository
	target *entity.CaseStatus

	// State
	err         apierror.ErrorResponse
	dirty       bool
	changed     []string
	renamedFrom string
}

// setCode renames the entry. Codes of entries holding cases are frozen.
func (u *caseStatusUpdater) setCode(newVal *string) {
	if u.err != nil || newVal == nil || *newVal == u.target.Code {
		return
	}

	count, err := u.repo.CountProcessesByStatus(u.target.ID)
	if err != nil {
		u.fail("count cases of", err)
		return
	}

	if count > 0 {
		u.err = apierror.StatusInUseError
		return
	}

	existing, err := u.repo.FindByCode(*newVal)
	if err != nil {
		u.fail("check code of", err)
		return
	}

	if existing != nil {
		u.err = apierror.DuplicateCodeError
		return
	}

	u.renamedFrom = u.target.Code
	u.target.Code = *newVal
	u.mark("code")
}

func (u *caseStatusUpdater) setOrderNumber(newVal *int, clear bool) {
	if u.err != nil {
		return
	}

	if clear {
		if u.target.OrderNumber != nil {
			u.target.OrderNumber = nil
			u.mark("order_number")
		}
		return
	}

	if newVal == nil {
		return
	}

	if u.target.OrderNumber != nil && *u.target.OrderNumber == *newVal {
		return
	}

	holder, err := u.repo.FindByOrderNumber(*newVal)
	if err != nil {
		u.fail("check order number of", err)
		return
	}

	if holder != nil && holder.ID != u.target.ID {
		u.err = apierror.DuplicateOrderNumberError
		return
	}

	n := *newVal
	u.target.OrderNumber = &n
	u.mark("order_number")
}

// setString handles the plain display fields (name, color, etc.)
func (u *caseStatusUpdater) setString(field string, newVal *string, targetField *string) {
	if u.err != nil || newVal == nil || *newVal == *targetField {
		return
	}

	*targetField = *newVal
	u.mark(field)
}

func (u *caseStatusUpdater) setSortOrder(newVal *int) {
	if u.err != nil || newVal == nil || *newVal == u.target.SortOrder {
		return
	}

	u.target.SortOrder = *newVal
	u.mark("sort_order")
}

func (u *caseStatusUpdater) setFillableFields(newVal []string) {
	if u.err != nil || newVal == nil {
		return
	}

	if slices.Equal(newVal, u.target.FillableFieldList()) {
		return
	}

	u.target.FillableFields = entity.JoinList(newVal)
	u.mark("fillable_fields")
}

// setAllowedNext replaces the outgoing transitions. Every target must be in the
// catalog and none may be the entry itself.
func (u *caseStatusUpdater) setAllowedNext(newVal []string) {
	if u.err != nil || newVal == nil {
		return
	}

	if slices.Equal(newVal, u.target.AllowedNextCodes()) {
		return
	}

	if slices.Contains(newVal, u.target.Code) {
		u.err = apierror.NewSelfTransitionError(u.target.Code)
		return
	}

	catalog, err := u.repo.FindAll(true)
	if err != nil {
		u.fail("load catalog for", err)
		return
	}

	known := make([]string, 0, len(catalog))
	for _, status := range catalog {
		if status.ID != u.target.ID {
			known = append(known, status.Code)
		}
	}

	if unknown := workflow.UnknownTargets(newVal, known); len(unknown) > 0 {
		u.err = apierror.NewUnknownStatusCodesError(unknown)
		return
	}

	u.target.AllowedNext = entity.JoinList(newVal)
	u.mark("allowed_next")
}

func (u *caseStatusUpdater) mark(field string) {
	u.dirty = true
	u.changed = append(u.changed, field)
}

func (u *caseStatusUpdater) fail(op string, err error) {
	log.Errorf("failed to %s case status %d: %v", op, u.target.ID, err)
	u.err = apierror.InternalServerError
}
