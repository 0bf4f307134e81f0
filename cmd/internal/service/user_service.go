package service

import (
	"strconv"

	"casetrack/cmd/internal/contract"
	"casetrack/cmd/internal/domain/entity"
	"casetrack/cmd/internal/domain/policy"
	"casetrack/cmd/internal/utils/apierror"

	"github.com/labstack/gommon/log"
)

type UserService struct {
	UserRepo UserRepository
	Policy   *policy.WorkflowPolicy
}

func NewUserService(userRepo UserRepository, workflowPolicy *policy.WorkflowPolicy) *UserService {
	return &UserService{
		UserRepo: userRepo,
		Policy:   workflowPolicy,
	}
}

// GetUser resolves "@me" to the actor, anything else is read as a user id.
func (u *UserService) GetUser(actor *entity.User, rawId string) (*contract.UserResponse, apierror.ErrorResponse) {
	if rawId == "@me" {
		return toUserResponse(actor), nil
	}

	if perr := u.Policy.CanView(actor); perr != nil {
		return nil, perr
	}

	userId, err := strconv.ParseInt(rawId, 10, 64)
	if err != nil {
		return nil, apierror.NewInvalidParamTypeError("id", "int64")
	}

	user, err := u.UserRepo.FindByID(userId)
	if err != nil {
		log.Errorf("failed to find user (%s) by id: %v", rawId, err)
		return nil, apierror.InternalServerError
	}

	if user == nil {
		return nil, apierror.NewNotFoundError("User", userId)
	}
	return toUserResponse(user), nil
}
