package service

import (
	"errors"
	"time"

	"formflow_backend/internal/model"
	"formflow_backend/internal/repository"
	"formflow_backend/internal/util"

	"gorm.io/gorm"
)

// UserService 审批人目录：组、组成员与代理安排
type UserService struct {
	Users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{Users: users}
}

func (s *UserService) Get(id uint) (*model.User, error) {
	user, err := s.Users.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) CreateGroup(group *model.Group) error {
	return s.Users.CreateGroup(group)
}

func (s *UserService) AddGroupMember(groupID, userID uint) error {
	if _, err := s.Get(userID); err != nil {
		return err
	}
	return s.Users.AddGroupMember(groupID, userID)
}

// CreateSubstitute 为某审批人登记一个有时间窗的代理，nil 表示不限
func (s *UserService) CreateSubstitute(validatorID, substituteID uint, start, end *time.Time) error {
	if _, err := s.Get(validatorID); err != nil {
		return err
	}
	if _, err := s.Get(substituteID); err != nil {
		return err
	}
	return s.Users.CreateSubstitute(&model.ValidatorSubstitute{
		UserID:       validatorID,
		SubstituteID: substituteID,
		StartDate:    start,
		EndDate:      end,
	})
}
