package repository

import (
	"formflow_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	err := r.DB.First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) UpdateLastActive(userID uint) error {
	now := time.Now()
	return r.DB.Model(&model.User{}).Where("id = ?", userID).Update("last_active_at", &now).Error
}

func (r *UserRepository) IsGroupMember(userID, groupID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.GroupMember{}).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Count(&count).Error
	return count > 0, err
}

func (r *UserRepository) GroupIDsOf(userID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.GroupMember{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	return ids, err
}

// IsSubstituteOf 判断 actor 在当前时刻是否为 validator 的有效代理人
func (r *UserRepository) IsSubstituteOf(actorID, validatorID uint, at time.Time) (bool, error) {
	var subs []model.ValidatorSubstitute
	err := r.DB.Where("user_id = ? AND substitute_id = ?", validatorID, actorID).Find(&subs).Error
	if err != nil {
		return false, err
	}
	for _, s := range subs {
		if s.ActiveAt(at) {
			return true, nil
		}
	}
	return false, nil
}

func (r *UserRepository) CreateGroup(group *model.Group) error {
	return r.DB.Create(group).Error
}

func (r *UserRepository) AddGroupMember(groupID, userID uint) error {
	return r.DB.Create(&model.GroupMember{GroupID: groupID, UserID: userID}).Error
}

func (r *UserRepository) CreateSubstitute(sub *model.ValidatorSubstitute) error {
	return r.DB.Create(sub).Error
}
