package model

import "time"

type UserRole string

const (
	RoleRequester UserRole = "requester"
	RoleValidator UserRole = "validator"
	RoleAdmin     UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel
	Name         string   `gorm:"size:100" json:"name"`
	Email        string   `gorm:"size:100;uniqueIndex" json:"email"`
	Password     string   `gorm:"size:100" json:"-"`
	Role         UserRole `gorm:"size:20;default:'requester'" json:"role"`
	SupervisorID uint     `gorm:"index;type:bigint unsigned" json:"supervisorId"` // 0 = 无上级
	LastActiveAt *time.Time `json:"lastActiveAt,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// swagger:model Group
type Group struct {
	BaseModel
	Name    string        `gorm:"size:100" json:"name"`
	Members []GroupMember `gorm:"foreignKey:GroupID" json:"members,omitempty"`
}

func (Group) TableName() string {
	return "groups"
}

type GroupMember struct {
	BaseModel
	GroupID uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_group_user" json:"groupId"`
	UserID  uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_group_user" json:"userId"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

// ValidatorSubstitute 审批人在有效期窗口内的代理人
type ValidatorSubstitute struct {
	BaseModel
	UserID       uint       `gorm:"index;type:bigint unsigned" json:"userId"`
	SubstituteID uint       `gorm:"index;type:bigint unsigned" json:"substituteId"`
	StartDate    *time.Time `json:"startDate"` // nil = 不限起始
	EndDate      *time.Time `json:"endDate"`   // nil = 不限结束
}

func (ValidatorSubstitute) TableName() string {
	return "validator_substitutes"
}

// ActiveAt 判断代理关系在某时刻是否生效
func (s *ValidatorSubstitute) ActiveAt(at time.Time) bool {
	if s.StartDate != nil && at.Before(*s.StartDate) {
		return false
	}
	if s.EndDate != nil && at.After(*s.EndDate) {
		return false
	}
	return true
}
