package controller

import (
	"errors"
	"time"

	"formflow_backend/internal/model"
	"formflow_backend/internal/service"
	"formflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

type CreateGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateGroup godoc
// @Summary 创建审批组
// @Tags 用户
// @Accept  json
// @Produce  json
// @Param   body body CreateGroupRequest true "组信息"
// @Success 201 {object} util.Response{data=model.Group}
// @Router /api/groups [post]
func (c *UserController) CreateGroup(ctx *gin.Context) {
	var req CreateGroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	group := &model.Group{Name: req.Name}
	if err := c.UserService.CreateGroup(group); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, group)
}

type AddMemberRequest struct {
	UserID uint `json:"userId" binding:"required"`
}

// AddGroupMember godoc
// @Summary 向审批组添加成员
// @Tags 用户
// @Accept  json
// @Produce  json
// @Param   id path int true "组 ID"
// @Param   body body AddMemberRequest true "成员"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/groups/{id}/members [post]
func (c *UserController) AddGroupMember(ctx *gin.Context) {
	groupID := util.MustParseUint(ctx.Param("id"))
	var req AddMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.AddGroupMember(groupID, req.UserID); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

type CreateSubstituteRequest struct {
	ValidatorID  uint       `json:"validatorId" binding:"required"`
	SubstituteID uint       `json:"substituteId" binding:"required"`
	StartDate    *time.Time `json:"startDate"`
	EndDate      *time.Time `json:"endDate"`
}

// CreateSubstitute godoc
// @Summary 登记审批代理
// @Description 为某审批人登记一个有时间窗的代理人，窗口边界为空表示不限
// @Tags 用户
// @Accept  json
// @Produce  json
// @Param   body body CreateSubstituteRequest true "代理安排"
// @Success 201 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/substitutes [post]
func (c *UserController) CreateSubstitute(ctx *gin.Context) {
	var req CreateSubstituteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.UserService.CreateSubstitute(req.ValidatorID, req.SubstituteID, req.StartDate, req.EndDate); err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, nil)
}
