package controller

import (
	"errors"
	"strconv"

	"formflow_backend/internal/service"
	"formflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type SubmissionController struct {
	SubmissionService *service.SubmissionService
	ApprovalService   *service.ApprovalService
	Notifier          *service.NotificationService
}

func NewSubmissionController(submissionService *service.SubmissionService, approvalService *service.ApprovalService, notifier *service.NotificationService) *SubmissionController {
	return &SubmissionController{
		SubmissionService: submissionService,
		ApprovalService:   approvalService,
		Notifier:          notifier,
	}
}

// Create godoc
// @Summary 提交表单
// @Description 校验答案并创建提交，按表单配置进入审批链或直接生成下游对象
// @Tags 提交
// @Accept  json
// @Produce  json
// @Param   body body service.SubmitRequest true "提交内容"
// @Success 201 {object} util.Response{data=model.Submission}
// @Failure 400 {object} util.Response "答案校验失败或缺少审批人"
// @Failure 404 {object} util.Response "表单不存在"
// @Failure 422 {object} util.Response "表单未开放提交"
// @Router /api/submissions [post]
func (c *SubmissionController) Create(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.SubmissionService.Create(claims.UserID, req)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Created(ctx, submission)
}

// Update godoc
// @Summary 更新提交
// @Description 审批表态（accept/refuse）、审批途中修改答案，或提交人对被拒提交重新提交
// @Tags 提交
// @Accept  json
// @Produce  json
// @Param   id path int true "提交 ID"
// @Param   body body service.UpdateRequest true "更新内容"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 400 {object} util.Response "拒绝时缺少审批意见或答案校验失败"
// @Failure 403 {object} util.Response "不是当前级审批人"
// @Failure 404 {object} util.Response "提交不存在"
// @Router /api/submissions/{id} [put]
func (c *SubmissionController) Update(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	var req service.UpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	submission, err := c.SubmissionService.Update(id, claims.UserID, req)
	if err != nil {
		c.renderError(ctx, err)
		return
	}

	util.Success(ctx, submission)
}

// Get godoc
// @Summary 提交详情
// @Tags 提交
// @Produce  json
// @Param   id path int true "提交 ID"
// @Success 200 {object} util.Response{data=model.Submission}
// @Failure 404 {object} util.Response
// @Router /api/submissions/{id} [get]
func (c *SubmissionController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	submission, err := c.SubmissionService.Get(id)
	if err != nil {
		if errors.Is(err, util.ErrSubmissionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, submission)
}

// List godoc
// @Summary 提交列表
// @Tags 提交
// @Produce  json
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Param   formId query int false "按表单过滤"
// @Param   status query int false "按状态过滤"
// @Success 200 {object} util.PageResponse
// @Router /api/submissions [get]
func (c *SubmissionController) List(ctx *gin.Context) {
	page, limit := util.PageParams(ctx)
	formID := util.MustParseUint(ctx.DefaultQuery("formId", "0"))
	status, _ := strconv.Atoi(ctx.DefaultQuery("status", "0"))

	submissions, total, err := c.SubmissionService.List(page, limit, formID, status)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  submissions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// FullForm godoc
// @Summary 提交的完整文本渲染
// @Description 按分区/问题顺序渲染整份提交，隐藏项不出现；rich=true 时输出 HTML
// @Tags 提交
// @Produce  json
// @Param   id path int true "提交 ID"
// @Param   rich query bool false "是否输出 HTML"
// @Success 200 {object} util.Response{data=object}
// @Failure 404 {object} util.Response
// @Router /api/submissions/{id}/full-form [get]
func (c *SubmissionController) FullForm(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	rich := ctx.DefaultQuery("rich", "false") == "true"

	text, err := c.SubmissionService.FullFormText(id, rich)
	if err != nil {
		if errors.Is(err, util.ErrSubmissionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"content": text})
}

// Approvers godoc
// @Summary 提交的审批记录
// @Tags 提交
// @Produce  json
// @Param   id path int true "提交 ID"
// @Param   current query bool false "只看当前级"
// @Success 200 {object} util.Response{data=[]model.ValidationEntry}
// @Router /api/submissions/{id}/approvers [get]
func (c *SubmissionController) Approvers(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	currentOnly := ctx.DefaultQuery("current", "false") == "true"

	entries, err := c.ApprovalService.Approvers(id, currentOnly)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, entries)
}

// Notifications godoc
// @Summary 提交的通知历史
// @Description 该提交生命周期内发出的全部通知，含投递失败的记录
// @Tags 提交
// @Produce  json
// @Param   id path int true "提交 ID"
// @Success 200 {object} util.Response{data=[]model.NotificationLog}
// @Router /api/submissions/{id}/notifications [get]
func (c *SubmissionController) Notifications(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	logs, err := c.Notifier.History(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, logs)
}

// Delete godoc
// @Summary 删除提交
// @Description 彻底删除提交及其答案与审批记录，仅管理员或提交人本人
// @Tags 提交
// @Produce  json
// @Param   id path int true "提交 ID"
// @Success 200 {object} util.Response
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/submissions/{id} [delete]
func (c *SubmissionController) Delete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	id := util.MustParseUint(ctx.Param("id"))
	if err := c.SubmissionService.Purge(id, claims.UserID); err != nil {
		c.renderError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// renderError 把服务层错误映射到 HTTP 语义
func (c *SubmissionController) renderError(ctx *gin.Context, err error) {
	if invalid, ok := util.AsInvalidInput(err); ok {
		util.Error(ctx, 400, invalid.Error())
		return
	}
	switch {
	case errors.Is(err, util.ErrFormNotFound), errors.Is(err, util.ErrSubmissionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrFormInactive):
		util.Error(ctx, 422, err.Error())
	case errors.Is(err, util.ErrMissingValidator),
		errors.Is(err, util.ErrCommentRequired),
		errors.Is(err, util.ErrSubmissionNotWaiting),
		errors.Is(err, util.ErrSubmissionNotEditable):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrAuthorizationDenied):
		util.Forbidden(ctx, err.Error())
	case errors.Is(err, util.ErrGenerationFailure):
		// 提交仍在，回退到等待态重试
		util.Error(ctx, 500, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
