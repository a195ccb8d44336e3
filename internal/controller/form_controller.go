package controller

import (
	"errors"

	"formflow_backend/internal/service"
	"formflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FormController struct {
	FormService *service.FormService
}

func NewFormController(formService *service.FormService) *FormController {
	return &FormController{FormService: formService}
}

// Create godoc
// @Summary 创建表单
// @Description 创建完整的表单定义：分区、问题、审批链、目标模板与可见性规则
// @Tags 表单
// @Accept  json
// @Produce  json
// @Param   body body service.FormInput true "表单定义"
// @Success 201 {object} util.Response{data=model.Form}
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/forms [post]
func (c *FormController) Create(ctx *gin.Context) {
	var input service.FormInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	form, err := c.FormService.Create(input)
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Created(ctx, form)
}

// Get godoc
// @Summary 表单详情
// @Tags 表单
// @Produce  json
// @Param   id path int true "表单 ID"
// @Success 200 {object} util.Response{data=model.Form}
// @Failure 404 {object} util.Response
// @Router /api/forms/{id} [get]
func (c *FormController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	form, err := c.FormService.Get(id)
	if err != nil {
		if errors.Is(err, util.ErrFormNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, form)
}

// List godoc
// @Summary 表单列表
// @Tags 表单
// @Produce  json
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.PageResponse
// @Router /api/forms [get]
func (c *FormController) List(ctx *gin.Context) {
	page, limit := util.PageParams(ctx)

	forms, total, err := c.FormService.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  forms,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// Update godoc
// @Summary 修改表单元信息
// @Description 修改名称、描述、标题模板与审批阈值；结构性修改请新建表单
// @Tags 表单
// @Accept  json
// @Produce  json
// @Param   id path int true "表单 ID"
// @Param   body body service.FormMetaInput true "表单元信息"
// @Success 200 {object} util.Response{data=model.Form}
// @Failure 404 {object} util.Response
// @Router /api/forms/{id} [put]
func (c *FormController) Update(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	var input service.FormMetaInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	form, err := c.FormService.Update(id, input)
	if err != nil {
		if errors.Is(err, util.ErrFormNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, form)
}

type SetActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// SetActive godoc
// @Summary 上下架表单
// @Tags 表单
// @Accept  json
// @Produce  json
// @Param   id path int true "表单 ID"
// @Param   body body SetActiveRequest true "目标状态"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/forms/{id}/active [put]
func (c *FormController) SetActive(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	var req SetActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.FormService.SetActive(id, *req.IsActive); err != nil {
		if errors.Is(err, util.ErrFormNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// Delete godoc
// @Summary 删除表单
// @Tags 表单
// @Produce  json
// @Param   id path int true "表单 ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/forms/{id} [delete]
func (c *FormController) Delete(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if err := c.FormService.Delete(id); err != nil {
		if errors.Is(err, util.ErrFormNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
