package controller

import (
	"formflow_backend/internal/service"
	"formflow_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type IssueController struct {
	IssueService *service.IssueService
}

func NewIssueController(issueService *service.IssueService) *IssueController {
	return &IssueController{IssueService: issueService}
}

// Mine godoc
// @Summary 我的 Issue 列表
// @Description 提交人视角的统一跟踪记录，含聚合后的下游状态
// @Tags Issue
// @Produce  json
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.PageResponse
// @Router /api/issues [get]
func (c *IssueController) Mine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page, limit := util.PageParams(ctx)

	issues, total, err := c.IssueService.ListForRequester(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  issues,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
