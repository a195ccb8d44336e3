package controller

import (
	"errors"

	"formflow_backend/internal/model"
	"formflow_backend/internal/repository"
	"formflow_backend/internal/service"
	"formflow_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TicketController struct {
	Tickets    *repository.TicketRepository
	Targets    *repository.TargetRepository
	Aggregator *service.AggregatorService
}

func NewTicketController(tickets *repository.TicketRepository, targets *repository.TargetRepository, aggregator *service.AggregatorService) *TicketController {
	return &TicketController{Tickets: tickets, Targets: targets, Aggregator: aggregator}
}

// Get godoc
// @Summary 工单详情
// @Tags 工单
// @Produce  json
// @Param   id path int true "工单 ID"
// @Success 200 {object} util.Response{data=model.Ticket}
// @Failure 404 {object} util.Response
// @Router /api/tickets/{id} [get]
func (c *TicketController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	ticket, err := c.Tickets.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, ticket)
}

type TicketStatusRequest struct {
	Status int `json:"status" binding:"required,min=1,max=6"`
}

// UpdateStatus godoc
// @Summary 变更工单状态
// @Description 变更后同步刷新所属提交的聚合状态
// @Tags 工单
// @Accept  json
// @Produce  json
// @Param   id path int true "工单 ID"
// @Param   body body TicketStatusRequest true "目标状态"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/tickets/{id}/status [put]
func (c *TicketController) UpdateStatus(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	var req TicketStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if _, err := c.Tickets.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	if err := c.Aggregator.UpdateTicketStatus(id, req.Status); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"status": req.Status, "label": model.StatusLabel(req.Status)})
}

// ForSubmission godoc
// @Summary 某提交生成的工单
// @Tags 工单
// @Produce  json
// @Param   id path int true "提交 ID"
// @Success 200 {object} util.Response{data=[]model.Ticket}
// @Router /api/submissions/{id}/tickets [get]
func (c *TicketController) ForSubmission(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	tickets, err := c.Tickets.LiveForSubmission(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, tickets)
}

// GeneratedTargets godoc
// @Summary 某提交的全部生成记录
// @Description 含工单与通知类目标，工单被删除后记录仍保留
// @Tags 工单
// @Produce  json
// @Param   id path int true "提交 ID"
// @Success 200 {object} util.Response{data=[]model.GeneratedTarget}
// @Router /api/submissions/{id}/targets [get]
func (c *TicketController) GeneratedTargets(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	generated, err := c.Targets.GeneratedFor(id)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, generated)
}
