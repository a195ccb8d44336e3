package service

import (
	"testing"

	"formflow_backend/internal/model"
)

func tickets(statuses ...int) []model.Ticket {
	out := make([]model.Ticket, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, model.Ticket{
			BaseModel: model.BaseModel{ID: uint(i + 1)},
			Status:    s,
		})
	}
	return out
}

func TestAggregateNoTickets(t *testing.T) {
	if got := AggregateTicketStatus(nil); got != nil {
		t.Fatalf("无工单时应返回 nil, got %v", *got)
	}
}

func TestAggregateMinimumStatus(t *testing.T) {
	got := AggregateTicketStatus(tickets(model.TicketSolved, model.TicketClosed))
	if got == nil || *got != model.TicketSolved {
		t.Fatalf("应取推进最慢的状态, got %v", got)
	}
}

func TestAggregateAssignedOverrides(t *testing.T) {
	// 已解决 + 已指派 + 等待请求人：已指派优先生效
	got := AggregateTicketStatus(tickets(model.TicketSolved, model.TicketAssigned, model.TicketWaiting))
	if got == nil || *got != model.TicketAssigned {
		t.Fatalf("存在已指派工单时聚合应为已指派, got %v", got)
	}
}

func TestAggregatePlannedOverridesWaiting(t *testing.T) {
	got := AggregateTicketStatus(tickets(model.TicketWaiting, model.TicketPlanned))
	if got == nil || *got != model.TicketPlanned {
		t.Fatalf("无已指派时已排期优先于等待, got %v", got)
	}
}

func TestAggregateWaitingOverridesBase(t *testing.T) {
	got := AggregateTicketStatus(tickets(model.TicketSolved, model.TicketWaiting))
	if got == nil || *got != model.TicketWaiting {
		t.Fatalf("等待请求人应覆盖基准状态, got %v", got)
	}
}

func TestAggregateSingleTicket(t *testing.T) {
	got := AggregateTicketStatus(tickets(model.TicketIncoming))
	if got == nil || *got != model.TicketIncoming {
		t.Fatalf("单工单聚合应等于其自身状态, got %v", got)
	}
}
