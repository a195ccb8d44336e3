package model

// 工单状态，数值越小越靠前（越"未完成"），聚合时取最小值
const (
	TicketIncoming = 1
	TicketAssigned = 2
	TicketPlanned  = 3
	TicketWaiting  = 4 // 等待提交人补充信息
	TicketSolved   = 5
	TicketClosed   = 6
)

// swagger:model Ticket
type Ticket struct {
	BaseModel
	Title       string `gorm:"size:255" json:"title"`
	Content     string `gorm:"type:text" json:"content"`
	Status      int    `gorm:"default:1" json:"status"`
	RequesterID uint   `gorm:"index;type:bigint unsigned" json:"requesterId"`
	AssigneeID  uint   `gorm:"type:bigint unsigned;default:0" json:"assigneeId"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// TicketLink 同一次提交生成的工单之间的关联
type TicketLink struct {
	BaseModel
	TicketID       uint `gorm:"index;type:bigint unsigned" json:"ticketId"`
	LinkedTicketID uint `gorm:"index;type:bigint unsigned" json:"linkedTicketId"`
}

func (TicketLink) TableName() string {
	return "ticket_links"
}
