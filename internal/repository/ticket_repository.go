package repository

import (
	"formflow_backend/internal/model"

	"gorm.io/gorm"
)

type TicketRepository struct {
	DB *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{DB: db}
}

func (r *TicketRepository) Create(t *model.Ticket) error {
	return r.DB.Create(t).Error
}

func (r *TicketRepository) FindByID(id uint) (*model.Ticket, error) {
	var t model.Ticket
	err := r.DB.First(&t, id).Error
	return &t, err
}

func (r *TicketRepository) UpdateStatus(id uint, status int) error {
	return r.DB.Model(&model.Ticket{}).Where("id = ?", id).Update("status", status).Error
}

func (r *TicketRepository) CreateLink(link *model.TicketLink) error {
	return r.DB.Create(link).Error
}

// LinkExists 两张工单之间是否已有关联，方向不限
func (r *TicketRepository) LinkExists(ticketID, linkedTicketID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.TicketLink{}).
		Where("(ticket_id = ? AND linked_ticket_id = ?) OR (ticket_id = ? AND linked_ticket_id = ?)",
			ticketID, linkedTicketID, linkedTicketID, ticketID).
		Count(&count).Error
	return count > 0, err
}

// LiveForSubmission 返回该提交生成的所有未删除工单，按生成顺序
func (r *TicketRepository) LiveForSubmission(submissionID uint) ([]model.Ticket, error) {
	var tickets []model.Ticket
	err := r.DB.
		Joins("INNER JOIN generated_targets ON generated_targets.item_id = tickets.id AND generated_targets.item_type = ?", model.ItemTicket).
		Where("generated_targets.submission_id = ?", submissionID).
		Order("generated_targets.id asc").
		Find(&tickets).Error
	return tickets, err
}
