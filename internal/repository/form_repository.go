package repository

import (
	"formflow_backend/internal/model"

	"gorm.io/gorm"
)

type FormRepository struct {
	DB *gorm.DB
}

func NewFormRepository(db *gorm.DB) *FormRepository {
	return &FormRepository{DB: db}
}

func (r *FormRepository) Create(form *model.Form) error {
	return r.DB.Create(form).Error
}

func (r *FormRepository) Update(form *model.Form) error {
	return r.DB.Save(form).Error
}

// FindByID 返回完整的表单定义：分区、问题、审批链、目标模板
func (r *FormRepository) FindByID(id uint) (*model.Form, error) {
	var form model.Form
	err := r.DB.
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("display_order asc") }).
		Preload("Sections.Questions", func(db *gorm.DB) *gorm.DB { return db.Order("row asc, col asc") }).
		Preload("Validators", func(db *gorm.DB) *gorm.DB { return db.Order("level asc") }).
		Preload("Targets").
		First(&form, id).Error
	return &form, err
}

func (r *FormRepository) List(page, limit int) ([]model.Form, int64, error) {
	var forms []model.Form
	var total int64
	query := r.DB.Model(&model.Form{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&forms).Error
	return forms, total, err
}

// ConditionsForForm 取出作用于该表单任一实体的全部可见性条件
func (r *FormRepository) ConditionsForForm(form *model.Form) ([]model.Condition, error) {
	sectionIDs := make([]uint, 0, len(form.Sections))
	questionIDs := make([]uint, 0)
	for _, s := range form.Sections {
		sectionIDs = append(sectionIDs, s.ID)
		for _, q := range s.Questions {
			questionIDs = append(questionIDs, q.ID)
		}
	}
	targetIDs := make([]uint, 0, len(form.Targets))
	for _, t := range form.Targets {
		targetIDs = append(targetIDs, t.ID)
	}

	var conditions []model.Condition
	err := r.DB.
		Where("(item_type = ? AND item_id IN ?)", model.ItemSection, emptyAsZero(sectionIDs)).
		Or("(item_type = ? AND item_id IN ?)", model.ItemQuestion, emptyAsZero(questionIDs)).
		Or("(item_type = ? AND item_id IN ?)", model.ItemTarget, emptyAsZero(targetIDs)).
		Order("display_order asc").
		Find(&conditions).Error
	return conditions, err
}

func (r *FormRepository) CreateCondition(c *model.Condition) error {
	return r.DB.Create(c).Error
}

func (r *FormRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Form{}, id).Error
}

// IN 子句不允许空列表，用一个不存在的 ID 占位
func emptyAsZero(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{0}
	}
	return ids
}
