package repository

import (
	"path/filepath"
	"testing"

	"formflow_backend/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "repo_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("打开测试库失败: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Submission{},
		&model.Answer{},
		&model.ValidationEntry{},
		&model.Issue{},
		&model.GeneratedTarget{},
		&model.Ticket{},
		&model.TicketLink{},
	); err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	t.Helper()
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("写入种子数据失败: %v", err)
	}
}

func countWhere(t *testing.T, db *gorm.DB, entity interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(entity).Where(query, args...).Count(&n).Error; err != nil {
		t.Fatalf("计数失败: %v", err)
	}
	return n
}

// Purge 应连同生成记录与工单关联一起清理，事后无法再从工单反查到该提交
func TestPurgeRemovesGenerationLinkage(t *testing.T) {
	db := openTestDB(t)
	submissions := NewSubmissionRepository(db)
	targets := NewTargetRepository(db)

	doomed := &model.Submission{FormID: 1, Name: "待删除", RequesterID: 3, Status: model.StatusAccepted}
	survivor := &model.Submission{FormID: 1, Name: "保留", RequesterID: 4, Status: model.StatusAccepted}
	mustCreate(t, db, doomed)
	mustCreate(t, db, survivor)

	mustCreate(t, db, &model.Answer{SubmissionID: doomed.ID, QuestionID: 1, Value: "显示器损坏"})
	mustCreate(t, db, &model.ValidationEntry{SubmissionID: doomed.ID, Level: 1, ValidatorType: model.ValidatorUser, ValidatorID: 7, Status: model.StatusAccepted})
	mustCreate(t, db, &model.Issue{SubmissionID: doomed.ID, ItemType: model.ItemSubmission, ItemID: doomed.ID, RequesterID: 3})

	ticketA := &model.Ticket{Title: "硬件组", Status: model.TicketIncoming, RequesterID: 3}
	ticketB := &model.Ticket{Title: "采购组", Status: model.TicketIncoming, RequesterID: 3}
	ticketC := &model.Ticket{Title: "他人工单", Status: model.TicketIncoming, RequesterID: 4}
	mustCreate(t, db, ticketA)
	mustCreate(t, db, ticketB)
	mustCreate(t, db, ticketC)

	mustCreate(t, db, &model.GeneratedTarget{SubmissionID: doomed.ID, TargetTemplateID: 100, ItemType: model.ItemTicket, ItemID: ticketA.ID})
	mustCreate(t, db, &model.GeneratedTarget{SubmissionID: doomed.ID, TargetTemplateID: 101, ItemType: model.ItemTicket, ItemID: ticketB.ID})
	mustCreate(t, db, &model.GeneratedTarget{SubmissionID: survivor.ID, TargetTemplateID: 100, ItemType: model.ItemTicket, ItemID: ticketC.ID})
	mustCreate(t, db, &model.TicketLink{TicketID: ticketA.ID, LinkedTicketID: ticketB.ID})

	if err := submissions.Purge(doomed.ID); err != nil {
		t.Fatalf("Purge 失败: %v", err)
	}

	if n := countWhere(t, db, &model.Submission{}, "id = ?", doomed.ID); n != 0 {
		t.Fatalf("提交应被删除, got %d", n)
	}
	if n := countWhere(t, db, &model.Answer{}, "submission_id = ?", doomed.ID); n != 0 {
		t.Fatalf("答案应被删除, got %d", n)
	}
	if n := countWhere(t, db, &model.ValidationEntry{}, "submission_id = ?", doomed.ID); n != 0 {
		t.Fatalf("审批记录应被删除, got %d", n)
	}
	if n := countWhere(t, db, &model.Issue{}, "submission_id = ?", doomed.ID); n != 0 {
		t.Fatalf("Issue 应被删除, got %d", n)
	}
	if n := countWhere(t, db, &model.GeneratedTarget{}, "submission_id = ?", doomed.ID); n != 0 {
		t.Fatalf("生成记录应被删除, got %d", n)
	}
	if n := countWhere(t, db, &model.TicketLink{}, "ticket_id = ? OR linked_ticket_id = ?", ticketA.ID, ticketA.ID); n != 0 {
		t.Fatalf("工单关联应被删除, got %d", n)
	}

	for _, ticketID := range []uint{ticketA.ID, ticketB.ID} {
		ids, err := targets.SubmissionsForTicket(ticketID)
		if err != nil {
			t.Fatalf("反查提交失败: %v", err)
		}
		if len(ids) != 0 {
			t.Fatalf("已删除提交不应再被工单 %d 反查到, got %v", ticketID, ids)
		}
	}

	// 其他提交的数据不受影响
	if n := countWhere(t, db, &model.Submission{}, "id = ?", survivor.ID); n != 1 {
		t.Fatalf("无关提交不应被删除")
	}
	ids, err := targets.SubmissionsForTicket(ticketC.ID)
	if err != nil {
		t.Fatalf("反查提交失败: %v", err)
	}
	if len(ids) != 1 || ids[0] != survivor.ID {
		t.Fatalf("无关提交的生成记录应保留, got %v", ids)
	}
}
