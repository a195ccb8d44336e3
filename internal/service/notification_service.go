package service

import (
	"context"
	"encoding/json"
	"time"

	"formflow_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EventChannel 提交生命周期事件的 Redis 发布频道
const EventChannel = "formflow:submission_events"

// NotificationService 生命周期事件通知：落库留痕 + Redis 广播
// 所有投递均为尽力而为，失败只记日志，不影响主流程
type NotificationService struct {
	Notifications NotificationStore
	Redis         *redis.Client
	Logger        *zap.Logger
}

func NewNotificationService(notifications NotificationStore, rdb *redis.Client, logger *zap.Logger) *NotificationService {
	return &NotificationService{Notifications: notifications, Redis: rdb, Logger: logger}
}

type eventPayload struct {
	Event        string    `json:"event"`
	SubmissionID uint      `json:"submissionId"`
	FormID       uint      `json:"formId"`
	Name         string    `json:"name"`
	Status       int       `json:"status"`
	RecipientID  uint      `json:"recipientId,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// Notify 记录并广播一个提交生命周期事件
func (s *NotificationService) Notify(event string, submission *model.Submission, recipientID uint) {
	payload := eventPayload{
		Event:        event,
		SubmissionID: submission.ID,
		FormID:       submission.FormID,
		Name:         submission.Name,
		Status:       submission.Status,
		RecipientID:  recipientID,
		OccurredAt:   time.Now(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		s.Logger.Error("序列化事件失败", zap.String("event", event), zap.Error(err))
		return
	}

	log := &model.NotificationLog{
		Event:        event,
		SubmissionID: submission.ID,
		RecipientID:  recipientID,
		Payload:      string(raw),
	}

	if s.Redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Redis.Publish(ctx, EventChannel, raw).Err(); err != nil {
			s.Logger.Warn("事件广播失败",
				zap.String("event", event),
				zap.Uint("submission_id", submission.ID),
				zap.Error(err))
		} else {
			log.Delivered = true
		}
	}

	if err := s.Notifications.Create(log); err != nil {
		s.Logger.Warn("事件落库失败",
			zap.String("event", event),
			zap.Uint("submission_id", submission.ID),
			zap.Error(err))
	}
}

// History 某提交的事件通知记录
func (s *NotificationService) History(submissionID uint) ([]model.NotificationLog, error) {
	return s.Notifications.ListBySubmission(submissionID)
}
