package service

import (
	"errors"
	"strings"

	"formflow_backend/internal/engine"
	"formflow_backend/internal/field"
	"formflow_backend/internal/model"
	"formflow_backend/internal/util"
	"formflow_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SubmissionService 提交的完整生命周期：创建、审批推进、重新提交、删除
type SubmissionService struct {
	Forms       FormStore
	Submissions SubmissionStore
	Validations ValidationStore
	Users       UserStore
	Approval    *ApprovalService
	Targets     *TargetService
	Issues      *IssueService
	Aggregator  *AggregatorService
	Notifier    *NotificationService
	Logger      *zap.Logger
}

func NewSubmissionService(
	forms FormStore,
	submissions SubmissionStore,
	validations ValidationStore,
	users UserStore,
	approval *ApprovalService,
	targets *TargetService,
	issues *IssueService,
	aggregator *AggregatorService,
	notifier *NotificationService,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		Forms:       forms,
		Submissions: submissions,
		Validations: validations,
		Users:       users,
		Approval:    approval,
		Targets:     targets,
		Issues:      issues,
		Aggregator:  aggregator,
		Notifier:    notifier,
		Logger:      logger,
	}
}

// ValidatorRef 提交时指定的一级审批人
type ValidatorRef struct {
	Type model.ValidatorType `json:"type" binding:"required,oneof=user group supervisor"`
	ID   uint                `json:"id"`
}

type SubmitRequest struct {
	FormID    uint          `json:"formId" binding:"required"`
	Answers   field.Input   `json:"answers" binding:"required"`
	Validator *ValidatorRef `json:"validator"`
	Comment   string        `json:"comment"`
}

type UpdateRequest struct {
	Answers field.Input `json:"answers"`
	Comment string      `json:"comment"`
	Action  string      `json:"action" binding:"omitempty,oneof=accept refuse"`
}

// Create 校验输入并创建提交，必要时进入审批链，免审批或自动通过时直接生成下游对象
func (s *SubmissionService) Create(requesterID uint, req SubmitRequest) (*model.Submission, error) {
	form, err := s.Forms.FindByID(req.FormID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrFormNotFound
		}
		return nil, err
	}
	if !form.IsActive {
		return nil, util.ErrFormInactive
	}
	requester, err := s.Users.FindByID(requesterID)
	if err != nil {
		return nil, util.ErrUserNotFound
	}

	set, err := engine.NewAnswerSet(form)
	if err != nil {
		return nil, err
	}
	if err := set.ParseInput(req.Answers); err != nil {
		return nil, err
	}
	conditions, err := s.Forms.ConditionsForForm(form)
	if err != nil {
		return nil, err
	}
	vis := engine.EvaluateVisibility(set, conditions, form.Targets)
	if err := requiredCheck(set, vis); err != nil {
		return nil, err
	}

	submission := &model.Submission{
		FormID:            form.ID,
		RequesterID:       requesterID,
		Comment:           req.Comment,
		Status:            model.StatusAccepted,
		ValidationPercent: form.ValidationPercent,
	}
	if form.ValidationRequired() {
		userID, groupID, err := s.resolveValidatorRef(form, requester, req.Validator)
		if err != nil {
			return nil, err
		}
		submission.UserValidatorID = userID
		submission.GroupValidatorID = groupID
		submission.Status = model.StatusWaiting
	}

	name := strings.TrimSpace(engine.RenderTags(form.AnswerTitle, set, vis, false))
	if name == "" {
		name = form.Name
	}
	submission.Name = name

	if err := s.Submissions.Create(submission); err != nil {
		return nil, err
	}
	submission.Form = form
	monitoring.SubmissionsTotal.WithLabelValues(model.StatusLabel(submission.Status)).Inc()

	if err := s.saveAnswers(submission.ID, set); err != nil {
		return nil, err
	}

	if form.ValidationRequired() {
		entries, err := s.buildValidationChain(submission, form, requester)
		if err != nil {
			return nil, err
		}
		if err := s.Validations.BulkCreate(entries); err != nil {
			return nil, err
		}
		// 提交人本人就是当前级审批人时视为已同意
		can, err := s.Approval.CanValidate(requesterID, submission)
		if err != nil {
			return nil, err
		}
		if can {
			computed, err := s.Approval.RecordVote(requesterID, submission, model.StatusAccepted)
			if err != nil {
				return nil, err
			}
			submission.Status = computed
			if err := s.Submissions.UpdateStatus(submission.ID, computed); err != nil {
				return nil, err
			}
		}
	}

	s.Notifier.Notify(model.EventSubmissionCreated, submission, requesterID)
	if submission.Status == model.StatusWaiting {
		s.Notifier.Notify(model.EventNeedsApproval, submission, 0)
	}

	if submission.Status == model.StatusAccepted {
		if err := s.finalizeAccepted(submission, set, vis); err != nil {
			return submission, err
		}
	} else {
		if err := s.Issues.CreateForSubmission(submission); err != nil {
			s.Logger.Warn("创建 Issue 失败", zap.Uint("submission_id", submission.ID), zap.Error(err))
		}
	}
	return submission, nil
}

// Update 三种入口共用：审批人表态、审批途中修改答案、提交人对被拒提交重新提交
func (s *SubmissionService) Update(submissionID, actorID uint, req UpdateRequest) (*model.Submission, error) {
	submission, err := s.Submissions.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}
	form := submission.Form

	set, err := engine.NewAnswerSet(form)
	if err != nil {
		return nil, err
	}
	answers, err := s.Submissions.AnswersFor(submission.ID)
	if err != nil {
		return nil, err
	}
	set.Load(answers)

	status := submission.Status
	switch req.Action {
	case "accept":
		computed, err := s.Approval.RecordVote(actorID, submission, model.StatusAccepted)
		if err != nil {
			return nil, err
		}
		status = computed
	case "refuse":
		if strings.TrimSpace(req.Comment) == "" {
			return nil, util.ErrCommentRequired
		}
		computed, err := s.Approval.RecordVote(actorID, submission, model.StatusRefused)
		if err != nil {
			return nil, err
		}
		status = computed
	default:
		// 重新提交：仅提交人、仅被拒绝的提交，回到等待态重走审批
		if actorID != submission.RequesterID {
			return nil, util.ErrAuthorizationDenied
		}
		if submission.Status != model.StatusRefused {
			return nil, util.ErrSubmissionNotEditable
		}
		status = model.StatusWaiting
	}

	if status == model.StatusRefused {
		// 拒绝时缩窄更新：只落状态与审批意见，答案不动
		submission.Status = status
		submission.Comment = req.Comment
		if err := s.Submissions.UpdateFields(submission.ID, map[string]interface{}{
			"status":  status,
			"comment": req.Comment,
		}); err != nil {
			return nil, err
		}
		s.Notifier.Notify(model.EventRefused, submission, submission.RequesterID)
		if err := s.Issues.UpdateForSubmission(submission); err != nil {
			s.Logger.Warn("同步 Issue 失败", zap.Uint("submission_id", submission.ID), zap.Error(err))
		}
		return submission, nil
	}

	if len(req.Answers) > 0 {
		if err := set.ParseInput(req.Answers); err != nil {
			return nil, err
		}
	}
	conditions, err := s.Forms.ConditionsForForm(form)
	if err != nil {
		return nil, err
	}
	vis := engine.EvaluateVisibility(set, conditions, form.Targets)
	if len(req.Answers) > 0 {
		if err := requiredCheck(set, vis); err != nil {
			return nil, err
		}
		if err := s.saveAnswers(submission.ID, set); err != nil {
			return nil, err
		}
	}

	submission.Status = status
	if req.Comment != "" {
		submission.Comment = req.Comment
	}
	if err := s.Submissions.UpdateFields(submission.ID, map[string]interface{}{
		"status":  status,
		"comment": submission.Comment,
	}); err != nil {
		return nil, err
	}

	if status == model.StatusAccepted {
		if err := s.finalizeAccepted(submission, set, vis); err != nil {
			return submission, err
		}
		return submission, nil
	}

	s.Notifier.Notify(model.EventNeedsApproval, submission, 0)
	if err := s.Issues.UpdateForSubmission(submission); err != nil {
		s.Logger.Warn("同步 Issue 失败", zap.Uint("submission_id", submission.ID), zap.Error(err))
	}
	return submission, nil
}

// finalizeAccepted 审批通过后的收尾：生成下游对象、同步 Issue、刷新聚合
// 任一模板生成失败时整体回退到等待态，已生成的对象保留等待重试
func (s *SubmissionService) finalizeAccepted(submission *model.Submission, set *engine.AnswerSet, vis engine.VisibilityMap) error {
	if submission.Status != model.StatusAccepted {
		submission.Status = model.StatusAccepted
	}
	if err := s.Submissions.UpdateStatus(submission.ID, model.StatusAccepted); err != nil {
		return err
	}

	if _, ok := s.Targets.Generate(submission, set, vis); !ok {
		submission.Status = model.StatusWaiting
		if err := s.Submissions.UpdateStatus(submission.ID, model.StatusWaiting); err != nil {
			s.Logger.Error("生成失败后回退状态失败", zap.Uint("submission_id", submission.ID), zap.Error(err))
		}
		return util.ErrGenerationFailure
	}

	s.Notifier.Notify(model.EventAccepted, submission, submission.RequesterID)
	if err := s.Issues.UpdateForSubmission(submission); err != nil {
		s.Logger.Warn("同步 Issue 失败", zap.Uint("submission_id", submission.ID), zap.Error(err))
	}
	if _, err := s.Aggregator.Refresh(submission.ID); err != nil {
		s.Logger.Warn("刷新聚合状态失败", zap.Uint("submission_id", submission.ID), zap.Error(err))
	}
	return nil
}

// Purge 彻底删除提交及其答案、审批记录与 Issue
func (s *SubmissionService) Purge(submissionID, actorID uint) error {
	submission, err := s.Submissions.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrSubmissionNotFound
		}
		return err
	}
	actor, err := s.Users.FindByID(actorID)
	if err != nil {
		return util.ErrUserNotFound
	}
	if actor.Role != model.RoleAdmin && submission.RequesterID != actorID {
		return util.ErrAuthorizationDenied
	}

	wasWaiting := submission.Status == model.StatusWaiting
	if err := s.Submissions.Purge(submission.ID); err != nil {
		return err
	}
	if wasWaiting {
		// 通知审批人该提交已不需要处理
		s.Notifier.Notify(model.EventDeleted, submission, 0)
	}
	return nil
}

// Get 提交详情，附带答案
func (s *SubmissionService) Get(submissionID uint) (*model.Submission, error) {
	submission, err := s.Submissions.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubmissionNotFound
		}
		return nil, err
	}
	answers, err := s.Submissions.AnswersFor(submission.ID)
	if err != nil {
		return nil, err
	}
	submission.Answers = answers
	return submission, nil
}

func (s *SubmissionService) List(page, limit int, formID uint, status int) ([]model.Submission, int64, error) {
	return s.Submissions.List(page, limit, formID, status)
}

// FullFormText 渲染整份提交的可读文本，richText 为 true 时输出 HTML
func (s *SubmissionService) FullFormText(submissionID uint, richText bool) (string, error) {
	submission, err := s.Submissions.FindByID(submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", util.ErrSubmissionNotFound
		}
		return "", err
	}
	set, err := engine.NewAnswerSet(submission.Form)
	if err != nil {
		return "", err
	}
	answers, err := s.Submissions.AnswersFor(submission.ID)
	if err != nil {
		return "", err
	}
	set.Load(answers)
	conditions, err := s.Forms.ConditionsForForm(submission.Form)
	if err != nil {
		return "", err
	}
	vis := engine.EvaluateVisibility(set, conditions, submission.Form.Targets)
	return engine.FullForm(set, vis, richText), nil
}

// resolveValidatorRef 确定提交绑定的一级审批人
// 未显式指定且一级只配置了一个审批人时自动选择，否则要求显式指定
func (s *SubmissionService) resolveValidatorRef(form *model.Form, requester *model.User, ref *ValidatorRef) (uint, uint, error) {
	levelOne := make([]model.FormValidator, 0, len(form.Validators))
	for _, v := range form.Validators {
		if v.Level == 1 {
			levelOne = append(levelOne, v)
		}
	}
	if len(levelOne) == 0 {
		return 0, 0, util.ErrMissingValidator
	}

	var chosen *model.FormValidator
	if ref == nil {
		if len(levelOne) != 1 {
			return 0, 0, util.ErrMissingValidator
		}
		chosen = &levelOne[0]
	} else {
		for i := range levelOne {
			v := &levelOne[i]
			if v.ValidatorType != ref.Type {
				continue
			}
			if v.ValidatorType == model.ValidatorSupervisor || v.ValidatorID == ref.ID {
				chosen = v
				break
			}
		}
		if chosen == nil {
			return 0, 0, util.ErrMissingValidator
		}
	}

	switch chosen.ValidatorType {
	case model.ValidatorUser:
		return chosen.ValidatorID, 0, nil
	case model.ValidatorGroup:
		return 0, chosen.ValidatorID, nil
	case model.ValidatorSupervisor:
		if requester.SupervisorID == 0 {
			return 0, 0, util.ErrMissingValidator
		}
		return requester.SupervisorID, 0, nil
	}
	return 0, 0, util.ErrMissingValidator
}

// buildValidationChain 从表单审批链拷贝出该提交的全部表态记录
// supervisor 类型在此解析为提交人上级的具体用户
func (s *SubmissionService) buildValidationChain(submission *model.Submission, form *model.Form, requester *model.User) ([]model.ValidationEntry, error) {
	entries := make([]model.ValidationEntry, 0, len(form.Validators))
	for _, v := range form.Validators {
		entry := model.ValidationEntry{
			SubmissionID:  submission.ID,
			Level:         v.Level,
			ValidatorType: v.ValidatorType,
			ValidatorID:   v.ValidatorID,
			Status:        model.StatusWaiting,
		}
		if v.ValidatorType == model.ValidatorSupervisor {
			if requester.SupervisorID == 0 {
				return nil, util.ErrMissingValidator
			}
			entry.ValidatorType = model.ValidatorUser
			entry.ValidatorID = requester.SupervisorID
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *SubmissionService) saveAnswers(submissionID uint, set *engine.AnswerSet) error {
	for _, q := range set.Questions() {
		f, ok := set.Field(q.ID)
		if !ok || !f.IsInput() {
			continue
		}
		answer := &model.Answer{
			SubmissionID: submissionID,
			QuestionID:   q.ID,
			Value:        f.Serialize(),
		}
		if err := s.Submissions.UpsertAnswer(answer); err != nil {
			return err
		}
	}
	return nil
}

// requiredCheck 可见的必填问题必须有值，隐藏的必填不拦
func requiredCheck(set *engine.AnswerSet, vis engine.VisibilityMap) error {
	invalid := &util.InvalidInputError{}
	for _, q := range set.Questions() {
		f, ok := set.Field(q.ID)
		if !ok || !f.IsInput() || !q.Required {
			continue
		}
		if !vis.Question(q.ID) || !vis.Section(set.SectionIDOf(q.ID)) {
			continue
		}
		if f.IsEmpty() {
			invalid.Add(q.ID, "question \""+q.Name+"\" is required")
		}
	}
	if invalid.HasErrors() {
		return invalid
	}
	return nil
}
