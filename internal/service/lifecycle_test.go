package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"formflow_backend/internal/engine"
	"formflow_backend/internal/field"
	"formflow_backend/internal/model"
	"formflow_backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 内存版存储实现，满足 stores.go 的各接口，供生命周期场景测试使用

type memFormStore struct {
	form       *model.Form
	conditions []model.Condition
}

func (m *memFormStore) FindByID(id uint) (*model.Form, error) {
	if m.form == nil || m.form.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return m.form, nil
}

func (m *memFormStore) ConditionsForForm(form *model.Form) ([]model.Condition, error) {
	return m.conditions, nil
}

type memSubmissionStore struct {
	form        *model.Form
	nextID      uint
	submissions map[uint]*model.Submission
	answers     map[uint]map[uint]string // submissionID -> questionID -> value
	// UpdateFields 的每次调用落的列集合，按顺序记录
	fieldUpdates []map[string]interface{}
	upsertCalls  int
}

func newMemSubmissionStore(form *model.Form) *memSubmissionStore {
	return &memSubmissionStore{
		form:        form,
		submissions: make(map[uint]*model.Submission),
		answers:     make(map[uint]map[uint]string),
	}
}

func (m *memSubmissionStore) Create(s *model.Submission) error {
	m.nextID++
	s.ID = m.nextID
	s.CreatedAt = time.Now()
	stored := *s
	m.submissions[s.ID] = &stored
	return nil
}

func (m *memSubmissionStore) FindByID(id uint) (*model.Submission, error) {
	s, ok := m.submissions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	copied.Form = m.form
	return &copied, nil
}

func (m *memSubmissionStore) List(page, limit int, formID uint, status int) ([]model.Submission, int64, error) {
	return nil, 0, nil
}

func (m *memSubmissionStore) UpdateStatus(id uint, status int) error {
	s, ok := m.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	return nil
}

func (m *memSubmissionStore) UpdateFields(id uint, fields map[string]interface{}) error {
	s, ok := m.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	recorded := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		recorded[k] = v
	}
	m.fieldUpdates = append(m.fieldUpdates, recorded)
	if v, ok := fields["status"]; ok {
		s.Status = v.(int)
	}
	if v, ok := fields["comment"]; ok {
		s.Comment = v.(string)
	}
	return nil
}

func (m *memSubmissionStore) UpdateAggregatedStatus(id uint, status *int) error {
	s, ok := m.submissions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.AggregatedStatus = status
	return nil
}

func (m *memSubmissionStore) UpsertAnswer(answer *model.Answer) error {
	m.upsertCalls++
	byQuestion, ok := m.answers[answer.SubmissionID]
	if !ok {
		byQuestion = make(map[uint]string)
		m.answers[answer.SubmissionID] = byQuestion
	}
	byQuestion[answer.QuestionID] = answer.Value
	return nil
}

func (m *memSubmissionStore) AnswersFor(submissionID uint) ([]model.Answer, error) {
	var out []model.Answer
	for questionID, value := range m.answers[submissionID] {
		out = append(out, model.Answer{SubmissionID: submissionID, QuestionID: questionID, Value: value})
	}
	return out, nil
}

func (m *memSubmissionStore) Purge(id uint) error {
	delete(m.submissions, id)
	delete(m.answers, id)
	return nil
}

type memValidationStore struct {
	nextID  uint
	entries []model.ValidationEntry
}

func (m *memValidationStore) BulkCreate(entries []model.ValidationEntry) error {
	for _, e := range entries {
		m.nextID++
		e.ID = m.nextID
		m.entries = append(m.entries, e)
	}
	return nil
}

func (m *memValidationStore) FindBySubmission(submissionID uint) ([]model.ValidationEntry, error) {
	var out []model.ValidationEntry
	for _, e := range m.entries {
		if e.SubmissionID == submissionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memValidationStore) EntriesAtLevel(submissionID uint, level int) ([]model.ValidationEntry, error) {
	var out []model.ValidationEntry
	for _, e := range m.entries {
		if e.SubmissionID == submissionID && e.Level == level {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memValidationStore) UpdateStatus(entryID uint, status int) error {
	for i := range m.entries {
		if m.entries[i].ID == entryID {
			m.entries[i].Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memUserStore struct {
	users map[uint]*model.User
}

func (m *memUserStore) FindByID(id uint) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *memUserStore) IsSubstituteOf(actorID, validatorID uint, at time.Time) (bool, error) {
	return false, nil
}

func (m *memUserStore) IsGroupMember(userID, groupID uint) (bool, error) {
	return false, nil
}

type memTargetStore struct {
	templates []model.TargetTemplate
	nextID    uint
	generated []model.GeneratedTarget
}

func (m *memTargetStore) TemplatesForForm(formID uint) ([]model.TargetTemplate, error) {
	var out []model.TargetTemplate
	for _, t := range m.templates {
		if t.FormID == formID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTargetStore) HasGenerated(submissionID, templateID uint) (bool, error) {
	for _, g := range m.generated {
		if g.SubmissionID == submissionID && g.TargetTemplateID == templateID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTargetStore) CreateGenerated(g *model.GeneratedTarget) error {
	m.nextID++
	g.ID = m.nextID
	m.generated = append(m.generated, *g)
	return nil
}

func (m *memTargetStore) GeneratedFor(submissionID uint) ([]model.GeneratedTarget, error) {
	var out []model.GeneratedTarget
	for _, g := range m.generated {
		if g.SubmissionID == submissionID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memTargetStore) SubmissionsForTicket(ticketID uint) ([]uint, error) {
	var ids []uint
	for _, g := range m.generated {
		if g.ItemType == model.ItemTicket && g.ItemID == ticketID {
			ids = append(ids, g.SubmissionID)
		}
	}
	return ids, nil
}

type memTicketStore struct {
	targets *memTargetStore
	nextID  uint
	tickets map[uint]*model.Ticket
	links   []model.TicketLink
	// 标题命中时 Create 失败，用于模拟部分模板生成失败
	failTitles map[string]bool
}

func newMemTicketStore(targets *memTargetStore) *memTicketStore {
	return &memTicketStore{targets: targets, tickets: make(map[uint]*model.Ticket)}
}

func (m *memTicketStore) Create(t *model.Ticket) error {
	if m.failTitles[t.Title] {
		return fmt.Errorf("ticket store unavailable")
	}
	m.nextID++
	t.ID = m.nextID
	stored := *t
	m.tickets[t.ID] = &stored
	return nil
}

func (m *memTicketStore) FindByID(id uint) (*model.Ticket, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (m *memTicketStore) UpdateStatus(id uint, status int) error {
	t, ok := m.tickets[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	return nil
}

func (m *memTicketStore) CreateLink(link *model.TicketLink) error {
	m.links = append(m.links, *link)
	return nil
}

func (m *memTicketStore) LinkExists(ticketID, linkedTicketID uint) (bool, error) {
	for _, l := range m.links {
		if (l.TicketID == ticketID && l.LinkedTicketID == linkedTicketID) ||
			(l.TicketID == linkedTicketID && l.LinkedTicketID == ticketID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memTicketStore) LiveForSubmission(submissionID uint) ([]model.Ticket, error) {
	var out []model.Ticket
	for _, g := range m.targets.generated {
		if g.SubmissionID != submissionID || g.ItemType != model.ItemTicket {
			continue
		}
		if t, ok := m.tickets[g.ItemID]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

type memIssueStore struct {
	nextID uint
	issues map[uint]*model.Issue // keyed by submissionID
}

func newMemIssueStore() *memIssueStore {
	return &memIssueStore{issues: make(map[uint]*model.Issue)}
}

func (m *memIssueStore) Create(issue *model.Issue) error {
	m.nextID++
	issue.ID = m.nextID
	stored := *issue
	m.issues[issue.SubmissionID] = &stored
	return nil
}

func (m *memIssueStore) Update(issue *model.Issue) error {
	stored := *issue
	m.issues[issue.SubmissionID] = &stored
	return nil
}

func (m *memIssueStore) FindBySubmission(submissionID uint) (*model.Issue, error) {
	issue, ok := m.issues[submissionID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *issue
	return &copied, nil
}

func (m *memIssueStore) UpdateStatusBySubmission(submissionID uint, status int) error {
	if issue, ok := m.issues[submissionID]; ok {
		issue.Status = status
	}
	return nil
}

func (m *memIssueStore) ListForRequester(requesterID uint, page, limit int) ([]model.Issue, int64, error) {
	return nil, 0, nil
}

type memNotificationStore struct {
	logs []model.NotificationLog
}

func (m *memNotificationStore) Create(log *model.NotificationLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func (m *memNotificationStore) ListBySubmission(submissionID uint) ([]model.NotificationLog, error) {
	var out []model.NotificationLog
	for _, l := range m.logs {
		if l.SubmissionID == submissionID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memNotificationStore) events() []string {
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Event)
	}
	return out
}

// lifecycleFixture 把全套服务接到内存存储上
type lifecycleFixture struct {
	forms         *memFormStore
	submissions   *memSubmissionStore
	validations   *memValidationStore
	users         *memUserStore
	targets       *memTargetStore
	tickets       *memTicketStore
	issues        *memIssueStore
	notifications *memNotificationStore
	svc           *SubmissionService
}

func newLifecycleFixture(form *model.Form, users ...*model.User) *lifecycleFixture {
	f := &lifecycleFixture{
		forms:         &memFormStore{form: form},
		submissions:   newMemSubmissionStore(form),
		validations:   &memValidationStore{},
		users:         &memUserStore{users: make(map[uint]*model.User)},
		targets:       &memTargetStore{templates: form.Targets},
		issues:        newMemIssueStore(),
		notifications: &memNotificationStore{},
	}
	f.tickets = newMemTicketStore(f.targets)
	for _, u := range users {
		f.users.users[u.ID] = u
	}

	logger := zap.NewNop()
	notifier := NewNotificationService(f.notifications, nil, logger)
	approval := NewApprovalService(f.validations, f.users)
	target := NewTargetService(f.targets, f.tickets, notifier, logger)
	issue := NewIssueService(f.issues, f.tickets)
	aggregator := NewAggregatorService(f.tickets, f.targets, f.submissions, f.issues, logger)
	f.svc = NewSubmissionService(
		f.forms, f.submissions, f.validations, f.users,
		approval, target, issue, aggregator, notifier, logger,
	)
	return f
}

func lifecycleForm(validators []model.FormValidator, targets []model.TargetTemplate) *model.Form {
	return &model.Form{
		BaseModel:   model.BaseModel{ID: 1},
		Name:        "设备报修",
		AnswerTitle: "报修：##answer_1##",
		IsActive:    true,
		Sections: []model.Section{
			{
				BaseModel: model.BaseModel{ID: 10},
				Name:      "基本信息",
				Questions: []model.Question{
					{
						BaseModel: model.BaseModel{ID: 1},
						Name:      "故障描述",
						FieldType: "text",
						Required:  true,
					},
				},
			},
		},
		Validators: validators,
		Targets:    targets,
	}
}

func ticketTemplate(id uint, name string) model.TargetTemplate {
	return model.TargetTemplate{
		BaseModel:       model.BaseModel{ID: id},
		FormID:          1,
		Name:            name,
		Kind:            model.TargetKindTicket,
		TitleTemplate:   name + "：##answer_1##",
		ContentTemplate: "##answer_1##",
	}
}

// 拒绝只落状态与审批意见两列，请求里携带的答案不触库
func TestRefuseNarrowsCommittedFields(t *testing.T) {
	form := lifecycleForm(
		[]model.FormValidator{{Level: 1, ValidatorType: model.ValidatorUser, ValidatorID: 7}},
		nil,
	)
	fx := newLifecycleFixture(form,
		&model.User{BaseModel: model.BaseModel{ID: 3}, Role: model.RoleRequester},
		&model.User{BaseModel: model.BaseModel{ID: 7}, Role: model.RoleValidator},
	)

	submission, err := fx.svc.Create(3, SubmitRequest{
		FormID:  1,
		Answers: field.Input{1: json.RawMessage(`"打印机卡纸"`)},
	})
	if err != nil {
		t.Fatalf("创建提交失败: %v", err)
	}
	if submission.Status != model.StatusWaiting {
		t.Fatalf("有审批链的提交应进入等待态, got %d", submission.Status)
	}

	upsertsBefore := fx.submissions.upsertCalls
	updatesBefore := len(fx.submissions.fieldUpdates)

	refused, err := fx.svc.Update(submission.ID, 7, UpdateRequest{
		Action:  "refuse",
		Comment: "信息不足",
		Answers: field.Input{1: json.RawMessage(`"被篡改的答案"`)},
	})
	if err != nil {
		t.Fatalf("拒绝失败: %v", err)
	}
	if refused.Status != model.StatusRefused {
		t.Fatalf("状态应为拒绝, got %d", refused.Status)
	}

	if fx.submissions.upsertCalls != upsertsBefore {
		t.Fatalf("拒绝不应写答案, upserts %d -> %d", upsertsBefore, fx.submissions.upsertCalls)
	}
	stored := fx.submissions.answers[submission.ID]
	if stored[1] != `打印机卡纸` {
		t.Fatalf("原答案应保持不变, got %q", stored[1])
	}

	updates := fx.submissions.fieldUpdates[updatesBefore:]
	if len(updates) != 1 {
		t.Fatalf("拒绝应只落库一次, got %d", len(updates))
	}
	last := updates[0]
	if len(last) != 2 {
		t.Fatalf("拒绝只应更新 status 与 comment 两列, got %v", last)
	}
	if last["status"] != model.StatusRefused || last["comment"] != "信息不足" {
		t.Fatalf("落库内容不符: %v", last)
	}
	if !containsEvent(fx.notifications.events(), model.EventRefused) {
		t.Fatalf("应产生拒绝事件, got %v", fx.notifications.events())
	}
}

// 免审批表单从创建到生成下游对象的完整链路
func TestNoValidatorSubmissionEndToEnd(t *testing.T) {
	form := lifecycleForm(nil, []model.TargetTemplate{
		ticketTemplate(100, "维修工单"),
		{
			BaseModel:     model.BaseModel{ID: 101},
			FormID:        1,
			Name:          "告知提交人",
			Kind:          model.TargetKindNotification,
			TitleTemplate: "##answer_1##",
		},
	})
	fx := newLifecycleFixture(form,
		&model.User{BaseModel: model.BaseModel{ID: 3}, Role: model.RoleRequester},
	)

	submission, err := fx.svc.Create(3, SubmitRequest{
		FormID:  1,
		Answers: field.Input{1: json.RawMessage(`"投影仪黑屏"`)},
	})
	if err != nil {
		t.Fatalf("创建提交失败: %v", err)
	}
	if submission.Status != model.StatusAccepted {
		t.Fatalf("免审批表单应直接通过, got %d", submission.Status)
	}
	if submission.Name != "报修：投影仪黑屏" {
		t.Fatalf("提交名应按标题模板渲染, got %q", submission.Name)
	}

	if len(fx.targets.generated) != 2 {
		t.Fatalf("两个模板都应有生成记录, got %d", len(fx.targets.generated))
	}
	if len(fx.tickets.tickets) != 1 {
		t.Fatalf("只应生成一张工单, got %d", len(fx.tickets.tickets))
	}
	ticket, err := fx.tickets.FindByID(1)
	if err != nil {
		t.Fatalf("读取工单失败: %v", err)
	}
	if ticket.Title != "维修工单：投影仪黑屏" {
		t.Fatalf("工单标题应按模板渲染, got %q", ticket.Title)
	}
	if ticket.Status != model.TicketIncoming {
		t.Fatalf("新工单应为 incoming, got %d", ticket.Status)
	}

	issue, err := fx.issues.FindBySubmission(submission.ID)
	if err != nil {
		t.Fatalf("应建立 Issue: %v", err)
	}
	if issue.ItemType != model.ItemTicket || issue.ItemID != ticket.ID {
		t.Fatalf("单工单时 Issue 应镜像工单, got %s/%d", issue.ItemType, issue.ItemID)
	}

	final, err := fx.submissions.FindByID(submission.ID)
	if err != nil {
		t.Fatalf("读取提交失败: %v", err)
	}
	if final.AggregatedStatus == nil || *final.AggregatedStatus != model.TicketIncoming {
		t.Fatalf("聚合状态应为 incoming, got %v", final.AggregatedStatus)
	}

	events := fx.notifications.events()
	for _, want := range []string{model.EventSubmissionCreated, model.EventAccepted, model.EventTargetGenerated} {
		if !containsEvent(events, want) {
			t.Fatalf("缺少事件 %s, got %v", want, events)
		}
	}
}

// 重复生成既不产生重复对象也不产生重复关联
func TestGenerateTwiceIsIdempotent(t *testing.T) {
	form := lifecycleForm(nil, []model.TargetTemplate{
		ticketTemplate(100, "硬件组"),
		ticketTemplate(101, "采购组"),
	})
	fx := newLifecycleFixture(form,
		&model.User{BaseModel: model.BaseModel{ID: 3}, Role: model.RoleRequester},
	)

	submission, err := fx.svc.Create(3, SubmitRequest{
		FormID:  1,
		Answers: field.Input{1: json.RawMessage(`"显示器损坏"`)},
	})
	if err != nil {
		t.Fatalf("创建提交失败: %v", err)
	}

	set, err := engine.NewAnswerSet(form)
	if err != nil {
		t.Fatalf("构建字段集失败: %v", err)
	}
	answers, _ := fx.submissions.AnswersFor(submission.ID)
	set.Load(answers)
	vis := engine.EvaluateVisibility(set, nil, form.Targets)

	if _, ok := fx.svc.Targets.Generate(submission, set, vis); !ok {
		t.Fatalf("重复生成不应失败")
	}

	if len(fx.targets.generated) != 2 {
		t.Fatalf("生成记录不应重复, got %d", len(fx.targets.generated))
	}
	if len(fx.tickets.tickets) != 2 {
		t.Fatalf("工单不应重复, got %d", len(fx.tickets.tickets))
	}
	if len(fx.tickets.links) != 1 {
		t.Fatalf("两张工单之间只应有一条关联, got %d", len(fx.tickets.links))
	}
}

// 部分模板失败重试后，早先批次的工单要与补生成的工单建立关联
func TestRetryAfterPartialFailureLinksEarlierTickets(t *testing.T) {
	form := lifecycleForm(nil, []model.TargetTemplate{
		ticketTemplate(100, "硬件组"),
		ticketTemplate(101, "采购组"),
	})
	fx := newLifecycleFixture(form,
		&model.User{BaseModel: model.BaseModel{ID: 3}, Role: model.RoleRequester},
	)
	fx.tickets.failTitles = map[string]bool{"采购组：显示器损坏": true}

	submission, err := fx.svc.Create(3, SubmitRequest{
		FormID:  1,
		Answers: field.Input{1: json.RawMessage(`"显示器损坏"`)},
	})
	if !errors.Is(err, util.ErrGenerationFailure) {
		t.Fatalf("部分模板失败应整体报生成失败, got %v", err)
	}
	stored, err := fx.submissions.FindByID(submission.ID)
	if err != nil {
		t.Fatalf("读取提交失败: %v", err)
	}
	if stored.Status != model.StatusWaiting {
		t.Fatalf("生成失败后应回退到等待态, got %d", stored.Status)
	}
	if len(fx.tickets.tickets) != 1 {
		t.Fatalf("第一批应只生成一张工单, got %d", len(fx.tickets.tickets))
	}
	if len(fx.tickets.links) != 0 {
		t.Fatalf("单张工单不应有关联, got %d", len(fx.tickets.links))
	}

	// 故障恢复后重试
	fx.tickets.failTitles = nil
	set, err := engine.NewAnswerSet(form)
	if err != nil {
		t.Fatalf("构建字段集失败: %v", err)
	}
	answers, _ := fx.submissions.AnswersFor(submission.ID)
	set.Load(answers)
	vis := engine.EvaluateVisibility(set, nil, form.Targets)

	if _, ok := fx.svc.Targets.Generate(stored, set, vis); !ok {
		t.Fatalf("重试应成功")
	}
	if len(fx.tickets.tickets) != 2 {
		t.Fatalf("重试后应补齐第二张工单, got %d", len(fx.tickets.tickets))
	}
	if len(fx.tickets.links) != 1 {
		t.Fatalf("早先的工单应与新工单建立关联, got %d 条", len(fx.tickets.links))
	}
	exists, err := fx.tickets.LinkExists(1, 2)
	if err != nil || !exists {
		t.Fatalf("工单 1 与 2 之间应已关联: exists=%v err=%v", exists, err)
	}

	// 再次重试不追加任何东西
	if _, ok := fx.svc.Targets.Generate(stored, set, vis); !ok {
		t.Fatalf("再次重试不应失败")
	}
	if len(fx.tickets.tickets) != 2 || len(fx.tickets.links) != 1 {
		t.Fatalf("再次重试不应新增对象, tickets=%d links=%d", len(fx.tickets.tickets), len(fx.tickets.links))
	}
}

func containsEvent(events []string, want string) bool {
	for _, e := range events {
		if e == want {
			return true
		}
	}
	return false
}
