package service

import (
	"testing"

	"formflow_backend/internal/model"
)

func entry(level, status int) model.ValidationEntry {
	return model.ValidationEntry{
		Level:         level,
		ValidatorType: model.ValidatorUser,
		ValidatorID:   uint(level),
		Status:        status,
	}
}

func TestComputeSingleValidatorMode(t *testing.T) {
	// percent == 0：一票定结果
	entries := []model.ValidationEntry{entry(1, model.StatusWaiting)}
	if got := ComputeValidationStatus(entries, 0); got != model.StatusWaiting {
		t.Fatalf("未表态时应为等待, got %d", got)
	}

	entries[0].Status = model.StatusAccepted
	if got := ComputeValidationStatus(entries, 0); got != model.StatusAccepted {
		t.Fatalf("单人同意应通过, got %d", got)
	}

	entries[0].Status = model.StatusRefused
	if got := ComputeValidationStatus(entries, 0); got != model.StatusRefused {
		t.Fatalf("单人拒绝应拒绝, got %d", got)
	}
}

func TestComputeRatioThreshold(t *testing.T) {
	// 四级审批链，阈值 75%：需三级同意才通过，两级拒绝即拒绝
	build := func(statuses ...int) []model.ValidationEntry {
		entries := make([]model.ValidationEntry, 0, len(statuses))
		for i, s := range statuses {
			entries = append(entries, entry(i+1, s))
		}
		return entries
	}

	w, a, r := model.StatusWaiting, model.StatusAccepted, model.StatusRefused

	if got := ComputeValidationStatus(build(a, a, w, w), 75); got != model.StatusWaiting {
		t.Fatalf("两级同意未达 75%% 应继续等待, got %d", got)
	}
	if got := ComputeValidationStatus(build(a, a, a, w), 75); got != model.StatusAccepted {
		t.Fatalf("三级同意已达 75%% 应通过, got %d", got)
	}
	if got := ComputeValidationStatus(build(r, w, w, w), 75); got != model.StatusWaiting {
		t.Fatalf("一级拒绝时 75%% 仍可达成, 应等待, got %d", got)
	}
	if got := ComputeValidationStatus(build(r, r, w, w), 75); got != model.StatusRefused {
		t.Fatalf("两级拒绝后 75%% 已不可达, 应拒绝, got %d", got)
	}
}

func TestComputeExactThresholdBoundary(t *testing.T) {
	// 两级链、阈值 50%：一级同意即通过
	entries := []model.ValidationEntry{
		entry(1, model.StatusAccepted),
		entry(2, model.StatusWaiting),
	}
	if got := ComputeValidationStatus(entries, 50); got != model.StatusAccepted {
		t.Fatalf("同意比例恰达阈值应通过, got %d", got)
	}
}

func TestComputeLevelReduction(t *testing.T) {
	// 同一级多名审批人：该级存在拒绝即整级拒绝
	entries := []model.ValidationEntry{
		entry(1, model.StatusAccepted),
		{Level: 1, ValidatorType: model.ValidatorUser, ValidatorID: 9, Status: model.StatusRefused},
	}
	if got := ComputeValidationStatus(entries, 100); got != model.StatusRefused {
		t.Fatalf("级内有拒绝时该级应按拒绝计, got %d", got)
	}
}

func TestComputeEmptyChain(t *testing.T) {
	if got := ComputeValidationStatus(nil, 50); got != model.StatusWaiting {
		t.Fatalf("空审批链应返回等待, got %d", got)
	}
}

func TestCurrentLevel(t *testing.T) {
	entries := []model.ValidationEntry{
		entry(1, model.StatusAccepted),
		entry(2, model.StatusWaiting),
		entry(3, model.StatusWaiting),
	}
	if got := CurrentLevel(entries); got != 2 {
		t.Fatalf("当前级应为最低未决级, got %d", got)
	}

	entries[1].Status = model.StatusAccepted
	entries[2].Status = model.StatusAccepted
	if got := CurrentLevel(entries); got != 3 {
		t.Fatalf("全部已决时应返回最高级, got %d", got)
	}

	if got := CurrentLevel(nil); got != 1 {
		t.Fatalf("空链当前级应为 1, got %d", got)
	}
}
