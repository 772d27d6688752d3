package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/abhijithm34/od-latest/internal/dto"
	"github.com/abhijithm34/od-latest/internal/model"
	"github.com/abhijithm34/od-latest/internal/repository"
)

func setupSettingsTest() (SettingsService, *mockSettingsRepo) {
	users := newMockUserRepo()
	students := newMockStudentRepo()
	settingsRepo := newMockSettingsRepo()
	repo := &repository.Repository{
		User:      users,
		Student:   students,
		ODRequest: newMockODRequestRepo(users, students),
		Settings:  settingsRepo,
	}
	return NewSettingsService(repo, zap.NewNop()), settingsRepo
}

func TestSettingsService_Get_Defaults(t *testing.T) {
	svc, _ := setupSettingsTest()

	settings, err := svc.Get(context.Background())
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if settings.AutoForwardTimeoutMinutes != 60 {
		t.Errorf("期望默认超时60分钟，实际=%d", settings.AutoForwardTimeoutMinutes)
	}
	if !settings.AutoForwardEnabled || !settings.NotificationEnabled {
		t.Error("期望自动升级与通知默认开启")
	}
	if len(settings.EventTypes) == 0 {
		t.Error("期望默认活动类型词表非空")
	}
}

func TestSettingsService_Update_Partial(t *testing.T) {
	svc, _ := setupSettingsTest()

	minutes := 30
	disabled := false
	settings, err := svc.Update(context.Background(), &dto.UpdateSystemSettingsRequest{
		AutoForwardTimeoutMinutes: &minutes,
		AutoForwardEnabled:        &disabled,
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if settings.AutoForwardTimeoutMinutes != 30 {
		t.Errorf("期望超时=30，实际=%d", settings.AutoForwardTimeoutMinutes)
	}
	if settings.AutoForwardEnabled {
		t.Error("期望自动升级被关闭")
	}
	// 未修改的字段应保持原值
	if !settings.NotificationEnabled {
		t.Error("期望通知开关保持开启")
	}
}

func TestSettingsService_AutoForwardTimeout_RoundTrip(t *testing.T) {
	svc, _ := setupSettingsTest()
	ctx := context.Background()

	if _, err := svc.SetAutoForwardTimeout(ctx, 15); err != nil {
		t.Fatalf("SetAutoForwardTimeout 应成功: %v", err)
	}
	resp, err := svc.GetAutoForwardTimeout(ctx)
	if err != nil {
		t.Fatalf("GetAutoForwardTimeout 应成功: %v", err)
	}
	if resp.Minutes != 15 {
		t.Errorf("期望超时=15，实际=%d", resp.Minutes)
	}
}

func TestSettingsService_AddEventType_Duplicate(t *testing.T) {
	svc, _ := setupSettingsTest()
	ctx := context.Background()

	types, err := svc.AddEventType(ctx, "Paper Presentation")
	if err != nil {
		t.Fatalf("AddEventType 应成功: %v", err)
	}
	if types[len(types)-1] != "Paper Presentation" {
		t.Errorf("期望新类型并入词表，实际=%v", types)
	}

	// 大小写不敏感去重
	if _, err := svc.AddEventType(ctx, "paper presentation"); !errors.Is(err, ErrEventTypeExists) {
		t.Errorf("期望 ErrEventTypeExists，实际: %v", err)
	}
}

func TestSettingsService_EventTypeRequest_AcceptMergesVocab(t *testing.T) {
	svc, _ := setupSettingsTest()
	ctx := context.Background()

	proposal, err := svc.ProposeEventType(ctx, "u-stu", "Debate")
	if err != nil {
		t.Fatalf("ProposeEventType 应成功: %v", err)
	}
	if proposal.Status != model.EventTypeRequestPending {
		t.Errorf("期望提案初始为 pending，实际=%s", proposal.Status)
	}

	accepted, err := svc.AcceptEventTypeRequest(ctx, proposal.ID)
	if err != nil {
		t.Fatalf("AcceptEventTypeRequest 应成功: %v", err)
	}
	if accepted.Status != model.EventTypeRequestAccepted {
		t.Errorf("期望提案变为 accepted，实际=%s", accepted.Status)
	}

	types, _ := svc.ListEventTypes(ctx)
	found := false
	for _, tp := range types {
		if tp == "Debate" {
			found = true
		}
	}
	if !found {
		t.Errorf("期望词表包含 Debate，实际=%v", types)
	}

	// 已裁决的提案不可再次裁决
	if _, err := svc.RejectEventTypeRequest(ctx, proposal.ID); !errors.Is(err, ErrEventTypeRequestFinalized) {
		t.Errorf("期望 ErrEventTypeRequestFinalized，实际: %v", err)
	}
}

func TestSettingsService_ProposeEventType_ExistingRejected(t *testing.T) {
	svc, _ := setupSettingsTest()

	if _, err := svc.ProposeEventType(context.Background(), "u-stu", "Hackathon"); !errors.Is(err, ErrEventTypeExists) {
		t.Errorf("期望已有类型的提案被拒，实际: %v", err)
	}
}

func TestSettingsService_RemoveEventType(t *testing.T) {
	svc, _ := setupSettingsTest()

	types, err := svc.RemoveEventType(context.Background(), "hackathon")
	if err != nil {
		t.Fatalf("RemoveEventType 应成功: %v", err)
	}
	for _, typ := range types {
		if typ == "Hackathon" {
			t.Error("期望 Hackathon 已从词表移除")
		}
	}

	if _, err := svc.RemoveEventType(context.Background(), "Hackathon"); !errors.Is(err, ErrEventTypeNotFound) {
		t.Errorf("期望移除不存在类型返回 ErrEventTypeNotFound，实际: %v", err)
	}
}
