package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/abhijithm34/od-latest/internal/dto"
	"github.com/abhijithm34/od-latest/internal/model"
	"github.com/abhijithm34/od-latest/internal/repository"
)

// ── 测试辅助 ──

type odFixtures struct {
	svc      ODRequestService
	odRepo   *mockODRequestRepo
	notifier *mockNotifier
	gen      *mockPDFGen
	settings *mockSettingsRepo
}

const (
	uStudent  = "u-stu"
	uStudent2 = "u-stu2"
	uAdvisor  = "u-adv"
	uFaculty2 = "u-fac2"
	uHOD      = "u-hod"
	uAdmin    = "u-adm"
	stuID     = "stu-1"
	stu2ID    = "stu-2"
)

func setupODTest() *odFixtures {
	users := newMockUserRepo()
	users.users[uStudent] = &model.User{UserID: uStudent, Name: "Arun", Email: "arun@example.edu", Role: model.RoleStudent}
	users.users[uStudent2] = &model.User{UserID: uStudent2, Name: "Bala", Email: "bala@example.edu", Role: model.RoleStudent}
	users.users[uAdvisor] = &model.User{UserID: uAdvisor, Name: "Advisor", Email: "advisor@example.edu", Role: model.RoleFaculty}
	users.users[uFaculty2] = &model.User{UserID: uFaculty2, Name: "Faculty2", Email: "faculty2@example.edu", Role: model.RoleFaculty}
	users.users[uHOD] = &model.User{UserID: uHOD, Name: "HOD", Email: "hod@example.edu", Role: model.RoleHOD}
	users.users[uAdmin] = &model.User{UserID: uAdmin, Name: "Admin", Email: "admin@example.edu", Role: model.RoleAdmin}

	students := newMockStudentRepo()
	students.students[stuID] = &model.Student{
		StudentID: stuID, UserID: uStudent, Name: "Arun", RegisterNo: "CSE001",
		YearOfJoin: 2023, Department: "CSE", FacultyAdvisorID: uAdvisor,
	}
	students.students[stu2ID] = &model.Student{
		StudentID: stu2ID, UserID: uStudent2, Name: "Bala", RegisterNo: "CSE002",
		YearOfJoin: 2023, Department: "CSE", FacultyAdvisorID: uAdvisor,
	}

	odRepo := newMockODRequestRepo(users, students)
	settingsRepo := newMockSettingsRepo()

	repo := &repository.Repository{
		User:      users,
		Student:   students,
		ODRequest: odRepo,
		Settings:  settingsRepo,
	}

	gen := newMockPDFGen()
	notifier := newMockNotifier()
	svc := NewODRequestService(repo, gen, notifier, zap.NewNop())

	return &odFixtures{svc: svc, odRepo: odRepo, notifier: notifier, gen: gen, settings: settingsRepo}
}

func validCreateReq() *dto.CreateODRequest {
	return &dto.CreateODRequest{
		EventName: "State Level Hackathon",
		EventType: "Hackathon",
		EventDate: "2026-09-10",
		StartDate: "2026-09-10",
		EndDate:   "2026-09-11",
		Reason:    "Participating in the 24h hackathon finals",
	}
}

// ── Create 测试 ──

func TestODRequestService_Create_Success(t *testing.T) {
	f := setupODTest()

	resp, err := f.svc.Create(context.Background(), uStudent, validCreateReq(), nil)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Status != model.StatusPending {
		t.Errorf("期望status=pending，实际=%s", resp.Status)
	}
	if resp.ClassAdvisorName != "Advisor" {
		t.Errorf("期望班主任为学籍档案中的班主任，实际=%s", resp.ClassAdvisorName)
	}
	if resp.HODName != "HOD" {
		t.Errorf("期望系主任自动路由，实际=%s", resp.HODName)
	}
	if resp.Student == nil || resp.Student.RegisterNo != "CSE001" {
		t.Errorf("期望附带学生摘要，实际=%+v", resp.Student)
	}
	if len(f.notifier.created) != 1 || f.notifier.created[0][0] != "advisor@example.edu" {
		t.Errorf("期望通知班主任一次，实际=%v", f.notifier.created)
	}
}

func TestODRequestService_Create_InvalidDates(t *testing.T) {
	f := setupODTest()

	req := validCreateReq()
	req.StartDate = "2026-09-12" // 晚于 EndDate
	if _, err := f.svc.Create(context.Background(), uStudent, req, nil); !errors.Is(err, ErrInvalidEventDates) {
		t.Errorf("期望 ErrInvalidEventDates，实际: %v", err)
	}

	req = validCreateReq()
	req.EventDate = "2026-09-20" // 不在区间内
	if _, err := f.svc.Create(context.Background(), uStudent, req, nil); !errors.Is(err, ErrInvalidEventDates) {
		t.Errorf("期望 ErrInvalidEventDates，实际: %v", err)
	}
}

func TestODRequestService_Create_ParticularHoursNeedsTimes(t *testing.T) {
	f := setupODTest()

	req := validCreateReq()
	req.TimeType = model.TimeTypeParticularHours
	if _, err := f.svc.Create(context.Background(), uStudent, req, nil); !errors.Is(err, ErrTimeRangeRequired) {
		t.Errorf("期望 ErrTimeRangeRequired，实际: %v", err)
	}

	req.StartTime = "2026-09-10T09:00:00Z"
	req.EndTime = "2026-09-10T13:00:00Z"
	resp, err := f.svc.Create(context.Background(), uStudent, req, nil)
	if err != nil {
		t.Fatalf("带时间段的 Create 应成功: %v", err)
	}
	if resp.StartTime == nil || resp.EndTime == nil {
		t.Error("期望保留起止时间")
	}
}

func TestODRequestService_Create_UnknownEventType(t *testing.T) {
	f := setupODTest()

	req := validCreateReq()
	req.EventType = "Picnic"
	if _, err := f.svc.Create(context.Background(), uStudent, req, nil); !errors.Is(err, ErrUnknownEventType) {
		t.Errorf("期望 ErrUnknownEventType，实际: %v", err)
	}
}

func TestODRequestService_Create_FiltersUnknownNotifyFaculty(t *testing.T) {
	f := setupODTest()

	req := validCreateReq()
	req.NotifyFaculty = []string{uFaculty2, "u-ghost"}
	resp, err := f.svc.Create(context.Background(), uStudent, req, nil)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if len(resp.NotifyFaculty) != 1 || resp.NotifyFaculty[0] != uFaculty2 {
		t.Errorf("期望只保留真实存在的知会教师，实际=%v", resp.NotifyFaculty)
	}
}

// ── 状态机测试 ──

func TestODRequestService_TransitionsFollowGraph(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	resp, err := f.svc.Create(ctx, uStudent, validCreateReq(), nil)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	id := resp.ID

	// pending 状态下系主任不能直接批准
	if _, err := f.svc.HODApprove(ctx, id, uHOD, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("期望 pending 下 HODApprove 返回 ErrInvalidState，实际: %v", err)
	}

	// 班主任批准
	resp2, err := f.svc.AdvisorApprove(ctx, id, uAdvisor, "approved")
	if err != nil {
		t.Fatalf("AdvisorApprove 应成功: %v", err)
	}
	if resp2.Status != model.StatusApprovedByAdvisor {
		t.Errorf("期望status=approved_by_advisor，实际=%s", resp2.Status)
	}
	if resp2.AdvisorApprovedAt == nil {
		t.Error("期望记录班主任批准时间")
	}

	// 重复批准被拒
	if _, err := f.svc.AdvisorApprove(ctx, id, uAdvisor, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("期望重复批准返回 ErrInvalidState，实际: %v", err)
	}

	// 系主任批准进入终态
	resp3, err := f.svc.HODApprove(ctx, id, uHOD, "ok")
	if err != nil {
		t.Fatalf("HODApprove 应成功: %v", err)
	}
	if resp3.Status != model.StatusApprovedByHOD {
		t.Errorf("期望status=approved_by_hod，实际=%s", resp3.Status)
	}

	// 终态之后一切审批动作都被拒
	if _, err := f.svc.HODReject(ctx, id, uHOD, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("期望终态下 HODReject 返回 ErrInvalidState，实际: %v", err)
	}
}

func TestODRequestService_RejectedIsTerminal(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	resp, _ := f.svc.Create(ctx, uStudent, validCreateReq(), nil)
	if _, err := f.svc.AdvisorReject(ctx, resp.ID, uAdvisor, "insufficient reason"); err != nil {
		t.Fatalf("AdvisorReject 应成功: %v", err)
	}

	if _, err := f.svc.AdvisorApprove(ctx, resp.ID, uAdvisor, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("期望 rejected 后不可再批准，实际: %v", err)
	}
	if _, err := f.svc.HODApprove(ctx, resp.ID, uHOD, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("期望 rejected 后系主任不可批准，实际: %v", err)
	}
}

func TestODRequestService_WrongCallerRejected(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	resp, _ := f.svc.Create(ctx, uStudent, validCreateReq(), nil)

	if _, err := f.svc.AdvisorApprove(ctx, resp.ID, uFaculty2, ""); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("期望非班主任批准返回 ErrNotAuthorized，实际: %v", err)
	}
	if _, err := f.svc.HODReject(ctx, resp.ID, uFaculty2, ""); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("期望非系主任驳回返回 ErrNotAuthorized，实际: %v", err)
	}
}

func TestODRequestService_ConcurrentDecision_OnlyOneWins(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	resp, _ := f.svc.Create(ctx, uStudent, validCreateReq(), nil)
	id := resp.ID

	var wg sync.WaitGroup
	results := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = f.svc.AdvisorApprove(ctx, id, uAdvisor, "")
	}()
	go func() {
		defer wg.Done()
		_, results[1] = f.svc.AdvisorReject(ctx, id, uAdvisor, "")
	}()
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInvalidState):
			conflicts++
		default:
			t.Fatalf("非预期错误: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Errorf("期望恰好一方成功一方冲突，实际 wins=%d conflicts=%d", wins, conflicts)
	}
}

// ── 升级分支测试 ──

func TestODRequestService_EscalationFlow(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	resp, _ := f.svc.Create(ctx, uStudent, validCreateReq(), nil)
	id := resp.ID

	// 升级前管理员队列为空
	queue, err := f.svc.ListForAdmin(ctx)
	if err != nil {
		t.Fatalf("ListForAdmin 应成功: %v", err)
	}
	if len(queue) != 0 {
		t.Errorf("期望升级前队列为空，实际=%d", len(queue))
	}

	// 模拟调度器扫描：把超时 pending 批量升级
	f.odRepo.mu.Lock()
	f.odRepo.reqs[id].LastStatusChangeAt = time.Now().Add(-2 * time.Hour)
	f.odRepo.mu.Unlock()
	count, err := f.odRepo.EscalateStale(ctx, time.Now().Add(-time.Hour), time.Now())
	if err != nil || count != 1 {
		t.Fatalf("期望升级1条，实际 count=%d err=%v", count, err)
	}

	// 再次扫描不重复升级
	count, _ = f.odRepo.EscalateStale(ctx, time.Now().Add(-time.Hour), time.Now())
	if count != 0 {
		t.Errorf("期望重复扫描升级0条，实际=%d", count)
	}

	// 管理员队列按存量状态呈现
	queue, _ = f.svc.ListForAdmin(ctx)
	if len(queue) != 1 || queue[0].Status != model.StatusForwardedToAdmin {
		t.Fatalf("期望队列中1条 forwarded_to_admin，实际=%+v", queue)
	}

	// 升级后班主任不能再批准
	if _, err := f.svc.AdvisorApprove(ctx, id, uAdvisor, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("期望升级后班主任批准被拒，实际: %v", err)
	}

	// 管理员转回系主任，系主任批准
	fwd, err := f.svc.ForwardToHOD(ctx, id, "checked with advisor")
	if err != nil {
		t.Fatalf("ForwardToHOD 应成功: %v", err)
	}
	if fwd.Status != model.StatusForwardedToHOD || fwd.ForwardedToHODAt == nil {
		t.Errorf("期望 forwarded_to_hod 并记录时间，实际=%+v", fwd)
	}

	final, err := f.svc.HODApprove(ctx, id, uHOD, "")
	if err != nil {
		t.Fatalf("HODApprove 应成功: %v", err)
	}
	if final.Status != model.StatusApprovedByHOD {
		t.Errorf("期望最终批准，实际=%s", final.Status)
	}
}

// ── 审批函幂等性测试 ──

func TestODRequestService_ArtifactIdempotent(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	resp, _ := f.svc.Create(ctx, uStudent, validCreateReq(), nil)
	id := resp.ID
	f.svc.AdvisorApprove(ctx, id, uAdvisor, "")

	// 批准时生成审批函
	if _, err := f.svc.HODApprove(ctx, id, uHOD, ""); err != nil {
		t.Fatalf("HODApprove 应成功: %v", err)
	}
	if f.gen.generated[id] != 1 {
		t.Fatalf("期望批准时生成1次，实际=%d", f.gen.generated[id])
	}

	// 重复取审批函不重复生成，路径稳定
	path1, err := f.svc.ApprovedLetterPath(ctx, id, uStudent, model.RoleStudent)
	if err != nil {
		t.Fatalf("取审批函应成功: %v", err)
	}
	path2, _ := f.svc.ApprovedLetterPath(ctx, id, uAdmin, model.RoleAdmin)
	if path1 != path2 {
		t.Errorf("期望路径稳定，实际 %s != %s", path1, path2)
	}
	if f.gen.generated[id] != 1 {
		t.Errorf("期望仍只生成1次，实际=%d", f.gen.generated[id])
	}
}

func TestODRequestService_ArtifactConcurrentFetch(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	resp, _ := f.svc.Create(ctx, uStudent, validCreateReq(), nil)
	id := resp.ID
	f.svc.AdvisorApprove(ctx, id, uAdvisor, "")
	f.svc.HODApprove(ctx, id, uHOD, "")

	var wg sync.WaitGroup
	paths := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			paths[i], _ = f.svc.ApprovedLetterPath(ctx, id, uAdmin, model.RoleAdmin)
		}(i)
	}
	wg.Wait()

	for _, p := range paths {
		if p != paths[0] {
			t.Fatalf("期望并发获取得到同一路径，实际 %v", paths)
		}
	}
}

func TestODRequestService_ArtifactOnlyAfterApproval(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	resp, _ := f.svc.Create(ctx, uStudent, validCreateReq(), nil)
	if _, err := f.svc.ApprovedLetterPath(ctx, resp.ID, uStudent, model.RoleStudent); !errors.Is(err, ErrArtifactNotReady) {
		t.Errorf("期望 ErrArtifactNotReady，实际: %v", err)
	}
}

// ── 证明材料测试 ──

func TestODRequestService_ProofLifecycle(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	resp, _ := f.svc.Create(ctx, uStudent, validCreateReq(), nil)
	id := resp.ID

	// 未提交证明不能审核
	if _, err := f.svc.VerifyProof(ctx, id, uAdvisor, true); !errors.Is(err, ErrProofNotSubmitted) {
		t.Errorf("期望 ErrProofNotSubmitted，实际: %v", err)
	}

	// 提交不要求已批准：活动可能先于审批结束，pending 状态也可提交
	submitted, err := f.svc.SubmitProof(ctx, id, uStudent, "proofs/x.pdf", []string{uFaculty2})
	if err != nil {
		t.Fatalf("SubmitProof 应成功: %v", err)
	}
	if !submitted.ProofSubmitted || submitted.ProofDocument == nil {
		t.Errorf("期望记录证明材料，实际=%+v", submitted)
	}
	if len(f.notifier.proofs) != 1 {
		t.Errorf("期望发出1次证明提交通知，实际=%d", len(f.notifier.proofs))
	}

	// 他人的学生不能提交
	if _, err := f.svc.SubmitProof(ctx, id, uStudent2, "proofs/y.pdf", nil); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("期望他人提交被拒，实际: %v", err)
	}

	// 审核只属于该申请的班主任：学生、系主任、知会教师都不行
	for _, caller := range []string{uStudent, uHOD, uFaculty2} {
		if _, err := f.svc.VerifyProof(ctx, id, caller, true); !errors.Is(err, ErrNotAuthorized) {
			t.Errorf("期望 %s 审核被拒，实际: %v", caller, err)
		}
	}

	// 审核通过：verified / rejected 互斥
	verified, err := f.svc.VerifyProof(ctx, id, uAdvisor, true)
	if err != nil {
		t.Fatalf("VerifyProof 应成功: %v", err)
	}
	if !verified.ProofVerified || verified.ProofRejected {
		t.Errorf("期望 verified=true rejected=false，实际=%+v", verified)
	}

	// 未批准的申请即使证明通过也不生成审批函
	if f.gen.generated[id] != 0 {
		t.Errorf("期望批准前不生成审批函，实际=%d", f.gen.generated[id])
	}

	// 改判驳回：标志翻转而不是叠加
	rejected, _ := f.svc.VerifyProof(ctx, id, uAdvisor, false)
	if rejected.ProofVerified || !rejected.ProofRejected {
		t.Errorf("期望 verified=false rejected=true，实际=%+v", rejected)
	}

	if len(f.notifier.reviewed) != 2 {
		t.Errorf("期望发出2次审核通知，实际=%d", len(f.notifier.reviewed))
	}
}

// ── 可见性测试 ──

func TestODRequestService_Visibility(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	resp, _ := f.svc.Create(ctx, uStudent, validCreateReq(), nil)
	id := resp.ID

	cases := []struct {
		caller string
		role   string
		ok     bool
	}{
		{uStudent, model.RoleStudent, true},
		{uStudent2, model.RoleStudent, false},
		{uAdvisor, model.RoleFaculty, true},
		{uFaculty2, model.RoleFaculty, false},
		{uHOD, model.RoleHOD, true},
		{uAdmin, model.RoleAdmin, true},
	}
	for _, tc := range cases {
		_, err := f.svc.Get(ctx, id, tc.caller, tc.role)
		if tc.ok && err != nil {
			t.Errorf("期望 %s 可见，实际: %v", tc.caller, err)
		}
		if !tc.ok && !errors.Is(err, ErrNotAuthorized) {
			t.Errorf("期望 %s 不可见，实际: %v", tc.caller, err)
		}
	}
}

// ── 通知开关测试 ──

func TestODRequestService_NotificationsDisabled(t *testing.T) {
	f := setupODTest()
	ctx := context.Background()

	f.settings.Update(ctx, map[string]interface{}{"notification_enabled": false})

	if _, err := f.svc.Create(ctx, uStudent, validCreateReq(), nil); err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if len(f.notifier.created) != 0 {
		t.Errorf("期望关闭通知后不发邮件，实际=%d", len(f.notifier.created))
	}
}
