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

func setupStudentTest() (StudentService, *mockUserRepo, *mockStudentRepo) {
	users := newMockUserRepo()
	users.users["u-adv"] = &model.User{UserID: "u-adv", Name: "Advisor", Email: "advisor@example.edu", Role: model.RoleFaculty}
	users.users["u-adm"] = &model.User{UserID: "u-adm", Name: "Admin", Email: "admin@example.edu", Role: model.RoleAdmin}

	students := newMockStudentRepo()
	repo := &repository.Repository{
		User:      users,
		Student:   students,
		ODRequest: newMockODRequestRepo(users, students),
		Settings:  newMockSettingsRepo(),
	}
	return NewStudentService(repo, zap.NewNop()), users, students
}

func TestStudentService_Create_Success(t *testing.T) {
	svc, users, _ := setupStudentTest()

	resp, err := svc.Create(context.Background(), &dto.CreateStudentRequest{
		Name:             "Arun",
		Email:            "arun@example.edu",
		Password:         "secret123",
		RegisterNo:       "CSE001",
		YearOfJoin:       2024,
		FacultyAdvisorID: "u-adv",
	})
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Department != "CSE" {
		t.Errorf("期望默认院系CSE，实际=%s", resp.Department)
	}
	if resp.FacultyAdvisorName != "Advisor" {
		t.Errorf("期望返回班主任姓名，实际=%s", resp.FacultyAdvisorName)
	}

	// 登录账号同步创建且密码不落明文
	user, err := users.GetByEmail(context.Background(), "arun@example.edu")
	if err != nil {
		t.Fatalf("期望配套用户已创建: %v", err)
	}
	if user.Role != model.RoleStudent {
		t.Errorf("期望角色为student，实际=%s", user.Role)
	}
	if user.Password == "secret123" {
		t.Error("期望密码经过哈希存储")
	}
}

func TestStudentService_Create_Conflicts(t *testing.T) {
	svc, _, _ := setupStudentTest()
	ctx := context.Background()

	req := &dto.CreateStudentRequest{
		Name: "Arun", Email: "arun@example.edu", Password: "secret123",
		RegisterNo: "CSE001", YearOfJoin: 2024, FacultyAdvisorID: "u-adv",
	}
	if _, err := svc.Create(ctx, req); err != nil {
		t.Fatalf("首次创建应成功: %v", err)
	}

	dup := *req
	dup.RegisterNo = "CSE002"
	if _, err := svc.Create(ctx, &dup); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际: %v", err)
	}

	dup = *req
	dup.Email = "other@example.edu"
	if _, err := svc.Create(ctx, &dup); !errors.Is(err, ErrRegisterNoTaken) {
		t.Errorf("期望 ErrRegisterNoTaken，实际: %v", err)
	}

	dup = *req
	dup.Email = "other@example.edu"
	dup.RegisterNo = "CSE003"
	dup.FacultyAdvisorID = "u-adm" // 管理员不是教师
	if _, err := svc.Create(ctx, &dup); !errors.Is(err, ErrAdvisorNotFaculty) {
		t.Errorf("期望 ErrAdvisorNotFaculty，实际: %v", err)
	}
}

func TestStudentService_Stats_GroupsByCurrentYear(t *testing.T) {
	svc, _, students := setupStudentTest()

	// 两个入学年份，折算后可能落在不同年级
	students.students["s1"] = &model.Student{StudentID: "s1", UserID: "u1", RegisterNo: "R1", YearOfJoin: 2024, FacultyAdvisorID: "u-adv"}
	students.students["s2"] = &model.Student{StudentID: "s2", UserID: "u2", RegisterNo: "R2", YearOfJoin: 2024, FacultyAdvisorID: "u-adv"}
	students.students["s3"] = &model.Student{StudentID: "s3", UserID: "u3", RegisterNo: "R3", YearOfJoin: 2025, FacultyAdvisorID: "u-adv"}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats 应成功: %v", err)
	}

	var total int64
	for _, st := range stats {
		total += st.Count
	}
	if total != 3 {
		t.Errorf("期望合计3人，实际=%d", total)
	}
}
