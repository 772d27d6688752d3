package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/abhijithm34/od-latest/internal/model"
	pkgerrors "github.com/abhijithm34/od-latest/pkg/errors"
	"github.com/abhijithm34/od-latest/pkg/mailer"
	"github.com/abhijithm34/od-latest/pkg/pdf"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, userID string) (*model.User, error) {
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, userIDs []string) ([]model.User, error) {
	var result []model.User
	for _, id := range userIDs {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == role {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) FindHOD(_ context.Context) (*model.User, error) {
	for _, u := range m.users {
		if u.Role == model.RoleHOD {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if student.StudentID == "" {
		student.StudentID = fmt.Sprintf("stu-%d", len(m.students)+1)
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, studentID string) (*model.Student, error) {
	if s, ok := m.students[studentID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByUserID(_ context.Context, userID string) (*model.Student, error) {
	for _, s := range m.students {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByRegisterNo(_ context.Context, registerNo string) (*model.Student, error) {
	for _, s := range m.students {
		if s.RegisterNo == registerNo {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) List(_ context.Context) ([]model.Student, error) {
	var result []model.Student
	for _, s := range m.students {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockStudentRepo) CountByYearOfJoin(_ context.Context) (map[int]int64, error) {
	counts := make(map[int]int64)
	for _, s := range m.students {
		counts[s.YearOfJoin]++
	}
	return counts, nil
}

// ── Mock ODRequestRepository ──
// 条件更新与批量升级用互斥锁模拟数据库的原子性，供并发测试使用

type mockODRequestRepo struct {
	mu   sync.Mutex
	reqs map[string]*model.ODRequest
	seq  int

	// 模拟 Preload 的关联数据源
	users    *mockUserRepo
	students *mockStudentRepo
}

func newMockODRequestRepo(users *mockUserRepo, students *mockStudentRepo) *mockODRequestRepo {
	return &mockODRequestRepo{
		reqs:     make(map[string]*model.ODRequest),
		users:    users,
		students: students,
	}
}

// preload 填充 GetByID 返回值上的关联，与 GORM Preload 行为对齐
func (m *mockODRequestRepo) preload(cp *model.ODRequest) {
	if s, ok := m.students.students[cp.StudentID]; ok {
		sc := *s
		if u, ok := m.users.users[s.UserID]; ok {
			sc.User = u
		}
		if a, ok := m.users.users[s.FacultyAdvisorID]; ok {
			sc.FacultyAdvisor = a
		}
		cp.Student = &sc
	}
	if a, ok := m.users.users[cp.ClassAdvisorID]; ok {
		cp.ClassAdvisor = a
	}
	if h, ok := m.users.users[cp.HODID]; ok {
		cp.HOD = h
	}
}

func (m *mockODRequestRepo) Create(_ context.Context, req *model.ODRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ODRequestID == "" {
		m.seq++
		req.ODRequestID = fmt.Sprintf("od-%d", m.seq)
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	m.reqs[req.ODRequestID] = req
	return nil
}

func (m *mockODRequestRepo) GetByID(_ context.Context, requestID string) (*model.ODRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reqs[requestID]; ok {
		cp := *r
		m.preload(&cp)
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockODRequestRepo) ListByStudent(_ context.Context, studentID string) ([]model.ODRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ODRequest
	for _, r := range m.reqs {
		if r.StudentID == studentID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockODRequestRepo) ListByClassAdvisor(_ context.Context, advisorID string, statuses []string) ([]model.ODRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ODRequest
	for _, r := range m.reqs {
		if r.ClassAdvisorID == advisorID && statusIn(r.Status, statuses) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockODRequestRepo) ListByHOD(_ context.Context, hodID string, statuses []string) ([]model.ODRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ODRequest
	for _, r := range m.reqs {
		if r.HODID == hodID && statusIn(r.Status, statuses) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockODRequestRepo) ListByStatus(_ context.Context, statuses []string) ([]model.ODRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ODRequest
	for _, r := range m.reqs {
		if statusIn(r.Status, statuses) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockODRequestRepo) ListAll(_ context.Context) ([]model.ODRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ODRequest
	for _, r := range m.reqs {
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockODRequestRepo) UpdateStatusIf(_ context.Context, requestID string, expected []string, newStatus string, now time.Time, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reqs[requestID]
	if !ok || !statusIn(r.Status, expected) {
		return pkgerrors.ErrStatusConflict
	}
	r.Status = newStatus
	r.LastStatusChangeAt = now
	for k, v := range fields {
		switch k {
		case "advisor_comment":
			r.AdvisorComment = v.(string)
		case "hod_comment":
			r.HODComment = v.(string)
		case "remarks":
			r.Remarks = v.(string)
		case "advisor_approved_at":
			t := v.(time.Time)
			r.AdvisorApprovedAt = &t
		case "hod_approved_at":
			t := v.(time.Time)
			r.HODApprovedAt = &t
		case "forwarded_to_hod_at":
			t := v.(time.Time)
			r.ForwardedToHODAt = &t
		}
	}
	return nil
}

func (m *mockODRequestRepo) EscalateStale(_ context.Context, threshold time.Time, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, r := range m.reqs {
		if r.Status == model.StatusPending && r.LastStatusChangeAt.Before(threshold) {
			r.Status = model.StatusForwardedToAdmin
			t := now
			r.ForwardedToAdminAt = &t
			r.LastStatusChangeAt = now
			count++
		}
	}
	return count, nil
}

func (m *mockODRequestRepo) SetProof(_ context.Context, requestID string, docPath string, notify model.StringArray) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reqs[requestID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.ProofSubmitted = true
	r.ProofDocument = &docPath
	r.ProofVerified = false
	r.ProofRejected = false
	if notify != nil {
		r.NotifyFaculty = notify
	}
	return nil
}

func (m *mockODRequestRepo) SetProofReview(_ context.Context, requestID string, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reqs[requestID]
	if !ok || !r.ProofSubmitted {
		return nil
	}
	r.ProofVerified = verified
	r.ProofRejected = !verified
	return nil
}

func (m *mockODRequestRepo) SetArtifactPath(_ context.Context, requestID string, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reqs[requestID]; ok {
		r.ApprovedPDFPath = &path
	}
	return nil
}

func statusIn(status string, statuses []string) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// ── Mock SettingsRepository ──

type mockSettingsRepo struct {
	settings     *model.SystemSettings
	eventTypeReq map[string]*model.EventTypeRequest
	seq          int
}

func newMockSettingsRepo() *mockSettingsRepo {
	return &mockSettingsRepo{eventTypeReq: make(map[string]*model.EventTypeRequest)}
}

func (m *mockSettingsRepo) Get(_ context.Context) (*model.SystemSettings, error) {
	if m.settings == nil {
		m.settings = &model.SystemSettings{
			Singleton:                 true,
			AutoForwardTimeoutMinutes: 60,
			AutoForwardEnabled:        true,
			NotificationEnabled:       true,
			EventTypes:                model.DefaultEventTypes(),
		}
	}
	cp := *m.settings
	return &cp, nil
}

func (m *mockSettingsRepo) Update(ctx context.Context, updates map[string]interface{}) error {
	if _, err := m.Get(ctx); err != nil {
		return err
	}
	for k, v := range updates {
		switch k {
		case "auto_forward_timeout_minutes":
			m.settings.AutoForwardTimeoutMinutes = v.(int)
		case "auto_forward_enabled":
			m.settings.AutoForwardEnabled = v.(bool)
		case "notification_enabled":
			m.settings.NotificationEnabled = v.(bool)
		case "sender_email":
			m.settings.SenderEmail = v.(string)
		case "sender_email_password":
			m.settings.SenderEmailPassword = v.(string)
		case "event_types":
			m.settings.EventTypes = v.(model.StringArray)
		}
	}
	return nil
}

func (m *mockSettingsRepo) CreateEventTypeRequest(_ context.Context, req *model.EventTypeRequest) error {
	if req.EventTypeRequestID == "" {
		m.seq++
		req.EventTypeRequestID = fmt.Sprintf("etr-%d", m.seq)
	}
	m.eventTypeReq[req.EventTypeRequestID] = req
	return nil
}

func (m *mockSettingsRepo) GetEventTypeRequest(_ context.Context, id string) (*model.EventTypeRequest, error) {
	if r, ok := m.eventTypeReq[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSettingsRepo) ListEventTypeRequests(_ context.Context, status string) ([]model.EventTypeRequest, error) {
	var result []model.EventTypeRequest
	for _, r := range m.eventTypeReq {
		if status == "" || r.Status == status {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockSettingsRepo) ResolveEventTypeRequest(_ context.Context, id string, newStatus string) error {
	r, ok := m.eventTypeReq[id]
	if !ok || r.Status != model.EventTypeRequestPending {
		return pkgerrors.ErrStatusConflict
	}
	r.Status = newStatus
	return nil
}

// ── Mock Generator / Notifier ──

// mockPDFGen 记录每个申请的生成次数，用于验证幂等性
type mockPDFGen struct {
	mu        sync.Mutex
	generated map[string]int
	files     map[string]bool
}

func newMockPDFGen() *mockPDFGen {
	return &mockPDFGen{generated: make(map[string]int), files: make(map[string]bool)}
}

func (g *mockPDFGen) GenerateApproved(l *pdf.Letter) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	path := "letters/approved_" + l.RequestID + ".pdf"
	if !g.files[path] {
		g.generated[l.RequestID]++
		g.files[path] = true
	}
	return path, nil
}

func (g *mockPDFGen) Exists(handle string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.files[handle]
}

func (g *mockPDFGen) RenderRequestForm(_ *pdf.Letter) (*bytes.Buffer, error) {
	return bytes.NewBufferString("%PDF-1.4 form"), nil
}

// mockNotifier 记录发出的通知
type mockNotifier struct {
	mu       sync.Mutex
	created  [][]string
	proofs   [][]string
	reviewed []bool
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{}
}

func (n *mockNotifier) RequestCreated(_ context.Context, to []string, _ *mailer.EventNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created = append(n.created, to)
	return nil
}

func (n *mockNotifier) ProofSubmitted(_ context.Context, to []string, _ *mailer.EventNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.proofs = append(n.proofs, to)
	return nil
}

func (n *mockNotifier) ProofReviewed(_ context.Context, to []string, _ *mailer.EventNotice, verified bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reviewed = append(n.reviewed, verified)
	return nil
}
