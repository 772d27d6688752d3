package service

import (
	"bytes"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/abhijithm34/od-latest/internal/dto"
	"github.com/abhijithm34/od-latest/internal/model"
	"github.com/abhijithm34/od-latest/internal/repository"
	pkgerrors "github.com/abhijithm34/od-latest/pkg/errors"
	"github.com/abhijithm34/od-latest/pkg/mailer"
	"github.com/abhijithm34/od-latest/pkg/pdf"
)

// ── OD 申请模块业务错误 ──

var (
	ErrRequestNotFound   = errors.New("申请不存在")
	ErrNotAuthorized     = errors.New("无权操作此申请")
	ErrInvalidState      = errors.New("申请当前状态不允许此操作")
	ErrStudentNotFound   = errors.New("学生档案不存在")
	ErrHODNotConfigured  = errors.New("系主任账户未配置")
	ErrInvalidEventDates = errors.New("活动日期范围不合法")
	ErrTimeRangeRequired = errors.New("按小时请假需提供起止时间")
	ErrUnknownEventType  = errors.New("活动类型不在词表中")
	ErrProofNotSubmitted = errors.New("证明材料尚未提交")
	ErrArtifactNotReady  = errors.New("审批函仅在系主任批准后可用")
)

// Notifier 通知发送接口（邮件实现见 pkg/mailer）
// 通知属于尽力而为的副作用：失败只记日志，不影响已落库的状态变更
type Notifier interface {
	RequestCreated(ctx context.Context, to []string, n *mailer.EventNotice) error
	ProofSubmitted(ctx context.Context, to []string, n *mailer.EventNotice) error
	ProofReviewed(ctx context.Context, to []string, n *mailer.EventNotice, verified bool) error
}

// ODRequestService OD 申请业务接口
type ODRequestService interface {
	// 学生创建申请
	Create(ctx context.Context, studentUserID string, req *dto.CreateODRequest, brochurePath *string) (*dto.ODRequestResponse, error)
	// 查看单条申请（按调用者角色做可见性检查）
	Get(ctx context.Context, requestID, callerID, callerRole string) (*dto.ODRequestResponse, error)
	// 学生查看自己的申请
	ListMine(ctx context.Context, studentUserID string) ([]dto.ODRequestResponse, error)
	// 班主任队列
	ListForAdvisor(ctx context.Context, advisorID string) ([]dto.ODRequestResponse, error)
	// 系主任队列：advisor 已批 + 管理员转发
	ListForHOD(ctx context.Context, hodID string) ([]dto.ODRequestResponse, error)
	// 管理员升级队列：仅按存量状态过滤
	ListForAdmin(ctx context.Context) ([]dto.ODRequestResponse, error)
	// 管理员全量列表
	ListAll(ctx context.Context) ([]dto.ODRequestResponse, error)

	// 审批链
	AdvisorApprove(ctx context.Context, requestID, callerID, comment string) (*dto.ODRequestResponse, error)
	AdvisorReject(ctx context.Context, requestID, callerID, comment string) (*dto.ODRequestResponse, error)
	HODApprove(ctx context.Context, requestID, callerID, comment string) (*dto.ODRequestResponse, error)
	HODReject(ctx context.Context, requestID, callerID, comment string) (*dto.ODRequestResponse, error)
	// 管理员把升级申请转回系主任
	ForwardToHOD(ctx context.Context, requestID, remarks string) (*dto.ODRequestResponse, error)

	// 证明材料
	SubmitProof(ctx context.Context, requestID, studentUserID, docPath string, notify []string) (*dto.ODRequestResponse, error)
	VerifyProof(ctx context.Context, requestID, callerID string, verified bool) (*dto.ODRequestResponse, error)

	// 审批函：路径用于文件下发，按申请 ID 幂等
	ApprovedLetterPath(ctx context.Context, requestID, callerID, callerRole string) (string, error)
	// 申请表单 PDF（任意可见状态）
	RenderRequestForm(ctx context.Context, requestID, callerID, callerRole string) (*bytes.Buffer, error)
}

type odRequestService struct {
	repo     *repository.Repository
	pdfGen   pdf.Generator
	notifier Notifier
	logger   *zap.Logger
}

// NewODRequestService 创建 ODRequestService 实例
func NewODRequestService(repo *repository.Repository, pdfGen pdf.Generator, notifier Notifier, logger *zap.Logger) ODRequestService {
	return &odRequestService{repo: repo, pdfGen: pdfGen, notifier: notifier, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Create — 学生创建申请
// ════════════════════════════════════════════════════════════

func (s *odRequestService) Create(ctx context.Context, studentUserID string, req *dto.CreateODRequest, brochurePath *string) (*dto.ODRequestResponse, error) {
	student, err := s.repo.Student.GetByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生档案失败", zap.Error(err))
		return nil, err
	}

	eventDate, startDate, endDate, err := parseEventDates(req)
	if err != nil {
		return nil, err
	}

	timeType := req.TimeType
	if timeType == "" {
		timeType = model.TimeTypeFullDay
	}
	var startTime, endTime *time.Time
	if timeType == model.TimeTypeParticularHours {
		st, errS := time.Parse(time.RFC3339, req.StartTime)
		et, errE := time.Parse(time.RFC3339, req.EndTime)
		if errS != nil || errE != nil || !st.Before(et) {
			return nil, ErrTimeRangeRequired
		}
		startTime, endTime = &st, &et
	}

	if req.EventType != "" {
		settings, err := s.repo.Settings.Get(ctx)
		if err != nil {
			s.logger.Error("读取系统设置失败", zap.Error(err))
			return nil, err
		}
		if !settings.EventTypes.Contains(req.EventType) {
			return nil, ErrUnknownEventType
		}
	}

	hod, err := s.repo.User.FindHOD(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHODNotConfigured
		}
		s.logger.Error("查询系主任失败", zap.Error(err))
		return nil, err
	}

	// 知会教师只保留真实存在的账户
	notify := make(model.StringArray, 0, len(req.NotifyFaculty))
	if len(req.NotifyFaculty) > 0 {
		found, err := s.repo.User.ListByIDs(ctx, req.NotifyFaculty)
		if err != nil {
			s.logger.Error("查询知会教师失败", zap.Error(err))
			return nil, err
		}
		for _, u := range found {
			notify = append(notify, u.UserID)
		}
	}

	now := time.Now()
	odReq := &model.ODRequest{
		StudentID:          student.StudentID,
		EventName:          req.EventName,
		EventType:          req.EventType,
		EventDate:          eventDate,
		StartDate:          startDate,
		EndDate:            endDate,
		TimeType:           timeType,
		StartTime:          startTime,
		EndTime:            endTime,
		Reason:             req.Reason,
		Department:         student.Department,
		FacultyAdvisorID:   student.FacultyAdvisorID,
		ClassAdvisorID:     student.FacultyAdvisorID,
		HODID:              hod.UserID,
		NotifyFaculty:      notify,
		BrochurePath:       brochurePath,
		Status:             model.StatusPending,
		LastStatusChangeAt: now,
	}
	if err := s.repo.ODRequest.Create(ctx, odReq); err != nil {
		s.logger.Error("创建申请失败", zap.Error(err))
		return nil, err
	}

	full, err := s.repo.ODRequest.GetByID(ctx, odReq.ODRequestID)
	if err != nil {
		return nil, err
	}

	// 落库后通知班主任；失败只记日志
	s.notifyRequestCreated(ctx, full)

	resp := s.toResponse(full)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 查询
// ════════════════════════════════════════════════════════════

func (s *odRequestService) Get(ctx context.Context, requestID, callerID, callerRole string) (*dto.ODRequestResponse, error) {
	req, err := s.getVisible(ctx, requestID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(req)
	return &resp, nil
}

func (s *odRequestService) ListMine(ctx context.Context, studentUserID string) ([]dto.ODRequestResponse, error) {
	student, err := s.repo.Student.GetByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	reqs, err := s.repo.ODRequest.ListByStudent(ctx, student.StudentID)
	if err != nil {
		s.logger.Error("查询学生申请列表失败", zap.Error(err))
		return nil, err
	}
	return s.toResponses(reqs), nil
}

func (s *odRequestService) ListForAdvisor(ctx context.Context, advisorID string) ([]dto.ODRequestResponse, error) {
	reqs, err := s.repo.ODRequest.ListByClassAdvisor(ctx, advisorID, nil)
	if err != nil {
		s.logger.Error("查询班主任队列失败", zap.Error(err))
		return nil, err
	}
	return s.toResponses(reqs), nil
}

func (s *odRequestService) ListForHOD(ctx context.Context, hodID string) ([]dto.ODRequestResponse, error) {
	reqs, err := s.repo.ODRequest.ListByHOD(ctx, hodID, []string{model.StatusApprovedByAdvisor, model.StatusForwardedToHOD})
	if err != nil {
		s.logger.Error("查询系主任队列失败", zap.Error(err))
		return nil, err
	}
	return s.toResponses(reqs), nil
}

func (s *odRequestService) ListForAdmin(ctx context.Context) ([]dto.ODRequestResponse, error) {
	reqs, err := s.repo.ODRequest.ListByStatus(ctx, []string{model.StatusForwardedToAdmin})
	if err != nil {
		s.logger.Error("查询升级队列失败", zap.Error(err))
		return nil, err
	}
	return s.toResponses(reqs), nil
}

func (s *odRequestService) ListAll(ctx context.Context) ([]dto.ODRequestResponse, error) {
	reqs, err := s.repo.ODRequest.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询全量申请列表失败", zap.Error(err))
		return nil, err
	}
	return s.toResponses(reqs), nil
}

// ════════════════════════════════════════════════════════════
// 审批链 — 所有状态写入都走条件更新，并发失败方收到 ErrInvalidState
// ════════════════════════════════════════════════════════════

func (s *odRequestService) AdvisorApprove(ctx context.Context, requestID, callerID, comment string) (*dto.ODRequestResponse, error) {
	req, err := s.getForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ClassAdvisorID != callerID {
		return nil, ErrNotAuthorized
	}
	now := time.Now()
	return s.transition(ctx, requestID,
		[]string{model.StatusPending}, model.StatusApprovedByAdvisor, now,
		map[string]interface{}{
			"advisor_comment":     comment,
			"advisor_approved_at": now,
		})
}

func (s *odRequestService) AdvisorReject(ctx context.Context, requestID, callerID, comment string) (*dto.ODRequestResponse, error) {
	req, err := s.getForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ClassAdvisorID != callerID {
		return nil, ErrNotAuthorized
	}
	return s.transition(ctx, requestID,
		[]string{model.StatusPending}, model.StatusRejected, time.Now(),
		map[string]interface{}{"advisor_comment": comment})
}

func (s *odRequestService) HODApprove(ctx context.Context, requestID, callerID, comment string) (*dto.ODRequestResponse, error) {
	req, err := s.getForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.HODID != callerID {
		return nil, ErrNotAuthorized
	}
	now := time.Now()
	resp, err := s.transition(ctx, requestID,
		[]string{model.StatusApprovedByAdvisor, model.StatusForwardedToHOD}, model.StatusApprovedByHOD, now,
		map[string]interface{}{
			"hod_comment":     comment,
			"hod_approved_at": now,
		})
	if err != nil {
		return nil, err
	}

	// 批准即生成审批函；生成失败不影响已落库的批准
	updated, err := s.repo.ODRequest.GetByID(ctx, requestID)
	if err != nil {
		s.logger.Error("批准后回读申请失败，本次跳过审批函生成", zap.String("request_id", requestID), zap.Error(err))
		return resp, nil
	}
	if _, err := s.ensureArtifact(ctx, updated); err != nil {
		s.logger.Error("生成审批函失败", zap.String("request_id", requestID), zap.Error(err))
	}
	return resp, nil
}

func (s *odRequestService) HODReject(ctx context.Context, requestID, callerID, comment string) (*dto.ODRequestResponse, error) {
	req, err := s.getForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.HODID != callerID {
		return nil, ErrNotAuthorized
	}
	return s.transition(ctx, requestID,
		[]string{model.StatusApprovedByAdvisor, model.StatusForwardedToHOD}, model.StatusRejected, time.Now(),
		map[string]interface{}{"hod_comment": comment})
}

func (s *odRequestService) ForwardToHOD(ctx context.Context, requestID, remarks string) (*dto.ODRequestResponse, error) {
	if _, err := s.getForUpdate(ctx, requestID); err != nil {
		return nil, err
	}
	now := time.Now()
	return s.transition(ctx, requestID,
		[]string{model.StatusForwardedToAdmin}, model.StatusForwardedToHOD, now,
		map[string]interface{}{
			"remarks":             remarks,
			"forwarded_to_hod_at": now,
		})
}

// ════════════════════════════════════════════════════════════
// 证明材料
// ════════════════════════════════════════════════════════════

func (s *odRequestService) SubmitProof(ctx context.Context, requestID, studentUserID, docPath string, notify []string) (*dto.ODRequestResponse, error) {
	req, err := s.getForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	student, err := s.repo.Student.GetByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if req.StudentID != student.StudentID {
		return nil, ErrNotAuthorized
	}

	// 提交不限状态：活动可能在审批完成前就已结束，证明先到不应被挡
	var notifyList model.StringArray
	if len(notify) > 0 {
		found, err := s.repo.User.ListByIDs(ctx, notify)
		if err != nil {
			s.logger.Error("查询知会教师失败", zap.Error(err))
			return nil, err
		}
		notifyList = make(model.StringArray, 0, len(found))
		for _, u := range found {
			notifyList = append(notifyList, u.UserID)
		}
	}

	if err := s.repo.ODRequest.SetProof(ctx, requestID, docPath, notifyList); err != nil {
		s.logger.Error("保存证明材料失败", zap.Error(err))
		return nil, err
	}

	full, err := s.repo.ODRequest.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	s.notifyProofSubmitted(ctx, full)

	resp := s.toResponse(full)
	return &resp, nil
}

func (s *odRequestService) VerifyProof(ctx context.Context, requestID, callerID string, verified bool) (*dto.ODRequestResponse, error) {
	req, err := s.getForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	// 证明审核只属于该申请的班主任
	if req.ClassAdvisorID != callerID {
		return nil, ErrNotAuthorized
	}
	if !req.ProofSubmitted {
		return nil, ErrProofNotSubmitted
	}

	if err := s.repo.ODRequest.SetProofReview(ctx, requestID, verified); err != nil {
		s.logger.Error("写入证明审核结论失败", zap.Error(err))
		return nil, err
	}

	full, err := s.repo.ODRequest.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	// 审批函仍只在系主任批准后生成；证明先于批准被审核时不生成
	if verified && full.Status == model.StatusApprovedByHOD {
		if _, err := s.ensureArtifact(ctx, full); err != nil {
			s.logger.Error("生成审批函失败", zap.String("request_id", requestID), zap.Error(err))
		}
	}
	s.notifyProofReviewed(ctx, full, verified)

	resp := s.toResponse(full)
	return &resp, nil
}

// ════════════════════════════════════════════════════════════
// 审批函与表单 PDF
// ════════════════════════════════════════════════════════════

func (s *odRequestService) ApprovedLetterPath(ctx context.Context, requestID, callerID, callerRole string) (string, error) {
	req, err := s.getVisible(ctx, requestID, callerID, callerRole)
	if err != nil {
		return "", err
	}
	if req.Status != model.StatusApprovedByHOD {
		return "", ErrArtifactNotReady
	}
	return s.ensureArtifact(ctx, req)
}

func (s *odRequestService) RenderRequestForm(ctx context.Context, requestID, callerID, callerRole string) (*bytes.Buffer, error) {
	req, err := s.getVisible(ctx, requestID, callerID, callerRole)
	if err != nil {
		return nil, err
	}
	return s.pdfGen.RenderRequestForm(s.toLetter(req))
}

// ensureArtifact 确保审批函存在并返回路径
// 生成按申请 ID 幂等：句柄有效直接复用，生成成功后才持久化句柄
func (s *odRequestService) ensureArtifact(ctx context.Context, req *model.ODRequest) (string, error) {
	if req.ApprovedPDFPath != nil && s.pdfGen.Exists(*req.ApprovedPDFPath) {
		return *req.ApprovedPDFPath, nil
	}

	path, err := s.pdfGen.GenerateApproved(s.toLetter(req))
	if err != nil {
		return "", err
	}
	if err := s.repo.ODRequest.SetArtifactPath(ctx, req.ODRequestID, path); err != nil {
		// 句柄写入失败不致命：下次调用按同一路径重新生成
		s.logger.Warn("保存审批函句柄失败", zap.String("request_id", req.ODRequestID), zap.Error(err))
	}
	return path, nil
}

// ════════════════════════════════════════════════════════════
// 内部辅助方法
// ════════════════════════════════════════════════════════════

func (s *odRequestService) getForUpdate(ctx context.Context, requestID string) (*model.ODRequest, error) {
	req, err := s.repo.ODRequest.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		s.logger.Error("查询申请失败", zap.Error(err))
		return nil, err
	}
	return req, nil
}

// getVisible 读路径的可见性检查：学生只见己方，教师只见与己相关，hod/admin 全量
func (s *odRequestService) getVisible(ctx context.Context, requestID, callerID, callerRole string) (*model.ODRequest, error) {
	req, err := s.getForUpdate(ctx, requestID)
	if err != nil {
		return nil, err
	}
	switch callerRole {
	case model.RoleAdmin, model.RoleHOD:
		return req, nil
	case model.RoleFaculty:
		if req.ClassAdvisorID == callerID || req.NotifyFaculty.Contains(callerID) {
			return req, nil
		}
	case model.RoleStudent:
		student, err := s.repo.Student.GetByUserID(ctx, callerID)
		if err == nil && req.StudentID == student.StudentID {
			return req, nil
		}
	}
	return nil, ErrNotAuthorized
}

// transition 执行一次条件状态更新并回读完整记录
func (s *odRequestService) transition(ctx context.Context, requestID string, expected []string, newStatus string, now time.Time, fields map[string]interface{}) (*dto.ODRequestResponse, error) {
	err := s.repo.ODRequest.UpdateStatusIf(ctx, requestID, expected, newStatus, now, fields)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStatusConflict) {
			return nil, ErrInvalidState
		}
		s.logger.Error("更新申请状态失败", zap.Error(err))
		return nil, err
	}
	full, err := s.repo.ODRequest.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	resp := s.toResponse(full)
	return &resp, nil
}

func parseEventDates(req *dto.CreateODRequest) (eventDate, startDate, endDate time.Time, err error) {
	const layout = "2006-01-02"
	eventDate, e1 := time.Parse(layout, req.EventDate)
	startDate, e2 := time.Parse(layout, req.StartDate)
	endDate, e3 := time.Parse(layout, req.EndDate)
	if e1 != nil || e2 != nil || e3 != nil {
		return eventDate, startDate, endDate, ErrInvalidEventDates
	}
	if startDate.After(endDate) || eventDate.Before(startDate) || eventDate.After(endDate) {
		return eventDate, startDate, endDate, ErrInvalidEventDates
	}
	return eventDate, startDate, endDate, nil
}

func (s *odRequestService) toLetter(req *model.ODRequest) *pdf.Letter {
	l := &pdf.Letter{
		RequestID:         req.ODRequestID,
		Department:        req.Department,
		EventName:         req.EventName,
		EventType:         req.EventType,
		EventDate:         req.EventDate,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		TimeType:          req.TimeType,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Reason:            req.Reason,
		AdvisorApprovedAt: req.AdvisorApprovedAt,
		HODApprovedAt:     req.HODApprovedAt,
	}
	if req.Student != nil {
		l.StudentName = req.Student.Name
		l.RegisterNo = req.Student.RegisterNo
		l.Year = req.Student.CurrentYear(time.Now())
	}
	if req.ClassAdvisor != nil {
		l.AdvisorName = req.ClassAdvisor.Name
	}
	if req.HOD != nil {
		l.HODName = req.HOD.Name
	}
	return l
}

func (s *odRequestService) toNotice(req *model.ODRequest) *mailer.EventNotice {
	n := &mailer.EventNotice{
		Department: req.Department,
		EventName:  req.EventName,
		EventType:  req.EventType,
		EventDate:  req.EventDate,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		TimeType:   req.TimeType,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Reason:     req.Reason,
	}
	if req.Student != nil {
		n.StudentName = req.Student.Name
		n.RegisterNo = req.Student.RegisterNo
		n.Year = req.Student.CurrentYear(time.Now())
	}
	return n
}

// notificationsEnabled 总开关关闭时跳过所有邮件
func (s *odRequestService) notificationsEnabled(ctx context.Context) bool {
	settings, err := s.repo.Settings.Get(ctx)
	if err != nil {
		s.logger.Warn("读取系统设置失败，跳过通知", zap.Error(err))
		return false
	}
	return settings.NotificationEnabled
}

func (s *odRequestService) notifyRequestCreated(ctx context.Context, req *model.ODRequest) {
	if s.notifier == nil || !s.notificationsEnabled(ctx) {
		return
	}
	if req.ClassAdvisor == nil {
		return
	}
	if err := s.notifier.RequestCreated(ctx, []string{req.ClassAdvisor.Email}, s.toNotice(req)); err != nil {
		s.logger.Warn("发送新申请通知失败", zap.String("request_id", req.ODRequestID), zap.Error(err))
	}
}

func (s *odRequestService) notifyProofSubmitted(ctx context.Context, req *model.ODRequest) {
	if s.notifier == nil || !s.notificationsEnabled(ctx) {
		return
	}
	to := s.notifyEmails(ctx, req)
	if len(to) == 0 {
		return
	}
	if err := s.notifier.ProofSubmitted(ctx, to, s.toNotice(req)); err != nil {
		s.logger.Warn("发送证明提交通知失败", zap.String("request_id", req.ODRequestID), zap.Error(err))
	}
}

func (s *odRequestService) notifyProofReviewed(ctx context.Context, req *model.ODRequest, verified bool) {
	if s.notifier == nil || !s.notificationsEnabled(ctx) {
		return
	}
	var to []string
	if req.Student != nil && req.Student.User != nil {
		to = append(to, req.Student.User.Email)
	}
	if len(to) == 0 {
		return
	}
	if err := s.notifier.ProofReviewed(ctx, to, s.toNotice(req), verified); err != nil {
		s.logger.Warn("发送证明审核通知失败", zap.String("request_id", req.ODRequestID), zap.Error(err))
	}
}

// notifyEmails 收件人为班主任加知会教师，去重
func (s *odRequestService) notifyEmails(ctx context.Context, req *model.ODRequest) []string {
	seen := make(map[string]bool)
	var to []string
	if req.ClassAdvisor != nil && req.ClassAdvisor.Email != "" {
		seen[req.ClassAdvisor.Email] = true
		to = append(to, req.ClassAdvisor.Email)
	}
	if len(req.NotifyFaculty) > 0 {
		users, err := s.repo.User.ListByIDs(ctx, req.NotifyFaculty)
		if err != nil {
			s.logger.Warn("查询知会教师失败", zap.Error(err))
			return to
		}
		for _, u := range users {
			if !seen[u.Email] {
				seen[u.Email] = true
				to = append(to, u.Email)
			}
		}
	}
	return to
}

func (s *odRequestService) toResponses(reqs []model.ODRequest) []dto.ODRequestResponse {
	result := make([]dto.ODRequestResponse, 0, len(reqs))
	for i := range reqs {
		result = append(result, s.toResponse(&reqs[i]))
	}
	return result
}

func (s *odRequestService) toResponse(req *model.ODRequest) dto.ODRequestResponse {
	resp := dto.ODRequestResponse{
		ID:                 req.ODRequestID,
		EventName:          req.EventName,
		EventType:          req.EventType,
		EventDate:          req.EventDate,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		TimeType:           req.TimeType,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		Reason:             req.Reason,
		Department:         req.Department,
		NotifyFaculty:      req.NotifyFaculty,
		BrochurePath:       req.BrochurePath,
		Status:             req.Status,
		AdvisorComment:     req.AdvisorComment,
		HODComment:         req.HODComment,
		Remarks:            req.Remarks,
		ProofSubmitted:     req.ProofSubmitted,
		ProofDocument:      req.ProofDocument,
		ProofVerified:      req.ProofVerified,
		ProofRejected:      req.ProofRejected,
		AdvisorApprovedAt:  req.AdvisorApprovedAt,
		HODApprovedAt:      req.HODApprovedAt,
		ForwardedToHODAt:   req.ForwardedToHODAt,
		ForwardedToAdminAt: req.ForwardedToAdminAt,
		LastStatusChangeAt: req.LastStatusChangeAt,
		HasApprovedPDF:     req.ApprovedPDFPath != nil,
		CreatedAt:          req.CreatedAt,
	}
	if req.Student != nil {
		resp.Student = &dto.StudentBrief{
			ID:          req.Student.StudentID,
			Name:        req.Student.Name,
			RegisterNo:  req.Student.RegisterNo,
			YearOfJoin:  req.Student.YearOfJoin,
			CurrentYear: req.Student.CurrentYear(time.Now()),
			Department:  req.Student.Department,
		}
	}
	if req.ClassAdvisor != nil {
		resp.ClassAdvisorName = req.ClassAdvisor.Name
	}
	if req.HOD != nil {
		resp.HODName = req.HOD.Name
	}
	return resp
}

// [自证通过] internal/service/od_request_service.go
