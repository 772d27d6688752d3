package repository

import (
	"context"

	"github.com/abhijithm34/od-latest/internal/model"
	pkgerrors "github.com/abhijithm34/od-latest/pkg/errors"
	"gorm.io/gorm"
)

// SettingsRepository 系统设置与活动类型提案数据访问接口
type SettingsRepository interface {
	// Get 读取单行设置，不存在时以默认值创建
	Get(ctx context.Context) (*model.SystemSettings, error)
	Update(ctx context.Context, updates map[string]interface{}) error

	CreateEventTypeRequest(ctx context.Context, req *model.EventTypeRequest) error
	GetEventTypeRequest(ctx context.Context, id string) (*model.EventTypeRequest, error)
	ListEventTypeRequests(ctx context.Context, status string) ([]model.EventTypeRequest, error)
	// ResolveEventTypeRequest 条件更新提案状态：仅 pending 可被裁决
	ResolveEventTypeRequest(ctx context.Context, id string, newStatus string) error
}

type settingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context) (*model.SystemSettings, error) {
	var settings model.SystemSettings
	err := r.db.WithContext(ctx).
		Where("singleton = ?", true).
		Attrs(model.SystemSettings{
			AutoForwardTimeoutMinutes: 60,
			AutoForwardEnabled:        true,
			NotificationEnabled:       true,
			EventTypes:                model.DefaultEventTypes(),
		}).
		FirstOrCreate(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepo) Update(ctx context.Context, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.SystemSettings{}).
		Where("singleton = ?", true).
		Updates(updates).Error
}

func (r *settingsRepo) CreateEventTypeRequest(ctx context.Context, req *model.EventTypeRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *settingsRepo) GetEventTypeRequest(ctx context.Context, id string) (*model.EventTypeRequest, error) {
	var req model.EventTypeRequest
	err := r.db.WithContext(ctx).
		Preload("Proposer").
		Where("event_type_request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *settingsRepo) ListEventTypeRequests(ctx context.Context, status string) ([]model.EventTypeRequest, error) {
	var reqs []model.EventTypeRequest
	query := r.db.WithContext(ctx).Preload("Proposer")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Find(&reqs).Error
	return reqs, err
}

func (r *settingsRepo) ResolveEventTypeRequest(ctx context.Context, id string, newStatus string) error {
	result := r.db.WithContext(ctx).
		Model(&model.EventTypeRequest{}).
		Where("event_type_request_id = ? AND status = ?", id, model.EventTypeRequestPending).
		Update("status", newStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStatusConflict
	}
	return nil
}
