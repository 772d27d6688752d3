package dto

// ── 系统设置模块 DTO ──

// SystemSettingsResponse 系统设置
type SystemSettingsResponse struct {
	AutoForwardTimeoutMinutes int      `json:"auto_forward_timeout_minutes"`
	AutoForwardEnabled        bool     `json:"auto_forward_enabled"`
	NotificationEnabled       bool     `json:"notification_enabled"`
	SenderEmail               string   `json:"sender_email"`
	EventTypes                []string `json:"event_types"`
	UpdatedAt                 string   `json:"updated_at"`
}

// UpdateSystemSettingsRequest 更新系统设置（指针字段表示部分更新）
type UpdateSystemSettingsRequest struct {
	AutoForwardTimeoutMinutes *int    `json:"auto_forward_timeout_minutes" binding:"omitempty,min=1,max=10080"`
	AutoForwardEnabled        *bool   `json:"auto_forward_enabled"`
	NotificationEnabled       *bool   `json:"notification_enabled"`
	SenderEmail               *string `json:"sender_email"          binding:"omitempty,email"`
	SenderEmailPassword       *string `json:"sender_email_password" binding:"omitempty,max=255"`
}

// AutoForwardTimeoutResponse 自动转发超时单项读取
type AutoForwardTimeoutResponse struct {
	Minutes int `json:"minutes"`
}

// UpdateAutoForwardTimeoutRequest 自动转发超时单项更新
type UpdateAutoForwardTimeoutRequest struct {
	Minutes int `json:"minutes" binding:"required,min=1,max=10080"`
}

// AddEventTypeRequest 新增活动类型
type AddEventTypeRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// ProposeEventTypeRequest 学生提案新活动类型
type ProposeEventTypeRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// EventTypeRequestResponse 活动类型提案
type EventTypeRequestResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProposedBy   string `json:"proposed_by"`
	ProposerName string `json:"proposer_name,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
}
