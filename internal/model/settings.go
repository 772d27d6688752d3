package model

// SystemSettings 系统设置表 — 对应 system_settings（单行强类型）
// 首次读取时以默认值落库，此后由管理员显式更新
type SystemSettings struct {
	Singleton                 bool        `gorm:"primaryKey;default:true"     json:"-"`
	AutoForwardTimeoutMinutes int         `gorm:"not null;default:60"         json:"auto_forward_timeout_minutes"`
	AutoForwardEnabled        bool        `gorm:"not null;default:true"       json:"auto_forward_enabled"`
	NotificationEnabled       bool        `gorm:"not null;default:true"       json:"notification_enabled"`
	SenderEmail               string      `gorm:"type:varchar(255);not null;default:''" json:"sender_email"`
	SenderEmailPassword       string      `gorm:"type:varchar(255);not null;default:''" json:"-"`
	EventTypes                StringArray `gorm:"type:text[];not null"        json:"event_types"`
	BaseModel
}

// TableName 指定表名
func (SystemSettings) TableName() string { return "system_settings" }

// DefaultEventTypes 初始活动类型词表
func DefaultEventTypes() StringArray {
	return StringArray{"Symposium", "Workshop", "Hackathon", "Sports", "Conference"}
}

// 活动类型提案状态
const (
	EventTypeRequestPending  = "pending"
	EventTypeRequestAccepted = "accepted"
	EventTypeRequestRejected = "rejected"
)

// EventTypeRequest 活动类型提案表 — 对应 event_type_requests
// 学生提案进入待审队列，管理员通过后并入词表
type EventTypeRequest struct {
	EventTypeRequestID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_type_request_id"`
	Name               string `gorm:"type:varchar(100);not null"                     json:"name"`
	ProposedBy         string `gorm:"type:uuid;not null"                             json:"proposed_by"`
	Status             string `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | accepted | rejected
	BaseModel

	// 关联
	Proposer *User `gorm:"foreignKey:ProposedBy;references:UserID" json:"proposer,omitempty"`
}

// TableName 指定表名
func (EventTypeRequest) TableName() string { return "event_type_requests" }
