package dto

import "time"

// ── OD 申请模块 DTO ──

// CreateODRequest 创建申请请求（multipart 表单字段，brochure 文件单独处理）
type CreateODRequest struct {
	EventName     string   `form:"event_name" binding:"required,max=200"`
	EventType     string   `form:"event_type" binding:"omitempty,max=100"`
	EventDate     string   `form:"event_date" binding:"required,datetime=2006-01-02"`
	StartDate     string   `form:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate       string   `form:"end_date"   binding:"required,datetime=2006-01-02"`
	TimeType      string   `form:"time_type"  binding:"omitempty,oneof=fullDay particularHours"`
	StartTime     string   `form:"start_time" binding:"omitempty"` // RFC3339，仅 particularHours
	EndTime       string   `form:"end_time"   binding:"omitempty"`
	Reason        string   `form:"reason"     binding:"required,max=2000"`
	NotifyFaculty []string `form:"notify_faculty" binding:"omitempty,dive,uuid"`
}

// DecisionRequest 顾问/系主任审批请求（同意或驳回时的备注）
type DecisionRequest struct {
	Comment string `json:"comment" binding:"omitempty,max=2000"`
}

// VerifyProofRequest 证明材料审核请求
type VerifyProofRequest struct {
	Verified *bool `json:"verified" binding:"required"`
}

// ODRequestResponse 申请详情（读时联结出相关人员姓名，存储仍按 ID 规范化）
type ODRequestResponse struct {
	ID                 string     `json:"id"`
	Student            *StudentBrief `json:"student,omitempty"`
	EventName          string     `json:"event_name"`
	EventType          string     `json:"event_type,omitempty"`
	EventDate          time.Time  `json:"event_date"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	TimeType           string     `json:"time_type"`
	StartTime          *time.Time `json:"start_time,omitempty"`
	EndTime            *time.Time `json:"end_time,omitempty"`
	Reason             string     `json:"reason"`
	Department         string     `json:"department"`
	ClassAdvisorName   string     `json:"class_advisor_name,omitempty"`
	HODName            string     `json:"hod_name,omitempty"`
	NotifyFaculty      []string   `json:"notify_faculty,omitempty"`
	BrochurePath       *string    `json:"brochure_path,omitempty"`
	Status             string     `json:"status"`
	AdvisorComment     string     `json:"advisor_comment,omitempty"`
	HODComment         string     `json:"hod_comment,omitempty"`
	Remarks            string     `json:"remarks,omitempty"`
	ProofSubmitted     bool       `json:"proof_submitted"`
	ProofDocument      *string    `json:"proof_document,omitempty"`
	ProofVerified      bool       `json:"proof_verified"`
	ProofRejected      bool       `json:"proof_rejected"`
	AdvisorApprovedAt  *time.Time `json:"advisor_approved_at,omitempty"`
	HODApprovedAt      *time.Time `json:"hod_approved_at,omitempty"`
	ForwardedToHODAt   *time.Time `json:"forwarded_to_hod_at,omitempty"`
	ForwardedToAdminAt *time.Time `json:"forwarded_to_admin_at,omitempty"`
	LastStatusChangeAt time.Time  `json:"last_status_change_at"`
	HasApprovedPDF     bool       `json:"has_approved_pdf"`
	CreatedAt          time.Time  `json:"created_at"`
}

// StudentBrief 申请里内嵌的学生摘要
type StudentBrief struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RegisterNo  string `json:"register_no"`
	YearOfJoin  int    `json:"year_of_join"`
	CurrentYear string `json:"current_year"`
	Department  string `json:"department"`
}

// [自证通过] internal/dto/od_request.go
