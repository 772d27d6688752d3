package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhijithm34/od-latest/config"
	"github.com/abhijithm34/od-latest/internal/dto"
	"github.com/abhijithm34/od-latest/internal/service"
	"github.com/abhijithm34/od-latest/pkg/response"
)

// 附件允许的扩展名（证明材料与宣传册共用）
var allowedUploadExts = map[string]bool{
	".pdf":  true,
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

// ODRequestHandler OD 申请模块 HTTP 处理器
type ODRequestHandler struct {
	odSvc   service.ODRequestService
	storage *config.StorageConfig
}

// NewODRequestHandler 创建 ODRequestHandler
func NewODRequestHandler(odSvc service.ODRequestService, storage *config.StorageConfig) *ODRequestHandler {
	return &ODRequestHandler{odSvc: odSvc, storage: storage}
}

// Create 学生创建申请（multipart，宣传册可选字段 brochure）
// POST /api/v1/od-requests
func (h *ODRequestHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateODRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	var brochurePath *string
	if file, err := c.FormFile("brochure"); err == nil {
		path, err := h.saveUpload(c, file, h.storage.BrochureDir)
		if err != nil {
			return
		}
		brochurePath = &path
	}

	resp, err := h.odSvc.Create(c.Request.Context(), userID, &req, brochurePath)
	if err != nil {
		h.handleODError(c, err)
		return
	}

	response.Created(c, resp)
}

// Get 查看单条申请
// GET /api/v1/od-requests/:id
func (h *ODRequestHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	resp, err := h.odSvc.Get(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.handleODError(c, err)
		return
	}

	response.OK(c, resp)
}

// ListMine 学生查看自己的申请
// GET /api/v1/od-requests/my
func (h *ODRequestHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.odSvc.ListMine(c.Request.Context(), userID)
	if err != nil {
		h.handleODError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListForAdvisor 班主任队列
// GET /api/v1/od-requests/advisor
func (h *ODRequestHandler) ListForAdvisor(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.odSvc.ListForAdvisor(c.Request.Context(), userID)
	if err != nil {
		h.handleODError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListForHOD 系主任队列
// GET /api/v1/od-requests/hod
func (h *ODRequestHandler) ListForHOD(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	resp, err := h.odSvc.ListForHOD(c.Request.Context(), userID)
	if err != nil {
		h.handleODError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListForAdmin 管理员升级队列（?register_no= 按学号过滤）
// GET /api/v1/od-requests/admin
func (h *ODRequestHandler) ListForAdmin(c *gin.Context) {
	resp, err := h.odSvc.ListForAdmin(c.Request.Context())
	if err != nil {
		h.handleODError(c, err)
		return
	}

	if registerNo := c.Query("register_no"); registerNo != "" {
		filtered := make([]dto.ODRequestResponse, 0, len(resp))
		for _, r := range resp {
			if r.Student != nil && r.Student.RegisterNo == registerNo {
				filtered = append(filtered, r)
			}
		}
		resp = filtered
	}
	response.OK(c, resp)
}

// ListAll 管理员全量列表
// GET /api/v1/od-requests
func (h *ODRequestHandler) ListAll(c *gin.Context) {
	resp, err := h.odSvc.ListAll(c.Request.Context())
	if err != nil {
		h.handleODError(c, err)
		return
	}
	response.OK(c, resp)
}

// AdvisorApprove 班主任批准
// POST /api/v1/od-requests/:id/advisor-approve
func (h *ODRequestHandler) AdvisorApprove(c *gin.Context) {
	h.decide(c, h.odSvc.AdvisorApprove)
}

// AdvisorReject 班主任驳回
// POST /api/v1/od-requests/:id/advisor-reject
func (h *ODRequestHandler) AdvisorReject(c *gin.Context) {
	h.decide(c, h.odSvc.AdvisorReject)
}

// HODApprove 系主任批准
// POST /api/v1/od-requests/:id/hod-approve
func (h *ODRequestHandler) HODApprove(c *gin.Context) {
	h.decide(c, h.odSvc.HODApprove)
}

// HODReject 系主任驳回
// POST /api/v1/od-requests/:id/hod-reject
func (h *ODRequestHandler) HODReject(c *gin.Context) {
	h.decide(c, h.odSvc.HODReject)
}

// ForwardToHOD 管理员把升级申请转回系主任
// POST /api/v1/od-requests/:id/forward-to-hod
func (h *ODRequestHandler) ForwardToHOD(c *gin.Context) {
	var req dto.DecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	resp, err := h.odSvc.ForwardToHOD(c.Request.Context(), c.Param("id"), req.Comment)
	if err != nil {
		h.handleODError(c, err)
		return
	}
	response.OK(c, resp)
}

// SubmitProof 学生提交证明材料（multipart，文件字段 proof）
// POST /api/v1/od-requests/:id/proof
func (h *ODRequestHandler) SubmitProof(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("proof")
	if err != nil {
		response.BadRequest(c, 10001, "缺少证明文件")
		return
	}
	path, err := h.saveUpload(c, file, h.storage.ProofDir)
	if err != nil {
		return
	}

	notify := c.PostFormArray("notify_faculty")

	resp, err := h.odSvc.SubmitProof(c.Request.Context(), c.Param("id"), userID, path, notify)
	if err != nil {
		h.handleODError(c, err)
		return
	}
	response.OK(c, resp)
}

// VerifyProof 教师审核证明材料
// POST /api/v1/od-requests/:id/verify-proof
func (h *ODRequestHandler) VerifyProof(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.VerifyProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.odSvc.VerifyProof(c.Request.Context(), c.Param("id"), userID, *req.Verified)
	if err != nil {
		h.handleODError(c, err)
		return
	}
	response.OK(c, resp)
}

// DownloadApprovedPDF 下载审批函
// GET /api/v1/od-requests/:id/approved-pdf
func (h *ODRequestHandler) DownloadApprovedPDF(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	path, err := h.odSvc.ApprovedLetterPath(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.handleODError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filepath.Base(path)))
	c.File(path)
}

// DownloadRequestForm 下载申请表单 PDF
// GET /api/v1/od-requests/:id/form-pdf
func (h *ODRequestHandler) DownloadRequestForm(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	buf, err := h.odSvc.RenderRequestForm(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.handleODError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=od_request_%s.pdf", c.Param("id")))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// ── 内部辅助 ──

// decide 审批动作的公共骨架：绑定备注，调用业务，回写结果
// 备注可省略，空 body 按无备注处理
func (h *ODRequestHandler) decide(c *gin.Context, fn func(ctx context.Context, requestID, callerID, comment string) (*dto.ODRequestResponse, error)) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.DecisionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	resp, err := fn(c.Request.Context(), c.Param("id"), userID, req.Comment)
	if err != nil {
		h.handleODError(c, err)
		return
	}
	response.OK(c, resp)
}

// saveUpload 保存上传文件并返回落盘路径
// 失败时已写入响应，调用方直接 return
func (h *ODRequestHandler) saveUpload(c *gin.Context, file *multipart.FileHeader, dir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedUploadExts[ext] {
		response.BadRequest(c, 11001, "仅支持 pdf / jpeg / jpg / png 附件")
		return "", errors.New("附件类型不允许")
	}
	if h.storage.MaxUploadBytes > 0 && file.Size > h.storage.MaxUploadBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "附件过大")
		return "", errors.New("附件过大")
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixMilli(), sanitizeFilename(file.Filename))
	path := filepath.Join(dir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		response.InternalError(c)
		return "", err
	}
	return path, nil
}

// sanitizeFilename 剥离路径成分并替换空白
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r == '/' || r == '\\' || r == ':':
			return '-'
		}
		return r
	}, name)
}

// handleODError 统一处理 OD 申请模块业务错误
func (h *ODRequestHandler) handleODError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 11002, "申请不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 11003, "学生档案不存在")
	case errors.Is(err, service.ErrNotAuthorized):
		response.Forbidden(c, 11004, "无权操作此申请")
	case errors.Is(err, service.ErrInvalidState):
		response.BadRequest(c, 11005, "申请当前状态不允许此操作")
	case errors.Is(err, service.ErrInvalidEventDates):
		response.BadRequest(c, 11006, "活动日期范围不合法")
	case errors.Is(err, service.ErrTimeRangeRequired):
		response.BadRequest(c, 11007, "按小时请假需提供起止时间")
	case errors.Is(err, service.ErrUnknownEventType):
		response.BadRequest(c, 11008, "活动类型不在词表中")
	case errors.Is(err, service.ErrProofNotSubmitted):
		response.BadRequest(c, 11009, "证明材料尚未提交")
	case errors.Is(err, service.ErrArtifactNotReady):
		response.BadRequest(c, 11010, "审批函仅在系主任批准后可用")
	case errors.Is(err, service.ErrHODNotConfigured):
		response.BadRequest(c, 11011, "系主任账户未配置")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/od_request_handler.go
