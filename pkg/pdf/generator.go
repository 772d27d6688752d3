package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

// Letter 证明函渲染快照：由调用方从申请记录及关联人员组装，
// 渲染层不回查数据库
type Letter struct {
	RequestID         string
	StudentName       string
	RegisterNo        string
	Department        string
	Year              string
	EventName         string
	EventType         string
	EventDate         time.Time
	StartDate         time.Time
	EndDate           time.Time
	TimeType          string // fullDay | particularHours
	StartTime         *time.Time
	EndTime           *time.Time
	Reason            string
	AdvisorName       string
	AdvisorApprovedAt *time.Time
	HODName           string
	HODApprovedAt     *time.Time
}

// Generator 审批函生成接口
// GenerateApproved 按申请 ID 幂等：同一申请重复调用返回同一文件路径
type Generator interface {
	GenerateApproved(l *Letter) (string, error)
	Exists(handle string) bool
	RenderRequestForm(l *Letter) (*bytes.Buffer, error)
}

// FileGenerator 基于 fpdf 的本地文件实现
type FileGenerator struct {
	letterDir string
}

// NewFileGenerator 创建 FileGenerator，letterDir 不存在时自动创建
func NewFileGenerator(letterDir string) (*FileGenerator, error) {
	if err := os.MkdirAll(letterDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建证明函目录失败: %w", err)
	}
	return &FileGenerator{letterDir: letterDir}, nil
}

// approvedPath 审批函落盘路径：按申请 ID 确定，保证幂等
func (g *FileGenerator) approvedPath(requestID string) string {
	return filepath.Join(g.letterDir, fmt.Sprintf("approved_%s.pdf", requestID))
}

// GenerateApproved 生成审批函 PDF 并返回文件路径
// 文件已存在时直接复用；写入采用临时文件 + rename，
// 并发第二次调用最终观察到同一份文件，不会产生半写状态
func (g *FileGenerator) GenerateApproved(l *Letter) (string, error) {
	target := g.approvedPath(l.RequestID)
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	buf, err := g.renderApproved(l)
	if err != nil {
		return "", err
	}

	tmp := filepath.Join(g.letterDir, fmt.Sprintf(".%s.%s.tmp", l.RequestID, uuid.New().String()))
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("写入审批函临时文件失败: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		// rename 失败但目标已被并发写入者放好时，沿用既有文件
		if _, statErr := os.Stat(target); statErr == nil {
			return target, nil
		}
		return "", fmt.Errorf("落盘审批函失败: %w", err)
	}

	return target, nil
}

// Exists 检查既有文件句柄是否仍可用
func (g *FileGenerator) Exists(handle string) bool {
	if handle == "" {
		return false
	}
	_, err := os.Stat(handle)
	return err == nil
}

// RenderRequestForm 即时渲染申请表 PDF（不落盘，由 Handler 直接写响应）
func (g *FileGenerator) RenderRequestForm(l *Letter) (*bytes.Buffer, error) {
	return g.renderApproved(l)
}

// ── 渲染 ──

const (
	labelWidth = 65
	valueWidth = 115
	rowHeight  = 9
)

func (g *FileGenerator) renderApproved(l *Letter) (*bytes.Buffer, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(15, 15, 15)
	doc.AddPage()

	// 页面边框
	w, h := doc.GetPageSize()
	doc.SetLineWidth(0.3)
	doc.Rect(10, 10, w-20, h-20, "D")

	// 页眉
	doc.SetFont("Helvetica", "B", 11)
	doc.CellFormat(0, 6, "COLLEGE OF ENGINEERING GUINDY", "", 1, "C", false, 0, "")
	doc.CellFormat(0, 6, "Chennai-600025", "", 1, "C", false, 0, "")
	doc.Ln(4)
	doc.SetFont("Helvetica", "B", 13)
	doc.CellFormat(0, 8, "ON DUTY APPROVAL FORM", "", 1, "C", false, 0, "")
	doc.Ln(6)

	item := 0
	row := func(label, value string) {
		item++
		doc.SetFont("Helvetica", "B", 9)
		doc.CellFormat(labelWidth, rowHeight, fmt.Sprintf("%d. %s", item, label), "", 0, "L", false, 0, "")
		doc.SetFont("Helvetica", "", 9)
		doc.CellFormat(valueWidth, rowHeight, value, "", 1, "L", false, 0, "")
	}

	row("Name:", l.StudentName)
	row("Register Number:", l.RegisterNo)
	row("Department:", l.Department)
	row("Year:", l.Year)
	row("Event Type:", l.EventType)
	row("Event Name:", l.EventName)
	row("Reason:", l.Reason)

	days := int(l.EndDate.Sub(l.StartDate).Hours()/24) + 1
	row("No. of OD Days required:", fmt.Sprintf("%d day(s) from %s to %s",
		days, l.StartDate.Format("02/01/2006"), l.EndDate.Format("02/01/2006")))
	row("Authority Sanctioning the OD:", fmt.Sprintf("%s (Class Advisor) and %s (HOD)", l.AdvisorName, l.HODName))
	row("Date of Sanction:", time.Now().Format("02/01/2006"))

	if l.TimeType == "particularHours" && l.StartTime != nil && l.EndTime != nil {
		row("No. of OD Full days/Half Days Availed:", fmt.Sprintf("Particular Hours (%s to %s)",
			l.StartTime.Format("15:04"), l.EndTime.Format("15:04")))
	} else {
		row("No. of OD Full days/Half Days Availed:", "Full Day")
	}

	doc.Ln(14)

	// 签名区：学生 / 班主任 / 系主任 / 院长 四列
	colWidth := 45.0
	doc.SetFont("Helvetica", "B", 9)
	for _, head := range []string{"STUDENT", "CLASS ADVISOR", "HOD", "DEAN"} {
		doc.CellFormat(colWidth, 6, head, "", 0, "L", false, 0, "")
	}
	doc.Ln(8)

	y := doc.GetY()
	signCol := func(x float64, name string, signedAt *time.Time, signed bool) {
		doc.SetXY(x, y)
		doc.SetFont("Helvetica", "", 8)
		doc.MultiCell(colWidth-3, 4.5, "Name: "+name, "", "L", false)
		if signed {
			doc.SetX(x)
			date := "-"
			if signedAt != nil {
				date = signedAt.Format("02/01/2006")
			}
			doc.MultiCell(colWidth-3, 4.5, "Date: "+date, "", "L", false)
			doc.SetX(x)
			doc.SetFont("Helvetica", "B", 8)
			doc.MultiCell(colWidth-3, 4.5, "DIGITALLY SIGNED", "", "L", false)
		}
	}

	left, _, _, _ := doc.GetMargins()
	signCol(left, l.StudentName, nil, false)
	signCol(left+colWidth, l.AdvisorName, l.AdvisorApprovedAt, true)
	signCol(left+colWidth*2, l.HODName, l.HODApprovedAt, true)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	return &buf, nil
}
