package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhijithm34/od-latest/config"
)

// EventNotice 通知邮件渲染上下文（申请 + 学生快照）
type EventNotice struct {
	StudentName string
	RegisterNo  string
	Department  string
	Year        string
	EventName   string
	EventType   string
	EventDate   time.Time
	StartDate   time.Time
	EndDate     time.Time
	TimeType    string
	StartTime   *time.Time
	EndTime     *time.Time
	Reason      string
}

// Credentials 发件人账号
type Credentials struct {
	Email    string
	Password string
}

// CredentialSource 运行时解析发件人账号（系统设置可覆盖配置文件）
type CredentialSource func(ctx context.Context) Credentials

// Mailer SMTP 邮件发送器
type Mailer struct {
	cfg    *config.MailConfig
	creds  CredentialSource
	logger *zap.Logger
}

// New 创建 Mailer；creds 为 nil 时始终使用配置文件中的账号
func New(cfg *config.MailConfig, creds CredentialSource, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, creds: creds, logger: logger}
}

// ── 模板 ──

var noticeTmpl = template.Must(template.New("notice").Parse(`
<h2>{{.Heading}}</h2>
<p>{{.Lead}}</p>

<h3>Student Details:</h3>
<ul>
  <li><strong>Name:</strong> {{.N.StudentName}}</li>
  <li><strong>Register Number:</strong> {{.N.RegisterNo}}</li>
  <li><strong>Department:</strong> {{.N.Department}}</li>
  <li><strong>Year:</strong> {{.N.Year}}</li>
</ul>

<h3>Event Details:</h3>
<ul>
  <li><strong>Event Name:</strong> {{.N.EventName}}</li>
  <li><strong>Event Type:</strong> {{.N.EventType}}</li>
  <li><strong>Event Date:</strong> {{.N.EventDate.Format "02/01/2006"}}</li>
  <li><strong>Start Date:</strong> {{.N.StartDate.Format "02/01/2006"}}</li>
  <li><strong>End Date:</strong> {{.N.EndDate.Format "02/01/2006"}}</li>
  {{if and (eq .N.TimeType "particularHours") .N.StartTime .N.EndTime}}
  <li><strong>Start Time:</strong> {{.N.StartTime.Format "15:04"}}</li>
  <li><strong>End Time:</strong> {{.N.EndTime.Format "15:04"}}</li>
  {{end}}
  <li><strong>Reason:</strong> {{.N.Reason}}</li>
</ul>

<p>{{.Footer}}</p>
`))

type tmplData struct {
	Heading string
	Lead    string
	Footer  string
	N       *EventNotice
}

// ── 业务通知 ──

// RequestCreated 新申请提交后通知班主任
func (m *Mailer) RequestCreated(ctx context.Context, to []string, n *EventNotice) error {
	return m.send(ctx, to, "New OD Request Submission", &tmplData{
		Heading: "New OD Request Submitted",
		Lead:    "A student has submitted a new OD request that requires your attention.",
		Footer:  "Please review this request at your earliest convenience.",
		N:       n,
	})
}

// ProofSubmitted 学生上传证明材料后通知相关教师
func (m *Mailer) ProofSubmitted(ctx context.Context, to []string, n *EventNotice) error {
	return m.send(ctx, to, "OD Proof Document Submitted", &tmplData{
		Heading: "Proof Document Submitted",
		Lead:    "A student has submitted proof of attendance for an approved OD request.",
		Footer:  "Please verify the submitted document.",
		N:       n,
	})
}

// ProofReviewed 证明审核结果通知
func (m *Mailer) ProofReviewed(ctx context.Context, to []string, n *EventNotice, verified bool) error {
	outcome, heading := "rejected", "Rejected"
	if verified {
		outcome, heading = "verified", "Verified"
	}
	return m.send(ctx, to, "OD Proof Document "+heading, &tmplData{
		Heading: "Proof Document " + heading,
		Lead:    fmt.Sprintf("The proof document for the following OD request has been %s.", outcome),
		Footer:  "This is an automated notification.",
		N:       n,
	})
}

// ── 发送 ──

func (m *Mailer) send(ctx context.Context, to []string, subject string, data *tmplData) error {
	if len(to) == 0 {
		return nil
	}

	creds := Credentials{Email: m.cfg.Username, Password: m.cfg.Password}
	if m.creds != nil {
		if c := m.creds(ctx); c.Email != "" {
			creds = c
		}
	}
	from := m.cfg.From
	if from == "" {
		from = creds.Email
	}

	var body bytes.Buffer
	if err := noticeTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("渲染邮件模板失败: %w", err)
	}

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", strings.Join(to, ", ")),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		body.String(),
	}, "\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", creds.Email, creds.Password, m.cfg.SMTPHost)
	if err := smtp.SendMail(addr, auth, from, to, []byte(msg)); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	m.logger.Info("通知邮件已发送",
		zap.String("subject", subject),
		zap.Int("recipients", len(to)),
	)
	return nil
}
