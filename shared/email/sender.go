package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"retention-analyzer/internal/models"
	"retention-analyzer/shared/config"
	"retention-analyzer/shared/format"
)

//go:embed digest_template.html
var digestTemplate string

type Sender struct {
	config *config.EmailConfig
	now    func() time.Time
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		now:    time.Now,
	}
}

func (s *Sender) SendDigest(report *models.DigestReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if len(report.Entries) == 0 {
		return nil // Nothing analyzed
	}

	subject := fmt.Sprintf("시청 유지율 리포트 - 영상 %d개 (%s)",
		len(report.Entries), report.Date.Format("2006-01-02"))

	body, err := s.generateEmailBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

func (s *Sender) generateEmailBody(report *models.DigestReport) (string, error) {
	now := s.now()
	tmpl := template.New("digest").Funcs(template.FuncMap{
		"count":     format.Count,
		"timestamp": format.Timestamp,
		"since":     func(t time.Time) string { return format.RelativeDate(t, now) },
	})

	tmpl, err := tmpl.Parse(digestTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}
