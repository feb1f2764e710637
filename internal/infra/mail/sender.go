package mail

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"gopkg.in/gomail.v2"

	"github.com/lwai/timeback-onboarding/internal/usecase"
)

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       []string
}

func NewEmailSender(host string, port int, user, password, from string, to []string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
	}
}

func (s *EmailSender) SendRunSummary(sum usecase.Summary) error {
	data := RunSummaryData{
		Date:                sum.FinishedAt.Format("2006-01-02 15:04 MST"),
		Duration:            sum.FinishedAt.Sub(sum.StartedAt).Round(1e9).String(),
		TotalLeads:          sum.TotalLeads,
		Eligible:            sum.Eligible,
		Rejected:            sum.Rejected(),
		AccountsCreated:     sum.AccountsCreated,
		AccountsFailed:      sum.AccountsFailed,
		AppsAssigned:        sum.AppsAssigned,
		AssessmentsAssigned: sum.AssessmentsAssigned,
		TrackersCreated:     sum.TrackersCreated,
		TrackersFailed:      sum.TrackersFailed,
		SuccessRate:         fmt.Sprintf("%.1f%%", sum.SuccessRate()),
	}

	tmplPath := filepath.Join("templates", "run_summary.html")
	t, err := template.ParseFiles(tmplPath)
	if err != nil {
		return fmt.Errorf("parse summary template: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, data); err != nil {
		return fmt.Errorf("render summary template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To...)
	m.SetHeader("Subject", fmt.Sprintf("Onboarding run %s: %d accounts created", data.Date, sum.AccountsCreated))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send summary email: %w", err)
	}

	return nil
}
