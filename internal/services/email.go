package services

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"studytracker-backend/internal/logger"
	"studytracker-backend/internal/models"
)

type EmailService struct {
	host        string
	port        string
	user        string
	pass        string
	from        string
	frontendURL string
	devMode     bool
	log         *logger.Logger
}

func NewEmailService(host, port, user, pass, from, frontendURL string, log *logger.Logger) *EmailService {
	if log == nil {
		log = logger.Nop()
	}
	devMode := host == "" || user == ""
	if devMode {
		log.Warn("email service running in dev mode, messages are logged instead of sent")
	}
	return &EmailService{
		host:        host,
		port:        port,
		user:        user,
		pass:        pass,
		from:        from,
		frontendURL: frontendURL,
		devMode:     devMode,
		log:         log,
	}
}

// SendStudyReminderEmail nudges the learner back into the challenge.
func (s *EmailService) SendStudyReminderEmail(to string, daysSince, streak int, last *models.StudySession) error {
	subject := fmt.Sprintf("Llevas %d días sin estudiar", daysSince)
	if last == nil {
		subject = "Tu desafío de estudio te espera"
	}

	lastLine := "Todavía no registraste ninguna sesión."
	if last != nil {
		lastLine = fmt.Sprintf("Tu última sesión fue el Día %d: <strong>%s</strong> (%s).",
			last.Day, html.EscapeString(last.Topic), FormatSpanishDate(last.Date))
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; box-shadow: 0 4px 24px rgba(0,0,0,0.08); overflow: hidden;">
    <div style="background: linear-gradient(135deg, #0ea5e9 0%%, #6366f1 100%%); padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px; font-weight: 700;">Study Tracker</h1>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">Es momento de retomar</h2>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 12px;">%s</p>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 24px;">Racha actual: %d días.</p>
      <a href="%s" style="display: inline-block; background: #6366f1; color: white; text-decoration: none; padding: 12px 32px; border-radius: 8px; font-weight: 600; font-size: 14px;">
        Registrar sesión
      </a>
    </div>
  </div>
</body>
</html>`, lastLine, streak, s.frontendURL)

	return s.sendHTML(to, subject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		s.log.Info("dev email", "to", to, "subject", subject)
		s.log.Debug("dev email body", "body", htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.log.Info("email sent", "to", to, "subject", subject)
	return nil
}
