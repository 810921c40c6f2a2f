package gateway

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"coursehub-backend/internal/domain"
)

// SMTPConfig carries the mail sender credentials.
type SMTPConfig struct {
	Host     string
	Port     string
	Sender   string
	Password string
}

type smtpNotifier struct {
	cfg SMTPConfig
}

// NewSMTPNotifier builds the Notifier on plain SMTP with HTML bodies.
func NewSMTPNotifier(cfg SMTPConfig) domain.Notifier {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &smtpNotifier{cfg: cfg}
}

func (n *smtpNotifier) EnrollmentConfirmed(ctx context.Context, student, instructor *domain.User, course *domain.Course, paid bool) error {
	kind := "free"
	if paid {
		kind = "paid"
	}

	studentSubject := "Enrollment Confirmed: " + course.Title
	studentBody := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>You are now enrolled in <strong>%s</strong> (%s enrollment).</p>
		<p>Head to your dashboard to start learning. Complete every lesson to earn your certificate.</p>
	`, student.FullName(), course.Title, kind)
	if err := n.send([]string{student.Email}, studentSubject, emailTemplate("Enrollment Confirmed", studentBody)); err != nil {
		return err
	}

	if instructor == nil {
		return nil
	}
	instructorSubject := "New Student: " + course.Title
	instructorBody := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p><strong>%s</strong> just enrolled in your course <strong>%s</strong>.</p>
		<p>Visit your course analytics to see all enrolled students.</p>
	`, instructor.FullName(), student.FullName(), course.Title)
	return n.send([]string{instructor.Email}, instructorSubject, emailTemplate("New Enrollment", instructorBody))
}

func (n *smtpNotifier) send(to []string, subject, htmlBody string) error {
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: CourseHub <%s>\r\n", n.cfg.Sender)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", n.cfg.Sender, n.cfg.Password, n.cfg.Host)
	return smtp.SendMail(n.cfg.Host+":"+n.cfg.Port, auth, n.cfg.Sender, to, []byte(msg))
}

func emailTemplate(title, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1A237E; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1A237E; line-height: 1.6; }
			.content h2 { color: #1A237E; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>COURSEHUB</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 CourseHub. All rights reserved.
			</div>
		</div>
	</body>
	</html>
	`, title, bodyContent)
}
