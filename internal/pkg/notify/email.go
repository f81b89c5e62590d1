package notify

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/anmol2673/insta-api/internal/config"

	"gopkg.in/gomail.v2"
)

// EmailNotifier 通过 SMTP 发送邮件。
type EmailNotifier struct {
	cfg    *config.EmailConfig
	logger *slog.Logger
}

// NewEmailNotifier 创建一个新的邮件通知器。
func NewEmailNotifier(cfg *config.EmailConfig, logger *slog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger,
	}
}

// SendResetCode 发送密码重置验证码。
func (n *EmailNotifier) SendResetCode(toEmail string, code string) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPUser == "" || n.cfg.FromEmail == "" {
		return fmt.Errorf("email config missing")
	}
	if strings.TrimSpace(toEmail) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "[InstaTags] Password Reset Code")

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>InstaTags Password Reset</h2>
    <p>Your one-time code for resetting your password is:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>The code is valid for 1 hour. If you did not request a reset, you can ignore this email.</p>
  </div>
</body>
</html>`, code)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	if n.logger != nil {
		n.logger.Info("reset code email sent", slog.String("to", toEmail))
	}
	return nil
}
