package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kizomanizo/fanya-backend/internal/config"

	"gopkg.in/gomail.v2"
)

// EmailNotifier 实现邮件提醒。
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

// SendDueReminder 发送待办到期提醒邮件。
// SMTP 未配置时跳过发送，本地开发不需要真实邮箱。
func (n *EmailNotifier) SendDueReminder(ctx context.Context, toEmail string, name string, title string, due time.Time) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPUser == "" || n.cfg.FromEmail == "" {
		n.logger.Warn("email config missing, skip reminder")
		return nil
	}
	if strings.TrimSpace(toEmail) == "" {
		n.logger.Warn("email recipient empty, skip reminder")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", "[Fanya] Todo due soon: "+title)
	m.SetBody("text/html", n.buildHTMLBody(name, title, due))

	d := gomail.NewDialer(n.cfg.SMTPHost, n.cfg.SMTPPort, n.cfg.SMTPUser, n.cfg.SMTPPass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("reminder email sent", slog.String("to", toEmail), slog.String("title", title))
	return nil
}

func (n *EmailNotifier) buildHTMLBody(name string, title string, due time.Time) string {
	if strings.TrimSpace(name) == "" {
		name = "there"
	}

	template := `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8" />
<style>
  body { font-family: Arial, sans-serif; background: #f6f7fb; color: #1f2937; }
  .card { max-width: 520px; margin: 24px auto; background: #ffffff; border-radius: 12px; overflow: hidden; border: 1px solid #e5e7eb; }
  .header { background: #0f172a; color: #ffffff; padding: 16px 20px; font-size: 16px; font-weight: bold; }
  .content { padding: 20px; }
  .title { font-size: 18px; font-weight: bold; margin-bottom: 8px; }
  .due { font-size: 14px; color: #ef4444; margin-bottom: 16px; }
  .footer { margin-top: 20px; font-size: 12px; color: #6b7280; }
</style>
</head>
<body>
  <div class="card">
    <div class="header">[Fanya] Todo reminder</div>
    <div class="content">
      <p>Hi %s,</p>
      <div class="title">%s</div>
      <div class="due">Due at %s</div>
      <div class="footer">You are receiving this because the todo has a due date within the reminder window.</div>
    </div>
  </div>
</body>
</html>`

	return fmt.Sprintf(template, name, title, due.Format("2006-01-02 15:04 MST"))
}
