// Package email delivers transactional mail through Resend.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// Config holds the Resend credentials and sender identity.
type Config struct {
	APIKey    string
	FromEmail string
}

// Service sends Spendora transactional email. When no API key is configured
// the service logs and drops mail instead of failing, which keeps local
// development working without credentials.
type Service struct {
	client    *resend.Client
	fromEmail string
	logger    *slog.Logger
}

// NewService creates a new email service.
func NewService(cfg Config, logger *slog.Logger) *Service {
	var client *resend.Client
	if cfg.APIKey != "" {
		client = resend.NewClient(cfg.APIKey)
	}

	fromEmail := cfg.FromEmail
	if fromEmail == "" {
		fromEmail = "Spendora <hello@spendora.app>"
	}

	return &Service{
		client:    client,
		fromEmail: fromEmail,
		logger:    logger,
	}
}

// SendVerificationCode emails the six digit code issued at registration.
func (s *Service) SendVerificationCode(ctx context.Context, to, code string) error {
	html := codeEmailHTML(
		"VERIFY YOUR EMAIL",
		"Almost there.",
		"Use this code to verify your Spendora account. It expires in 10 minutes.",
		code,
	)
	return s.send(ctx, to, "Your Spendora verification code", html)
}

// SendPasswordResetCode emails a password recovery code.
func (s *Service) SendPasswordResetCode(ctx context.Context, to, code string) error {
	html := codeEmailHTML(
		"PASSWORD RESET",
		"Reset your password.",
		"Use this code to set a new password. It expires in 10 minutes. If you did not request this, you can ignore this email.",
		code,
	)
	return s.send(ctx, to, "Your Spendora password reset code", html)
}

// SendWeeklyReport emails the spending summary with the workbook attached.
func (s *Service) SendWeeklyReport(ctx context.Context, to, subject, html, attachmentName string, attachment []byte) error {
	if s.client == nil {
		s.logger.WarnContext(ctx, "resend client not configured, skipping weekly report", slog.String("to", to))
		return nil
	}

	req := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if len(attachment) > 0 {
		req.Attachments = []*resend.Attachment{{
			Filename: attachmentName,
			Content:  attachment,
		}}
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("failed to send weekly report: %w", err)
	}
	return nil
}

func (s *Service) send(ctx context.Context, to, subject, html string) error {
	if s.client == nil {
		s.logger.WarnContext(ctx, "resend client not configured, skipping email",
			slog.String("to", to), slog.String("subject", subject))
		return nil
	}

	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func codeEmailHTML(label, heading, text, code string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
  <style>
    body { background-color: #f4f4f5; font-family: 'Inter', sans-serif; margin: 0; padding: 40px 0; }
    .container { background-color: #ffffff; border: 1px solid #e4e4e7; border-radius: 12px; padding: 40px; max-width: 480px; margin: 0 auto; }
    .topLabel { color: #7c3aed; font-size: 12px; font-weight: 700; letter-spacing: 2px; text-align: center; }
    h1 { color: #18181b; font-size: 28px; font-weight: 900; text-align: center; margin: 20px 0; }
    .text { color: #52525b; font-size: 16px; line-height: 24px; text-align: center; }
    .codeSection { background: #f4f4f5; border-radius: 8px; padding: 20px; margin: 30px 0; text-align: center; }
    .codeLabel { color: #a1a1aa; font-size: 10px; font-weight: 700; letter-spacing: 1px; }
    .codeText { color: #18181b; font-size: 32px; font-weight: 900; letter-spacing: 4px; margin: 10px 0; }
    .footer { color: #a1a1aa; font-size: 12px; text-align: center; margin-top: 30px; }
  </style>
</head>
<body>
  <div class="container">
    <p class="topLabel">%s</p>
    <h1>%s</h1>
    <p class="text">%s</p>
    <div class="codeSection">
      <p class="codeLabel">YOUR CODE</p>
      <p class="codeText">%s</p>
    </div>
    <p class="footer">Spendora keeps track so you don't have to.</p>
  </div>
</body>
</html>
`, label, heading, text, code)
}
