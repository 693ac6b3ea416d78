// Package email sends transactional mail through SendGrid.
package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"cikyc/internal/platform/config"
	dErrors "cikyc/pkg/domain-errors"
	emailname "cikyc/pkg/email"
)

// Sender delivers a verification link to a subject. Implementations must not
// roll anything back on failure; an undelivered mail never invalidates an
// already-created verification record.
type Sender interface {
	SendVerificationLink(ctx context.Context, to, name, verificationURL string) error
}

// SendGridSender is the production Sender backed by SendGrid's v3 mail API.
type SendGridSender struct {
	client  *sendgrid.Client
	logger  *slog.Logger
	from    *mail.Email
	company string
}

func NewSendGridSender(cfg config.EmailConfig, company string, logger *slog.Logger) *SendGridSender {
	return &SendGridSender{
		client:  sendgrid.NewSendClient(cfg.SendGridKey),
		logger:  logger,
		from:    mail.NewEmail(company, cfg.FromAddress),
		company: company,
	}
}

func (s *SendGridSender) SendVerificationLink(ctx context.Context, to, name, verificationURL string) error {
	if name == "" {
		name = emailname.DeriveNameFromEmail(to)
	}
	subject := fmt.Sprintf("%s - Verificación de Identidad (KYC)", s.company)
	plain := fmt.Sprintf(
		"Hola %s,\n\nLe enviamos el siguiente enlace para completar su verificación de identidad (KYC):\n\n%s\n\nPor favor complete el proceso lo antes posible.",
		name, verificationURL)
	html := renderVerificationHTML(s.company, name, verificationURL)

	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail(name, to), plain, html)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "email delivery failed")
	}
	if resp.StatusCode >= 300 {
		s.logger.WarnContext(ctx, "sendgrid rejected message",
			"status", resp.StatusCode,
			"body", resp.Body,
		)
		return dErrors.Newf(dErrors.CodeUnavailable, "email delivery failed with status %d", resp.StatusCode)
	}
	return nil
}

func renderVerificationHTML(company, name, verificationURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #f8f9fa; padding: 30px; border-radius: 10px;">
    <h1 style="color: #212121; margin-bottom: 20px;">Verificación de Identidad</h1>

    <p>Hola <strong>%s</strong>,</p>

    <p>Le enviamos el siguiente enlace para completar su verificación de identidad (KYC):</p>

    <div style="text-align: center; margin: 30px 0;">
      <a href="%s"
         style="background-color: #39D2C0; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; font-weight: bold; display: inline-block;">
        Completar Verificación
      </a>
    </div>

    <p>O copie y pegue el siguiente enlace en su navegador:</p>
    <p style="background-color: #e9ecef; padding: 10px; border-radius: 5px; word-break: break-all; font-size: 14px;">
      %s
    </p>

    <p style="margin-top: 30px; color: #666; font-size: 14px;">
      Por favor complete el proceso lo antes posible. Este enlace tiene una validez limitada.
    </p>

    <hr style="border: none; border-top: 1px solid #ddd; margin: 30px 0;">

    <p style="color: #999; font-size: 12px; text-align: center;">
      Este es un correo automático enviado por %s.<br>
      Por favor no responda a este mensaje.
    </p>
  </div>
</body>
</html>`, name, verificationURL, verificationURL, company)
}
