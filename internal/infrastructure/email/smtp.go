package email

import (
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	FromName    string
}

type messageSender interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPEmailService struct {
	config SMTPConfig
	sender messageSender
}

func NewSMTPEmailService(config SMTPConfig) *SMTPEmailService {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &SMTPEmailService{
		config: config,
		sender: dialer,
	}
}

// SendInvoiceEmail sends the Lightning invoice for the next billing period
// to a subscriber.
func (s *SMTPEmailService) SendInvoiceEmail(to, planName string, amount int64, paymentRequest string, periodEnd time.Time) error {
	subject, htmlBody, plainBody := invoiceEmail(planName, amount, paymentRequest, periodEnd)
	return s.sendEmail(to, subject, htmlBody, plainBody)
}

func invoiceEmail(planName string, amount int64, paymentRequest string, periodEnd time.Time) (subject, htmlBody, plainBody string) {
	subject = fmt.Sprintf("Invoice for %s", planName)
	until := periodEnd.UTC().Format("2006-01-02 15:04 MST")

	htmlBody = fmt.Sprintf(`
		<html>
		<body>
			<h2>Your subscription invoice</h2>
			<p>A payment of <strong>%d sats</strong> is due for <strong>%s</strong>.</p>
			<p>Pay this Lightning invoice to keep your subscription active until %s:</p>
			<p style="word-break: break-all; font-family: monospace;">%s</p>
			<p><a href="lightning:%s">Open in wallet</a></p>
		</body>
		</html>
	`, amount, html.EscapeString(planName), until, paymentRequest, paymentRequest)

	plainBody = fmt.Sprintf(`
Your subscription invoice

A payment of %d sats is due for %s.

Pay this Lightning invoice to keep your subscription active until %s:
%s
	`, amount, planName, until, paymentRequest)

	return subject, htmlBody, plainBody
}

func (s *SMTPEmailService) sendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.config.FromAddress, s.config.FromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
