// Package email provides email sending functionality
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"
	"sync"
)

// Config holds email configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// Sender is what the lead workflow needs from the mail layer.
type Sender interface {
	SendLeadConfirmation(to string, data LeadConfirmationData) error
}

// Service handles email sending
type Service struct {
	config    *Config
	templates map[string]*template.Template
}

// NewService creates a new email service
func NewService(config *Config) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	s.loadTemplates()
	return s
}

// Configured reports whether an SMTP host is set.
func (s *Service) Configured() bool {
	return s != nil && s.config != nil && s.config.Host != ""
}

// Email represents an email message
type Email struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	Body     string
	HTMLBody string
	FromName string
	ReplyTo  string
}

func (s *Service) loadTemplates() {
	s.templates["lead_confirmation"] = template.Must(template.New("lead_confirmation").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f9fafb; padding: 30px; border-radius: 0 0 10px 10px; }
        .btn { display: inline-block; background: #667eea; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin-top: 15px; }
        .footer { text-align: center; color: #6b7280; font-size: 12px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Thanks for connecting!</h1>
        </div>
        <div class="content">
            <p>Hi {{if .ToName}}{{.ToName}}{{else}}there{{end}},</p>
            <p>Thank you for sharing your contact information with <strong>{{.FromName}}</strong>.
               They have received your details and will be in touch soon.</p>
            {{if .CardURL}}
            <p>You can save their contact details any time from their digital business card:</p>
            <a href="{{.CardURL}}" class="btn">View Business Card</a>
            {{end}}
        </div>
        <div class="footer">
            <p>Sent via ShareMyCard on behalf of {{.FromName}}</p>
        </div>
    </div>
</body>
</html>
`))
}

// Send sends an email
func (s *Service) Send(email *Email) error {
	if !s.Configured() {
		log.Println("[Email] not configured, skipping send")
		return nil
	}

	msg, err := s.buildMessage(email)
	if err != nil {
		return err
	}

	recipients := append([]string{}, email.To...)
	recipients = append(recipients, email.CC...)
	recipients = append(recipients, email.BCC...)

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if !s.config.UseTLS {
		return smtp.SendMail(addr, auth, s.config.From, recipients, msg)
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		return fmt.Errorf("TLS dial error: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("SMTP client error: %w", err)
	}
	defer client.Close()

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("auth error: %w", err)
	}
	if err = client.Mail(s.config.From); err != nil {
		return fmt.Errorf("mail error: %w", err)
	}
	for _, rcpt := range recipients {
		if err = client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt error: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data error: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("write error: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("close error: %w", err)
	}
	return client.Quit()
}

func (s *Service) buildMessage(email *Email) ([]byte, error) {
	if len(email.To) == 0 {
		return nil, fmt.Errorf("email has no recipients")
	}
	for _, h := range append([]string{email.Subject, email.FromName, email.ReplyTo}, email.To...) {
		if strings.ContainsAny(h, "\r\n") {
			return nil, fmt.Errorf("header value contains line break")
		}
	}

	fromName := s.config.FromName
	if email.FromName != "" {
		fromName = email.FromName
	}

	var msg bytes.Buffer
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", fromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	if len(email.CC) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(email.CC, ", ")))
	}
	if email.ReplyTo != "" {
		msg.WriteString(fmt.Sprintf("Reply-To: %s\r\n", email.ReplyTo))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTMLBody != "" {
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		msg.WriteString(email.HTMLBody)
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(email.Body)
	}
	return msg.Bytes(), nil
}

func (s *Service) render(templateName string, data interface{}) (string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", fmt.Errorf("template not found: %s", templateName)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return body.String(), nil
}

// SendWithTemplate sends an email using a template
func (s *Service) SendWithTemplate(to []string, subject, templateName string, data interface{}) error {
	body, err := s.render(templateName, data)
	if err != nil {
		return err
	}
	return s.Send(&Email{
		To:       to,
		Subject:  subject,
		HTMLBody: body,
	})
}

// ============================================
// Lead Confirmation
// ============================================

// LeadConfirmationData holds data for the email a visitor gets after leaving
// their details on a card or QR page.
type LeadConfirmationData struct {
	ToName    string
	FromName  string
	FromEmail string
	CardURL   string
}

// SendLeadConfirmation thanks the lead and copies the card owner.
func (s *Service) SendLeadConfirmation(to string, data LeadConfirmationData) error {
	body, err := s.render("lead_confirmation", data)
	if err != nil {
		return err
	}
	e := &Email{
		To:       []string{to},
		Subject:  fmt.Sprintf("Thanks for connecting with %s", data.FromName),
		HTMLBody: body,
		FromName: data.FromName,
		ReplyTo:  data.FromEmail,
	}
	if data.FromEmail != "" {
		e.CC = []string{data.FromEmail}
	}
	return s.Send(e)
}

// ============================================
// Async Email Queue (simple in-memory)
// ============================================

// EmailQueue hands confirmations to background workers so capture requests
// return without waiting on SMTP. Failed sends are logged and dropped.
type EmailQueue struct {
	sender Sender
	queue  chan *queuedEmail
	wg     sync.WaitGroup
	once   sync.Once
}

type queuedEmail struct {
	to   string
	data LeadConfirmationData
}

// NewEmailQueue creates a new email queue
func NewEmailQueue(sender Sender, workers int) *EmailQueue {
	if workers < 1 {
		workers = 1
	}
	q := &EmailQueue{
		sender: sender,
		queue:  make(chan *queuedEmail, 1000),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *EmailQueue) worker() {
	defer q.wg.Done()
	for email := range q.queue {
		if err := q.sender.SendLeadConfirmation(email.to, email.data); err != nil {
			log.Printf("[Email] ❌ lead confirmation to %s failed: %v", email.to, err)
		}
	}
}

// SendLeadConfirmation enqueues the message. It never blocks; a full queue
// drops the email.
func (q *EmailQueue) SendLeadConfirmation(to string, data LeadConfirmationData) error {
	select {
	case q.queue <- &queuedEmail{to: to, data: data}:
		return nil
	default:
		return fmt.Errorf("email queue full")
	}
}

// Stop closes the queue and waits for workers to drain it.
func (q *EmailQueue) Stop() {
	q.once.Do(func() { close(q.queue) })
	q.wg.Wait()
}
