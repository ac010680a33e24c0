package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v3"

	"notification-hub/internal/config"
	"notification-hub/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

type Service interface {
	SendNotificationEmail(ctx context.Context, toEmail, recipientName string, notif *domain.Notification) error
}

// Sender is the part of the Resend client this package uses.
type Sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type service struct {
	sender    Sender
	fromEmail string
	templates *template.Template
}

func NewService(cfg *config.Config) (Service, error) {
	client := resend.NewClient(cfg.ResendAPIKey)
	return NewServiceWithSender(client.Emails, cfg.FromEmail)
}

func NewServiceWithSender(sender Sender, fromEmail string) (Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/notification.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &service{
		sender:    sender,
		fromEmail: fromEmail,
		templates: tmpl,
	}, nil
}

func (s *service) SendNotificationEmail(ctx context.Context, toEmail, recipientName string, notif *domain.Notification) error {
	data := struct {
		Title       string
		Name        string
		Description string
		Priority    string
		Timestamp   string
	}{
		Title:       notif.Title,
		Name:        recipientName,
		Description: notif.Description,
		Priority:    notif.Priority.String(),
		Timestamp:   notif.Timestamp.UTC().Format("2006-01-02 15:04 MST"),
	}

	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "layout.html", data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Notification Hub <%s>", s.fromEmail),
		To:      []string{toEmail},
		Html:    body.String(),
		Subject: fmt.Sprintf("[%s] %s", notif.Priority, notif.Title),
	}

	_, err := s.sender.SendWithContext(ctx, params)
	return err
}
