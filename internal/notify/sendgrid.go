package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/studycore/internal/logger"
)

// MailConfig configures the SendGrid mail client
type MailConfig struct {
	APIKey    string
	BaseURL   string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

// EmailAddress is a recipient or sender
type EmailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Email is a plain-text message
type Email struct {
	To      []EmailAddress
	ReplyTo *EmailAddress
	Subject string
	Text    string
}

// Mailer sends email through the SendGrid v3 mail API
type Mailer struct {
	log        *logger.Logger
	cfg        MailConfig
	httpClient *http.Client
}

// NewMailer creates a mail client. It fails when no API key is configured.
func NewMailer(log *logger.Logger, cfg MailConfig) (*Mailer, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing SENDGRID_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Mailer{
		log:        log.With("client", "SendGridClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type personalization struct {
	To []EmailAddress `json:"to"`
}

type mailContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type mailSendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             EmailAddress      `json:"from"`
	ReplyTo          *EmailAddress     `json:"reply_to,omitempty"`
	Subject          string            `json:"subject"`
	Content          []mailContent     `json:"content"`
}

// HTTPError is returned for non-2xx responses
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("sendgrid: status %d: %s", e.StatusCode, e.Body)
}

// Send delivers an email
func (m *Mailer) Send(ctx context.Context, email Email) error {
	if m.cfg.FromEmail == "" {
		return fmt.Errorf("sendgrid: from email required (set SENDGRID_FROM_EMAIL)")
	}
	if len(email.To) == 0 {
		return fmt.Errorf("sendgrid: recipient required")
	}
	if strings.TrimSpace(email.Subject) == "" || strings.TrimSpace(email.Text) == "" {
		return fmt.Errorf("sendgrid: subject and text required")
	}

	body, err := json.Marshal(mailSendRequest{
		Personalizations: []personalization{{To: email.To}},
		From:             EmailAddress{Email: m.cfg.FromEmail, Name: m.cfg.FromName},
		ReplyTo:          email.ReplyTo,
		Subject:          strings.TrimSpace(email.Subject),
		Content:          []mailContent{{Type: "text/plain", Value: email.Text}},
	})
	if err != nil {
		return fmt.Errorf("sendgrid: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sendgrid: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	m.log.Debug("email sent", "status_code", resp.StatusCode, "message_id", resp.Header.Get("X-Message-Id"))
	return nil
}
