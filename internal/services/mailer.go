package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ErrInvalidAddress is returned for a destination or reply-to that is not a
// plausible email address.
var ErrInvalidAddress = errors.New("invalid email address")

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email is one outbound HTML message.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	ReplyTo  string
}

// Mailer sends transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// SanitizeEmailAddress strips CR and LF and validates the result.
func SanitizeEmailAddress(addr string) (string, error) {
	clean := strings.NewReplacer("\r", "", "\n", "").Replace(addr)
	if !emailPattern.MatchString(clean) {
		return "", ErrInvalidAddress
	}
	return clean, nil
}

// BuildRawMessage renders msg as an RFC 5322 text/html message from the given
// sender. Addresses are sanitized first.
func BuildRawMessage(from string, msg Email) (string, error) {
	to, err := SanitizeEmailAddress(msg.To)
	if err != nil {
		return "", fmt.Errorf("to: %w", err)
	}
	var replyTo string
	if msg.ReplyTo != "" {
		if replyTo, err = SanitizeEmailAddress(msg.ReplyTo); err != nil {
			return "", fmt.Errorf("reply-to: %w", err)
		}
	}
	from = strings.NewReplacer("\r", "", "\n", "").Replace(from)

	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Subject: =?utf-8?B?" + base64.StdEncoding.EncodeToString([]byte(msg.Subject)) + "?=\r\n")
	if replyTo != "" {
		b.WriteString("Reply-To: " + replyTo + "\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return b.String(), nil
}

// GmailMailer sends through the Gmail API as the mailbox authorized by the
// connector token source.
type GmailMailer struct {
	tokens       *ConnectorTokenSource
	fromFallback string
	httpClient   *http.Client
	endpoint     string
	logger       *slog.Logger
}

type GmailOption func(*GmailMailer)

// WithGmailHTTPClient sets the base client under the OAuth transport.
func WithGmailHTTPClient(c *http.Client) GmailOption {
	return func(m *GmailMailer) { m.httpClient = c }
}

// WithGmailLogger sets the logger used for sender resolution warnings.
func WithGmailLogger(l *slog.Logger) GmailOption {
	return func(m *GmailMailer) { m.logger = l }
}

// WithGmailEndpoint overrides the Gmail API base URL.
func WithGmailEndpoint(endpoint string) GmailOption {
	return func(m *GmailMailer) { m.endpoint = endpoint }
}

func NewGmailMailer(tokens *ConnectorTokenSource, fromFallback string, opts ...GmailOption) *GmailMailer {
	m := &GmailMailer{
		tokens:       tokens,
		fromFallback: fromFallback,
		httpClient:   http.DefaultClient,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *GmailMailer) Send(ctx context.Context, msg Email) error {
	// Validate before touching the network.
	if _, err := BuildRawMessage("", msg); err != nil {
		return err
	}

	// A fresh service per send picks up rotated connector credentials.
	svc, err := m.service(ctx)
	if err != nil {
		return err
	}

	from := m.senderEmail(ctx, svc)
	raw, err := BuildRawMessage(from, msg)
	if err != nil {
		return err
	}

	_, err = svc.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.RawURLEncoding.EncodeToString([]byte(raw)),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	return nil
}

func (m *GmailMailer) service(ctx context.Context) (*gmail.Service, error) {
	if _, err := m.tokens.Token(); err != nil {
		return nil, err
	}

	client := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, m.httpClient), m.tokens)
	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if m.endpoint != "" {
		opts = append(opts, option.WithEndpoint(m.endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gmail client: %w", err)
	}
	return svc, nil
}

// senderEmail resolves the From address: connection settings, then the Gmail
// profile, then the configured fallback.
func (m *GmailMailer) senderEmail(ctx context.Context, svc *gmail.Service) string {
	if email, err := m.tokens.SenderEmail(ctx); err == nil && email != "" {
		return email
	}

	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err == nil && profile.EmailAddress != "" {
		return profile.EmailAddress
	}
	if err != nil {
		m.logger.Warn("could not get sender email from gmail profile, using fallback", "error", err)
	}
	return m.fromFallback
}
