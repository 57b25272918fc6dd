package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// ErrMailNotConfigured is returned when no sender identity can be resolved.
var ErrMailNotConfigured = errors.New("mail sender is not configured")

const connectorPath = "/api/v2/connection?include_secrets=true&connector_names=google-mail"

// connectorSettings is the subset of the connection record the mailer needs.
type connectorSettings struct {
	Settings struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   string `json:"expires_at"`
		Email       string `json:"email"`
		OAuth       struct {
			Email       string `json:"email"`
			Credentials struct {
				AccessToken string `json:"access_token"`
			} `json:"credentials"`
		} `json:"oauth"`
	} `json:"settings"`
	AccountInfo struct {
		Email string `json:"email"`
	} `json:"account_info"`
}

func (c *connectorSettings) accessToken() string {
	if c.Settings.AccessToken != "" {
		return c.Settings.AccessToken
	}
	return c.Settings.OAuth.Credentials.AccessToken
}

func (c *connectorSettings) email() string {
	switch {
	case c.Settings.Email != "":
		return c.Settings.Email
	case c.Settings.OAuth.Email != "":
		return c.Settings.OAuth.Email
	default:
		return c.AccountInfo.Email
	}
}

// expiry returns the zero time when the record carries no usable expiry.
func (c *connectorSettings) expiry() time.Time {
	if c.Settings.ExpiresAt == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, c.Settings.ExpiresAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ConnectorTokenSource fetches Gmail OAuth credentials from the integrations
// connector and caches them until they expire. Settings without an expiry are
// refetched on every call.
type ConnectorTokenSource struct {
	baseURL    string
	token      string
	httpClient *http.Client

	mu     sync.Mutex
	cached *connectorSettings
	now    func() time.Time
}

// NewConnectorTokenSource takes the connector hostname (a bare host means
// https) and the identity token sent as X_REPLIT_TOKEN.
func NewConnectorTokenSource(hostname, token string, httpClient *http.Client) *ConnectorTokenSource {
	baseURL := strings.TrimRight(hostname, "/")
	if baseURL != "" && !strings.Contains(baseURL, "://") {
		baseURL = "https://" + baseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &ConnectorTokenSource{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Token implements oauth2.TokenSource.
func (s *ConnectorTokenSource) Token() (*oauth2.Token, error) {
	settings, err := s.settings(context.Background())
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: settings.accessToken(),
		TokenType:   "Bearer",
		Expiry:      settings.expiry(),
	}, nil
}

// SenderEmail returns the mailbox the connection is authorized for, or "" when
// the connection record does not name one.
func (s *ConnectorTokenSource) SenderEmail(ctx context.Context) (string, error) {
	settings, err := s.settings(ctx)
	if err != nil {
		return "", err
	}
	return settings.email(), nil
}

func (s *ConnectorTokenSource) settings(ctx context.Context) (*connectorSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		if exp := s.cached.expiry(); !exp.IsZero() && exp.After(s.now()) {
			return s.cached, nil
		}
	}

	settings, err := s.refresh(ctx)
	if err != nil {
		return nil, err
	}
	s.cached = settings
	return settings, nil
}

func (s *ConnectorTokenSource) refresh(ctx context.Context) (*connectorSettings, error) {
	if s.baseURL == "" || s.token == "" {
		return nil, ErrMailNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+connectorPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X_REPLIT_TOKEN", s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch connection settings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch connection settings: status %d", resp.StatusCode)
	}

	var body struct {
		Items []connectorSettings `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode connection settings: %w", err)
	}
	if len(body.Items) == 0 {
		return nil, fmt.Errorf("gmail is not connected: %w", ErrMailNotConfigured)
	}

	settings := &body.Items[0]
	if settings.accessToken() == "" {
		return nil, errors.New("gmail access token not available")
	}
	return settings, nil
}
