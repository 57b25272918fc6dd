package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeEmailAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "rod@example.com", want: "rod@example.com"},
		{name: "strips CRLF", in: "rod@example.com\r\nBcc: x@evil.com", wantErr: true},
		{name: "strips trailing newline", in: "rod@example.com\n", want: "rod@example.com"},
		{name: "missing at", in: "rod.example.com", wantErr: true},
		{name: "missing tld", in: "rod@example", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeEmailAddress(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAddress)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRawMessage(t *testing.T) {
	raw, err := BuildRawMessage("owner@gmail.com", Email{
		To:       "rod@example.com",
		Subject:  "Portfolio Contact: Ada",
		HTMLBody: "<p>Hello</p>",
		ReplyTo:  "ada@example.com",
	})
	require.NoError(t, err)

	headers, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok)
	assert.Equal(t, "<p>Hello</p>", body)

	lines := strings.Split(headers, "\r\n")
	assert.Equal(t, []string{
		"From: owner@gmail.com",
		"To: rod@example.com",
		"Content-Type: text/html; charset=utf-8",
		"MIME-Version: 1.0",
		"Subject: =?utf-8?B?" + base64.StdEncoding.EncodeToString([]byte("Portfolio Contact: Ada")) + "?=",
		"Reply-To: ada@example.com",
	}, lines)
}

func TestBuildRawMessage_NoReplyTo(t *testing.T) {
	raw, err := BuildRawMessage("owner@gmail.com", Email{To: "rod@example.com", Subject: "s", HTMLBody: "b"})
	require.NoError(t, err)
	assert.NotContains(t, raw, "Reply-To")
}

func TestBuildRawMessage_RejectsBadAddresses(t *testing.T) {
	_, err := BuildRawMessage("owner@gmail.com", Email{To: "nope", Subject: "s"})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = BuildRawMessage("owner@gmail.com", Email{To: "rod@example.com", ReplyTo: "bad"})
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

// fakeGmail records sent messages and serves a profile address.
type fakeGmail struct {
	mu           sync.Mutex
	sent         []string
	auth         []string
	profileEmail string
}

func (g *fakeGmail) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.auth = append(g.auth, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/gmail/v1/users/me/messages/send":
			var msg struct {
				Raw string `json:"raw"`
			}
			if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			decoded, err := base64.RawURLEncoding.DecodeString(msg.Raw)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			g.sent = append(g.sent, string(decoded))
			_, _ = w.Write([]byte(`{"id":"msg-1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/gmail/v1/users/me/profile":
			if g.profileEmail == "" {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":{"code":403,"message":"insufficient scope"}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"emailAddress": g.profileEmail})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestMailer(t *testing.T, connectorEmail string, g *fakeGmail, opts ...GmailOption) *GmailMailer {
	t.Helper()
	expires := time.Now().Add(time.Hour).UTC().Format(time.RFC3339Nano)
	conn, _ := fakeConnector(t, connectorBody("gmail-access", expires, connectorEmail))
	gsrv := g.server(t)

	tokens := NewConnectorTokenSource(conn.URL, "repl test-identity", conn.Client())
	opts = append([]GmailOption{
		WithGmailHTTPClient(gsrv.Client()),
		WithGmailEndpoint(gsrv.URL + "/"),
	}, opts...)
	return NewGmailMailer(tokens, "fallback@example.com", opts...)
}

func TestGmailMailer_Send(t *testing.T) {
	g := &fakeGmail{}
	mailer := newTestMailer(t, "owner@gmail.com", g)

	err := mailer.Send(context.Background(), Email{
		To:       "rod@example.com",
		Subject:  "Portfolio Contact: Ada",
		HTMLBody: "<p>hi</p>",
		ReplyTo:  "ada@example.com",
	})
	require.NoError(t, err)

	g.mu.Lock()
	defer g.mu.Unlock()
	require.Len(t, g.sent, 1)
	assert.Contains(t, g.sent[0], "From: owner@gmail.com\r\n")
	assert.Contains(t, g.sent[0], "Reply-To: ada@example.com\r\n")
	assert.True(t, strings.HasSuffix(g.sent[0], "\r\n\r\n<p>hi</p>"))
	for _, a := range g.auth {
		assert.Equal(t, "Bearer gmail-access", a)
	}
}

func TestGmailMailer_SenderFromProfile(t *testing.T) {
	g := &fakeGmail{profileEmail: "profile@gmail.com"}
	mailer := newTestMailer(t, "", g)

	require.NoError(t, mailer.Send(context.Background(), Email{To: "rod@example.com", Subject: "s", HTMLBody: "b"}))

	g.mu.Lock()
	defer g.mu.Unlock()
	require.Len(t, g.sent, 1)
	assert.Contains(t, g.sent[0], "From: profile@gmail.com\r\n")
}

func TestGmailMailer_SenderFallback(t *testing.T) {
	g := &fakeGmail{}
	var logs bytes.Buffer
	mailer := newTestMailer(t, "", g, WithGmailLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	require.NoError(t, mailer.Send(context.Background(), Email{To: "rod@example.com", Subject: "s", HTMLBody: "b"}))

	g.mu.Lock()
	defer g.mu.Unlock()
	require.Len(t, g.sent, 1)
	assert.Contains(t, g.sent[0], "From: fallback@example.com\r\n")
	assert.Contains(t, logs.String(), "using fallback")
}

func TestGmailMailer_InvalidRecipientSkipsNetwork(t *testing.T) {
	g := &fakeGmail{}
	mailer := newTestMailer(t, "owner@gmail.com", g)

	err := mailer.Send(context.Background(), Email{To: "not-an-address", Subject: "s"})
	assert.ErrorIs(t, err, ErrInvalidAddress)

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Empty(t, g.auth)
}

func TestGmailMailer_NotConfigured(t *testing.T) {
	mailer := NewGmailMailer(NewConnectorTokenSource("", "", nil), "fallback@example.com")
	err := mailer.Send(context.Background(), Email{To: "rod@example.com", Subject: "s"})
	assert.ErrorIs(t, err, ErrMailNotConfigured)
}
