package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type recordingSender struct {
	messages []Message
	deadline time.Time
	err      error
}

func (s *recordingSender) Send(ctx context.Context, msg Message) error {
	s.deadline, _ = ctx.Deadline()
	s.messages = append(s.messages, msg)
	return s.err
}

func TestEmailNotifier_Verification(t *testing.T) {
	sender := &recordingSender{}
	n := NewEmailNotifier(sender, "https://app.example.com/", 5*time.Second)

	err := n.SendVerificationEmail(context.Background(), "alice@x.com", "abc123")
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, "alice@x.com", msg.To)
	assert.Equal(t, "Verify your email address", msg.Subject)
	assert.Contains(t, msg.HTML, `href="https://app.example.com/verify-email?token=abc123"`)
	assert.Contains(t, msg.HTML, "This link will expire in 24 hours.")
	assert.Equal(t, 1, strings.Count(msg.HTML, "<a "))
	assert.False(t, sender.deadline.IsZero())
}

func TestEmailNotifier_PasswordReset(t *testing.T) {
	sender := &recordingSender{}
	n := NewEmailNotifier(sender, "https://app.example.com", 0)

	err := n.SendPasswordResetEmail(context.Background(), "alice@x.com", "def456")
	require.NoError(t, err)
	require.Len(t, sender.messages, 1)

	msg := sender.messages[0]
	assert.Equal(t, "Reset your password", msg.Subject)
	assert.Contains(t, msg.HTML, `href="https://app.example.com/reset-password?token=def456"`)
	assert.Contains(t, msg.HTML, "This link will expire in 1 hour.")
	assert.True(t, sender.deadline.IsZero())
}

func TestEmailNotifier_SenderError(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	n := NewEmailNotifier(sender, "https://app.example.com", time.Second)

	err := n.SendVerificationEmail(context.Background(), "alice@x.com", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
}

func TestEmailNotifier_Link(t *testing.T) {
	n := NewEmailNotifier(&recordingSender{}, "http://localhost:3000", 0)

	link := n.Link("verify-email", "a b&c")
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/verify-email", u.Path)
	assert.Equal(t, "a b&c", u.Query().Get("token"))
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core))

	err := s.Send(context.Background(), Message{To: "alice@x.com", Subject: "Hi", HTML: "<p>token-secret</p>"})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())

	entry := logs.All()[0]
	assert.Equal(t, "alice@x.com", entry.ContextMap()["to"])
	assert.NotContains(t, entry.Message, "token-secret")
}

func TestResendSender_Send(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/emails", r.URL.Path)
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", "onboarding@resend.dev")
	base, err := url.Parse(srv.URL + "/")
	require.NoError(t, err)
	s.client.BaseURL = base

	err = s.Send(context.Background(), Message{To: "alice@x.com", Subject: "Verify your email address", HTML: "<h1>hi</h1>"})
	require.NoError(t, err)

	assert.Equal(t, "onboarding@resend.dev", got["from"])
	assert.Equal(t, []any{"alice@x.com"}, got["to"])
	assert.Equal(t, "Verify your email address", got["subject"])
	assert.Equal(t, "<h1>hi</h1>", got["html"])
}
