package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"
)

// Message is a single outgoing email
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers a rendered message over some transport
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier delivers verification and reset links to users
type Notifier interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}

var (
	verificationTmpl = template.Must(template.New("verify").Parse(`
<h1>Verify your email</h1>
<p>Click the link below to verify your email address:</p>
<a href="{{.URL}}">{{.URL}}</a>
<p>This link will expire in {{.Lifetime}}.</p>
`))

	resetTmpl = template.Must(template.New("reset").Parse(`
<h1>Reset your password</h1>
<p>Click the link below to reset your password:</p>
<a href="{{.URL}}">{{.URL}}</a>
<p>This link will expire in {{.Lifetime}}.</p>
`))
)

// EmailNotifier renders link emails and hands them to a Sender
type EmailNotifier struct {
	sender  Sender
	appURL  string
	timeout time.Duration
}

// NewEmailNotifier creates a notifier building links under appURL.
// A zero timeout leaves the caller's deadline untouched.
func NewEmailNotifier(sender Sender, appURL string, timeout time.Duration) *EmailNotifier {
	return &EmailNotifier{
		sender:  sender,
		appURL:  strings.TrimRight(appURL, "/"),
		timeout: timeout,
	}
}

// SendVerificationEmail sends the 24 hour email verification link
func (n *EmailNotifier) SendVerificationEmail(ctx context.Context, email, token string) error {
	return n.send(ctx, email, "Verify your email address", verificationTmpl, n.Link("verify-email", token), "24 hours")
}

// SendPasswordResetEmail sends the 1 hour password reset link
func (n *EmailNotifier) SendPasswordResetEmail(ctx context.Context, email, token string) error {
	return n.send(ctx, email, "Reset your password", resetTmpl, n.Link("reset-password", token), "1 hour")
}

// Link builds <appURL>/<path>?token=<token>
func (n *EmailNotifier) Link(path, token string) string {
	return n.appURL + "/" + path + "?token=" + url.QueryEscape(token)
}

func (n *EmailNotifier) send(ctx context.Context, to, subject string, tmpl *template.Template, link, lifetime string) error {
	var body bytes.Buffer
	err := tmpl.Execute(&body, struct {
		URL      string
		Lifetime string
	}{URL: link, Lifetime: lifetime})
	if err != nil {
		return fmt.Errorf("failed to render %s email: %w", tmpl.Name(), err)
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	if err := n.sender.Send(ctx, Message{To: to, Subject: subject, HTML: body.String()}); err != nil {
		return fmt.Errorf("failed to send %s email: %w", tmpl.Name(), err)
	}

	return nil
}
