package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationData_Link(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/api/auth/confirmed_email/tok",
		ConfirmationData{Host: "http://localhost:8000/", Token: "tok"}.Link())
	assert.Equal(t, "http://localhost:8000/api/auth/confirmed_email/tok",
		ConfirmationData{Host: "http://localhost:8000", Token: "tok"}.Link())
}

func TestRenderConfirmation(t *testing.T) {
	body, err := RenderConfirmation(ConfirmationData{
		Host: "https://contacts.test/", Username: "<alice>", Token: "abc.def.ghi",
	})
	require.NoError(t, err)

	assert.Contains(t, body, "https://contacts.test/api/auth/confirmed_email/abc.def.ghi")
	assert.Contains(t, body, "&lt;alice&gt;")
	assert.NotContains(t, body, "<alice>")
}

func TestSMTPSender_Build(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.test", Port: 465, From: "noreply@contacts.test", FromName: "Contacts book"})
	s.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	raw := string(s.build(Message{To: "alice@example.com", Subject: ConfirmationSubject, HTML: "<p>hi</p>"}))

	assert.Contains(t, raw, "From: \"Contacts book\" <noreply@contacts.test>\r\n")
	assert.Contains(t, raw, "To: alice@example.com\r\n")
	assert.Contains(t, raw, "Subject: Confirm your email\r\n")
	assert.Contains(t, raw, "Date: Sat, 01 Jun 2024 12:00:00 +0000\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=\"utf-8\"\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n<p>hi</p>"))
}

func TestSMTPSender_DialFailure(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", Port: 1, Timeout: 200 * time.Millisecond})
	err := s.Send(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial smtp")
}

type stubTokens struct {
	token string
	err   error
}

func (s stubTokens) EmailToken(email string) (string, error) { return s.token, s.err }

type capturingQueue struct {
	msgs []Message
}

func (q *capturingQueue) Enqueue(_ context.Context, msg Message) error {
	q.msgs = append(q.msgs, msg)
	return nil
}

func TestConfirmations_SendConfirmation(t *testing.T) {
	q := &capturingQueue{}
	c := NewConfirmations(stubTokens{token: "email-tok"}, q)

	require.NoError(t, c.SendConfirmation(context.Background(), "alice@example.com", "alice", "http://localhost:8000/"))

	require.Len(t, q.msgs, 1)
	assert.Equal(t, "alice@example.com", q.msgs[0].To)
	assert.Equal(t, "Confirm your email", q.msgs[0].Subject)
	assert.Contains(t, q.msgs[0].HTML, "http://localhost:8000/api/auth/confirmed_email/email-tok")
	assert.Contains(t, q.msgs[0].HTML, "Hello alice")
}

func TestConfirmations_TokenError(t *testing.T) {
	q := &capturingQueue{}
	c := NewConfirmations(stubTokens{err: errors.New("boom")}, q)

	err := c.SendConfirmation(context.Background(), "alice@example.com", "alice", "http://h/")
	require.Error(t, err)
	assert.Empty(t, q.msgs)
}
