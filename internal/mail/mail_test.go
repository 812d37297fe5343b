package mail

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRenderVerifyEmail(t *testing.T) {
	msg, err := Render("alice@x.com", TemplateVerifyEmail, LinkData{
		Name:      "Alice",
		Link:      "http://localhost:8431/api/v1/auth/verify/abc",
		ExpiresIn: "1 hour",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.com", msg.To)
	assert.Equal(t, "Confirm your TaskBite account", msg.Subject)
	assert.Contains(t, msg.PlainBody, "http://localhost:8431/api/v1/auth/verify/abc")
	assert.Contains(t, msg.PlainBody, "1 hour")
	assert.Contains(t, msg.HTMLBody, `href="http://localhost:8431/api/v1/auth/verify/abc"`)
}

func TestRenderEscapesHTML(t *testing.T) {
	msg, err := Render("a@b.co", TemplatePasswordReset, LinkData{Name: "<b>Mallory</b>", Token: "t"})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTMLBody, "<b>Mallory</b>")
	assert.Contains(t, msg.HTMLBody, "&lt;b&gt;Mallory&lt;/b&gt;")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("a@b.co", "missing.tmpl", nil)
	require.Error(t, err)
}

func TestLogMailer(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	m := NewLogMailer(zap.New(core).Sugar())

	err := m.Send(context.Background(), "a@b.co", TemplateVerifyEmail, LinkData{Name: "A", Link: "http://x/verify/t"})
	require.NoError(t, err)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "http://x/verify/t", entry.ContextMap()["link"])
	assert.Equal(t, "a@b.co", entry.ContextMap()["to"])
}

func TestMailerHonoursCancelledContext(t *testing.T) {
	m := New(Config{Server: "127.0.0.1", Port: 1}, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Send(ctx, "a@b.co", TemplateVerifyEmail, LinkData{})
	assert.ErrorIs(t, err, context.Canceled)
}
