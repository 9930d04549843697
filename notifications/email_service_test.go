package notifications

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewMailerFallsBackToLog(t *testing.T) {
	m := NewMailer("", "CourseHub", "noreply@coursehub.test", discardLogger())
	_, ok := m.(*LogMailer)
	assert.True(t, ok)

	m = NewMailer("SG.key", "CourseHub", "noreply@coursehub.test", discardLogger())
	_, ok = m.(*SendGridMailer)
	assert.True(t, ok)
}

func TestLogMailerRecords(t *testing.T) {
	m := NewLogMailer(discardLogger())
	m.Send(Email{ToEmail: "a@example.com", Subject: "one"}, Email{ToEmail: "b@example.com", Subject: "two"})

	sent := m.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "two", sent[1].Subject)
}

func TestSendGridPrepare(t *testing.T) {
	m := NewMailer("SG.key", "CourseHub", "noreply@coursehub.test", discardLogger()).(*SendGridMailer)
	v3 := m.prepare(Email{ToEmail: "jane@example.com", Subject: "Welcome", HTML: "<p>hi</p>"})

	require.Len(t, v3.Personalizations, 1)
	p := v3.Personalizations[0]
	assert.Equal(t, "[CourseHub] Welcome", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "jane", p.To[0].Name)
	assert.Equal(t, "noreply@coursehub.test", v3.From.Address)
}

func TestValidRecipient(t *testing.T) {
	assert.True(t, validRecipient("x@y.z"))
	assert.False(t, validRecipient(""))
	assert.False(t, validRecipient("nobody"))
}
