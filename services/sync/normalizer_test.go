package sync

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailforge/mailsync/internal/enum"
	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
)

func rawMessage(headers map[string]string, body string) []byte {
	var b strings.Builder
	for key, value := range headers {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func TestNormalize_SimpleMessage(t *testing.T) {
	raw := rawMessage(map[string]string{
		"Message-ID":   "<msg-001@example.com>",
		"Subject":      "Quarterly report",
		"From":         "Ann Smith <ann@example.com>",
		"To":           "bob@example.com, Carol <carol@example.com>",
		"Date":         "Mon, 02 Jan 2006 15:04:05 -0700",
		"Content-Type": "text/plain; charset=utf-8",
	}, "Please find the report attached.")

	email, err := Normalize(raw, "")
	require.NoError(t, err)

	assert.Equal(t, "msg-001@example.com", email.MessageID)
	assert.Equal(t, "Quarterly report", email.Subject)
	assert.Equal(t, "Ann Smith", email.FromName)
	assert.Equal(t, "ann@example.com", email.FromAddress)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, []string(email.ToAddresses))
	assert.Empty(t, []string(email.CcAddresses))
	assert.Contains(t, email.BodyText, "Please find the report attached.")

	require.NotNil(t, email.SentAt)
	expected := time.Date(2006, 1, 2, 22, 4, 5, 0, time.UTC)
	assert.True(t, email.SentAt.Equal(expected))
	require.NotNil(t, email.ReceivedAt)
}

func TestNormalize_MissingSubject(t *testing.T) {
	raw := rawMessage(map[string]string{
		"Message-ID": "<msg-002@example.com>",
		"From":       "ann@example.com",
	}, "body")

	email, err := Normalize(raw, "")
	require.NoError(t, err)
	assert.Equal(t, "(no subject)", email.Subject)
}

func TestNormalize_FallbackMessageID(t *testing.T) {
	raw := rawMessage(map[string]string{
		"Subject": "no identifier in the body headers",
		"From":    "ann@example.com",
	}, "body")

	email, err := Normalize(raw, "<fallback-id@example.com>")
	require.NoError(t, err)
	assert.Equal(t, "fallback-id@example.com", email.MessageID)
}

func TestNormalize_NoIdentifier(t *testing.T) {
	raw := rawMessage(map[string]string{
		"Subject": "unidentifiable",
	}, "body")

	_, err := Normalize(raw, "")
	assert.ErrorIs(t, err, mailsync_errors.ErrMissingMessageID)
}

func TestNormalize_UnparseableAddressHeader(t *testing.T) {
	raw := rawMessage(map[string]string{
		"Message-ID": "<msg-003@example.com>",
		"To":         "@@not-a-valid-address@@",
	}, "body")

	email, err := Normalize(raw, "")
	require.NoError(t, err)
	// Raw value kept as a single entry instead of dropping the recipients
	assert.Equal(t, []string{"@@not-a-valid-address@@"}, []string(email.ToAddresses))
}

func TestNormalize_UnparseableMessage(t *testing.T) {
	// No header block terminator and a broken MIME structure
	raw := []byte("Content-Type: multipart/mixed; boundary\r\nbroken")

	_, err := Normalize(raw, "<fallback@example.com>")
	if err != nil {
		classified := Classify(err)
		assert.Equal(t, enum.ErrorKindParse, classified.Kind)
	}
}

func TestNormalize_HTMLBody(t *testing.T) {
	body := "--sep\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n\r\n" +
		"plain part\r\n" +
		"--sep\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n\r\n" +
		"<p>html part</p>\r\n" +
		"--sep--\r\n"
	raw := rawMessage(map[string]string{
		"Message-ID":   "<msg-004@example.com>",
		"Subject":      "multipart",
		"From":         "ann@example.com",
		"MIME-Version": "1.0",
		"Content-Type": "multipart/alternative; boundary=sep",
	}, body)

	email, err := Normalize(raw, "")
	require.NoError(t, err)
	assert.Contains(t, email.BodyText, "plain part")
	assert.Contains(t, email.BodyHTML, "html part")
}
