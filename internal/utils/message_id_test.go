package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractMessageID(t *testing.T) {
	raw := "Subject: hello\r\nMessage-ID: <abc-123@example.com>\r\nFrom: ann@example.com\r\n"
	assert.Equal(t, "abc-123@example.com", ExtractMessageID(raw))
}

func TestExtractMessageID_NoAngleBrackets(t *testing.T) {
	raw := "Message-ID: abc-123@example.com\r\n"
	assert.Equal(t, "abc-123@example.com", ExtractMessageID(raw))
}

func TestExtractMessageID_CaseInsensitive(t *testing.T) {
	raw := "message-id: <abc-123@example.com>\r\n"
	assert.Equal(t, "abc-123@example.com", ExtractMessageID(raw))
}

func TestExtractMessageID_FoldedHeader(t *testing.T) {
	raw := "Message-ID:\r\n <abc-123@example.com>\r\nSubject: folded\r\n"
	assert.Equal(t, "abc-123@example.com", ExtractMessageID(raw))
}

func TestExtractMessageID_Missing(t *testing.T) {
	assert.Equal(t, "", ExtractMessageID("Subject: no id here\r\n"))
	assert.Equal(t, "", ExtractMessageID(""))
}

func TestTrimMessageID(t *testing.T) {
	assert.Equal(t, "abc@example.com", TrimMessageID(" <abc@example.com> "))
	assert.Equal(t, "abc@example.com", TrimMessageID("abc@example.com"))
	assert.Equal(t, "", TrimMessageID("  "))
}
