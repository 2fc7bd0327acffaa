package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailforge/mailsync/internal/enum"
)

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassify_Authentication(t *testing.T) {
	cases := []string{
		"LOGIN failed: Invalid credentials",
		"AUTHENTICATIONFAILED: please log in via your web browser",
		"access denied for user",
	}

	for _, msg := range cases {
		classified := Classify(errors.New(msg))
		require.NotNil(t, classified, msg)
		assert.Equal(t, enum.ErrorKindAuthentication, classified.Kind, msg)
		assert.False(t, classified.Kind.Retryable(), msg)
	}
}

func TestClassify_Timeout(t *testing.T) {
	classified := Classify(fmt.Errorf("select folder: %w", context.DeadlineExceeded))
	require.NotNil(t, classified)
	assert.Equal(t, enum.ErrorKindTimeout, classified.Kind)
	assert.True(t, classified.Kind.Retryable())

	classified = Classify(errors.New("read tcp 10.0.0.1:993: i/o timeout"))
	require.NotNil(t, classified)
	assert.Equal(t, enum.ErrorKindTimeout, classified.Kind)
}

func TestClassify_Connection(t *testing.T) {
	cases := []string{
		"dial tcp 10.0.0.1:993: connection refused",
		"connection reset by peer",
		"unexpected EOF",
		"lookup imap.nosuch.example: no such host",
	}

	for _, msg := range cases {
		classified := Classify(errors.New(msg))
		require.NotNil(t, classified, msg)
		assert.Equal(t, enum.ErrorKindConnection, classified.Kind, msg)
		assert.True(t, classified.Kind.Retryable(), msg)
	}
}

func TestClassify_Parse(t *testing.T) {
	classified := Classify(errors.New("malformed MIME header line"))
	require.NotNil(t, classified)
	assert.Equal(t, enum.ErrorKindParse, classified.Kind)
	assert.False(t, classified.Kind.Retryable())
}

func TestClassify_Unknown(t *testing.T) {
	classified := Classify(errors.New("something nobody anticipated"))
	require.NotNil(t, classified)
	assert.Equal(t, enum.ErrorKindUnknown, classified.Kind)
	assert.False(t, classified.Kind.Retryable())
	assert.NotEmpty(t, classified.Hint)
}

func TestClassify_PreclassifiedPassthrough(t *testing.T) {
	original := newClassified(enum.ErrorKindParse, errors.New("bad envelope"))
	wrapped := fmt.Errorf("processing message 42: %w", original)

	classified := Classify(wrapped)
	require.NotNil(t, classified)
	assert.Equal(t, enum.ErrorKindParse, classified.Kind)
	assert.Same(t, original, classified)
}

func TestClassifiedError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	classified := Classify(cause)

	assert.ErrorIs(t, classified, cause)
	assert.Contains(t, classified.Error(), "connection refused")
}
