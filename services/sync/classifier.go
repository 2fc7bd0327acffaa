package sync

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/mailforge/mailsync/internal/enum"
)

// ClassifiedError tags a raw failure with a fixed kind and a remediation
// hint. The kind drives retry decisions and the diagnostic report; the cause
// is kept for logging only.
type ClassifiedError struct {
	Kind  enum.ErrorKind `json:"kind"`
	Hint  string         `json:"hint"`
	Cause error          `json:"-"`
}

func (e *ClassifiedError) Error() string {
	if e.Cause == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Cause.Error()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

var hints = map[enum.ErrorKind]string{
	enum.ErrorKindAuthentication: "check the mailbox username and password",
	enum.ErrorKindConnection:     "verify the server address, port and security settings, and that the server is reachable",
	enum.ErrorKindTimeout:        "the mail server was slow to respond; try again later",
	enum.ErrorKindParse:          "the message could not be parsed and was skipped",
	enum.ErrorKindUnknown:        "an unexpected error occurred; check the service logs",
}

var authPatterns = []string{
	"authentication failed",
	"authenticationfailed",
	"login failed",
	"invalid credentials",
	"bad credentials",
	"access denied",
	"unauthorized",
	"authentication error",
}

var timeoutPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
	"i/o timeout",
}

var connectionPatterns = []string{
	"connection refused",
	"connection reset",
	"connection closed",
	"connection lost",
	"network unreachable",
	"host unreachable",
	"no such host",
	"broken pipe",
	"use of closed network connection",
	"unexpected eof",
	"eof",
}

var parsePatterns = []string{
	"malformed message",
	"malformed mime",
	"parse error",
	"unexpected content type",
}

// Classify maps a raw failure onto the error taxonomy. Pure and
// deterministic; an already-classified error passes through unchanged.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	kind := classifyKind(err)
	return &ClassifiedError{
		Kind:  kind,
		Hint:  hints[kind],
		Cause: err,
	}
}

func classifyKind(err error) enum.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return enum.ErrorKindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return enum.ErrorKindTimeout
	}

	msg := strings.ToLower(err.Error())

	for _, pattern := range authPatterns {
		if strings.Contains(msg, pattern) {
			return enum.ErrorKindAuthentication
		}
	}
	for _, pattern := range timeoutPatterns {
		if strings.Contains(msg, pattern) {
			return enum.ErrorKindTimeout
		}
	}
	for _, pattern := range connectionPatterns {
		if strings.Contains(msg, pattern) {
			return enum.ErrorKindConnection
		}
	}
	for _, pattern := range parsePatterns {
		if strings.Contains(msg, pattern) {
			return enum.ErrorKindParse
		}
	}

	return enum.ErrorKindUnknown
}

// newClassified builds a pre-classified error, used where the failure's kind
// is known at the point it surfaces (e.g. the normalizer).
func newClassified(kind enum.ErrorKind, cause error) *ClassifiedError {
	return &ClassifiedError{
		Kind:  kind,
		Hint:  hints[kind],
		Cause: cause,
	}
}
