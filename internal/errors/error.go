package errors

import "github.com/pkg/errors"

var (
	// common errors
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrSessionClosed     = errors.New("imap session is closed")

	// mailbox errors
	ErrMailboxNotFound = errors.New("mailbox not found")
	ErrNoSyncFolders   = errors.New("mailbox has no sync folders configured")

	// credential errors
	ErrDecryptionFailed = errors.New("credential decryption failed")

	// message errors
	ErrMissingMessageID = errors.New("message has no usable message id")
)
