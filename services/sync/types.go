package sync

import (
	"time"

	"github.com/mailforge/mailsync/internal/enum"
)

// SessionConfig carries everything needed to open one IMAP session. The
// password is already decrypted by the credential resolver; this package
// never sees ciphertext.
type SessionConfig struct {
	MailboxID      string
	Server         string
	Port           int
	Username       string
	Password       string
	Security       enum.EmailSecurity
	ConnectTimeout time.Duration
	SessionTimeout time.Duration
}

// SyncResult is the outcome of one folder pass. A folder that ran out of
// wall-clock budget mid-pass still reports the partial counts it accumulated.
type SyncResult struct {
	FolderID   string           `json:"folderId"`
	Folder     string           `json:"folder"`
	Success    bool             `json:"success"`
	Candidates int              `json:"candidates"`
	Synced     int              `json:"synced"`
	Errors     int              `json:"errors"`
	Warnings   []string         `json:"warnings,omitempty"`
	Error      *ClassifiedError `json:"error,omitempty"`
}

// DiagnosticReport is the mailbox-level summary of one orchestrator run.
// Always returned, even when every folder failed; callers inspect the
// aggregated fields rather than an error.
type DiagnosticReport struct {
	RunID           string       `json:"runId"`
	MailboxID       string       `json:"mailboxId"`
	StartedAt       time.Time    `json:"startedAt"`
	CompletedAt     time.Time    `json:"completedAt"`
	TotalSynced     int          `json:"totalSynced"`
	TotalErrors     int          `json:"totalErrors"`
	Folders         []SyncResult `json:"folders"`
	Recommendations []string     `json:"recommendations,omitempty"`
	CursorAdvanced  bool         `json:"cursorAdvanced"`
	AuthFailure     bool         `json:"authFailure"`
	ConnectionIssue bool         `json:"connectionIssue"`
}
