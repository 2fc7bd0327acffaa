package sync

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	tracingLog "github.com/opentracing/opentracing-go/log"

	"github.com/mailforge/mailsync/interfaces"
	"github.com/mailforge/mailsync/internal/enum"
	"github.com/mailforge/mailsync/internal/models"
	"github.com/mailforge/mailsync/internal/tracing"
	"github.com/mailforge/mailsync/internal/utils"
)

const (
	// DefaultMaxRetries is the number of additional attempts per folder
	// after the first one fails with a retryable error
	DefaultMaxRetries = 2
	DefaultRetryDelay = 5 * time.Second
)

// SessionFactory builds a fresh session for one sync attempt. Each retry gets
// its own session; a failed connection is never reused.
type SessionFactory func(cfg SessionConfig) FolderSession

// Orchestrator runs one mailbox sync end to end: folders strictly in
// configuration order, one live session at a time, bookkeeping updated
// between passes. It never returns an error; the DiagnosticReport carries
// the outcome.
type Orchestrator struct {
	worker            *Worker
	mailboxRepository interfaces.MailboxRepository
	folderRepository  interfaces.FolderRepository
	newSession        SessionFactory
	maxRetries        int
	retryDelay        time.Duration
}

func NewOrchestrator(
	emailRepository interfaces.EmailRepository,
	mailboxRepository interfaces.MailboxRepository,
	folderRepository interfaces.FolderRepository,
) *Orchestrator {
	return &Orchestrator{
		worker:            NewWorker(emailRepository),
		mailboxRepository: mailboxRepository,
		folderRepository:  folderRepository,
		newSession:        func(cfg SessionConfig) FolderSession { return NewSession(cfg) },
		maxRetries:        DefaultMaxRetries,
		retryDelay:        DefaultRetryDelay,
	}
}

// Run syncs every folder of the mailbox and returns the diagnostic report.
// The password is the already-decrypted credential for this run.
func (o *Orchestrator) Run(ctx context.Context, mailbox *models.Mailbox, password string, folders []*models.Folder) *DiagnosticReport {
	span, ctx := tracing.StartTracerSpan(ctx, "Orchestrator.Run")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMailbox(span, mailbox.ID)
	span.LogFields(tracingLog.Int("folder_count", len(folders)))

	runStart := utils.Now()
	report := &DiagnosticReport{
		RunID:     uuid.NewString(),
		MailboxID: mailbox.ID,
		StartedAt: runStart,
	}

	cursor := mailbox.LastSyncedAt
	if cursor != nil {
		log.Printf("[%s] Starting incremental sync of %d folders since %s", mailbox.ID, len(folders), cursor.Format(time.RFC3339))
	} else {
		log.Printf("[%s] Starting full sync of %d folders", mailbox.ID, len(folders))
	}

	sessionCfg := SessionConfig{
		MailboxID: mailbox.ID,
		Server:    mailbox.ImapServer,
		Port:      mailbox.ImapPort,
		Username:  mailbox.ImapUsername,
		Password:  password,
		Security:  mailbox.ImapSecurity,
	}

	kindsSeen := make(map[enum.ErrorKind]bool)

	for _, folder := range folders {
		folder := folder

		result := WithRetry(ctx, func() SyncResult {
			return o.syncFolderOnce(ctx, sessionCfg, mailbox.ID, folder, cursor)
		}, o.maxRetries, o.retryDelay)

		report.Folders = append(report.Folders, result)
		report.TotalSynced += result.Synced
		report.TotalErrors += result.Errors

		if result.Error != nil {
			kindsSeen[result.Error.Kind] = true
			switch result.Error.Kind {
			case enum.ErrorKindAuthentication:
				report.AuthFailure = true
			case enum.ErrorKindConnection, enum.ErrorKindTimeout:
				report.ConnectionIssue = true
			}
		}

		// Folder bookkeeping is written even for failed passes so partial
		// progress stays visible
		if err := o.folderRepository.UpdateSyncStats(ctx, folder.ID, folder.MessageCount, utils.Now()); err != nil {
			log.Printf("[%s][%s] Error updating folder sync stats: %v", mailbox.ID, folder.Path, err)
			tracing.TraceErr(span, err)
		}
	}

	report.CursorAdvanced = shouldAdvanceCursor(report.Folders)
	if report.CursorAdvanced {
		if err := o.mailboxRepository.UpdateLastSyncedAt(ctx, mailbox.ID, runStart); err != nil {
			log.Printf("[%s] Error advancing sync cursor: %v", mailbox.ID, err)
			tracing.TraceErr(span, err)
			report.CursorAdvanced = false
		}
	}

	report.Recommendations = recommendations(kindsSeen)
	report.CompletedAt = utils.Now()

	span.LogFields(
		tracingLog.Int("total_synced", report.TotalSynced),
		tracingLog.Int("total_errors", report.TotalErrors),
		tracingLog.Bool("cursor_advanced", report.CursorAdvanced),
	)
	log.Printf("[%s] Sync run %s complete: synced=%d errors=%d cursorAdvanced=%v",
		mailbox.ID, report.RunID, report.TotalSynced, report.TotalErrors, report.CursorAdvanced)

	return report
}

// syncFolderOnce is one attempt: a fresh session, one folder pass, session
// released on every exit path.
func (o *Orchestrator) syncFolderOnce(ctx context.Context, cfg SessionConfig, mailboxID string, folder *models.Folder, cursor *time.Time) SyncResult {
	session := o.newSession(cfg)
	defer session.Close()

	if err := session.Open(ctx); err != nil {
		classified := Classify(err)
		log.Printf("[%s][%s] Connection error: %v", mailboxID, folder.Path, err)
		return SyncResult{
			FolderID: folder.ID,
			Folder:   folder.Path,
			Errors:   1,
			Error:    classified,
			Warnings: []string{"could not connect to the mail server: " + classified.Kind.String()},
		}
	}

	return o.worker.SyncFolder(ctx, session, mailboxID, folder, cursor)
}

// shouldAdvanceCursor implements the cursor invariant: advance when at least
// one folder synced successfully, or when the whole run was clean and empty.
// A run with failures and zero successes keeps the old baseline so the next
// run retries the same window.
func shouldAdvanceCursor(results []SyncResult) bool {
	if len(results) == 0 {
		return false
	}

	allCleanEmpty := true
	for _, r := range results {
		if r.Success {
			return true
		}
		if r.Candidates != 0 || r.Errors != 0 || r.Error != nil {
			allCleanEmpty = false
		}
	}
	return allCleanEmpty
}

// recommendationOrder keeps the report stable across runs.
var recommendationOrder = []enum.ErrorKind{
	enum.ErrorKindAuthentication,
	enum.ErrorKindConnection,
	enum.ErrorKindTimeout,
	enum.ErrorKindParse,
	enum.ErrorKindUnknown,
}

// recommendations derives one hint per distinct error kind seen across the
// run, never one per affected folder. Text comes from the classifier's hint
// table so the report and per-error hints stay consistent.
func recommendations(kindsSeen map[enum.ErrorKind]bool) []string {
	var recs []string
	for _, kind := range recommendationOrder {
		if kindsSeen[kind] {
			recs = append(recs, hints[kind])
		}
	}
	return recs
}
