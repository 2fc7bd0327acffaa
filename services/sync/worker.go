package sync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"

	"github.com/mailforge/mailsync/interfaces"
	"github.com/mailforge/mailsync/internal/enum"
	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
	"github.com/mailforge/mailsync/internal/models"
	"github.com/mailforge/mailsync/internal/tracing"
	"github.com/mailforge/mailsync/internal/utils"
)

const (
	// MaxCandidatesPerPass bounds how many messages one folder pass will
	// process, newest kept, so a pass stays bounded regardless of mailbox size
	MaxCandidatesPerPass = 50

	// FolderSyncBudget is the wall-clock limit for one folder pass. Expiry
	// degrades the pass to partial success, not failure.
	FolderSyncBudget = 3 * time.Minute
)

// Worker drives one session through one folder's sync pass: select, search,
// bound, then fetch/dedup/normalize/persist each candidate sequentially.
type Worker struct {
	emailRepository interfaces.EmailRepository
}

func NewWorker(emailRepository interfaces.EmailRepository) *Worker {
	return &Worker{emailRepository: emailRepository}
}

// SyncFolder runs one folder pass. Single-message failures are counted and
// absorbed; only folder-level failures (select, search) produce a failed
// result. The caller owns retry decisions.
func (w *Worker) SyncFolder(ctx context.Context, session FolderSession, mailboxID string, folder *models.Folder, cursor *time.Time) SyncResult {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Worker.SyncFolder")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMailbox(span, mailboxID)
	tracing.TagFolder(span, folder.Path)

	result := SyncResult{
		FolderID: folder.ID,
		Folder:   folder.Path,
	}

	ctx, cancel := context.WithTimeout(ctx, FolderSyncBudget)
	defer cancel()

	// Budget expiry tears the live session down so an in-flight command
	// fails right away instead of running out its own timeout
	stop := context.AfterFunc(ctx, session.Close)
	defer stop()

	// Open
	mbox, err := session.SelectFolder(folder.Path)
	if err != nil {
		classified := Classify(err)
		tracing.TraceErr(span, err)
		log.Printf("[%s][%s] Error selecting folder: %v", mailboxID, folder.Path, err)
		result.Errors = 1
		result.Error = classified
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("folder %q could not be opened: %s", folder.Path, classified.Kind))
		return result
	}
	folder.MessageCount = int(mbox.Messages)

	// Search
	uids, err := session.SearchSince(cursor)
	if err != nil {
		classified := Classify(err)
		tracing.TraceErr(span, err)
		log.Printf("[%s][%s] Error searching folder: %v", mailboxID, folder.Path, err)
		result.Errors = 1
		result.Error = classified
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("search in folder %q failed: %s", folder.Path, classified.Kind))
		return result
	}

	result.Candidates = len(uids)
	span.LogFields(tracingLog.Int("candidates", len(uids)))

	// Bound: keep only the newest candidates, preserving server order
	if len(uids) > MaxCandidatesPerPass {
		skipped := len(uids) - MaxCandidatesPerPass
		uids = uids[skipped:]
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("folder %q returned %d candidates; skipped %d older messages to keep the pass bounded",
				folder.Path, result.Candidates, skipped))
		log.Printf("[%s][%s] Capped candidate set, skipping %d older messages", mailboxID, folder.Path, skipped)
	}

	if cursor != nil {
		log.Printf("[%s][%s] Incremental sync since %s: %d candidates", mailboxID, folder.Path, cursor.Format(time.RFC3339), len(uids))
	} else {
		log.Printf("[%s][%s] Full sync: %d candidates", mailboxID, folder.Path, len(uids))
	}

	// Per-candidate loop, oldest to newest, strictly sequential
	for _, uid := range uids {
		if ctx.Err() != nil {
			break
		}
		if !w.syncMessage(ctx, session, mailboxID, folder, uid, &result) {
			break
		}
	}

	if ctx.Err() != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("folder %q ran out of time; %d of %d candidates processed", folder.Path, result.Synced+result.Errors, len(uids)))
		log.Printf("[%s][%s] Folder sync budget expired, returning partial result", mailboxID, folder.Path)
	}

	result.Success = result.Synced > 0
	span.LogFields(
		tracingLog.Int("synced", result.Synced),
		tracingLog.Int("errors", result.Errors),
	)
	log.Printf("[%s][%s] Folder pass complete: synced=%d errors=%d warnings=%d",
		mailboxID, folder.Path, result.Synced, result.Errors, len(result.Warnings))
	return result
}

// syncMessage processes a single candidate. Returns false when the session is
// no longer usable and the pass should stop with whatever it has.
func (w *Worker) syncMessage(ctx context.Context, session FolderSession, mailboxID string, folder *models.Folder, uid uint32, result *SyncResult) bool {
	// Headers first: the Message-ID decides dedup before paying for a full fetch
	rawHeaders, err := session.FetchHeaders(uid)
	if err != nil {
		if ctx.Err() != nil {
			// The budget tore the session down mid-command, not the server
			return false
		}
		classified := Classify(err)
		if !sessionUsable(classified) {
			result.Errors++
			result.Error = classified
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("folder %q: session lost while fetching headers: %s", folder.Path, classified.Kind))
			return false
		}
		log.Printf("[%s][%s] Error fetching headers for message %d: %v", mailboxID, folder.Path, uid, err)
		result.Errors++
		return true
	}

	messageID := utils.ExtractMessageID(rawHeaders)
	if messageID == "" {
		// Data-quality skip, not a failure
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("folder %q: message %d has no Message-ID header and was skipped", folder.Path, uid))
		log.Printf("[%s][%s] Message %d has no Message-ID, skipping", mailboxID, folder.Path, uid)
		return true
	}

	exists, err := w.emailRepository.Exists(ctx, mailboxID, messageID)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Printf("[%s][%s] Dedup check failed for %s: %v", mailboxID, folder.Path, messageID, err)
		result.Errors++
		return true
	}
	if exists {
		// Already persisted in an earlier run
		return true
	}

	raw, err := session.FetchFull(uid)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		classified := Classify(err)
		if !sessionUsable(classified) {
			result.Errors++
			result.Error = classified
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("folder %q: session lost while fetching message: %s", folder.Path, classified.Kind))
			return false
		}
		log.Printf("[%s][%s] Error fetching message %d: %v", mailboxID, folder.Path, uid, err)
		result.Errors++
		return true
	}

	email, err := Normalize(raw, messageID)
	if err != nil {
		if errors.Is(err, mailsync_errors.ErrMissingMessageID) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("folder %q: message %d is unidentifiable and was skipped", folder.Path, uid))
			return true
		}
		log.Printf("[%s][%s] Error normalizing message %d: %v", mailboxID, folder.Path, uid, err)
		result.Errors++
		return true
	}

	email.MailboxID = mailboxID
	email.Folder = folder.Path

	if err := w.emailRepository.Create(ctx, email); err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Printf("[%s][%s] Error persisting message %s: %v", mailboxID, folder.Path, messageID, err)
		result.Errors++
		return true
	}

	result.Synced++
	return true
}

// sessionUsable reports whether the pass can continue after a per-message
// failure of the given kind. A dead transport fails every remaining
// candidate, so stop early and keep the partial counts.
func sessionUsable(classified *ClassifiedError) bool {
	return classified.Kind != enum.ErrorKindConnection && classified.Kind != enum.ErrorKindTimeout
}
