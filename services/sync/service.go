package sync

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/pkg/errors"

	"github.com/mailforge/mailsync/interfaces"
	"github.com/mailforge/mailsync/internal/enum"
	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
	"github.com/mailforge/mailsync/internal/models"
	"github.com/mailforge/mailsync/internal/tracing"
	"github.com/mailforge/mailsync/internal/utils"
)

// Service is the entry point for syncing one mailbox. It owns the lifecycle
// around a run: loading the mailbox, materializing folder records, decrypting
// the credential, guarding against overlapping runs, and recording the final
// status.
type Service struct {
	mailboxRepository interfaces.MailboxRepository
	folderRepository  interfaces.FolderRepository
	resolver          interfaces.CredentialResolver
	orchestrator      *Orchestrator

	mu      sync.Mutex
	running map[string]bool
}

func NewService(
	emailRepository interfaces.EmailRepository,
	mailboxRepository interfaces.MailboxRepository,
	folderRepository interfaces.FolderRepository,
	resolver interfaces.CredentialResolver,
) *Service {
	return &Service{
		mailboxRepository: mailboxRepository,
		folderRepository:  folderRepository,
		resolver:          resolver,
		orchestrator:      NewOrchestrator(emailRepository, mailboxRepository, folderRepository),
		running:           make(map[string]bool),
	}
}

// ErrSyncInProgress is returned when a sync is requested for a mailbox that
// already has a run in flight in this process.
var ErrSyncInProgress = errors.New("sync already in progress for this mailbox")

// SyncMailbox runs one full sync of the mailbox and returns its diagnostic
// report. The returned error covers pre-flight failures only (unknown
// mailbox, bad credential, overlapping run); sync failures inside the run are
// reported through the report itself.
func (s *Service) SyncMailbox(ctx context.Context, mailboxID string) (*DiagnosticReport, error) {
	span, ctx := tracing.StartTracerSpan(ctx, "Service.SyncMailbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMailbox(span, mailboxID)

	mailbox, err := s.mailboxRepository.GetByID(ctx, mailboxID)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if len(mailbox.SyncFolders) == 0 {
		return nil, mailsync_errors.ErrNoSyncFolders
	}

	if !s.acquire(mailboxID) {
		return nil, ErrSyncInProgress
	}
	defer s.release(mailboxID)

	password, err := s.resolver.Decrypt(mailbox.ImapPassword)
	if err != nil {
		tracing.TraceErr(span, err)
		statusErr := s.mailboxRepository.UpdateSyncStatus(ctx, mailboxID, enum.SyncStatusFailed, "credential decryption failed")
		if statusErr != nil {
			log.Printf("[%s] Error updating sync status: %v", mailboxID, statusErr)
		}
		return nil, errors.Wrap(mailsync_errors.ErrDecryptionFailed, err.Error())
	}

	folders, err := s.ensureFolders(ctx, mailbox)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	if err := s.mailboxRepository.UpdateSyncStatus(ctx, mailboxID, enum.SyncStatusRunning, ""); err != nil {
		log.Printf("[%s] Error updating sync status: %v", mailboxID, err)
	}

	report := s.orchestrator.Run(ctx, mailbox, password, folders)

	status := enum.SyncStatusOK
	errorMessage := ""
	if !report.CursorAdvanced && report.TotalErrors > 0 {
		status = enum.SyncStatusFailed
		errorMessage = runErrorMessage(report)
	}
	if err := s.mailboxRepository.UpdateSyncStatus(ctx, mailboxID, status, errorMessage); err != nil {
		log.Printf("[%s] Error updating sync status: %v", mailboxID, err)
		tracing.TraceErr(span, err)
	}

	return report, nil
}

// ensureFolders materializes a Folder record for every configured folder path
// and returns them in configuration order. Records persist across runs so the
// per-folder bookkeeping accumulates.
func (s *Service) ensureFolders(ctx context.Context, mailbox *models.Mailbox) ([]*models.Folder, error) {
	existing, err := s.folderRepository.GetByMailbox(ctx, mailbox.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading folders for mailbox %s: %w", mailbox.ID, err)
	}

	byPath := make(map[string]*models.Folder, len(existing))
	for _, f := range existing {
		byPath[f.Path] = f
	}

	// Duplicate configured paths collapse to one folder record
	paths := utils.UniqueStrings(mailbox.SyncFolders)

	folders := make([]*models.Folder, 0, len(paths))
	for _, path := range paths {
		if f, ok := byPath[path]; ok {
			folders = append(folders, f)
			continue
		}
		f := &models.Folder{
			MailboxID: mailbox.ID,
			Path:      path,
		}
		if err := s.folderRepository.Save(ctx, f); err != nil {
			return nil, fmt.Errorf("error creating folder record %s: %w", path, err)
		}
		folders = append(folders, f)
	}

	return folders, nil
}

func (s *Service) acquire(mailboxID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[mailboxID] {
		return false
	}
	s.running[mailboxID] = true
	return true
}

func (s *Service) release(mailboxID string) {
	s.mu.Lock()
	delete(s.running, mailboxID)
	s.mu.Unlock()
}

// runErrorMessage summarizes a fully failed run for the mailbox record.
func runErrorMessage(report *DiagnosticReport) string {
	for _, r := range report.Folders {
		if r.Error != nil {
			return fmt.Sprintf("sync failed: %s", r.Error.Hint)
		}
	}
	return fmt.Sprintf("sync failed with %d errors", report.TotalErrors)
}
