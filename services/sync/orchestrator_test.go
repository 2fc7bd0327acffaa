package sync

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailforge/mailsync/internal/enum"
	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
	"github.com/mailforge/mailsync/internal/models"
)

type fakeMailboxRepository struct {
	mailboxes     map[string]*models.Mailbox
	statusUpdates []enum.SyncStatus
	cursorUpdates []time.Time
}

func newFakeMailboxRepository(mailboxes ...*models.Mailbox) *fakeMailboxRepository {
	r := &fakeMailboxRepository{mailboxes: map[string]*models.Mailbox{}}
	for _, m := range mailboxes {
		r.mailboxes[m.ID] = m
	}
	return r
}

func (r *fakeMailboxRepository) GetByID(ctx context.Context, id string) (*models.Mailbox, error) {
	m, ok := r.mailboxes[id]
	if !ok {
		return nil, mailsync_errors.ErrMailboxNotFound
	}
	return m, nil
}

func (r *fakeMailboxRepository) List(ctx context.Context) ([]*models.Mailbox, error) {
	var out []*models.Mailbox
	for _, m := range r.mailboxes {
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMailboxRepository) Save(ctx context.Context, mailbox *models.Mailbox) error {
	r.mailboxes[mailbox.ID] = mailbox
	return nil
}

func (r *fakeMailboxRepository) Delete(ctx context.Context, id string) error {
	delete(r.mailboxes, id)
	return nil
}

func (r *fakeMailboxRepository) UpdateSyncStatus(ctx context.Context, id string, status enum.SyncStatus, errorMessage string) error {
	r.statusUpdates = append(r.statusUpdates, status)
	if m, ok := r.mailboxes[id]; ok {
		m.SyncStatus = status
		m.ErrorMessage = errorMessage
	}
	return nil
}

func (r *fakeMailboxRepository) UpdateLastSyncedAt(ctx context.Context, id string, lastSyncedAt time.Time) error {
	r.cursorUpdates = append(r.cursorUpdates, lastSyncedAt)
	if m, ok := r.mailboxes[id]; ok {
		m.LastSyncedAt = &lastSyncedAt
	}
	return nil
}

type fakeFolderRepository struct {
	folders      map[string]*models.Folder
	statsUpdates []string
}

func newFakeFolderRepository(folders ...*models.Folder) *fakeFolderRepository {
	r := &fakeFolderRepository{folders: map[string]*models.Folder{}}
	for _, f := range folders {
		r.folders[f.ID] = f
	}
	return r
}

func (r *fakeFolderRepository) GetByMailbox(ctx context.Context, mailboxID string) ([]*models.Folder, error) {
	var out []*models.Folder
	for _, f := range r.folders {
		if f.MailboxID == mailboxID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFolderRepository) Save(ctx context.Context, folder *models.Folder) error {
	if folder.ID == "" {
		folder.ID = "fold_" + folder.Path
	}
	r.folders[folder.ID] = folder
	return nil
}

func (r *fakeFolderRepository) UpdateSyncStats(ctx context.Context, folderID string, messageCount int, syncedAt time.Time) error {
	r.statsUpdates = append(r.statsUpdates, folderID)
	return nil
}

func (r *fakeFolderRepository) DeleteByMailbox(ctx context.Context, mailboxID string) error {
	for id, f := range r.folders {
		if f.MailboxID == mailboxID {
			delete(r.folders, id)
		}
	}
	return nil
}

// sessionQueue hands out scripted sessions in order, one per attempt.
type sessionQueue struct {
	sessions []*fakeSession
	handed   int
}

func (q *sessionQueue) next(cfg SessionConfig) FolderSession {
	if q.handed >= len(q.sessions) {
		return &fakeSession{openErr: errors.New("unexpected extra session")}
	}
	s := q.sessions[q.handed]
	q.handed++
	return s
}

func testMailbox() *models.Mailbox {
	return &models.Mailbox{
		ID:           "mbox_test",
		ImapServer:   "imap.example.com",
		ImapPort:     993,
		ImapUsername: "ann@example.com",
		ImapSecurity: enum.EmailSecurityTLS,
		SyncFolders:  []string{"INBOX", "Archive"},
	}
}

func testFolders() []*models.Folder {
	return []*models.Folder{
		{ID: "fold_inbox", MailboxID: "mbox_test", Path: "INBOX"},
		{ID: "fold_archive", MailboxID: "mbox_test", Path: "Archive"},
	}
}

func newTestOrchestrator(emailRepo *fakeEmailRepository, mailboxRepo *fakeMailboxRepository, folderRepo *fakeFolderRepository, queue *sessionQueue) *Orchestrator {
	o := NewOrchestrator(emailRepo, mailboxRepo, folderRepo)
	o.newSession = queue.next
	o.retryDelay = time.Millisecond
	return o
}

func TestRun_SyncsAllFoldersWithRetry(t *testing.T) {
	emailRepo := newFakeEmailRepository()
	mailboxRepo := newFakeMailboxRepository(testMailbox())
	folderRepo := newFakeFolderRepository(testFolders()...)

	// INBOX succeeds with three messages; Archive fails to connect twice and
	// then delivers one message
	queue := &sessionQueue{sessions: []*fakeSession{
		{uids: uidRange(1, 3)},
		{openErr: errors.New("dial tcp: connection refused")},
		{openErr: errors.New("dial tcp: connection refused")},
		{uids: []uint32{10}},
	}}

	o := newTestOrchestrator(emailRepo, mailboxRepo, folderRepo, queue)
	report := o.Run(context.Background(), testMailbox(), "secret", testFolders())

	require.Len(t, report.Folders, 2)
	assert.Equal(t, 4, report.TotalSynced)
	assert.Equal(t, 0, report.TotalErrors)
	assert.True(t, report.CursorAdvanced)
	assert.False(t, report.AuthFailure)
	assert.False(t, report.ConnectionIssue)
	assert.Empty(t, report.Recommendations)
	assert.NotEmpty(t, report.RunID)

	// Every scripted session was consumed and released
	assert.Equal(t, 4, queue.handed)
	for _, s := range queue.sessions {
		assert.True(t, s.closed)
	}

	// Cursor advanced to the run start, folder stats written for both folders
	require.Len(t, mailboxRepo.cursorUpdates, 1)
	assert.Equal(t, report.StartedAt, mailboxRepo.cursorUpdates[0])
	assert.ElementsMatch(t, []string{"fold_inbox", "fold_archive"}, folderRepo.statsUpdates)
}

func TestRun_AuthFailureNoRetry(t *testing.T) {
	emailRepo := newFakeEmailRepository()
	mailboxRepo := newFakeMailboxRepository(testMailbox())
	folderRepo := newFakeFolderRepository(testFolders()...)

	queue := &sessionQueue{sessions: []*fakeSession{
		{openErr: errors.New("LOGIN failed: invalid credentials")},
		{openErr: errors.New("LOGIN failed: invalid credentials")},
	}}

	o := newTestOrchestrator(emailRepo, mailboxRepo, folderRepo, queue)
	report := o.Run(context.Background(), testMailbox(), "wrong", testFolders())

	// One attempt per folder, no retries on credential failures
	assert.Equal(t, 2, queue.handed)
	assert.Equal(t, 0, report.TotalSynced)
	assert.Equal(t, 2, report.TotalErrors)
	assert.True(t, report.AuthFailure)
	assert.False(t, report.CursorAdvanced)
	assert.Empty(t, mailboxRepo.cursorUpdates)

	// Deduplicated: one recommendation, not one per folder
	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0], "username and password")
}

func TestRun_CleanEmptyRunAdvancesCursor(t *testing.T) {
	emailRepo := newFakeEmailRepository()
	mailboxRepo := newFakeMailboxRepository(testMailbox())
	folderRepo := newFakeFolderRepository(testFolders()...)

	queue := &sessionQueue{sessions: []*fakeSession{{}, {}}}

	o := newTestOrchestrator(emailRepo, mailboxRepo, folderRepo, queue)
	report := o.Run(context.Background(), testMailbox(), "secret", testFolders())

	assert.Equal(t, 0, report.TotalSynced)
	assert.Equal(t, 0, report.TotalErrors)
	assert.True(t, report.CursorAdvanced)
	require.Len(t, mailboxRepo.cursorUpdates, 1)
}

func TestRun_PartialFailureStillAdvancesCursor(t *testing.T) {
	emailRepo := newFakeEmailRepository()
	mailboxRepo := newFakeMailboxRepository(testMailbox())
	folderRepo := newFakeFolderRepository(testFolders()...)

	// INBOX unreachable on every attempt, Archive delivers one message
	queue := &sessionQueue{sessions: []*fakeSession{
		{openErr: errors.New("dial tcp: connection refused")},
		{openErr: errors.New("dial tcp: connection refused")},
		{openErr: errors.New("dial tcp: connection refused")},
		{uids: []uint32{7}},
	}}

	o := newTestOrchestrator(emailRepo, mailboxRepo, folderRepo, queue)
	report := o.Run(context.Background(), testMailbox(), "secret", testFolders())

	assert.Equal(t, 1, report.TotalSynced)
	assert.Equal(t, 1, report.TotalErrors)
	assert.True(t, report.CursorAdvanced)
	assert.True(t, report.ConnectionIssue)
	require.Len(t, report.Recommendations, 1)
	assert.Contains(t, report.Recommendations[0], "reachable")
}
