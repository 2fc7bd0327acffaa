package interfaces

import (
	"context"
	"time"

	"github.com/mailforge/mailsync/internal/enum"
	"github.com/mailforge/mailsync/internal/models"
)

type MailboxRepository interface {
	GetByID(ctx context.Context, id string) (*models.Mailbox, error)
	List(ctx context.Context) ([]*models.Mailbox, error)
	Save(ctx context.Context, mailbox *models.Mailbox) error
	Delete(ctx context.Context, id string) error
	UpdateSyncStatus(ctx context.Context, id string, status enum.SyncStatus, errorMessage string) error
	UpdateLastSyncedAt(ctx context.Context, id string, lastSyncedAt time.Time) error
}
