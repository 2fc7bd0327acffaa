package interfaces

import (
	"context"
	"time"

	"github.com/mailforge/mailsync/internal/models"
)

type FolderRepository interface {
	GetByMailbox(ctx context.Context, mailboxID string) ([]*models.Folder, error)
	Save(ctx context.Context, folder *models.Folder) error
	UpdateSyncStats(ctx context.Context, folderID string, messageCount int, syncedAt time.Time) error
	DeleteByMailbox(ctx context.Context, mailboxID string) error
}
