package interfaces

import (
	"context"

	"github.com/mailforge/mailsync/internal/models"
)

type EmailRepository interface {
	Create(ctx context.Context, email *models.Email) error
	Exists(ctx context.Context, mailboxID, messageID string) (bool, error)
	GetByMessageID(ctx context.Context, mailboxID, messageID string) (*models.Email, error)
	ListByMailbox(ctx context.Context, mailboxID string, limit, offset int) ([]*models.Email, int64, error)
	ListByFolder(ctx context.Context, mailboxID, folder string, limit, offset int) ([]*models.Email, int64, error)
}
