package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/mailforge/mailsync/interfaces"
	"github.com/mailforge/mailsync/internal/enum"
	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
	"github.com/mailforge/mailsync/internal/models"
	"github.com/mailforge/mailsync/internal/tracing"
	"github.com/mailforge/mailsync/internal/utils"
)

type mailboxRepository struct {
	db *gorm.DB
}

func NewMailboxRepository(db *gorm.DB) interfaces.MailboxRepository {
	return &mailboxRepository{db: db}
}

func (r *mailboxRepository) GetByID(ctx context.Context, id string) (*models.Mailbox, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagMailbox(span, id)

	var mailbox models.Mailbox
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&mailbox).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, mailsync_errors.ErrMailboxNotFound
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &mailbox, nil
}

func (r *mailboxRepository) List(ctx context.Context) ([]*models.Mailbox, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxRepository.List")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var mailboxes []*models.Mailbox
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&mailboxes).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}
	return mailboxes, nil
}

func (r *mailboxRepository) Save(ctx context.Context, mailbox *models.Mailbox) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagMailbox(span, mailbox.ID)

	if err := r.db.WithContext(ctx).Save(mailbox).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to save mailbox: %w", err)
	}
	return nil
}

func (r *mailboxRepository) Delete(ctx context.Context, id string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxRepository.Delete")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagMailbox(span, id)

	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Mailbox{}).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to delete mailbox: %w", err)
	}
	return nil
}

// UpdateSyncStatus records the outcome of the most recent sync run, including
// a user-facing error message when the run failed.
func (r *mailboxRepository) UpdateSyncStatus(ctx context.Context, id string, status enum.SyncStatus, errorMessage string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxRepository.UpdateSyncStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagMailbox(span, id)
	span.SetTag("status", status.String())

	result := r.db.WithContext(ctx).Model(&models.Mailbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"sync_status":   status,
			"error_message": errorMessage,
			"updated_at":    utils.Now(),
		})

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to update sync status: %w", result.Error)
	}
	return nil
}

// UpdateLastSyncedAt advances the mailbox-level sync cursor. Written once per
// run, only when the run's outcome allows the cursor to move.
func (r *mailboxRepository) UpdateLastSyncedAt(ctx context.Context, id string, lastSyncedAt time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mailboxRepository.UpdateLastSyncedAt")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagMailbox(span, id)

	result := r.db.WithContext(ctx).Model(&models.Mailbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_synced_at": lastSyncedAt,
			"updated_at":     utils.Now(),
		})

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to update last synced at: %w", result.Error)
	}
	return nil
}
