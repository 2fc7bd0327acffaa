package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/mailforge/mailsync/interfaces"
	"github.com/mailforge/mailsync/internal/models"
	"github.com/mailforge/mailsync/internal/tracing"
	"github.com/mailforge/mailsync/internal/utils"
)

type folderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) interfaces.FolderRepository {
	return &folderRepository{db: db}
}

// GetByMailbox returns the mailbox folders in configuration order, which is
// also the order they are synced in.
func (r *folderRepository) GetByMailbox(ctx context.Context, mailboxID string) ([]*models.Folder, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.GetByMailbox")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagMailbox(span, mailboxID)

	var folders []*models.Folder
	if err := r.db.WithContext(ctx).
		Where("mailbox_id = ?", mailboxID).
		Order("created_at ASC").
		Find(&folders).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, fmt.Errorf("failed to get folders: %w", err)
	}
	return folders, nil
}

func (r *folderRepository) Save(ctx context.Context, folder *models.Folder) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.Save")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagMailbox(span, folder.MailboxID)
	tracing.TagFolder(span, folder.Path)

	if err := r.db.WithContext(ctx).Save(folder).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to save folder: %w", err)
	}
	return nil
}

// UpdateSyncStats writes the message count and sync timestamp after a folder
// pass, regardless of that pass's outcome.
func (r *folderRepository) UpdateSyncStats(ctx context.Context, folderID string, messageCount int, syncedAt time.Time) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.UpdateSyncStats")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	result := r.db.WithContext(ctx).Model(&models.Folder{}).
		Where("id = ?", folderID).
		Updates(map[string]interface{}{
			"message_count":  messageCount,
			"last_synced_at": syncedAt,
			"updated_at":     utils.Now(),
		})

	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return fmt.Errorf("failed to update folder sync stats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *folderRepository) DeleteByMailbox(ctx context.Context, mailboxID string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "folderRepository.DeleteByMailbox")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	tracing.TagMailbox(span, mailboxID)

	if err := r.db.WithContext(ctx).
		Where("mailbox_id = ?", mailboxID).
		Delete(&models.Folder{}).Error; err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("failed to delete folders: %w", err)
	}
	return nil
}
