package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/mailforge/mailsync/interfaces"
	"github.com/mailforge/mailsync/internal/models"
	"github.com/mailforge/mailsync/internal/tracing"
)

type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) interfaces.EmailRepository {
	return &emailRepository{
		db: db,
	}
}

func (r *emailRepository) Create(ctx context.Context, email *models.Email) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	// Check if email already exists before creating
	existing := &models.Email{}
	err := r.db.WithContext(ctx).
		Where("mailbox_id = ? AND message_id = ?", email.MailboxID, email.MessageID).
		First(existing).Error

	if err == nil {
		// Email already exists
		span.SetTag("duplicate", true)
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		tracing.TraceErr(span, err)
		return err
	}

	result := r.db.WithContext(ctx).Create(email)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}

	return nil
}

// Exists reports whether a message with the given Message-ID has already been
// persisted for this mailbox.
func (r *emailRepository) Exists(ctx context.Context, mailboxID, messageID string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.Exists")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Email{}).
		Where("mailbox_id = ? AND message_id = ?", mailboxID, messageID).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return count > 0, nil
}

func (r *emailRepository) GetByMessageID(ctx context.Context, mailboxID, messageID string) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.GetByMessageID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var email models.Email
	if err := r.db.WithContext(ctx).
		Where("mailbox_id = ? AND message_id = ?", mailboxID, messageID).
		First(&email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &email, nil
}

// ListByMailbox retrieves emails for a specific mailbox with pagination
func (r *emailRepository) ListByMailbox(ctx context.Context, mailboxID string, limit, offset int) ([]*models.Email, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.ListByMailbox")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var emails []*models.Email
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.Email{}).
		Where("mailbox_id = ?", mailboxID).
		Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("mailbox_id = ?", mailboxID).
		Order("received_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&emails).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	return emails, count, nil
}

// ListByFolder retrieves emails for a specific mailbox and folder with pagination
func (r *emailRepository) ListByFolder(ctx context.Context, mailboxID, folder string, limit, offset int) ([]*models.Email, int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.ListByFolder")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var emails []*models.Email
	var count int64

	if err := r.db.WithContext(ctx).Model(&models.Email{}).
		Where("mailbox_id = ? AND folder = ?", mailboxID, folder).
		Count(&count).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("mailbox_id = ? AND folder = ?", mailboxID, folder).
		Order("received_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&emails).Error; err != nil {
		tracing.TraceErr(span, err)
		return nil, 0, err
	}

	return emails, count, nil
}
