package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/mailforge/mailsync/internal/utils"
)

// Email is a normalized inbound message. Persisted once per
// (mailbox, message_id) pair and never updated afterwards.
type Email struct {
	ID        string `gorm:"column:id;type:varchar(50);primaryKey"`
	MailboxID string `gorm:"column:mailbox_id;type:varchar(50);index:idx_emails_mailbox_message,unique;not null"`
	Folder    string `gorm:"column:folder;type:varchar(255);index;not null"`
	MessageID string `gorm:"column:message_id;type:varchar(255);index:idx_emails_mailbox_message,unique;not null"`

	// Core email metadata
	Subject      string         `gorm:"column:subject;type:varchar(1000)"`
	FromAddress  string         `gorm:"column:from_address;type:varchar(255);index"`
	FromName     string         `gorm:"column:from_name;type:varchar(255)"`
	ToAddresses  pq.StringArray `gorm:"column:to_addresses;type:text[]"`
	CcAddresses  pq.StringArray `gorm:"column:cc_addresses;type:text[]"`
	BccAddresses pq.StringArray `gorm:"column:bcc_addresses;type:text[]"`

	// Time information
	SentAt     *time.Time `gorm:"column:sent_at;type:timestamp;index"`
	ReceivedAt *time.Time `gorm:"column:received_at;type:timestamp;index"`

	// Content
	BodyText string `gorm:"column:body_text;type:text"`
	BodyHTML string `gorm:"column:body_html;type:text"`

	// Standard timestamps
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Email) TableName() string {
	return "emails"
}

func (e *Email) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = utils.GenerateNanoIDWithPrefix("email", 24)
	}
	e.CreatedAt = utils.Now()
	return nil
}
