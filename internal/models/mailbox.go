package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/mailforge/mailsync/internal/enum"
	"github.com/mailforge/mailsync/internal/utils"
)

type Mailbox struct {
	ID string `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	// IMAP Configuration
	ImapServer   string             `gorm:"column:imap_server;type:varchar(255);not null" json:"imapServer"`
	ImapPort     int                `gorm:"column:imap_port;not null" json:"imapPort"`
	ImapUsername string             `gorm:"column:imap_username;type:varchar(255);not null" json:"imapUsername"`
	ImapPassword string             `gorm:"column:imap_password;type:text;not null" json:"-"`
	ImapSecurity enum.EmailSecurity `gorm:"column:imap_security;type:varchar(50);not null;default:'tls'" json:"imapSecurity"`
	// Other Configuration
	SyncFolders  pq.StringArray `gorm:"column:sync_folders;type:text[];not null" json:"syncFolders"`
	DisplayName  string         `gorm:"column:display_name;type:varchar(255)" json:"displayName"`
	EmailAddress string         `gorm:"column:email_address;type:varchar(255);index" json:"emailAddress"`
	// Sync bookkeeping
	LastSyncedAt *time.Time      `gorm:"column:last_synced_at;type:timestamp" json:"lastSyncedAt"`
	SyncStatus   enum.SyncStatus `gorm:"column:sync_status;type:varchar(50)" json:"syncStatus"`
	ErrorMessage string          `gorm:"column:error_message;type:text" json:"errorMessage"`
	// Standard timestamps
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"-"`
}

func (Mailbox) TableName() string {
	return "mailboxes"
}

func (m *Mailbox) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("mbox", 16)
	}
	return nil
}
