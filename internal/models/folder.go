package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/mailforge/mailsync/internal/utils"
)

// Folder is the per-folder sync bookkeeping record for a mailbox. Path is the
// folder's name on the remote server; MessageCount and LastSyncedAt are
// updated after every sync pass, successful or not.
type Folder struct {
	ID           string     `gorm:"column:id;type:varchar(50);primaryKey" json:"id"`
	MailboxID    string     `gorm:"column:mailbox_id;type:varchar(50);index;not null" json:"mailboxId"`
	Path         string     `gorm:"column:path;type:varchar(255);not null" json:"path"`
	MessageCount int        `gorm:"column:message_count;not null;default:0" json:"messageCount"`
	LastSyncedAt *time.Time `gorm:"column:last_synced_at;type:timestamp" json:"lastSyncedAt"`
	CreatedAt    time.Time  `gorm:"column:created_at;type:timestamp;default:current_timestamp" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;type:timestamp;default:current_timestamp" json:"updatedAt"`
}

func (Folder) TableName() string {
	return "folders"
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = utils.GenerateNanoIDWithPrefix("fold", 16)
	}
	return nil
}
