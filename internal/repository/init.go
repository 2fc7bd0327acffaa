package repository

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/mailforge/mailsync/interfaces"
	"github.com/mailforge/mailsync/internal/models"
)

type Repositories struct {
	db *gorm.DB

	EmailRepository   interfaces.EmailRepository
	MailboxRepository interfaces.MailboxRepository
	FolderRepository  interfaces.FolderRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:                db,
		EmailRepository:   NewEmailRepository(db),
		MailboxRepository: NewMailboxRepository(db),
		FolderRepository:  NewFolderRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Mailbox{},
		&models.Folder{},
		&models.Email{},
	)
	if err != nil {
		return errors.Wrap(err, "database migration failed")
	}
	return nil
}
