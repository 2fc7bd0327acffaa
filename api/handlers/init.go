package handlers

import (
	"github.com/mailforge/mailsync/internal/repository"
	"github.com/mailforge/mailsync/services"
)

type APIHandlers struct {
	Mailboxes *MailboxesHandler
	Emails    *EmailsHandler
	Sync      *SyncHandler
}

func InitHandlers(repos *repository.Repositories, svcs *services.Services) *APIHandlers {
	return &APIHandlers{
		Mailboxes: NewMailboxesHandler(repos.MailboxRepository, repos.FolderRepository, svcs.CredentialResolver),
		Emails:    NewEmailsHandler(repos.EmailRepository),
		Sync:      NewSyncHandler(svcs.SyncService),
	}
}
