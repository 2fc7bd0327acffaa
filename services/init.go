package services

import (
	"github.com/mailforge/mailsync/config"
	"github.com/mailforge/mailsync/interfaces"
	"github.com/mailforge/mailsync/internal/credentials"
	"github.com/mailforge/mailsync/internal/repository"
	"github.com/mailforge/mailsync/services/sync"
)

type Services struct {
	CredentialResolver interfaces.CredentialResolver
	SyncService        *sync.Service
}

func InitServices(cfg *config.Config, repos *repository.Repositories) (*Services, error) {
	resolver, err := credentials.NewAESResolver(cfg.AppConfig.EncryptionSecret)
	if err != nil {
		return nil, err
	}

	services := Services{
		CredentialResolver: resolver,
		SyncService: sync.NewService(
			repos.EmailRepository,
			repos.MailboxRepository,
			repos.FolderRepository,
			resolver,
		),
	}

	return &services, nil
}
