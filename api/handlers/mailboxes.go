package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/mailforge/mailsync/interfaces"
	"github.com/mailforge/mailsync/internal/enum"
	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
	"github.com/mailforge/mailsync/internal/models"
	"github.com/mailforge/mailsync/internal/tracing"
	"github.com/mailforge/mailsync/internal/utils"
)

type MailboxesHandler struct {
	mailboxRepository interfaces.MailboxRepository
	folderRepository  interfaces.FolderRepository
	resolver          interfaces.CredentialResolver
}

func NewMailboxesHandler(
	mailboxRepository interfaces.MailboxRepository,
	folderRepository interfaces.FolderRepository,
	resolver interfaces.CredentialResolver,
) *MailboxesHandler {
	return &MailboxesHandler{
		mailboxRepository: mailboxRepository,
		folderRepository:  folderRepository,
		resolver:          resolver,
	}
}

func validSecurity(security enum.EmailSecurity) bool {
	return utils.IsStringInSlice(security.String(), []string{
		enum.EmailSecurityNone.String(),
		enum.EmailSecuritySSL.String(),
		enum.EmailSecurityTLS.String(),
		enum.EmailSecurityStartTLS.String(),
	})
}

// MailboxRequest is the write payload for mailbox configuration. The password
// arrives in plaintext over the authenticated API and is encrypted before it
// touches the database.
type MailboxRequest struct {
	ImapServer   string             `json:"imapServer" binding:"required"`
	ImapPort     int                `json:"imapPort" binding:"required"`
	ImapUsername string             `json:"imapUsername" binding:"required"`
	ImapPassword string             `json:"imapPassword"`
	ImapSecurity enum.EmailSecurity `json:"imapSecurity"`
	SyncFolders  []string           `json:"syncFolders" binding:"required"`
	DisplayName  string             `json:"displayName"`
	EmailAddress string             `json:"emailAddress"`
}

// Create registers a new mailbox configuration
func (h *MailboxesHandler) Create() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "CreateMailbox", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		var request MailboxRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if request.ImapPassword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "imapPassword is required"})
			return
		}
		if request.ImapSecurity != "" && !validSecurity(request.ImapSecurity) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "imapSecurity must be one of none, ssl, tls, startTLS"})
			return
		}

		encrypted, err := h.resolver.Encrypt(request.ImapPassword)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store credentials"})
			return
		}

		mailbox := &models.Mailbox{
			ImapServer:   request.ImapServer,
			ImapPort:     request.ImapPort,
			ImapUsername: request.ImapUsername,
			ImapPassword: encrypted,
			ImapSecurity: request.ImapSecurity,
			SyncFolders:  request.SyncFolders,
			DisplayName:  request.DisplayName,
			EmailAddress: request.EmailAddress,
			SyncStatus:   enum.SyncStatusIdle,
		}
		if mailbox.ImapSecurity == "" {
			mailbox.ImapSecurity = enum.EmailSecurityTLS
		}

		if err := h.mailboxRepository.Save(ctx, mailbox); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		tracing.TagMailbox(span, mailbox.ID)
		c.JSON(http.StatusCreated, mailbox)
	}
}

// List returns all configured mailboxes
func (h *MailboxesHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListMailboxes", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		mailboxes, err := h.mailboxRepository.List(ctx)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"mailboxes": mailboxes})
	}
}

// Get returns one mailbox configuration
func (h *MailboxesHandler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "GetMailbox", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		id := c.Param("id")
		tracing.TagMailbox(span, id)

		mailbox, err := h.mailboxRepository.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, mailsync_errors.ErrMailboxNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "mailbox not found"})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, mailbox)
	}
}

// Update overwrites a mailbox configuration. An empty password keeps the
// stored credential.
func (h *MailboxesHandler) Update() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "UpdateMailbox", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		id := c.Param("id")
		tracing.TagMailbox(span, id)

		mailbox, err := h.mailboxRepository.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, mailsync_errors.ErrMailboxNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "mailbox not found"})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		var request MailboxRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		mailbox.ImapServer = request.ImapServer
		mailbox.ImapPort = request.ImapPort
		mailbox.ImapUsername = request.ImapUsername
		mailbox.SyncFolders = request.SyncFolders
		mailbox.DisplayName = request.DisplayName
		mailbox.EmailAddress = request.EmailAddress
		if request.ImapSecurity != "" {
			if !validSecurity(request.ImapSecurity) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "imapSecurity must be one of none, ssl, tls, startTLS"})
				return
			}
			mailbox.ImapSecurity = request.ImapSecurity
		}
		if request.ImapPassword != "" {
			encrypted, err := h.resolver.Encrypt(request.ImapPassword)
			if err != nil {
				tracing.TraceErr(span, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store credentials"})
				return
			}
			mailbox.ImapPassword = encrypted
		}

		if err := h.mailboxRepository.Save(ctx, mailbox); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, mailbox)
	}
}

// Delete removes a mailbox configuration and its folder bookkeeping
func (h *MailboxesHandler) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "DeleteMailbox", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		id := c.Param("id")
		tracing.TagMailbox(span, id)

		if _, err := h.mailboxRepository.GetByID(ctx, id); err != nil {
			if errors.Is(err, mailsync_errors.ErrMailboxNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "mailbox not found"})
				return
			}
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		if err := h.folderRepository.DeleteByMailbox(ctx, id); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := h.mailboxRepository.Delete(ctx, id); err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "mailbox removed", "id": id})
	}
}

// ListFolders returns the per-folder sync bookkeeping for a mailbox
func (h *MailboxesHandler) ListFolders() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListMailboxFolders", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		id := c.Param("id")
		tracing.TagMailbox(span, id)

		folders, err := h.folderRepository.GetByMailbox(ctx, id)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"folders": folders})
	}
}
