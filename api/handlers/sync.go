package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
	"github.com/mailforge/mailsync/internal/tracing"
	"github.com/mailforge/mailsync/services/sync"
)

type SyncHandler struct {
	syncService *sync.Service
}

func NewSyncHandler(syncService *sync.Service) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// Trigger runs a synchronous sync of one mailbox and returns its diagnostic
// report. A run that synced nothing is still a 200; the report says why.
func (h *SyncHandler) Trigger() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "TriggerSync", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		mailboxID := c.Param("id")
		tracing.TagMailbox(span, mailboxID)

		report, err := h.syncService.SyncMailbox(ctx, mailboxID)
		if err != nil {
			switch {
			case errors.Is(err, mailsync_errors.ErrMailboxNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "mailbox not found"})
			case errors.Is(err, sync.ErrSyncInProgress):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			case errors.Is(err, mailsync_errors.ErrNoSyncFolders):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "mailbox has no folders configured for sync"})
			default:
				tracing.TraceErr(span, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, report)
	}
}
