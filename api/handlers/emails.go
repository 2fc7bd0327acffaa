package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mailforge/mailsync/interfaces"
	"github.com/mailforge/mailsync/internal/tracing"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type EmailsHandler struct {
	emailRepository interfaces.EmailRepository
}

func NewEmailsHandler(emailRepository interfaces.EmailRepository) *EmailsHandler {
	return &EmailsHandler{emailRepository: emailRepository}
}

// List returns synced emails for a mailbox, newest first, optionally filtered
// by folder
func (h *EmailsHandler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "ListEmails", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)

		mailboxID := c.Param("id")
		tracing.TagMailbox(span, mailboxID)

		limit, offset := pagination(c)
		folder := c.Query("folder")

		var err error
		var emails interface{}
		var total int64

		if folder != "" {
			tracing.TagFolder(span, folder)
			emails, total, err = h.emailRepository.ListByFolder(ctx, mailboxID, folder, limit, offset)
		} else {
			emails, total, err = h.emailRepository.ListByMailbox(ctx, mailboxID, limit, offset)
		}
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"emails": emails,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}
