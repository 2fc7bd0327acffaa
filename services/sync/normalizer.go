package sync

import (
	"bytes"
	"net/mail"
	"strings"

	"github.com/customeros/mailsherpa/mailvalidate"
	"github.com/jhillyerd/enmime"
	"github.com/lib/pq"

	"github.com/mailforge/mailsync/internal/enum"
	mailsync_errors "github.com/mailforge/mailsync/internal/errors"
	"github.com/mailforge/mailsync/internal/models"
	"github.com/mailforge/mailsync/internal/utils"
)

const missingSubjectPlaceholder = "(no subject)"

// Normalize parses one raw message into a persistable Email. fallbackID is
// the Message-ID extracted from the earlier header-only fetch; it is used
// when the parsed headers carry no usable identifier. A message with no
// identifier from either source returns ErrMissingMessageID so the caller
// can skip it with a warning instead of counting a failure.
//
// Pure parsing, no I/O. A message that cannot be parsed at all yields a
// parse-classified error for that single message only.
func Normalize(raw []byte, fallbackID string) (*models.Email, error) {
	envelope, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, newClassified(enum.ErrorKindParse, err)
	}

	messageID := utils.TrimMessageID(envelope.GetHeader("Message-Id"))
	if messageID == "" {
		messageID = utils.TrimMessageID(fallbackID)
	}
	if messageID == "" {
		return nil, mailsync_errors.ErrMissingMessageID
	}

	email := &models.Email{
		MessageID:    messageID,
		Subject:      envelope.GetHeader("Subject"),
		BodyText:     envelope.Text,
		BodyHTML:     envelope.HTML,
		ToAddresses:  normalizeAddressList(envelope, "To"),
		CcAddresses:  normalizeAddressList(envelope, "Cc"),
		BccAddresses: normalizeAddressList(envelope, "Bcc"),
		ReceivedAt:   utils.NowPtr(),
	}

	if email.Subject == "" {
		email.Subject = missingSubjectPlaceholder
	}

	if from, err := envelope.AddressList("From"); err == nil && len(from) > 0 {
		sender := from[0]
		email.FromName = sender.Name
		syntaxValidation := mailvalidate.ValidateEmailSyntax(sender.Address)
		if syntaxValidation.IsValid {
			email.FromAddress = syntaxValidation.CleanEmail
		} else {
			email.FromAddress = sender.Address
		}
	}

	if date := envelope.GetHeader("Date"); date != "" {
		if sentAt, err := mail.ParseDate(date); err == nil {
			sent := sentAt.UTC()
			email.SentAt = &sent
		}
	}

	return email, nil
}

// normalizeAddressList flattens an address header into an ordered list of
// address strings. Handles both the multi-address case and the bare
// single-address case; a header the parser rejects entirely degrades to the
// raw value rather than failing the message.
func normalizeAddressList(envelope *enmime.Envelope, key string) pq.StringArray {
	value := envelope.GetHeader(key)
	if strings.TrimSpace(value) == "" {
		return pq.StringArray{}
	}

	addresses, err := envelope.AddressList(key)
	if err != nil {
		// Unparseable header: keep the raw value as a single entry so the
		// recipient information is never silently lost
		return pq.StringArray{strings.TrimSpace(value)}
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if addr.Address == "" {
			continue
		}
		validation := mailvalidate.ValidateEmailSyntax(addr.Address)
		if validation.IsValid {
			result = append(result, validation.CleanEmail)
		} else {
			result = append(result, addr.Address)
		}
	}

	return pq.StringArray(result)
}
