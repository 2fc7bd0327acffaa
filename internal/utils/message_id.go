package utils

import (
	"regexp"
	"strings"
)

// messageIDPattern matches the Message-ID header in a raw header block.
// Header parsing by pattern is fragile by nature; keep all of it behind this
// function so it can be swapped for a structured parser in one place.
var messageIDPattern = regexp.MustCompile(`(?im)^Message-ID:[ \t]*<?([^<>\r\n]+)>?[ \t]*$`)

// ExtractMessageID pulls the Message-ID value out of a raw RFC 5322 header
// block, without angle brackets. Returns an empty string when the header is
// absent or empty.
func ExtractMessageID(rawHeaders string) string {
	// Unfold continuation lines before matching
	unfolded := strings.ReplaceAll(rawHeaders, "\r\n ", " ")
	unfolded = strings.ReplaceAll(unfolded, "\r\n\t", " ")

	match := messageIDPattern.FindStringSubmatch(unfolded)
	if len(match) < 2 {
		return ""
	}

	return strings.TrimSpace(strings.Trim(match[1], "<>"))
}

// TrimMessageID strips angle brackets and whitespace from a Message-ID value.
func TrimMessageID(messageID string) string {
	return strings.TrimSpace(strings.Trim(messageID, "<> \t"))
}
