package transport

import (
	"context"
	"unicode/utf8"
)

// MaxMessageLength is the longest body any messenger will deliver.
// Longer messages are truncated, never rejected.
const MaxMessageLength = 1600

// Messenger delivers a composed alert body to a recipient address
// (an E.164 phone number for SMS backends). It returns a provider
// message ID on acceptance.
type Messenger interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// Truncate enforces MaxMessageLength, keeping a trailing ellipsis so
// the cut is visible to the recipient. The cut lands on a rune
// boundary so an emoji spanning it never yields invalid UTF-8.
func Truncate(body string) string {
	if len(body) <= MaxMessageLength {
		return body
	}
	cut := MaxMessageLength - 3
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}
