package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/vovakirdan/marketchat-sdk-go/marketchat"
)

// formatMessage renders one message line plus an indented line per attachment.
func formatMessage(m marketchat.Message, now time.Time) string {
	var b strings.Builder
	status := " "
	if m.Read {
		status = "✓"
	}
	fmt.Fprintf(&b, "%s [%s] %s -> %s: %s", status, humanize.RelTime(m.CreatedAt, now, "ago", "from now"), m.SenderID, m.RecipientID, m.Content)
	for _, a := range m.Attachments {
		name := a.Name
		if name == "" {
			name = a.URL
		}
		var size uint64
		if a.Size > 0 {
			size = uint64(a.Size)
		}
		fmt.Fprintf(&b, "\n    📎 %s (%s, %s)", name, a.Kind, humanize.Bytes(size))
	}
	return b.String()
}
