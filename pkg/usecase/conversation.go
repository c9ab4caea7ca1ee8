package usecase

import (
	"strings"
	"unicode/utf8"

	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/utils/htmltext"
)

const (
	contextWindowSize = 5
	minContextLineLen = 3
)

func senderLabel(th model.Thread) string {
	switch th.Type {
	case model.ThreadTypeMessage:
		return "AGENT"
	case model.ThreadTypeCustomer:
		return "CUSTOMER"
	case model.ThreadTypeNote:
		return "NOTE"
	default:
		return strings.ToUpper(string(th.Type))
	}
}

// buildContextWindow renders the last threads of ticket, oldest first, as
// "SENDER: text" lines. Threads with next to no text are left out, and
// lineitem threads (status and assignment events) never take a slot.
func buildContextWindow(ticket *model.Ticket) string {
	var threads []model.Thread
	for _, th := range ticket.ChronologicalThreads() {
		if th.Type != model.ThreadTypeLineItem {
			threads = append(threads, th)
		}
	}
	if len(threads) > contextWindowSize {
		threads = threads[len(threads)-contextWindowSize:]
	}

	lines := make([]string, 0, len(threads))
	for _, th := range threads {
		text := strings.Join(strings.Fields(htmltext.ToText(th.Body)), " ")
		if utf8.RuneCountInString(text) < minContextLineLen {
			continue
		}
		lines = append(lines, senderLabel(th)+": "+text)
	}
	return strings.Join(lines, "\n")
}
