package usecase_test

import (
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/usecase"
)

func TestBuildContextWindow(t *testing.T) {
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	at := func(m int) time.Time { return base.Add(time.Duration(m) * time.Minute) }

	t.Run("oldest first with labels", func(t *testing.T) {
		ticket := &model.Ticket{Threads: []model.Thread{
			{Type: model.ThreadTypeMessage, Body: "<p>Happy to help.</p>", CreatedAt: at(2)},
			{Type: model.ThreadTypeCustomer, Body: "My export <b>fails</b>.", CreatedAt: at(1)},
			{Type: model.ThreadTypeNote, Body: "Known bug", CreatedAt: at(3)},
		}}

		got := usecase.BuildContextWindow(ticket)
		gt.String(t, got).Equal("CUSTOMER: My export fails.\nAGENT: Happy to help.\nNOTE: Known bug")
	})

	t.Run("keeps the last five", func(t *testing.T) {
		ticket := &model.Ticket{}
		for i := 0; i < 8; i++ {
			ticket.Threads = append(ticket.Threads, model.Thread{
				Type:      model.ThreadTypeCustomer,
				Body:      "message " + string(rune('a'+i)),
				CreatedAt: at(i),
			})
		}

		lines := strings.Split(usecase.BuildContextWindow(ticket), "\n")
		gt.Array(t, lines).Length(5)
		gt.String(t, lines[0]).Equal("CUSTOMER: message d")
		gt.String(t, lines[4]).Equal("CUSTOMER: message h")
	})

	t.Run("near-empty threads dropped", func(t *testing.T) {
		ticket := &model.Ticket{Threads: []model.Thread{
			{Type: model.ThreadTypeCustomer, Body: "<p>ok</p>", CreatedAt: at(1)},
			{Type: model.ThreadTypeCustomer, Body: "<br>", CreatedAt: at(2)},
			{Type: model.ThreadTypeCustomer, Body: "Still broken", CreatedAt: at(3)},
		}}
		gt.String(t, usecase.BuildContextWindow(ticket)).Equal("CUSTOMER: Still broken")
	})

	t.Run("lineitem threads are left out", func(t *testing.T) {
		ticket := &model.Ticket{Threads: []model.Thread{
			{Type: model.ThreadTypeCustomer, Body: "Where is my refund?", CreatedAt: at(1)},
			{Type: model.ThreadTypeLineItem, Body: "Status changed to Pending by Sam Lee", CreatedAt: at(2)},
			{Type: model.ThreadTypeMessage, Body: "It was issued today.", CreatedAt: at(3)},
		}}
		for i := 0; i < 6; i++ {
			ticket.Threads = append(ticket.Threads, model.Thread{
				Type:      model.ThreadTypeLineItem,
				Body:      "Assigned to Billing",
				CreatedAt: at(4 + i),
			})
		}

		got := usecase.BuildContextWindow(ticket)
		gt.String(t, got).Equal("CUSTOMER: Where is my refund?\nAGENT: It was issued today.")
		gt.String(t, got).NotContains("LINEITEM")
	})

	t.Run("no threads", func(t *testing.T) {
		gt.String(t, usecase.BuildContextWindow(&model.Ticket{})).Equal("")
	})
}
