package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

func TestTicket_LatestAgentResponse(t *testing.T) {
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	ticket := &model.Ticket{
		ID: 1,
		Threads: []model.Thread{
			{ID: 1, Type: model.ThreadTypeCustomer, Body: "help", CreatedAt: base},
			{ID: 2, Type: model.ThreadTypeMessage, Body: "first reply", CreatedAt: base.Add(time.Hour),
				CreatedBy: model.Person{ID: 11, First: "Ana", Last: "Lee"}},
			{ID: 3, Type: model.ThreadTypeNote, Body: "internal", CreatedAt: base.Add(3 * time.Hour)},
			{ID: 4, Type: model.ThreadTypeMessage, Body: "  ", CreatedAt: base.Add(4 * time.Hour)},
			{ID: 5, Type: model.ThreadTypeMessage, Body: "second reply", CreatedAt: base.Add(2 * time.Hour),
				CreatedBy: model.Person{ID: 12, Email: "bo@example.com"}},
		},
	}

	th, ok := ticket.LatestAgentResponse()
	gt.Bool(t, ok).True()
	gt.Value(t, th.ID).Equal(int64(5))

	agent := model.AgentOf(th)
	gt.Value(t, agent.ID).Equal(types.AgentID(12))
	gt.Value(t, agent.Name).Equal("bo@example.com")

	threads := ticket.ChronologicalThreads()
	gt.Value(t, threads[0].ID).Equal(int64(1))
	gt.Value(t, threads[len(threads)-1].ID).Equal(int64(4))

	_, ok = (&model.Ticket{Threads: []model.Thread{{Type: model.ThreadTypeCustomer, Body: "x"}}}).LatestAgentResponse()
	gt.Bool(t, ok).False()
}
