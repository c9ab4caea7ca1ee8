package helpscout

import (
	"time"

	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

type apiPerson struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	First string `json:"first"`
	Last  string `json:"last"`
	Email string `json:"email"`
}

type apiThread struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy apiPerson `json:"createdBy"`
}

type apiTag struct {
	ID  int64  `json:"id"`
	Tag string `json:"tag"`
}

type apiConversation struct {
	ID       int64    `json:"id"`
	Number   int64    `json:"number"`
	Subject  string   `json:"subject"`
	Tags     []apiTag `json:"tags"`
	Embedded struct {
		Threads []apiThread `json:"threads"`
	} `json:"_embedded"`
}

func (c *apiConversation) toModel() *model.Ticket {
	ticket := &model.Ticket{
		ID:      types.TicketID(c.ID),
		Number:  c.Number,
		Subject: c.Subject,
		Tags:    make([]string, 0, len(c.Tags)),
		Threads: make([]model.Thread, 0, len(c.Embedded.Threads)),
	}
	for _, tag := range c.Tags {
		ticket.Tags = append(ticket.Tags, tag.Tag)
	}
	for _, th := range c.Embedded.Threads {
		ticket.Threads = append(ticket.Threads, model.Thread{
			ID:        th.ID,
			Type:      model.ThreadType(th.Type),
			Body:      th.Body,
			CreatedAt: th.CreatedAt,
			CreatedBy: model.Person{
				ID:    th.CreatedBy.ID,
				Type:  th.CreatedBy.Type,
				First: th.CreatedBy.First,
				Last:  th.CreatedBy.Last,
				Email: th.CreatedBy.Email,
			},
		})
	}
	return ticket
}
