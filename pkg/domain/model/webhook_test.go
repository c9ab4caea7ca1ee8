package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

func TestParseWebhookPayload(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		p, err := model.ParseWebhookPayload([]byte(`{
		  "ticket": {"id": 2391938111, "number": 34, "subject": "Refund request", "status": "active"},
		  "customer": {"id": 1, "email": "c@example.com"},
		  "user": {"id": 5},
		  "mailbox": {"id": 9},
		  "experimental": true
		}`))
		gt.NoError(t, err).Required()
		gt.Value(t, p.Ticket.ID).Equal(types.TicketID(2391938111))
		gt.Value(t, p.Ticket.Number).Equal(int64(34))
		gt.Value(t, p.Ticket.Subject).Equal("Refund request")
		gt.Value(t, p.Customer).NotNil()
		gt.Map(t, p.Extra).HasKey("experimental")
	})

	t.Run("only ticket id", func(t *testing.T) {
		p, err := model.ParseWebhookPayload([]byte(`{"ticket": {"id": 7}}`))
		gt.NoError(t, err).Required()
		gt.Value(t, p.Ticket.ID).Equal(types.TicketID(7))
		gt.Value(t, len(p.Extra)).Equal(0)
	})

	t.Run("wrong informational types are tolerated", func(t *testing.T) {
		p, err := model.ParseWebhookPayload([]byte(`{"ticket": {"id": 7, "number": "x", "subject": 3}}`))
		gt.NoError(t, err).Required()
		gt.Value(t, p.Ticket.Number).Equal(int64(0))
	})

	invalid := map[string]string{
		"not json":        `ticket=1`,
		"array":           `[1, 2]`,
		"null":            `null`,
		"missing ticket":  `{"customer": {}}`,
		"ticket not obj":  `{"ticket": 12}`,
		"missing id":      `{"ticket": {"number": 1}}`,
		"string id":       `{"ticket": {"id": "12"}}`,
		"fractional id":   `{"ticket": {"id": 1.5}}`,
		"zero id":         `{"ticket": {"id": 0}}`,
		"negative id":     `{"ticket": {"id": -3}}`,
		"null ticket":     `{"ticket": null}`,
	}
	for name, body := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := model.ParseWebhookPayload([]byte(body))
			gt.Value(t, err).NotNil()
		})
	}
}
