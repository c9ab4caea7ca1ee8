package model

import (
	"bytes"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

// WebhookTicket is the ticket object of a Help Scout dynamic app request.
// Only ID is required; the rest is informational.
type WebhookTicket struct {
	ID      types.TicketID
	Number  int64
	Subject string
	Raw     json.RawMessage
}

// WebhookPayload is the validated body of a Help Scout dynamic app request
type WebhookPayload struct {
	Ticket   WebhookTicket
	Customer json.RawMessage
	User     json.RawMessage
	Mailbox  json.RawMessage
	// Extra holds unknown top-level fields. They are accepted and ignored.
	Extra map[string]json.RawMessage
}

// ParseWebhookPayload validates body at the boundary. A JSON object with a
// "ticket" object carrying a positive integer "id" is required.
func ParseWebhookPayload(body []byte) (*WebhookPayload, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, goerr.Wrap(err, "payload must be a JSON object")
	}
	if top == nil {
		return nil, goerr.New("payload must be a JSON object")
	}

	rawTicket, ok := top["ticket"]
	if !ok {
		return nil, goerr.New("ticket is required")
	}

	var ticket map[string]json.RawMessage
	if err := json.Unmarshal(rawTicket, &ticket); err != nil || ticket == nil {
		return nil, goerr.New("ticket must be an object")
	}

	rawID, ok := ticket["id"]
	if !ok {
		return nil, goerr.New("ticket.id is required")
	}
	id, err := parseTicketID(rawID)
	if err != nil {
		return nil, err
	}

	payload := &WebhookPayload{
		Ticket: WebhookTicket{
			ID:  id,
			Raw: rawTicket,
		},
		Customer: top["customer"],
		User:     top["user"],
		Mailbox:  top["mailbox"],
		Extra:    map[string]json.RawMessage{},
	}

	// Informational fields never fail validation
	if v, ok := ticket["number"]; ok {
		var n json.Number
		if json.Unmarshal(v, &n) == nil {
			payload.Ticket.Number, _ = n.Int64()
		}
	}
	if v, ok := ticket["subject"]; ok {
		_ = json.Unmarshal(v, &payload.Ticket.Subject)
	}

	for k, v := range top {
		switch k {
		case "ticket", "customer", "user", "mailbox":
		default:
			payload.Extra[k] = v
		}
	}

	return payload, nil
}

func parseTicketID(raw json.RawMessage) (types.TicketID, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, goerr.Wrap(err, "ticket.id is not valid JSON")
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, goerr.New("ticket.id must be a number", goerr.V("id", string(raw)))
	}
	i, err := n.Int64()
	if err != nil {
		return 0, goerr.Wrap(err, "ticket.id must be an integer", goerr.V("id", n.String()))
	}
	id := types.TicketID(i)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}
