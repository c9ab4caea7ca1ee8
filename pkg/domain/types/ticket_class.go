package types

// TicketClass is the context classification of a ticket
type TicketClass string

const (
	TicketClassNone          TicketClass = ""
	TicketClassServices      TicketClass = "services"
	TicketClassPresales      TicketClass = "presales"
	TicketClassInvestigating TicketClass = "investigating"
)

// String returns the string representation of TicketClass
func (c TicketClass) String() string {
	if c == TicketClassNone {
		return "none"
	}
	return string(c)
}
