package types

import (
	"strconv"

	"github.com/m-mizutani/goerr/v2"
)

// TicketID is the Help Scout conversation id
type TicketID int64

// Validate checks if the TicketID is a positive integer
func (t TicketID) Validate() error {
	if t <= 0 {
		return goerr.New("ticket ID must be a positive integer", goerr.V("id", int64(t)))
	}
	return nil
}

// String returns the decimal representation of TicketID
func (t TicketID) String() string {
	return strconv.FormatInt(int64(t), 10)
}

// ParseTicketID parses a decimal string into a TicketID
func ParseTicketID(s string) (TicketID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, goerr.Wrap(err, "invalid ticket ID", goerr.V("id", s))
	}
	id := TicketID(v)
	if err := id.Validate(); err != nil {
		return 0, err
	}
	return id, nil
}

// AgentID is the Help Scout user id of the agent who wrote a reply
type AgentID int64

// String returns the decimal representation of AgentID
func (a AgentID) String() string {
	if a == 0 {
		return ""
	}
	return strconv.FormatInt(int64(a), 10)
}
