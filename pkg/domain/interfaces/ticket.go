package interfaces

import (
	"context"

	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

// TicketSource fetches conversations from the help desk
type TicketSource interface {
	GetTicket(ctx context.Context, id types.TicketID) (*model.Ticket, error)
	// Configured reports whether credentials are present
	Configured() bool
}
