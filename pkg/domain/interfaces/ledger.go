package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
)

// LedgerRepository is the durable, append-only store of evaluations
type LedgerRepository interface {
	// Lookup returns the most recently appended row of ticketID whose timestamp
	// falls on day's calendar date in day's location. It returns nil, nil when
	// no such row exists.
	Lookup(ctx context.Context, ticketID types.TicketID, day time.Time) (*model.LedgerRow, error)
	Append(ctx context.Context, row *model.LedgerRow) error
	Ping(ctx context.Context) error
	// URL returns a link for humans to view the ledger, or empty
	URL() string
	Close() error
}
