package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/interfaces"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/domain/types"
	"github.com/secmon-lab/tonecheck/pkg/utils/errutil"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
)

const ledgerTimeout = 15 * time.Second

// LedgerCache is the durable second cache tier. Store failures never reach
// the caller: a failed lookup is a miss and a failed append is only logged.
type LedgerCache struct {
	repo interfaces.LedgerRepository
	now  func() time.Time
}

// NewLedgerCache wraps repo. A nil repo makes every lookup a miss.
func NewLedgerCache(repo interfaces.LedgerRepository, now func() time.Time) *LedgerCache {
	if now == nil {
		now = time.Now
	}
	return &LedgerCache{repo: repo, now: now}
}

// Lookup returns today's most recent row for ticketID, or nil
func (c *LedgerCache) Lookup(ctx context.Context, ticketID types.TicketID) *model.LedgerRow {
	if c.repo == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, ledgerTimeout)
	defer cancel()

	row, err := c.repo.Lookup(ctx, ticketID, c.now())
	if err != nil {
		logging.From(ctx).Warn("ledger lookup failed, evaluating fresh",
			"error", err, TicketIDKey, ticketID)
		return nil
	}
	return row
}

// Append persists one evaluation
func (c *LedgerCache) Append(ctx context.Context, ticket *model.Ticket, agent model.Agent, responseText string, result *model.EvaluationResult) {
	if c.repo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ledgerTimeout)
	defer cancel()

	row := &model.LedgerRow{
		ID:           model.NewLedgerRowID(),
		Timestamp:    c.now(),
		TicketID:     ticket.ID,
		TicketNumber: ticket.Number,
		Agent:        agent,
		ResponseText: responseText,
		Result:       result,
	}
	if err := c.repo.Append(ctx, row); err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(err, "failed to persist evaluation",
			goerr.V(TicketIDKey, ticket.ID)), "ledger append failed")
		return
	}
	logging.From(ctx).Info("evaluation persisted", TicketIDKey, ticket.ID)
}
